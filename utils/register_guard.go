package utils

import (
	"context"
	"sync"
	"time"
)

var (
	cooldowns   = map[string]time.Time{}
	cooldownsMu sync.Mutex
)

// RegistrationCooldownTry enforces a short cooldown between registration attempts per IP.
// It returns false while the IP is still cooling down.
func RegistrationCooldownTry(ip string, cooldown time.Duration) bool {
	if cooldown <= 0 || ip == "" {
		return true
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		ok, err := rc.SetNX(ctx, "reg:cooldown:"+ip, "1", cooldown).Result()
		if err == nil {
			return ok
		}
		// fall through to memory on redis errors
	}

	now := time.Now()
	cooldownsMu.Lock()
	defer cooldownsMu.Unlock()
	for k, until := range cooldowns {
		if now.After(until) {
			delete(cooldowns, k)
		}
	}
	if until, ok := cooldowns[ip]; ok && now.Before(until) {
		return false
	}
	cooldowns[ip] = now.Add(cooldown)
	return true
}
