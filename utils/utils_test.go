package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Unsetenv("REDIS_HOST")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestTokenRoundTrip(t *testing.T) {
	token, exp, err := GenerateToken(7, "acme", true, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %v", exp)
	}
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "acme" || !claims.IsCompany {
		t.Fatalf("unexpected claims %+v", claims)
	}

	expired, _, _ := GenerateToken(7, "acme", false, -time.Minute)
	if _, err := ParseToken(expired); err == nil {
		t.Fatal("expected expired token to fail")
	}
	if _, err := ParseToken(token + "x"); err == nil {
		t.Fatal("expected tampered token to fail")
	}
}

func TestBlacklistInMemory(t *testing.T) {
	token, exp, _ := GenerateToken(1, "u", false, time.Hour)
	if IsTokenBlacklisted(token) {
		t.Fatal("fresh token must not be revoked")
	}
	BlacklistToken(token, exp)
	if !IsTokenBlacklisted(token) {
		t.Fatal("expected token revoked")
	}

	BlacklistToken("already-expired", time.Now().Add(-time.Second))
	if IsTokenBlacklisted("already-expired") {
		t.Fatal("expired tokens need no entry")
	}
}

func TestBlacklistSweepsExpiredEntries(t *testing.T) {
	blacklistMu.Lock()
	blacklist["stale-token"] = time.Now().Add(-time.Minute)
	blacklistMu.Unlock()

	BlacklistToken("fresh-token", time.Now().Add(time.Hour))

	blacklistMu.RLock()
	_, stale := blacklist["stale-token"]
	_, fresh := blacklist["fresh-token"]
	blacklistMu.RUnlock()
	if stale {
		t.Fatal("expected expired entry swept on insert")
	}
	if !fresh {
		t.Fatal("expected new entry stored")
	}
}

func TestRegistrationCooldown(t *testing.T) {
	ip := "198.51.100.7"
	if !RegistrationCooldownTry(ip, time.Minute) {
		t.Fatal("first attempt must pass")
	}
	if RegistrationCooldownTry(ip, time.Minute) {
		t.Fatal("second attempt must be throttled")
	}
	if !RegistrationCooldownTry("198.51.100.8", time.Minute) {
		t.Fatal("other IPs are independent")
	}
	if !RegistrationCooldownTry(ip, 0) {
		t.Fatal("zero cooldown disables the check")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "pw") || CheckPassword(hash, "PW") || CheckPassword("", "pw") {
		t.Fatal("unexpected password check result")
	}
}

func TestSanitize(t *testing.T) {
	if got := SanitizeText("  <b>R&D</b> team "); got != "R&D team" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeText("Senior\n  Go   engineer"); got != "Senior Go engineer" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeBody(`<p onclick="x()">hi</p><script>alert(1)</script>`); got != "hi" {
		t.Fatalf("unexpected %q", got)
	}
	body := "R&D team, we're hiring.\nSalary < 5k"
	if got := SanitizeBody("  " + body + " "); got != body {
		t.Fatalf("expected plain text %q, got %q", body, got)
	}
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ErrorWithDetail(ctx, http.StatusConflict, 40900, "nope", ErrorDetail{Redirect: "/x"})

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var body struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Code != 40900 || body.Message != "nope" || body.Data["redirect"] != "/x" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestListNeverSendsNull(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	var none []string
	List(ctx, none)
	if got := rec.Body.String(); got != `{"code":0,"message":"success","data":{"items":[]}}` {
		t.Fatalf("unexpected body %s", got)
	}

	rec = httptest.NewRecorder()
	ctx, _ = gin.CreateTestContext(rec)
	SearchResult(ctx, "go", []int{1})
	if got := rec.Body.String(); got != `{"code":0,"message":"success","data":{"query":"go","items":[1]}}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestRedisDisabledWithoutHost(t *testing.T) {
	if got := RedisStatus(context.Background()); got != RedisDisabled {
		t.Fatalf("expected %q, got %q", RedisDisabled, got)
	}
	CloseRedis()
	if GetRedis() != nil {
		t.Fatal("expected no client")
	}
}

func TestGinzapAndRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gin.log")
	logger, err := NewRollingFileLogger(path, "info", 1, 1, 1, false)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	r := gin.New()
	r.Use(Ginzap(logger, time.RFC3339, true), RecoveryWithZap(logger, true))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	_ = logger.Sync()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "Recovery from panic") || !strings.Contains(string(b), `"path":"/boom"`) {
		t.Fatalf("unexpected log output %s", b)
	}
}
