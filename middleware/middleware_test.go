package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/jobboard/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "%d:%v", ctx.GetUint(ContextUserIDKey), ctx.GetBool(ContextIsCompanyKey))
	})
	r.GET("/", handlers...)
	return r
}

func get(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	r := newEngine(AuthRequired())
	token, _, err := utils.GenerateToken(5, "acme", true, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	rec := get(r, "Bearer "+token)
	if rec.Code != http.StatusOK || rec.Body.String() != "5:true" {
		t.Fatalf("expected identity in context, got %d %q", rec.Code, rec.Body.String())
	}
	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer garbage"} {
		if rec := get(r, header); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestRoleGates(t *testing.T) {
	company, _, _ := utils.GenerateToken(1, "acme", true, time.Hour)
	student, _, _ := utils.GenerateToken(2, "alice", false, time.Hour)

	companyOnly := newEngine(AuthRequired(), CompanyOnly())
	studentOnly := newEngine(AuthRequired(), StudentOnly())

	if rec := get(companyOnly, "Bearer "+company); rec.Code != http.StatusOK {
		t.Fatalf("company should pass, got %d", rec.Code)
	}
	if rec := get(companyOnly, "Bearer "+student); rec.Code != http.StatusForbidden {
		t.Fatalf("student should be refused, got %d", rec.Code)
	}
	if rec := get(studentOnly, "Bearer "+student); rec.Code != http.StatusOK {
		t.Fatalf("student should pass, got %d", rec.Code)
	}
	if rec := get(studentOnly, "Bearer "+company); rec.Code != http.StatusForbidden {
		t.Fatalf("company should be refused, got %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(4)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	// burst is half the per-minute budget
	if !l.allow("ip:a") || !l.allow("ip:a") {
		t.Fatal("burst should allow two requests")
	}
	if l.allow("ip:a") {
		t.Fatal("third request should be limited")
	}
	if !l.allow("ip:b") {
		t.Fatal("callers have separate buckets")
	}
	now = now.Add(15 * time.Second)
	if !l.allow("ip:a") {
		t.Fatal("bucket should refill")
	}

	now = now.Add(limiterIdleTTL + time.Second)
	l.allow("ip:c")
	if _, ok := l.visitors["ip:b"]; ok {
		t.Fatal("idle visitors should be evicted")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	r := newEngine(NewRateLimiter(2).Middleware())
	if rec := get(r, ""); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	if rec := get(r, ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
