package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agentmart/pkg/config"

	"github.com/gin-gonic/gin"
)

func serve(router *gin.Engine, method, target, xff string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, target, nil)
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	router.ServeHTTP(w, req)
	return w.Code
}

// Test that when rate limiting is disabled, middleware lets all requests through.
func TestHTTPRateLimitMiddleware_Disabled_AllowsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = false

	router := gin.New()
	router.Use(NewHTTPRateLimitMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		if code := serve(router, http.MethodGet, "/test", ""); code != http.StatusOK {
			t.Fatalf("expected status 200 on request %d, got %d", i+1, code)
		}
	}
}

// Test basic per-IP rate limiting behaviour.
func TestHTTPRateLimitMiddleware_Enabled_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.HTTP.RequestsPerSecond = 1
	cfg.RateLimiting.HTTP.Burst = 1
	cfg.RateLimiting.HTTP.MaxConcurrent = 0

	router := gin.New()
	router.Use(NewHTTPRateLimitMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	if code := serve(router, http.MethodGet, "/test", ""); code != http.StatusOK {
		t.Fatalf("expected status 200 for first request, got %d", code)
	}
	if code := serve(router, http.MethodGet, "/test", ""); code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 for second request, got %d", code)
	}
	// A different forwarded client has its own bucket.
	if code := serve(router, http.MethodGet, "/test", "203.0.113.7, 10.0.0.1"); code != http.StatusOK {
		t.Fatalf("expected status 200 for another client, got %d", code)
	}
}

func TestAuthRateLimitMiddleware_OnlyGuardsCredentialRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.Auth.RequestsPerSecond = 1
	cfg.RateLimiting.Auth.Burst = 2

	router := gin.New()
	authLimit := NewAuthRateLimitMiddleware(cfg)
	router.POST("/signin", authLimit, func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/signin", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(router, http.MethodPost, "/signin", ""))
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected POST status sequence %v", codes)
	}
	if code := serve(router, http.MethodGet, "/signin", ""); code != http.StatusOK {
		t.Fatalf("GET /signin must not be limited, got %d", code)
	}
}

func TestRateLimiterStore_SweepsIdleLimiters(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newRateLimiterStore(1, 1)
	store.now = func() time.Time { return now }

	store.getLimiter("198.51.100.1")
	now = now.Add(2 * idleLimiterTTL)
	store.getLimiter("198.51.100.2")

	if _, ok := store.limiters["198.51.100.1"]; ok {
		t.Fatal("expected idle limiter to be swept")
	}
	if len(store.limiters) != 1 {
		t.Fatalf("expected 1 limiter, got %d", len(store.limiters))
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4321"
	if ip := clientIP(req); ip != "192.0.2.1" {
		t.Fatalf("expected remote host, got %q", ip)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	if ip := clientIP(req); ip != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop, got %q", ip)
	}
	req.Header.Set("X-Forwarded-For", "garbage")
	if ip := clientIP(req); ip != "192.0.2.1" {
		t.Fatalf("expected fallback to remote host, got %q", ip)
	}
}
