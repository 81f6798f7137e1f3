package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindfullens/internal/config"
	"mindfullens/internal/service"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	ref := GetSessionRef(r.Context())
	w.Write([]byte(ref.SessionID))
}

func TestRateLimiterPerIP(t *testing.T) {
	limiter := NewIPRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 2})
	h := limiter.Middleware(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/predict", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/predict", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", getClientIP(req, true))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req, true))
	assert.Equal(t, "192.0.2.1", getClientIP(req, false))
}

func TestRateLimiterIgnoresForwardedForByDefault(t *testing.T) {
	limiter := NewIPRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 1})
	h := limiter.Middleware(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 2)
	for _, xff := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/predict", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, limiter.Len())
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	limiter := NewIPRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Now()
	limiter.now = func() time.Time { return now }

	limiter.GetLimiter("198.51.100.1")
	limiter.GetLimiter("198.51.100.2")
	assert.Equal(t, 2, limiter.Len())

	now = now.Add(30 * time.Second)
	limiter.GetLimiter("198.51.100.2")

	now = now.Add(45 * time.Second)
	limiter.GetLimiter("198.51.100.3")
	assert.Equal(t, 2, limiter.Len(), "only the client idle past the TTL is dropped")

	now = now.Add(2 * time.Minute)
	limiter.GetLimiter("198.51.100.3")
	assert.Equal(t, 1, limiter.Len())
}

func TestRequireSession(t *testing.T) {
	auth := service.NewAuthService(config.AuthConfig{JWTSecret: "secret"})
	h := NewAuthMiddleware(auth).RequireSession(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")

	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	session, err := auth.IssueSession("")
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.SessionID, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/v1/ws/session?token="+session.Token, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	cfg := config.CORSConfig{
		AllowedOrigins: "*",
		AllowedMethods: "GET, POST",
		AllowedHeaders: "Content-Type, Authorization",
	}
	called := false
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/predict", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
}
