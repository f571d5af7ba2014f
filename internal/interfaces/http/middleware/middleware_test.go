package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrshiti/inplay-sub000/internal/infrastructure/auth"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/ratelimit"
	"github.com/hrshiti/inplay-sub000/internal/shared/constants"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(constants.ContextKeyUserID)})
	})
	engine.GET("/probe", chain...)
	return engine
}

func serve(engine *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if header != "" {
		req.Header.Set(constants.HeaderAuthorization, header)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 15)
	token, err := jwtService.Generate("user-42")
	require.NoError(t, err)

	engine := newEngine(NewAuthMiddleware(jwtService, logger.NewDiscard()).RequireAuth())

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(engine, tt.header)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"user-42"`)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 15)
	token, err := jwtService.Generate("user-7")
	require.NoError(t, err)

	engine := newEngine(NewAuthMiddleware(jwtService, logger.NewDiscard()).OptionalAuth())

	w := serve(engine, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user-7"`)

	w = serve(engine, "Bearer expired-or-bogus")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)

	w = serve(engine, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	engine := newEngine(RequestID())

	w := serve(engine, "")
	assert.NotEmpty(t, w.Header().Get(constants.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(constants.HeaderXRequestID, "req-123")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(constants.HeaderXRequestID))
}

type recordingObserver struct {
	paths    []string
	statuses []int
}

func (o *recordingObserver) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	o.paths = append(o.paths, method+" "+path)
	o.statuses = append(o.statuses, status)
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	engine := gin.New()
	engine.Use(Metrics(observer))
	engine.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []string{"GET /items/:id", "GET /items/:id", "GET unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusNotFound}, observer.statuses)
}

func TestRecovery_RendersInternalError(t *testing.T) {
	engine := gin.New()
	engine.Use(Recovery(logger.NewDiscard()))
	engine.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error occurred")
}

type fakeLimiter struct {
	budget int
	err    error
	keys   []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limits ratelimit.Limits) (bool, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return false, f.err
	}
	f.budget--
	return f.budget >= 0, nil
}

func TestRateLimiter_Limit(t *testing.T) {
	limiter := &fakeLimiter{budget: 2}
	rl := NewRateLimiter(limiter, ratelimit.Limits{PerMinute: 2}, logger.NewDiscard())
	engine := newEngine(rl.Limit("validate"))

	assert.Equal(t, http.StatusOK, serve(engine, "").Code)
	assert.Equal(t, http.StatusOK, serve(engine, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, "").Code)
	assert.Equal(t, "validate:192.0.2.1", limiter.keys[0])
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	rl := NewRateLimiter(limiter, ratelimit.Limits{PerMinute: 1}, logger.NewDiscard())

	assert.Equal(t, http.StatusOK, serve(newEngine(rl.Limit("validate")), "").Code)
}

func TestRateLimiter_NilIsNoop(t *testing.T) {
	var rl *RateLimiter
	assert.Equal(t, http.StatusOK, serve(newEngine(rl.Limit("validate")), "").Code)
}
