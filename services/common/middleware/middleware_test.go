package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	awspkg "github.com/yashrajoria/shopswift/pkg/aws"
	"github.com/yashrajoria/shopswift/services/common/auth"
	"github.com/yashrajoria/shopswift/services/common/logger"
	"github.com/yashrajoria/shopswift/services/common/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := gin.New()
	r.Use(logger.RequestID(), middleware.RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestTimeoutSetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Timeout(time.Second))

	var hasDeadline bool
	r.GET("/", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, hasDeadline)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 2, time.Minute)
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(rl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterSweep(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 1, time.Minute)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	rl.Sweep(time.Now().Add(2 * time.Minute))
	assert.True(t, rl.Allow("a"))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORSMiddleware([]string{"http://admin.local/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://admin.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://admin.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func identityRouter(parser *auth.TokenParser) (*gin.Engine, *string) {
	var seen string
	r := gin.New()
	r.Use(middleware.Identity(parser))
	r.GET("/", func(c *gin.Context) {
		seen = middleware.UserID(c)
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func TestIdentityFromHeader(t *testing.T) {
	r, seen := identityRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/?userId=ignored", nil)
	req.Header.Set(middleware.UserIDHeader, "u-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "u-1", *seen)
}

func TestIdentityFallsBackToQuery(t *testing.T) {
	r, seen := identityRouter(nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?userId=u-2", nil))
	assert.Equal(t, "u-2", *seen)
}

func TestIdentityFromBearerToken(t *testing.T) {
	parser := auth.NewTokenParser("secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-3",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	r, seen := identityRouter(parser)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "u-3", *seen)
}

func TestIdentityRejectsBadToken(t *testing.T) {
	r, _ := identityRouter(auth.NewTokenParser("secret"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	done   chan struct{}
}

func (m *recordingMetrics) RecordCount(ctx context.Context, name string, dims map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
	if name == awspkg.MetricHTTP4xx {
		close(m.done)
	}
	return nil
}

func (m *recordingMetrics) RecordLatency(ctx context.Context, name string, d time.Duration, dims map[string]string) error {
	return nil
}

func (m *recordingMetrics) IsEnabled() bool { return true }

func TestMetricsMiddlewareRecords4xx(t *testing.T) {
	metrics := &recordingMetrics{counts: map[string]int{}, done: make(chan struct{})}
	r := gin.New()
	r.Use(middleware.MetricsMiddleware(metrics, "test-service"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	select {
	case <-metrics.done:
	case <-time.After(time.Second):
		t.Fatal("metrics not recorded")
	}
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.counts[awspkg.MetricHTTPRequests])
	assert.Equal(t, 1, metrics.counts[awspkg.MetricHTTPErrors])
}
