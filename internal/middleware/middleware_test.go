package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// whoami echoes the authenticated subject.
func whoami(c *gin.Context) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, userID)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(StructuredLoggingMiddleware(slog.Default()))
	r.GET("/me", AuthMiddleware(testSecret, "hera"), whoami)

	valid, err := IssueToken(testSecret, "hera", "user-a", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "hera", "user-a", -time.Minute)
	require.NoError(t, err)
	otherIssuer, err := IssueToken(testSecret, "someone-else", "user-a", time.Hour)
	require.NoError(t, err)
	noSubject, err := IssueToken(testSecret, "hera", "", time.Hour)
	require.NoError(t, err)
	wrongKey, err := IssueToken("other-secret", "hera", "user-a", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, "user-a"},
		{"missing", "", http.StatusUnauthorized, "Authorization header required"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "Bearer {token}"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Token has expired"},
		{"wrong issuer", "Bearer " + otherIssuer, http.StatusUnauthorized, "Invalid token"},
		{"no subject", "Bearer " + noSubject, http.StatusUnauthorized, "Invalid token claims"},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	keys, err := ParseAPIKeyHashes("svc-billing=" + string(hash))
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", APIKeyAuth(keys), AuthMiddleware(testSecret, ""), whoami)
	r.GET("/strict", APIKeyAuth(keys), RequireAuthenticated(), whoami)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(APIKeyHeader, "svc-billing:s3cret")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "svc-billing", w.Body.String(), "JWT middleware is skipped once the key matched")

	req = httptest.NewRequest(http.MethodGet, "/strict", nil)
	req.Header.Set(APIKeyHeader, "svc-billing:wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/strict", nil)
	req.Header.Set(APIKeyHeader, "nobody:s3cret")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestParseAPIKeyHashes(t *testing.T) {
	set, err := ParseAPIKeyHashes("")
	require.NoError(t, err)
	assert.Empty(t, set)

	_, err = ParseAPIKeyHashes("just-a-subject")
	assert.Error(t, err)

	_, err = ParseAPIKeyHashes("svc=not-a-bcrypt-hash")
	assert.Error(t, err)

	hash, err := HashAPIKey("k")
	require.NoError(t, err)
	set, err = ParseAPIKeyHashes(" a=" + hash + " , b=" + hash)
	require.NoError(t, err)
	assert.Len(t, set, 2)
}

func TestRateLimit(t *testing.T) {
	l, err := NewRateLimiter("2-M")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/ping", RateLimit(l), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	_, err = NewRateLimiter("lots")
	assert.Error(t, err)
}

type recordedRequest struct {
	route, method string
	status        int
}

type fakeObserver struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (f *fakeObserver) ObserveHTTP(route, method string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recordedRequest{route, method, status})
}

func TestRequestMetrics(t *testing.T) {
	obs := &fakeObserver{}
	r := gin.New()
	r.Use(RequestMetrics(obs))
	r.POST("/api/v1/rpc/:operation", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/rpc/entities", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, []recordedRequest{
		{"/api/v1/rpc/:operation", http.MethodPost, http.StatusAccepted},
		{"unmatched", http.MethodGet, http.StatusNotFound},
	}, obs.seen)
}

func TestStructuredLoggingMiddleware_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(StructuredLoggingMiddleware(slog.Default()))
	r.GET("/x", func(c *gin.Context) {
		assert.NotNil(t, GetLoggerFromContext(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", serve(r, req).Header().Get(RequestIDHeader))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}
