package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", append(handlers, func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": session.UserID.Hex(), "role": session.Role, "request_id": session.RequestID})
	})...)
	return r
}

func doRequest(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, userID primitive.ObjectID, role string) map[string]string {
	token, err := utils.GenerateAccessToken(userID, role, nil, "", testSecret, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestAuthRequired(t *testing.T) {
	r := newRouter(AuthRequired(testSecret))

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(r, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		w := doRequest(r, map[string]string{"Authorization": "Basic abc"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := utils.GenerateAccessToken(primitive.NewObjectID(), utils.RoleCustomer, nil, "", "other", time.Hour)
		require.NoError(t, err)
		w := doRequest(r, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown role", func(t *testing.T) {
		w := doRequest(r, bearer(t, primitive.NewObjectID(), "driver"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token builds session", func(t *testing.T) {
		userID := primitive.NewObjectID()
		headers := bearer(t, userID, utils.RoleCustomer)
		headers["X-Request-ID"] = "req-1"

		w := doRequest(r, headers)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, userID.Hex(), body["user_id"])
		assert.Equal(t, string(models.SessionRoleCustomer), body["role"])
		assert.Equal(t, "req-1", body["request_id"])
	})
}

func TestAdminRequired(t *testing.T) {
	r := newRouter(AuthRequired(testSecret), AdminRequired())

	w := doRequest(r, bearer(t, primitive.NewObjectID(), utils.RolePartner))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, bearer(t, primitive.NewObjectID(), utils.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRequiredWithoutSession(t *testing.T) {
	r := newRouter(AdminRequired())

	w := doRequest(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newRouter()

	w := doRequest(r, nil)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	w = doRequest(r, map[string]string{"X-Request-ID": "abc"})
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://pawtraits.pics"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(r, map[string]string{"Origin": "https://pawtraits.pics"})
	assert.Equal(t, "https://pawtraits.pics", w.Header().Get("Access-Control-Allow-Origin"))

	w = doRequest(r, map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(60, 2)

	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.True(t, limiter.Allow("1.1.1.1"))
	assert.False(t, limiter.Allow("1.1.1.1"))
	assert.True(t, limiter.Allow("2.2.2.2"), "buckets are per client")

	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "1.1.1.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(60, 1)
	limiter.idleTTL = -time.Minute

	limiter.Allow("1.1.1.1")
	limiter.Cleanup()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Empty(t, limiter.limiters)
}
