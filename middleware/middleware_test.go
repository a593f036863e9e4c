package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Alidon256/Mindset-Pulse-sub000/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/me", Authenticate(), func(c *gin.Context) {
		claims := c.MustGet("claims").(*helpers.Claims)
		c.String(http.StatusOK, claims.UserID)
	})
	r.GET("/admin", Authenticate(), Authorize("ADMIN"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func request(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	helpers.SetJWTKey("middleware-secret")
	r := newRouter()

	tok, err := helpers.SignToken("u42", "", "USER", time.Hour)
	require.NoError(t, err)

	w := request(r, "/me", tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u42", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusUnauthorized, request(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, "/me", "garbage").Code)
}

func TestAuthenticate_RequiresBearerScheme(t *testing.T) {
	helpers.SetJWTKey("middleware-secret")
	r := newRouter()
	tok, err := helpers.SignToken("u42", "", "USER", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorize(t *testing.T) {
	helpers.SetJWTKey("middleware-secret")
	r := newRouter()

	user, err := helpers.SignToken("u1", "", "USER", time.Hour)
	require.NoError(t, err)
	admin, err := helpers.SignToken("a1", "", "ADMIN", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, request(r, "/admin", user).Code)
	assert.Equal(t, http.StatusNoContent, request(r, "/admin", admin).Code)
}

func TestRequestLogger_KeepsIncomingRequestID(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
