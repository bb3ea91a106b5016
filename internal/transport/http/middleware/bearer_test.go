package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdash/internal/auth"
)

func newBearerRouter(tokens auth.TokenStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AdoptBearer(tokens))
	r.GET("/whoami", func(c *gin.Context) {
		id, _ := auth.UserIDFrom(c.Request.Context())
		c.String(http.StatusOK, id)
	})
	return r
}

func bearerToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestAdoptBearerPutsUserOnRequestContext(t *testing.T) {
	tokens := auth.NewMemoryStore("")
	r := newBearerRouter(tokens)
	token := bearerToken(t, jwt.MapClaims{"user_id": 42, "exp": time.Now().Add(time.Hour).Unix()})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())
	stored, err := tokens.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, stored)
}

func TestAdoptBearerWithoutHeaderLeavesContextEmpty(t *testing.T) {
	r := newBearerRouter(auth.NewMemoryStore(""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestAdoptBearerRejectsOtherSchemes(t *testing.T) {
	r := newBearerRouter(auth.NewMemoryStore(""))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
