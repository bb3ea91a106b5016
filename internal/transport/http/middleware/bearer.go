package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ragdash/internal/auth"
	"ragdash/internal/transport/http/response"
)

// AdoptBearer saves a Bearer token sent by the browser into the token store,
// so backend calls made for this request carry it, and puts the token's user
// on the request context. Requests without an Authorization header pass
// through with whatever token is already stored.
func AdoptBearer(tokens auth.TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Next()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := auth.ReadClaims(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token")
			c.Abort()
			return
		}
		if claims.Expired(time.Now()) {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "token expired")
			c.Abort()
			return
		}

		if err := tokens.Set(c.Request.Context(), token); err != nil {
			status, code := http.StatusInternalServerError, response.CodeInternalServer
			if errors.Is(err, auth.ErrTokenExpired) {
				status, code = http.StatusUnauthorized, response.CodeUnauthorized
			}
			response.Error(c, status, code, "store token failed")
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}
