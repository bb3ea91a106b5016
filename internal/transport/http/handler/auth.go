package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ragdash/internal/auth"
	"ragdash/internal/transport/http/response"
)

type AuthHandler struct {
	tokens auth.TokenStore
}

type SetTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type meResponse struct {
	UserID    string     `json:"user_id"`
	Subject   string     `json:"subject,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func NewAuthHandler(tokens auth.TokenStore) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

func (h *AuthHandler) SetToken(c *gin.Context) {
	var req SetTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "token is required")
		return
	}
	claims, err := auth.ReadClaims(req.Token)
	if err == nil && claims.Expired(time.Now()) {
		err = auth.ErrTokenExpired
	}
	if errors.Is(err, auth.ErrTokenExpired) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}
	// Opaque tokens are stored as-is; only JWTs are inspected.
	if err := h.tokens.Set(c.Request.Context(), req.Token); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "store token failed")
		return
	}
	response.OK(c, nil)
}

func (h *AuthHandler) ClearToken(c *gin.Context) {
	if err := h.tokens.Clear(c.Request.Context()); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "clear token failed")
		return
	}
	response.OK(c, nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	token, err := h.tokens.Get(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "read token failed")
		return
	}
	claims, err := auth.ReadClaims(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "no readable token stored")
		return
	}
	out := meResponse{UserID: claims.UserID, Subject: claims.Subject}
	if !claims.ExpiresAt.IsZero() {
		exp := claims.ExpiresAt
		out.ExpiresAt = &exp
	}
	response.OK(c, out)
}
