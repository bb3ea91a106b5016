package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragdash/internal/app"
	"ragdash/internal/model"
	"ragdash/internal/transport/http/response"
)

type ChatHandler struct {
	sessions *app.SessionService
}

type CreateChatRequest struct {
	Name     string   `json:"name" binding:"max=128"`
	Contexts []string `json:"contexts"`
	Provider string   `json:"provider"`
}

func NewChatHandler(sessions *app.SessionService) *ChatHandler {
	return &ChatHandler{sessions: sessions}
}

func (h *ChatHandler) List(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, sessions)
}

func (h *ChatHandler) Create(c *gin.Context) {
	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), app.CreateSessionInput{
		Name:     req.Name,
		Contexts: req.Contexts,
		Provider: model.Provider(req.Provider),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, session)
}

func (h *ChatHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"id": c.Param("id")})
}

func (h *ChatHandler) Select(c *gin.Context) {
	session, err := h.sessions.Select(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, session)
}
