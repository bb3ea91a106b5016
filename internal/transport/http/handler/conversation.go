package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragdash/internal/app"
	"ragdash/internal/model"
	"ragdash/internal/transport/http/response"
)

type ConversationHandler struct {
	conv *app.ConversationService
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

type conversationView struct {
	Session  *model.ChatSession  `json:"session"`
	State    app.State           `json:"state"`
	Messages []model.ChatMessage `json:"messages"`
}

func NewConversationHandler(conv *app.ConversationService) *ConversationHandler {
	return &ConversationHandler{conv: conv}
}

// Get returns the active transcript. With reload=true the messages are
// fetched from the backend first.
func (h *ConversationHandler) Get(c *gin.Context) {
	if reload, _ := strconv.ParseBool(c.Query("reload")); reload {
		if err := h.conv.Reload(c.Request.Context()); err != nil {
			response.FromError(c, err)
			return
		}
	}
	response.OK(c, conversationView{
		Session:  h.conv.Session(),
		State:    h.conv.State(),
		Messages: h.conv.Transcript(),
	})
}

// Ask blocks until the answer arrives or the active session changes.
func (h *ConversationHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "question is required")
		return
	}

	reply, err := h.conv.Submit(c.Request.Context(), req.Question)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, reply)
}

func (h *ConversationHandler) Clear(c *gin.Context) {
	if err := h.conv.Clear(); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, nil)
}
