package handler

import (
	"github.com/gin-gonic/gin"

	"ragdash/internal/app"
	"ragdash/internal/transport/http/response"
)

type AnalyticsHandler struct {
	analytics *app.AnalyticsService
}

func NewAnalyticsHandler(analytics *app.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Overview(c *gin.Context) {
	out, err := h.analytics.Overview(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, out)
}
