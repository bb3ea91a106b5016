package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"ragdash/internal/notify"
	"ragdash/internal/transport/http/response"
)

type NotificationHandler struct {
	center *notify.Center
}

func NewNotificationHandler(center *notify.Center) *NotificationHandler {
	return &NotificationHandler{center: center}
}

// List returns pending notifications. With drain=true they are cleared.
func (h *NotificationHandler) List(c *gin.Context) {
	if drain, _ := strconv.ParseBool(c.Query("drain")); drain {
		response.OK(c, h.center.Drain())
		return
	}
	response.OK(c, h.center.Recent())
}
