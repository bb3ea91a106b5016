package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragdash/internal/apiclient"
	"ragdash/internal/app"
)

const (
	CodeOK                = 0
	CodeBadRequest        = 40000
	CodeUnauthorized      = 40100
	CodeNotFound          = 40400
	CodeSessionNotFound   = 40401
	CodeConflict          = 40900
	CodeBusy              = 40901
	CodeFileTooLarge      = 41300
	CodeUnsupportedType   = 41500
	CodeInternalServer    = 50000
	CodeUpstream          = 50200
	CodeUpstreamMalformed = 50201
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// FromError maps a service error to a status and code. The message is the
// same text the dashboard shows in its notifications.
func FromError(c *gin.Context, err error) {
	status, code := classify(err)
	Error(c, status, code, app.UserMessage(err))
}

func classify(err error) (int, int) {
	switch {
	case errors.Is(err, app.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, CodeFileTooLarge
	case errors.Is(err, app.ErrFileType):
		return http.StatusUnsupportedMediaType, CodeUnsupportedType
	case app.IsValidation(err):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, app.ErrSessionNotFound):
		return http.StatusNotFound, CodeSessionNotFound
	case errors.Is(err, app.ErrSubmissionInProgress):
		return http.StatusConflict, CodeBusy
	case app.IsState(err):
		return http.StatusConflict, CodeConflict
	}

	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Kind == apiclient.KindRequest:
			return http.StatusInternalServerError, CodeInternalServer
		case apiErr.Kind == apiclient.KindMalformed:
			return http.StatusBadGateway, CodeUpstreamMalformed
		case apiErr.Status == http.StatusNotFound:
			return http.StatusNotFound, CodeNotFound
		case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
			return http.StatusUnauthorized, CodeUnauthorized
		case apiErr.Status >= 400 && apiErr.Status < 500:
			return http.StatusBadRequest, CodeBadRequest
		}
		return http.StatusBadGateway, CodeUpstream
	}
	return http.StatusInternalServerError, CodeInternalServer
}
