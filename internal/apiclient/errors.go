package apiclient

import (
	"encoding/json"
	"errors"
	"net/http"
)

// FallbackMessage is shown when the backend gives no usable error text.
const FallbackMessage = "Something went wrong. Please try again."

var errMissingID = errors.New("response is missing an id")

type Kind string

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = "network"
	// KindHTTP means the backend answered with a non-2xx status.
	KindHTTP Kind = "http"
	// KindMalformed means a 2xx response body could not be decoded.
	KindMalformed Kind = "malformed"
	// KindRequest means the request could not be built, so nothing was sent.
	KindRequest Kind = "request"
)

// Error is the single error type returned by the client. Message is always
// safe to show to a user.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindHTTP && apiErr.Status == http.StatusNotFound
}

func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func requestError(op string, err error) *Error {
	return &Error{Kind: KindRequest, Op: op, Message: FallbackMessage, Err: err}
}

func networkError(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Message: FallbackMessage, Err: err}
}

func malformedError(op string, status int, err error) *Error {
	return &Error{Kind: KindMalformed, Op: op, Status: status, Message: FallbackMessage, Err: err}
}

func httpError(op string, status int, body []byte) *Error {
	msg := extractMessage(body)
	if msg == "" {
		msg = FallbackMessage
	}
	return &Error{Kind: KindHTTP, Op: op, Status: status, Message: msg}
}

// extractMessage reads {"data":{"error":"..."}} and falls back to {"error":"..."}.
func extractMessage(body []byte) string {
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if len(env.Data) > 0 {
		var inner struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(env.Data, &inner); err == nil && inner.Error != "" {
			return inner.Error
		}
	}
	var top string
	if err := json.Unmarshal(env.Error, &top); err == nil {
		return top
	}
	return ""
}
