package handle

import (
	"net/http"

	"go.uber.org/zap"
)

type Kind string

const (
	KindValidation       Kind = "validation_error"
	KindUnavailable      Kind = "service_unavailable"
	KindProcessing       Kind = "processing_error"
	KindRecognition      Kind = "recognition_error"
	KindMethodNotAllowed Kind = "method_not_allowed"
)

// Error is what a handler returns to the client. Message is sent as is; Err
// is only logged.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

type errorBody struct {
	Error string `json:"error"`
	Code  Kind   `json:"code"`
}

func validation(msg string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: msg}
}

func unavailable(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// processing reports "<prefix>: <cause>" to the client.
func processing(prefix string, err error) *Error {
	return &Error{Kind: KindProcessing, Status: http.StatusInternalServerError, Message: prefix + ": " + err.Error(), Err: err}
}

func recognition(msg string, err error) *Error {
	return &Error{Kind: KindRecognition, Status: http.StatusInternalServerError, Message: msg, Err: err}
}

func methodNotAllowed(method string) *Error {
	return &Error{Kind: KindMethodNotAllowed, Status: http.StatusMethodNotAllowed, Message: method + " only"}
}

func writeError(w http.ResponseWriter, e *Error) {
	writeJSON(w, e.Status, errorBody{Error: e.Message, Code: e.Kind})
}

// fail writes e and, for server-side failures, logs it and counts it against
// capability.
func (h *Handle) fail(w http.ResponseWriter, r *http.Request, capability string, e *Error) {
	if e.Status >= http.StatusInternalServerError {
		h.metrics.CapabilityFailed(capability)
		h.log.Error("request failed",
			zap.String("capability", capability),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID(r.Context())),
			zap.String("kind", string(e.Kind)),
			zap.Error(e),
		)
	}
	writeError(w, e)
}
