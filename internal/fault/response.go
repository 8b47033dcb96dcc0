package fault

import (
	"encoding/json"
	"net/http"

	"github.com/clipforge/clipforge/internal/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// HTTPStatus maps a fault kind to a response status.
func HTTPStatus(e *Error) int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAssembly:
		return http.StatusUnprocessableEntity
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes a classified error as a JSON response, logging the
// wrapped cause when present.
func WriteJSON(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	f := From(err)

	if f.Err != nil {
		log.Error("request error", "code", f.Code, "internal_error", f.Err.Error())
	} else {
		log.Warn("request error", "code", f.Code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(f))
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   f.Code,
		Code:    f.Code,
		Message: f.Message,
	})
}

// NotFound is a convenience 404 in the same response shape.
func NotFound(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   "not_found",
		Code:    "not_found",
		Message: message,
	})
}
