package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mge-engine/reflection"
)

// CodeMethodNotAllowed is reported for a route reached with the wrong
// HTTP method.
const CodeMethodNotAllowed reflection.ErrorCode = "method_not_allowed"

// CodeRequestTooLarge is reported when a request body exceeds the
// configured limit.
const CodeRequestTooLarge reflection.ErrorCode = "request_too_large"

// response is the envelope of a successful reply: {"result": ...}.
type response struct {
	Result any `json:"result"`
}

// errorResponse is the envelope of a failed reply: {"error": {...}}.
type errorResponse struct {
	Error *reflection.Error `json:"error"`
}

// HTTPStatus maps an error code to the status a remote client sees.
func HTTPStatus(code reflection.ErrorCode) int {
	switch code {
	case reflection.CodeInvalidArgument, reflection.CodeNoMatchingOverload:
		return http.StatusBadRequest
	case reflection.CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case reflection.CodeIllegalState:
		return http.StatusConflict
	case reflection.CodeNativeException:
		return http.StatusUnprocessableEntity
	case reflection.CodeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// toError maps err to the envelope error. Validation failures become
// CodeInvalidArgument with one detail per offending field.
func toError(err error) *reflection.Error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		details := make(map[string]any, len(ves))
		msgs := make([]string, 0, len(ves))
		for _, ve := range ves {
			msg := formatValidationError(ve)
			details[ve.Field()] = msg
			msgs = append(msgs, ve.Field()+" "+msg)
		}
		return reflection.NewError(reflection.CodeInvalidArgument, strings.Join(msgs, "; ")).WithDetails(details)
	}
	return reflection.AsError(err)
}

func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must have at most %s elements", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

func writeResult(w http.ResponseWriter, result any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response{Result: result}); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, e *reflection.Error, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(e.Code))
	if err := json.NewEncoder(w).Encode(errorResponse{Error: e}); err != nil {
		logger.Error("failed to encode error response",
			slog.String("code", string(e.Code)),
			slog.String("message", e.Message),
			slog.Any("error", err))
	}
}
