package access

import (
	"errors"
	"net/http"
)

// ErrorResponse maps a resolution error to an HTTP status and JSON body.
// NotFound and Forbidden are distinct outcomes and must not be conflated;
// anything else is an infrastructure failure. Denials carry the user's
// resolved role for diagnostics.
func ErrorResponse(err error) (int, map[string]interface{}) {
	var forbidden *ForbiddenError
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, map[string]interface{}{"error": "Not found"}
	case errors.As(err, &forbidden):
		body := map[string]interface{}{"error": "You don't have permission to perform this action"}
		if forbidden.Role != "" {
			body["role"] = forbidden.Role
		}
		return http.StatusForbidden, body
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, map[string]interface{}{"error": "You don't have permission to perform this action"}
	default:
		return http.StatusInternalServerError, map[string]interface{}{"error": "Failed to check access"}
	}
}
