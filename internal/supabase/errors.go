package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel conditions the application distinguishes from generic
// backend failures.
var (
	// ErrEmailNotAuthorized is reported by the auth service when the
	// address is outside the project's allowed registration list.
	ErrEmailNotAuthorized = errors.New("email address not authorized")

	// ErrPermissionDenied maps the backend's row-level security denial.
	ErrPermissionDenied = errors.New("permission denied")
)

// APIError is a failure reported by the backend itself (as opposed to a
// transport failure reaching it).
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("supabase: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("supabase: status %d", e.StatusCode)
}

// Is lets callers match the distinguished conditions with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrEmailNotAuthorized:
		return e.Code == "email_address_not_authorized" ||
			e.Message == "email_address_not_authorized"
	case ErrPermissionDenied:
		// 42501 is the insufficient_privilege SQLSTATE surfaced by PostgREST.
		return e.Code == "42501"
	}
	return false
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorCode        string `json:"error_code"`
		ErrorDescription string `json:"error_description"`
		Code             any    `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	switch {
	case payload.Message != "":
		apiErr.Message = payload.Message
	case payload.Msg != "":
		apiErr.Message = payload.Msg
	case payload.ErrorDescription != "":
		apiErr.Message = payload.ErrorDescription
	case payload.Error != "":
		apiErr.Message = payload.Error
	}

	switch code := payload.Code.(type) {
	case string:
		apiErr.Code = code
	case float64:
		apiErr.Code = fmt.Sprintf("%.0f", code)
	}
	if apiErr.Code == "" {
		apiErr.Code = payload.ErrorCode
	}

	return apiErr
}
