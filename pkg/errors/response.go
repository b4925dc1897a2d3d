package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// APIError is the flattened shape handed to callers that only need something to display.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

type responseBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// CodeForStatus maps an HTTP status onto the client error taxonomy.
func CodeForStatus(status int) Code {
	switch {
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return CodeValidation
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusTooManyRequests:
		return CodeRateLimit
	case status >= 500:
		return CodeInternal
	default:
		return CodeUnknown
	}
}

// FromResponse converts a non-2xx response into a coded error. The server's message wins
// over the generic status text; validation bodies keep their field-level error map.
func FromResponse(status int, body []byte) *Error {
	code := CodeForStatus(status)

	var parsed responseBody
	details := map[string]any{}
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		if parsed.Code != "" {
			details["server_code"] = parsed.Code
		}
		if len(parsed.Errors) > 0 {
			details["errors"] = parsed.Errors
		}
	}

	message := strings.TrimSpace(parsed.Message)
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = "request failed with status " + strconv.Itoa(status)
	}

	err := New(code, message).WithStatus(status)
	if len(details) > 0 {
		err.WithDetails(details)
	}
	return err
}

// IsNetwork reports whether the request never produced a response (offline, DNS, timeout).
func IsNetwork(err error) bool {
	typed := As(err)
	return typed != nil && typed.Code() == CodeNetwork
}

// IsAuth reports 401/403 failures.
func IsAuth(err error) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	return typed.Code() == CodeUnauthorized || typed.Code() == CodeForbidden
}

// IsValidation reports 400/422 failures and locally rejected payloads.
func IsValidation(err error) bool {
	typed := As(err)
	return typed != nil && typed.Code() == CodeValidation
}

// ValidationErrors returns the field-level error map carried by a validation error.
func ValidationErrors(err error) map[string][]string {
	typed := As(err)
	if typed == nil || typed.Code() != CodeValidation {
		return map[string][]string{}
	}
	switch details := typed.Details().(type) {
	case map[string]any:
		if fields, ok := details["errors"].(map[string][]string); ok {
			return fields
		}
	case map[string]string:
		out := make(map[string][]string, len(details))
		for field, msg := range details {
			out[field] = []string{msg}
		}
		return out
	}
	return map[string][]string{}
}

// Describe returns a message suitable for showing to a shopper.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	typed := As(err)
	if typed == nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			return msg
		}
		return MetadataFor(CodeUnknown).PublicMessage
	}
	if typed.Code() == CodeNetwork {
		return MetadataFor(CodeNetwork).PublicMessage
	}
	if msg := strings.TrimSpace(typed.Message()); msg != "" {
		return msg
	}
	return MetadataFor(typed.Code()).PublicMessage
}

// Handle flattens any error into an APIError.
func Handle(err error) APIError {
	out := APIError{Code: string(CodeUnknown), Message: Describe(err), Data: map[string]any{}}
	typed := As(err)
	if typed == nil {
		return out
	}
	if typed.Status() > 0 {
		out.Code = strconv.Itoa(typed.Status())
	} else {
		out.Code = string(typed.Code())
	}
	if details, ok := typed.Details().(map[string]any); ok && MetadataFor(typed.Code()).DetailsAllowed {
		out.Data = details
	}
	return out
}
