package errors

import "github.com/cockroachdb/errors"

// ErrorDetail is the wire representation of a single error.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the envelope the API layer serializes for failed requests.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse converts any error into its wire representation.
func NewErrorResponse(err error) *ErrorResponse {
	if err == nil {
		return nil
	}

	detail := ErrorDetail{
		Code:    ErrCodeOf(err),
		Message: err.Error(),
	}

	var ie *InternalError
	if errors.As(err, &ie) {
		if ie.hint != "" {
			detail.Message = ie.hint
		}
		detail.Details = ie.reportableDetails
	}

	return &ErrorResponse{Success: false, Error: detail}
}
