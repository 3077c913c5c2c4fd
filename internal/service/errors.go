package service

import "fmt"

// Error codes surfaced to the transport layer.
const (
	CodeValidationFailed = "validation_failed"
	CodeInvalidOTP       = "invalid_otp"
	CodeNotFound         = "not_found"
	CodeServerError      = "server_error"
)

// FlowError is a client-visible onboarding failure. Validation failures
// carry per-field messages; everything else is a single message.
type FlowError struct {
	Code    string
	Message string
	Status  int
	Fields  map[string]string
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newFlowError(code, message string, status int) *FlowError {
	return &FlowError{Code: code, Message: message, Status: status}
}

func newValidationError(fields map[string]string) *FlowError {
	return &FlowError{
		Code:    CodeValidationFailed,
		Message: "Validation failed",
		Status:  400,
		Fields:  fields,
	}
}
