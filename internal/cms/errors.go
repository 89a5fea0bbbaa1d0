package cms

import "fmt"

// Error codes surfaced to callers. All of these are recoverable input
// errors; transient store failures map to SERVER_ERROR at the HTTP layer.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidState    = "INVALID_STATE"
	CodeDraftExists     = "DRAFT_EXISTS"
	CodeDuplicateKey    = "DUPLICATE_KEY"
	CodeInvalidSchedule = "INVALID_SCHEDULE"
	CodeBulkUpdate      = "BULK_UPDATE_FAILED"
	CodeValidation      = "VALIDATION_ERROR"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
