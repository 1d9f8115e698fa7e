package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tarik1bosunia/online-exam-management-system/internal/validator"
)

var (
	ErrExamNotFound            = errors.New("exam not found")
	ErrQuestionNotFound        = errors.New("question not found")
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptNotSubmitted     = errors.New("attempt not submitted")
	ErrForbidden               = errors.New("forbidden")
)

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

func NewValidationError(field, message string, value interface{}) ValidationErrors {
	return validator.NewValidationError(field, message, value)
}

// PermissionError is returned when the principal lacks the role for an action.
// It matches ErrForbidden under errors.Is.
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

// ImportError carries the per-row messages of a bulk import where no row
// could be stored.
type ImportError struct {
	Errors []string
}

func (e *ImportError) Error() string {
	if len(e.Errors) == 0 {
		return "import failed"
	}
	return fmt.Sprintf("import failed: %s", strings.Join(e.Errors, "; "))
}
