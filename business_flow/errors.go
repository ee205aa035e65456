// Package businessflow contains the core business logic and use cases for the content publishing workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Customer-related errors
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")

	// Transcript-related errors
	ErrTranscriptNotFound        = errors.New("transcript not found")
	ErrTranscriptAccessDenied    = errors.New("transcript access denied")
	ErrTranscriptTitleRequired   = errors.New("transcript title is required")
	ErrTranscriptContentRequired = errors.New("transcript content is required")

	// Insight-related errors
	ErrInsightNotFound       = errors.New("insight not found")
	ErrInsightAccessDenied   = errors.New("insight access denied")
	ErrInsightNotReviewable  = errors.New("insight has already been reviewed")
	ErrInvalidReviewDecision = errors.New("review decision must be accept or dismiss")

	// Post-related errors
	ErrPostNotFound        = errors.New("post not found")
	ErrPostAccessDenied    = errors.New("post access denied")
	ErrPostNotEditable     = errors.New("post can no longer be edited")
	ErrPostNotDeletable    = errors.New("post can no longer be deleted")
	ErrPostNotApprovable   = errors.New("only draft posts can be approved")
	ErrPostNotApproved     = errors.New("post must be approved before scheduling")
	ErrPostContentRequired = errors.New("post content is required")
	ErrPostPlatformInvalid = errors.New("post platform is invalid")

	// Schedule-related errors
	ErrScheduleNotFound         = errors.New("scheduled post not found")
	ErrScheduleAccessDenied     = errors.New("scheduled post access denied")
	ErrScheduleTimeNotFuture    = errors.New("scheduled time must be in the future")
	ErrInvalidStatusTransition  = errors.New("status transition is not allowed")
	ErrScheduleNotReschedulable = errors.New("only pending schedules can be rescheduled")
	ErrScheduleNotCancellable   = errors.New("schedule can no longer be cancelled")
	ErrScheduleNotRetryable     = errors.New("only failed schedules can be retried")
	ErrRetryLimitReached        = errors.New("retry limit reached")
	ErrScheduleNotDeletable     = errors.New("schedule must be cancelled or published before deletion")
	ErrScheduleConflict         = errors.New("schedule was modified concurrently")
	ErrPostAlreadyScheduled     = errors.New("post already has an active schedule")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsTranscriptNotFound(err error) bool {
	return errors.Is(err, ErrTranscriptNotFound)
}

func IsTranscriptAccessDenied(err error) bool {
	return errors.Is(err, ErrTranscriptAccessDenied)
}

func IsInsightNotFound(err error) bool {
	return errors.Is(err, ErrInsightNotFound)
}

func IsInsightAccessDenied(err error) bool {
	return errors.Is(err, ErrInsightAccessDenied)
}

func IsInsightNotReviewable(err error) bool {
	return errors.Is(err, ErrInsightNotReviewable)
}

func IsPostNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}

func IsPostAccessDenied(err error) bool {
	return errors.Is(err, ErrPostAccessDenied)
}

func IsPostNotEditable(err error) bool {
	return errors.Is(err, ErrPostNotEditable)
}

func IsPostNotDeletable(err error) bool {
	return errors.Is(err, ErrPostNotDeletable)
}

func IsPostNotApprovable(err error) bool {
	return errors.Is(err, ErrPostNotApprovable)
}

func IsPostNotApproved(err error) bool {
	return errors.Is(err, ErrPostNotApproved)
}

func IsScheduleNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound)
}

func IsScheduleAccessDenied(err error) bool {
	return errors.Is(err, ErrScheduleAccessDenied)
}

func IsScheduleTimeNotFuture(err error) bool {
	return errors.Is(err, ErrScheduleTimeNotFuture)
}

func IsInvalidStatusTransition(err error) bool {
	return errors.Is(err, ErrInvalidStatusTransition)
}

func IsScheduleNotReschedulable(err error) bool {
	return errors.Is(err, ErrScheduleNotReschedulable)
}

func IsScheduleNotCancellable(err error) bool {
	return errors.Is(err, ErrScheduleNotCancellable)
}

func IsScheduleNotRetryable(err error) bool {
	return errors.Is(err, ErrScheduleNotRetryable)
}

func IsRetryLimitReached(err error) bool {
	return errors.Is(err, ErrRetryLimitReached)
}

func IsScheduleNotDeletable(err error) bool {
	return errors.Is(err, ErrScheduleNotDeletable)
}

func IsScheduleConflict(err error) bool {
	return errors.Is(err, ErrScheduleConflict)
}

func IsPostAlreadyScheduled(err error) bool {
	return errors.Is(err, ErrPostAlreadyScheduled)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
