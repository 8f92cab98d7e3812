package services

import (
	"errors"
	"fmt"
)

// Kind classifies service errors for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindFilesystem
	KindAuth
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindFilesystem:
		return "filesystem"
	case KindAuth:
		return "auth"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified service error. Two errors match under errors.Is when
// kind and message agree, so the sentinels below survive wrapping a cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// With returns a copy of e carrying cause.
func (e *Error) With(cause error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: cause}
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func ValidationError(format string, args ...any) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

func NotFoundError(format string, args ...any) *Error {
	return newError(KindNotFound, fmt.Sprintf(format, args...))
}

func ConflictError(format string, args ...any) *Error {
	return newError(KindConflict, fmt.Sprintf(format, args...))
}

func AuthError(format string, args ...any) *Error {
	return newError(KindAuth, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of a classified error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

var (
	ErrTaskNotFound       = NotFoundError("task not found")
	ErrTeamNotFound       = NotFoundError("team not found")
	ErrAttachmentNotFound = NotFoundError("attachment not found")
	ErrUserNotFound       = NotFoundError("user not found")

	ErrTitleRequired      = ValidationError("title is required")
	ErrTitleEmpty         = ValidationError("title cannot be empty")
	ErrInvalidPriority    = ValidationError("priority must be High, Medium, Low or empty")
	ErrInvalidStatus      = ValidationError("status must be active, pending or completed")
	ErrInvalidTimezone    = ValidationError("tz must be an IANA time zone name")
	ErrInvalidDueDate     = ValidationError("due_date must be YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC3339")
	ErrTooManyFiles       = ValidationError("too many attachments in one request")
	ErrAttachmentPath     = ValidationError("attachment path is required")
	ErrTeamNameRequired   = ValidationError("team name is required")
	ErrInviteCodeRequired = ValidationError("invite code is required")
	ErrEmailRequired      = ValidationError("email is required")
	ErrNameRequired       = ValidationError("name is required")
	ErrPasswordTooShort   = ValidationError("password too short")

	ErrEmptyAttachmentName = ConflictError("attachment name cannot be empty")
	ErrEmailTaken          = ConflictError("email already registered")
	ErrAlreadyTeamMember   = ConflictError("already a member of this team")
	ErrAdminCannotLeave    = ConflictError("the team admin cannot leave the team")

	ErrInvalidCredentials = AuthError("invalid email or password")

	ErrAttachmentRename = newError(KindFilesystem, "failed to rename attachment file")
	ErrAttachmentRecord = newError(KindFilesystem, "attachment file changed but the task record could not be updated")

	ErrAIServiceNotConfigured = newError(KindInternal, "AI service is not configured")
	ErrAINoTasksGenerated     = ValidationError("AI did not generate any tasks")
	ErrAINoValidTasks         = ValidationError("no valid tasks could be created from AI output")
)
