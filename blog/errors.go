package blog

import (
	"errors"
	"fmt"
)

// Kind classifies handler failures. None of them are fatal.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindCancelled
	KindUnsupported
	KindStorage
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindCancelled:
		return "cancelled"
	case KindUnsupported:
		return "unsupported"
	case KindStorage:
		return "storage"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Error is a user-visible failure with a kind. Err holds the underlying cause, if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind and message so wrapped copies compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrLoginRequired      = newErr(KindAuth, "please log in to continue")
	ErrInvalidCredentials = newErr(KindAuth, "invalid username or password")
	ErrUsernameTaken      = newErr(KindValidation, "username already exists")
	ErrPasswordMismatch   = newErr(KindValidation, "passwords do not match")

	ErrUsernameRequired     = newErr(KindValidation, "username is required")
	ErrPasswordRequired     = newErr(KindValidation, "password is required")
	ErrPasswordTooLong      = newErr(KindValidation, "password must be at most 72 bytes")
	ErrTitleContentRequired = newErr(KindValidation, "please fill in both title and content")
	ErrCommentRequired      = newErr(KindValidation, "comment cannot be empty")
	ErrProfileRequired      = newErr(KindValidation, "name and email are required")
	ErrInvalidTheme         = newErr(KindValidation, "theme must be light or dark")
	ErrMediaType            = newErr(KindValidation, "unsupported media type")
	ErrMediaTooLarge        = newErr(KindValidation, "media file is too large")
	ErrForbidden            = newErr(KindForbidden, "you can only change your own content")
	ErrPostNotFound         = newErr(KindNotFound, "post not found")
	ErrUserNotFound         = newErr(KindNotFound, "user not found")
	ErrCancelled            = newErr(KindCancelled, "operation cancelled")
	ErrUnsupported          = newErr(KindUnsupported, "operation not supported by this backend")
)

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StorageError wraps a persistence failure.
func StorageError(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return &Error{Kind: KindStorage, Msg: "failed to save changes", Err: err}
}

// RemoteError wraps a failure talking to the remote post API.
func RemoteError(op string, err error) error {
	return &Error{Kind: KindRemote, Msg: op + " failed", Err: err}
}
