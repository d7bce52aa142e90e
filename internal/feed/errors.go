package feed

import (
	"errors"

	"example.com/murmurfeed/internal/store"
)

// Kind is the stable error class returned to callers. Every operation
// either succeeds or returns exactly one Error; there is no partial
// success.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindUnavailable Kind = "unavailable"
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// fromStore maps the store's sentinel errors onto caller-facing kinds.
// Anything unrecognized is storage unavailability and passes through as
// such; the service never retries.
func fromStore(err error) *Error {
	switch {
	case errors.Is(err, store.ErrSelfFollow):
		return newError(KindValidation, err.Error())
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrMurmurNotFound):
		return newError(KindNotFound, err.Error())
	case errors.Is(err, store.ErrAlreadyFollowing),
		errors.Is(err, store.ErrNotFollowing),
		errors.Is(err, store.ErrAlreadyLiked),
		errors.Is(err, store.ErrNotLiked),
		errors.Is(err, store.ErrUsernameTaken),
		errors.Is(err, store.ErrEmailTaken):
		return newError(KindConflict, err.Error())
	default:
		return newError(KindUnavailable, "storage unavailable")
	}
}
