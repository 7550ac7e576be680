package aggregate

import "errors"

// Error kinds. Every *Error returned by the engine wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrDuplicateVote   = errors.New("duplicate vote")
	ErrDuplicateUnlock = errors.New("duplicate unlock")
	ErrAlreadyExists   = errors.New("already exists")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
)

// Error is a domain error whose Msg is safe to show to API clients.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func invalid(msg string) *Error {
	return newError(ErrInvalidInput, msg)
}

func notFound(msg string) *Error {
	return newError(ErrNotFound, msg)
}

func forbidden(msg string) *Error {
	return newError(ErrForbidden, msg)
}

// reason is the metrics label for a rejected write.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDuplicateVote):
		return "duplicate_vote"
	case errors.Is(err, ErrDuplicateUnlock):
		return "duplicate_unlock"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	}
	return "error"
}
