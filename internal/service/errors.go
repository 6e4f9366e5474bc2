package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/eventdesk/internal/policy"
	"github.com/iliyamo/eventdesk/internal/repository"
)

// Error kinds returned by every service.  Handlers translate them into HTTP
// status codes with errors.Is; anything else is an internal error.
var (
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrForbidden          = errors.New("not enough privileges")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalid            = errors.New("invalid request")
	ErrRegistrationClosed = errors.New("open registration is forbidden on this server")
	ErrUnavailable        = errors.New("service unavailable")
)

// Error carries a client-facing message on top of one of the kinds above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Frequently returned errors.
var (
	ErrIncorrectPassword  = &Error{Kind: ErrInvalid, Msg: "incorrect password"}
	ErrSamePassword       = &Error{Kind: ErrInvalid, Msg: "new password cannot be the same as the current one"}
	ErrInvalidCredentials = &Error{Kind: ErrInvalid, Msg: "incorrect email or password"}
	ErrInvalidResetToken  = &Error{Kind: ErrInvalid, Msg: "invalid token"}
	ErrSelfDelete         = &Error{Kind: ErrForbidden, Msg: "privileged principals are not allowed to delete themselves"}
)

// Message returns the text to show a client for err, or "" when err is not a
// service error and must not be echoed.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	for _, k := range []error{ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict, ErrInvalid, ErrRegistrationClosed, ErrUnavailable} {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return ""
}

// fromStore maps repository sentinels onto service kinds, naming the
// subject in the message.
func fromStore(err error, subject string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return newError(ErrNotFound, "%s not found", subject)
	case errors.Is(err, repository.ErrConflict):
		return newError(ErrConflict, "%s with this email already exists", subject)
	case errors.Is(err, repository.ErrOwnerNotFound):
		return newError(ErrNotFound, "owner not found")
	}
	return err
}

// fromPolicy maps a policy denial onto ErrForbidden.
func fromPolicy(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, policy.ErrSelfDelete):
		return ErrSelfDelete
	}
	return newError(ErrForbidden, "not enough privileges")
}
