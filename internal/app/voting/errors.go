package voting

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindProfileNotFound    Kind = "ProfileNotFound"
	KindSameProfile        Kind = "SameProfile"
	KindDuplicateVote      Kind = "DuplicateVote"
	KindStorageUnavailable Kind = "StorageUnavailable"
	KindInvalidInput       Kind = "InvalidInput"
	KindNotEnoughProfiles  Kind = "NotEnoughProfiles"
	KindUsernameTaken      Kind = "UsernameTaken"
)

// Error é a falha tipada devolvida pelo Ledger. Comparações com errors.Is olham só o Kind.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrProfileNotFound    = &Error{Kind: KindProfileNotFound}
	ErrSameProfile        = &Error{Kind: KindSameProfile}
	ErrDuplicateVote      = &Error{Kind: KindDuplicateVote}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrNotEnoughProfiles  = &Error{Kind: KindNotEnoughProfiles}
	ErrUsernameTaken      = &Error{Kind: KindUsernameTaken}
)

func newError(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}

// KindOf devolve o Kind de err ou vazio quando err não veio do Ledger.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
