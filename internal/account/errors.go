// internal/account/errors.go
//
// Tagged account errors and their categories.

package account

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags an account failure. The string form is what the HTTP API sends.
type Kind string

const (
	KindBlankUsername         Kind = "blank_username"
	KindUsernameTaken         Kind = "username_taken"
	KindPasswordPolicy        Kind = "password_policy"
	KindPasswordMismatch      Kind = "password_mismatch"
	KindBlankFields           Kind = "blank_fields"
	KindInvalidCredentials    Kind = "invalid_credentials"
	KindPostRegistrationLogin Kind = "post_registration_login_failed"
	KindTransport             Kind = "transport"
)

// Category groups kinds by how the caller recovers.
type Category string

const (
	CategoryValidation Category = "validation" // fix the input, no network involved
	CategoryConflict   Category = "conflict"   // pick another username
	CategoryAuth       Category = "auth"       // generic credentials message
	CategoryTransport  Category = "transport"  // store or network unreachable, retry
)

// Category maps the kind onto the error taxonomy.
func (k Kind) Category() Category {
	switch k {
	case KindUsernameTaken:
		return CategoryConflict
	case KindInvalidCredentials, KindPostRegistrationLogin:
		return CategoryAuth
	case KindTransport:
		return CategoryTransport
	}
	return CategoryValidation
}

// Error is the single tagged error type of the account flow.
type Error struct {
	Kind  Kind
	Unmet []Requirement // set for KindPasswordPolicy
	Err   error         // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("account: ")
	b.WriteString(string(e.Kind))
	if len(e.Unmet) > 0 {
		fmt.Fprintf(&b, " %v", e.Unmet)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare sentinel of the same kind, so errors.Is(err, ErrUsernameTaken)
// holds whatever cause is attached.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Unmet == nil && t.Kind == e.Kind
}

var (
	ErrBlankUsername      = &Error{Kind: KindBlankUsername}
	ErrUsernameTaken      = &Error{Kind: KindUsernameTaken}
	ErrPasswordMismatch   = &Error{Kind: KindPasswordMismatch}
	ErrBlankFields        = &Error{Kind: KindBlankFields}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
)

// Credential store errors.
var (
	ErrNotFound          = errors.New("account: user not found")
	ErrDuplicateUsername = errors.New("account: duplicate username")
)

// KindOf extracts the tag of an account error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func transportErr(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}
