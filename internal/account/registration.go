// internal/account/registration.go
//
// Registration as an explicit step machine:
//   collecting_username → collecting_password → submitting → authenticated | failed

package account

import (
	"context"
	"errors"
)

// Step is a state of the registration flow.
type Step string

const (
	StepCollectingUsername Step = "collecting_username"
	StepCollectingPassword Step = "collecting_password"
	StepSubmitting         Step = "submitting"
	StepAuthenticated      Step = "authenticated"
	StepFailed             Step = "failed"
)

// ErrStepOrder is returned when a submit does not match the current step.
var ErrStepOrder = errors.New("account: registration step out of order")

// UsernameChecker checks availability of a username (first step).
type UsernameChecker interface {
	CheckUsername(ctx context.Context, username string) error
}

// Registrar performs the final registration (+ login).
type Registrar interface {
	Register(ctx context.Context, username, password, confirmation string) (Identity, error)
}

// Registration walks one registration attempt:
//
//	CollectingUsername → CollectingPassword → Submitting → Authenticated | Failed
//
// Input is validated locally before any checker or registrar is called. A
// failure returns to the step that collects the offending input with the
// error attached; only a failed post-registration login ends in Failed.
type Registration struct {
	step     Step
	username string
	identity Identity
	err      error
}

// NewRegistration starts at StepCollectingUsername.
func NewRegistration() *Registration {
	return &Registration{step: StepCollectingUsername}
}

func (r *Registration) Step() Step         { return r.step }
func (r *Registration) Err() error         { return r.err }
func (r *Registration) Username() string   { return r.username }
func (r *Registration) Identity() Identity { return r.identity }

// SubmitUsername validates the username and asks checker whether it is free.
func (r *Registration) SubmitUsername(ctx context.Context, checker UsernameChecker, username string) error {
	if r.step != StepCollectingUsername {
		return ErrStepOrder
	}
	if !ValidUsername(username) {
		return r.fail(StepCollectingUsername, ErrBlankUsername)
	}
	if err := checker.CheckUsername(ctx, username); err != nil {
		return r.fail(StepCollectingUsername, err)
	}
	r.username = username
	r.step = StepCollectingPassword
	r.err = nil
	return nil
}

// Back returns from the password step to edit the username.
func (r *Registration) Back() error {
	if r.step != StepCollectingPassword {
		return ErrStepOrder
	}
	r.step = StepCollectingUsername
	r.err = nil
	return nil
}

// SubmitPassword validates the password pair and submits the registration.
func (r *Registration) SubmitPassword(ctx context.Context, reg Registrar, password, confirmation string) (Identity, error) {
	if r.step != StepCollectingPassword {
		return Identity{}, ErrStepOrder
	}
	if err := ValidatePassword(password, confirmation); err != nil {
		return Identity{}, r.fail(StepCollectingPassword, err)
	}

	r.step = StepSubmitting
	ident, err := reg.Register(ctx, r.username, password, confirmation)
	if err != nil {
		switch KindOf(err) {
		case KindUsernameTaken, KindBlankUsername:
			return Identity{}, r.fail(StepCollectingUsername, err)
		case KindPostRegistrationLogin:
			return Identity{}, r.fail(StepFailed, err)
		default:
			return Identity{}, r.fail(StepCollectingPassword, err)
		}
	}
	r.identity = ident
	r.step = StepAuthenticated
	r.err = nil
	return ident, nil
}

func (r *Registration) fail(step Step, err error) error {
	r.step = step
	r.err = err
	return err
}
