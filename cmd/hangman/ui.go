// cmd/hangman/ui.go
//
// Screens of the terminal client. Input is filtered as it is typed, the
// same way the app filters its text fields, and every network call goes
// through the client Session.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hangman/internal/account"
	"github.com/robalobadob/hangman/internal/client"
	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/words"
)

// errQuit ends the session loop normally.
var errQuit = errors.New("quit")

type ui struct {
	in  *bufio.Scanner
	out io.Writer
	s   *client.Session
}

func newUI(in io.Reader, out io.Writer, s *client.Session) *ui {
	return &ui{in: bufio.NewScanner(in), out: out, s: s}
}

func (u *ui) printf(format string, args ...any) { fmt.Fprintf(u.out, format, args...) }

// prompt reads one line; io.EOF ends the program.
func (u *ui) prompt(label string) (string, error) {
	u.printf("%s", label)
	if !u.in.Scan() {
		if err := u.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimRight(u.in.Text(), "\r\n"), nil
}

// filtered feeds line through a live-input sanitizer one rune at a time, as a
// text field would.
func filtered(line string, sanitize func(prev, next string) string) string {
	cur := ""
	for _, r := range line {
		cur = sanitize(cur, cur+string(r))
	}
	return cur
}

func (u *ui) run(ctx context.Context) error {
	for {
		if _, ok := u.s.Identity(); !ok {
			if err := u.welcome(ctx); err != nil {
				return quitOK(err)
			}
			continue
		}
		if err := u.menu(ctx); err != nil {
			return quitOK(err)
		}
	}
}

func quitOK(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// ------------------------------- account -----------------------------------

func (u *ui) welcome(ctx context.Context) error {
	choice, err := u.prompt("\n[l]ogin  [r]egister  [q]uit > ")
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "l":
		return u.login(ctx)
	case "r":
		return u.register(ctx)
	case "q":
		return errQuit
	}
	return nil
}

func (u *ui) login(ctx context.Context) error {
	name, err := u.prompt("username: ")
	if err != nil {
		return err
	}
	pass, err := u.prompt("password: ")
	if err != nil {
		return err
	}
	ident, err := u.s.Login(ctx, filtered(name, account.SanitizeUsername), filtered(pass, account.SanitizePassword))
	if err != nil {
		u.printf("%s\n", accountMessage(err))
		return nil
	}
	u.printf("Welcome back, %s.\n", ident.Username)
	return nil
}

func (u *ui) register(ctx context.Context) error {
	reg := account.NewRegistration()
	for {
		switch reg.Step() {
		case account.StepCollectingUsername:
			name, err := u.prompt("choose a username (letters, digits, _): ")
			if err != nil {
				return err
			}
			if err := reg.SubmitUsername(ctx, u.s, filtered(name, account.SanitizeUsername)); err != nil {
				u.printf("%s\n", accountMessage(err))
			}
		case account.StepCollectingPassword:
			pass, err := u.prompt(fmt.Sprintf("password for %s (blank to go back): ", reg.Username()))
			if err != nil {
				return err
			}
			if pass == "" {
				_ = reg.Back()
				continue
			}
			pass = filtered(pass, account.SanitizePassword)
			u.printRequirements(account.Evaluate(pass))
			confirm, err := u.prompt("confirm password: ")
			if err != nil {
				return err
			}
			if _, err := reg.SubmitPassword(ctx, u.s, pass, filtered(confirm, account.SanitizePassword)); err != nil {
				u.printf("%s\n", accountMessage(err))
			}
		case account.StepAuthenticated:
			u.printf("Account created. Signed in as %s.\n", reg.Identity().Username)
			return nil
		case account.StepFailed:
			u.printf("%s\n", accountMessage(reg.Err()))
			return nil
		default:
			return nil
		}
	}
}

func (u *ui) printRequirements(r account.PasswordReport) {
	mark := func(ok bool) string {
		if ok {
			return "ok"
		}
		return "--"
	}
	u.printf("  [%s] %d-%d characters\n", mark(r.LengthOK), account.MinPasswordLength, account.MaxPasswordLength)
	u.printf("  [%s] a lowercase letter\n", mark(r.HasLower))
	u.printf("  [%s] an uppercase letter\n", mark(r.HasUpper))
	u.printf("  [%s] a digit\n", mark(r.HasDigit))
	u.printf("  [%s] one of %s\n", mark(r.HasSpecial), account.SpecialCharacters)
}

// accountMessage is the user-facing text for an account error.
func accountMessage(err error) string {
	switch account.KindOf(err) {
	case account.KindBlankUsername:
		return "Please enter a username using letters, digits and underscores."
	case account.KindUsernameTaken:
		return "That username is taken."
	case account.KindPasswordPolicy:
		return "Password does not meet the requirements."
	case account.KindPasswordMismatch:
		return "Passwords do not match."
	case account.KindBlankFields:
		return "Please fill in both fields."
	case account.KindInvalidCredentials:
		return "Invalid username or password."
	case account.KindPostRegistrationLogin:
		return "Account created, but signing in failed. Please log in."
	case account.KindTransport:
		return "Could not reach the server. Please try again."
	}
	if errors.Is(err, client.ErrBusy) {
		return "Still working on the previous request."
	}
	return err.Error()
}

// --------------------------------- game ------------------------------------

func (u *ui) menu(ctx context.Context) error {
	ident, _ := u.s.Identity()
	choice, err := u.prompt(fmt.Sprintf("\n%s: [m]edium  [l]ong  [c]ustom  [s]tats  [o]ut  [q]uit > ", ident.Username))
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "m":
		return u.play(ctx, client.NewGame{Difficulty: string(words.Medium)})
	case "l":
		return u.play(ctx, client.NewGame{Difficulty: string(words.Long)})
	case "c":
		line, err := u.prompt("custom word or phrase: ")
		if err != nil {
			return err
		}
		return u.play(ctx, client.NewGame{Custom: filtered(line, words.SanitizeCustom)})
	case "s":
		return u.stats(ctx)
	case "o":
		if err := u.s.Logout(ctx); err != nil {
			log.Warn().Err(err).Msg("logout")
		}
		u.printf("Signed out.\n")
	case "q":
		return errQuit
	}
	return nil
}

func (u *ui) play(ctx context.Context, req client.NewGame) error {
	v, err := u.s.NewGame(ctx, req)
	if err != nil {
		u.printf("%s\n", gameMessage(err))
		return nil
	}
	for !v.State.Terminal() {
		u.printf("\n  %s\n  misses: %s (%d/%d)\n", spaced(v.Masked), strings.Join(v.Incorrect, " "), v.Mistakes, v.MaxMistakes)
		line, err := u.prompt("guess a letter (! to give up) > ")
		if err != nil {
			u.s.Abandon()
			return err
		}
		if strings.TrimSpace(line) == "!" {
			if v, err = u.s.Forfeit(ctx); err != nil {
				u.printf("%s\n", gameMessage(err))
				return nil
			}
			break
		}
		letter := game.TruncateGuess(line)
		if letter == "" {
			continue
		}
		res, err := u.s.Guess(ctx, letter)
		if err != nil {
			u.printf("%s\n", gameMessage(err))
			if errors.Is(err, game.ErrGameOver) {
				return nil
			}
			continue
		}
		if res.Result.Repeated {
			u.printf("  already guessed %s\n", res.Result.Letter)
		}
		v = res.Game
	}

	switch v.State {
	case game.StateWon:
		u.printf("\nYou won! The word was %s.\n", v.Word)
	case game.StateLost:
		u.printf("\nYou lost. The word was %s.\n", v.Word)
	}
	return nil
}

func (u *ui) stats(ctx context.Context) error {
	st, err := u.s.Stats(ctx)
	if err != nil {
		u.printf("%s\n", gameMessage(err))
		return nil
	}
	u.printf("\n%-22s %6s %6s %6s\n", "WORD", "PLAYED", "WON", "LOST")
	for _, w := range st.Words {
		u.printf("%-22s %6d %6d %6d\n", w.Word, w.Played, w.Won, w.Lost)
	}
	u.printf("%-22s %6d %6d %6d\n", "TOTAL", st.Totals.Played, st.Totals.Won, st.Totals.Lost)
	return nil
}

func gameMessage(err error) string {
	switch {
	case errors.Is(err, words.ErrNoValidWord):
		return "Could not pick a word right now. Please try again."
	case errors.Is(err, words.ErrInvalidCustomWord):
		return "Custom words may only contain letters and spaces."
	case errors.Is(err, game.ErrGameOver):
		return "That game is already over."
	case errors.Is(err, client.ErrGameNotFound):
		return "That game is no longer available."
	case errors.Is(err, client.ErrNotAuthenticated):
		return "Please sign in again."
	case errors.Is(err, client.ErrBusy):
		return "Still working on the previous request."
	case account.KindOf(err) == account.KindTransport:
		return "Could not reach the server. Please try again."
	}
	return err.Error()
}

// spaced puts a space between runes so "C_T" reads as "C _ T".
func spaced(masked string) string {
	return strings.Join(strings.Split(masked, ""), " ")
}
