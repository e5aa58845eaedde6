// internal/account/policy.go
//
// Password policy and input character classes.

package account

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Password length bounds, inclusive.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 15
)

// SpecialCharacters is the set that satisfies the special-character requirement.
const SpecialCharacters = "~!@#$%^&*()_+-=[]{}|;:,.<>?"

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	passwordPattern = regexp.MustCompile(`^[A-Za-z0-9~!@#$%^&*()_+\-=\[\]{}|;:,.<>?]+$`)
)

// Requirement names one password rule.
type Requirement string

const (
	RequireLength  Requirement = "length"
	RequireLower   Requirement = "lowercase"
	RequireUpper   Requirement = "uppercase"
	RequireDigit   Requirement = "digit"
	RequireSpecial Requirement = "special"
	RequireCharset Requirement = "charset"
)

// PasswordReport is the per-requirement evaluation of a password.
type PasswordReport struct {
	LengthOK   bool `json:"lengthOk"`
	HasLower   bool `json:"hasLower"`
	HasUpper   bool `json:"hasUpper"`
	HasDigit   bool `json:"hasDigit"`
	HasSpecial bool `json:"hasSpecial"`
	AllOK      bool `json:"allOk"`
}

// Evaluate checks every requirement independently so all unmet ones can be
// shown at once.
func Evaluate(password string) PasswordReport {
	n := utf8.RuneCountInString(password)
	r := PasswordReport{
		LengthOK:   n >= MinPasswordLength && n <= MaxPasswordLength,
		HasLower:   strings.ContainsFunc(password, func(c rune) bool { return c >= 'a' && c <= 'z' }),
		HasUpper:   strings.ContainsFunc(password, func(c rune) bool { return c >= 'A' && c <= 'Z' }),
		HasDigit:   strings.ContainsFunc(password, func(c rune) bool { return c >= '0' && c <= '9' }),
		HasSpecial: strings.ContainsAny(password, SpecialCharacters),
	}
	r.AllOK = r.LengthOK && r.HasLower && r.HasUpper && r.HasDigit && r.HasSpecial
	return r
}

// Unmet lists the failed requirements in display order.
func (r PasswordReport) Unmet() []Requirement {
	var out []Requirement
	if !r.LengthOK {
		out = append(out, RequireLength)
	}
	if !r.HasLower {
		out = append(out, RequireLower)
	}
	if !r.HasUpper {
		out = append(out, RequireUpper)
	}
	if !r.HasDigit {
		out = append(out, RequireDigit)
	}
	if !r.HasSpecial {
		out = append(out, RequireSpecial)
	}
	return out
}

// ValidUsername reports whether s is a non-empty run of letters, digits and
// underscores.
func ValidUsername(s string) bool { return usernamePattern.MatchString(s) }

// ValidPasswordChars reports whether s uses only the allowed password alphabet.
func ValidPasswordChars(s string) bool { return passwordPattern.MatchString(s) }

// ValidatePassword applies the full policy plus the confirmation check.
func ValidatePassword(password, confirmation string) error {
	report := Evaluate(password)
	unmet := report.Unmet()
	if password != "" && !ValidPasswordChars(password) {
		unmet = append(unmet, RequireCharset)
	}
	if len(unmet) > 0 {
		return &Error{Kind: KindPasswordPolicy, Unmet: unmet}
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}
	return nil
}

// SanitizeUsername is the live input filter for the username field: an edit
// that introduces a disallowed character is dropped.
func SanitizeUsername(prev, next string) string {
	return filterInput(usernamePattern, prev, next)
}

// SanitizePassword is the live input filter for password fields.
func SanitizePassword(prev, next string) string {
	return filterInput(passwordPattern, prev, next)
}

func filterInput(re *regexp.Regexp, prev, next string) string {
	if next != "" && !re.MatchString(next) {
		return prev
	}
	return next
}
