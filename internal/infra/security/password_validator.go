package security

import (
	"fmt"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PasswordValidationError carries a stable machine-readable code alongside
// the human message so handlers can surface both.
type PasswordValidationError struct {
	Code    string
	Message string
}

func (e *PasswordValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// PasswordRule checks one policy constraint against a candidate password.
type PasswordRule interface {
	Validate(password string) error
}

type ruleFunc func(password string) error

func (f ruleFunc) Validate(password string) error { return f(password) }

// PasswordValidator runs its rules in order and stops at the first violation.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator builds a validator over a private copy of rules.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	v := &PasswordValidator{rules: make([]PasswordRule, len(rules))}
	copy(v.rules, rules)
	return v
}

// Validate returns nil when every rule passes, otherwise the first violation.
func (v *PasswordValidator) Validate(password string) error {
	if v == nil {
		return fmt.Errorf("password validator not configured")
	}
	for _, r := range v.rules {
		if err := r.Validate(password); err != nil {
			return err
		}
	}
	return nil
}

func violation(code, message string) error {
	return &PasswordValidationError{Code: code, Message: message}
}

// MinLengthRule rejects passwords shorter than min runes.
func MinLengthRule(min int) PasswordRule {
	return ruleFunc(func(password string) error {
		if len([]rune(password)) < min {
			return violation("min_length", fmt.Sprintf("password must be at least %d characters long", min))
		}
		return nil
	})
}

// RequireLetterRule rejects passwords without a unicode letter.
func RequireLetterRule() PasswordRule {
	return ruleFunc(func(password string) error {
		for _, r := range password {
			if unicode.IsLetter(r) {
				return nil
			}
		}
		return violation("letter", "password must include at least one letter")
	})
}

// RequireDigitRule rejects passwords without a digit.
func RequireDigitRule() PasswordRule {
	return ruleFunc(func(password string) error {
		for _, r := range password {
			if unicode.IsDigit(r) {
				return nil
			}
		}
		return violation("digit", "password must include at least one digit")
	})
}

// RequireDifferentFrom rejects a password equal to comparator. Used on
// change-password so the replacement cannot repeat the current secret.
func RequireDifferentFrom(comparator string) PasswordRule {
	return ruleFunc(func(password string) error {
		if password == comparator {
			return violation("different", "new password must be different from current password")
		}
		return nil
	})
}

// RequirePasswordStrengthRule scores the password with zxcvbn, feeding
// userInputs (username, email) as context so passwords built from account
// data score low. Scores run 0..4; minScore of 0 disables the rule.
func RequirePasswordStrengthRule(minScore int, userInputs ...string) PasswordRule {
	return ruleFunc(func(password string) error {
		if minScore <= 0 {
			return nil
		}
		if minScore > 4 {
			minScore = 4
		}
		if zxcvbn.PasswordStrength(password, userInputs).Score >= minScore {
			return nil
		}
		return violation("weak_password", "password is too weak; choose a more complex value")
	})
}
