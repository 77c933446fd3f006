package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns and limits
var (
	UsernamePattern = `^[A-Za-z0-9._\-]+$`

	UsernameMinLength = 2
	UsernameMaxLength = 20

	LabNameMinLength = 2
	LabNameMaxLength = 30

	PostTitleMaxLength = 100
	SearchMaxLength    = 100
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Username *regexp.Regexp
}{
	Username: regexp.MustCompile(UsernamePattern),
}

// RegisterCustomValidations adds the "username" and "notblank" tags to v.
// Call it with gin's binding engine before serving requests.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return CompiledPatterns.Username.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// StringValidation checks a single string against a set of rules.
// Lengths are counted in runes.
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a required string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate reports whether the value satisfies every configured rule.
// A whitespace-only value counts as empty.
func (v *StringValidation) Validate() bool {
	blank := strings.TrimSpace(v.Value) == ""
	if blank {
		return !v.Required
	}

	n := utf8.RuneCountInString(v.Value)
	if v.MinLen > 0 && n < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && n > v.MaxLen {
		return false
	}
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}

	return true
}
