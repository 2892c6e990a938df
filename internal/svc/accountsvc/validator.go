package accountsvc

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/reelspro/reelspro/internal/domain"
)

// Messages reported for registration requests that fail validation.
const (
	MsgFieldsRequired   = "All fields are required"
	MsgInvalidEmail     = "Please enter a valid email address"
	MsgPasswordTooShort = "Password must be at least 6 characters long"
	MsgPasswordMismatch = "Passwords do not match"
)

// MinPasswordLength is the password minimum checked at the registration boundary.
const MinPasswordLength = 6

// emailShape accepts local@domain.tld where no part contains whitespace or '@'.
// The whitespace class covers the Unicode spaces JavaScript's \s matches, so
// browser and server agree.
//
//nolint:gochecknoglobals
var emailShape = regexp.MustCompile(
	`^[^@\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+@[^@\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+\.[^@\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+$`,
)

// IsEmailShape reports whether email looks like local@domain.tld.
func IsEmailShape(email string) bool {
	return emailShape.MatchString(email)
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email           string `json:"email"           validate:"required,emailshape"`
	Password        string `json:"password"        validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// RegisterResponse is the body of a successful registration.
type RegisterResponse struct {
	Message string                 `json:"message"`
	User    domain.AccountResponse `json:"user"`
}

// Rule identifies a registration check. Rules are evaluated in declaration
// order and the first failing one is reported.
type Rule int

const (
	RuleRequired Rule = iota + 1
	RuleEmailShape
	RuleMinLength
	RuleMatch
)

//nolint:gochecknoglobals
var ruleByTag = map[string]Rule{
	"required":   RuleRequired,
	"emailshape": RuleEmailShape,
	"min":        RuleMinLength,
	"eqfield":    RuleMatch,
}

//nolint:gochecknoglobals
var messageByRule = map[Rule]string{
	RuleRequired:   MsgFieldsRequired,
	RuleEmailShape: MsgInvalidEmail,
	RuleMinLength:  MsgPasswordTooShort,
	RuleMatch:      MsgPasswordMismatch,
}

// RuleError reports the first failing registration rule. It matches domain.ErrValidation.
type RuleError struct {
	*domain.ValidationError

	Rule Rule
}

// Unwrap exposes the ValidationError so errors.As finds it.
func (e *RuleError) Unwrap() error {
	return e.ValidationError
}

// RegistrationValidator validates registration requests.
type RegistrationValidator struct {
	validate *validator.Validate
}

// NewRegistrationValidator creates a RegistrationValidator with the emailshape rule registered.
func NewRegistrationValidator() *RegistrationValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return IsEmailShape(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return &RegistrationValidator{validate: v}
}

// Validate checks req and returns a *RuleError for the earliest failing rule.
// Validation stops at the first failing tag of each field, so picking the
// lowest rule across fields gives the same result as checking rules one by one.
func (v *RegistrationValidator) Validate(req RegisterRequest) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err //nolint:wrapcheck
	}

	var first Rule

	for _, fe := range fieldErrs {
		rule, ok := ruleByTag[fe.Tag()]
		if !ok {
			continue
		}

		if first == 0 || rule < first {
			first = rule
		}
	}

	if first == 0 {
		return domain.NewValidationError(MsgFieldsRequired)
	}

	return &RuleError{
		ValidationError: domain.NewValidationError(messageByRule[first]),
		Rule:            first,
	}
}
