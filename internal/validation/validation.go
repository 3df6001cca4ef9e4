package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/mahadevaaya/registration-flow/internal/models"
)

// User-facing validation messages. These are part of the UI contract and
// must match what the form renders under each field.
const (
	MsgTeamNameRequired     = "Team name is required for team registration"
	MsgFullNameRequired     = "Full name is required"
	MsgFullNameCharset      = "Full name should only contain letters and spaces"
	MsgGenderRequired       = "Please select your gender"
	MsgDOBRequired          = "Date of birth is required"
	MsgDOBInvalid           = "Please enter a valid date of birth"
	MsgDOBFuture            = "Date of birth cannot be in the future"
	MsgDOBUnderage          = "You must be at least 13 years old to register"
	MsgEmailRequired        = "Email is required"
	MsgEmailInvalid         = "Please enter a valid email address"
	MsgPasswordRequired     = "Password is required"
	MsgPasswordTooShort     = "Password must be at least 8 characters long"
	MsgPasswordComplexity   = "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	MsgConfirmRequired      = "Please confirm your password"
	MsgConfirmMismatch      = "Passwords do not match"
	MsgCountryRequired      = "Country is required"
	MsgStateRequired        = "State is required"
	MsgCityRequired         = "City is required"
	MsgPhoneRequired        = "Phone number is required"
	MsgPhoneDigits          = "Phone number must be exactly 10 digits"
	MsgAddressRequired      = "Address is required"
	MsgIntroRequired        = "Please introduce yourself"
	MsgIntroTooShort        = "Introduction must be at least 50 characters long"
	MsgIntroTooLong         = "Introduction must be less than 500 characters"
	MsgTalentScopeRequired  = "Please select at least one talent scope"
	MsgSocialLinksRequired  = "Please add at least one social media link"
	MsgURLInvalid           = "Please enter a valid URL"
	MsgAgreeTermsRequired   = "You must agree to the terms and conditions"
	MsgCodeRequired         = "Verification code is required"
	MsgCodeDigits           = "Verification code must be 6 digits"
)

const (
	// MinAge is the youngest an individual applicant may be.
	MinAge = 13

	introMinLen = 50
	introMaxLen = 500
	phoneLen    = 10
	codeLen     = 6
)

var (
	fullNameRe = regexp.MustCompile(`^[A-Za-z\s]+$`)
	// Bare domains are allowed; the backend normalizes schemes itself.
	urlRe   = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)
	digitRe = regexp.MustCompile(`^[0-9]+$`)
)

// Validator evaluates the field rules of the registration form. It is
// stateless apart from an injectable clock for age checks.
type Validator struct {
	validate *validator.Validate

	// Now is overridable in tests; age is computed against the start of
	// this day.
	Now func() time.Time
}

// New creates a Validator.
func New() *Validator {
	return &Validator{
		validate: validator.New(),
		Now:      time.Now,
	}
}

// Field runs the live-validation rule for a single field against a draft
// snapshot and returns its error, which is zero when the field is valid.
func (v *Validator) Field(name string, draft *models.ApplicantDraft) models.FieldError {
	scalar := func(msg string) models.FieldError { return models.FieldError{Message: msg} }

	switch name {
	case models.FieldTeamName:
		if draft.UserType == models.UserTypeTeam && models.IsBlank(draft.TeamName) {
			return scalar(MsgTeamNameRequired)
		}

	case models.FieldFullName:
		if models.IsBlank(draft.FullName) {
			return scalar(MsgFullNameRequired)
		}
		if !fullNameRe.MatchString(draft.FullName) {
			return scalar(MsgFullNameCharset)
		}

	case models.FieldGender:
		if err := v.validate.Var(draft.Gender, "required,oneof=Male Female Other"); err != nil {
			return scalar(MsgGenderRequired)
		}

	case models.FieldDateOfBirth:
		if draft.UserType == models.UserTypeIndividual {
			return v.dateOfBirth(draft.DateOfBirth)
		}

	case models.FieldEmail:
		if models.IsBlank(draft.Email) {
			return scalar(MsgEmailRequired)
		}
		if err := v.validate.Var(draft.Email, "email"); err != nil {
			return scalar(MsgEmailInvalid)
		}

	case models.FieldPassword:
		return v.password(draft.Password)

	case models.FieldConfirmPassword:
		if draft.ConfirmPassword == "" {
			return scalar(MsgConfirmRequired)
		}
		if draft.ConfirmPassword != draft.Password {
			return scalar(MsgConfirmMismatch)
		}

	case models.FieldCountry:
		if models.IsBlank(draft.Country) {
			return scalar(MsgCountryRequired)
		}

	case models.FieldState:
		if models.IsBlank(draft.State) {
			return scalar(MsgStateRequired)
		}

	case models.FieldCity:
		if models.IsBlank(draft.City) {
			return scalar(MsgCityRequired)
		}

	case models.FieldPhone:
		if models.IsBlank(draft.Phone) {
			return scalar(MsgPhoneRequired)
		}
		if len(draft.Phone) != phoneLen || !digitRe.MatchString(draft.Phone) {
			return scalar(MsgPhoneDigits)
		}

	case models.FieldAddress:
		if models.IsBlank(draft.Address) {
			return scalar(MsgAddressRequired)
		}

	case models.FieldIntroduction:
		if models.IsBlank(draft.Introduction) {
			return scalar(MsgIntroRequired)
		}
		if n := utf8.RuneCountInString(draft.Introduction); n < introMinLen {
			return scalar(MsgIntroTooShort)
		} else if n > introMaxLen {
			return scalar(MsgIntroTooLong)
		}

	case models.FieldTalentScope:
		if len(draft.TalentScope) == 0 {
			return scalar(MsgTalentScopeRequired)
		}

	case models.FieldSocialMediaLinks:
		return linkList(draft.SocialMediaLinks, true)

	case models.FieldAdditionalLinks:
		return linkList(draft.AdditionalLinks, false)

	case models.FieldPortfolioLinks:
		return linkList(draft.PortfolioLinks, false)

	case models.FieldAgreeTerms:
		if !draft.AgreeTerms {
			return scalar(MsgAgreeTermsRequired)
		}
	}

	return models.FieldError{}
}

// All runs every rule against the draft. It returns the resulting error map
// and the first failing field in form order, "" when the draft is valid.
func (v *Validator) All(draft *models.ApplicantDraft) (models.ErrorMap, string) {
	errs := make(models.ErrorMap)
	for _, name := range models.FieldOrder {
		if fe := v.Field(name, draft); !fe.IsZero() {
			errs[name] = fe
		}
	}
	return errs, errs.FirstInOrder()
}

// VerificationCode validates the 6-digit email code; returns "" when valid.
func (v *Validator) VerificationCode(code string) string {
	if models.IsBlank(code) {
		return MsgCodeRequired
	}
	if len(code) != codeLen || !digitRe.MatchString(code) {
		return MsgCodeDigits
	}
	return ""
}

func (v *Validator) dateOfBirth(value string) models.FieldError {
	if value == "" {
		return models.FieldError{Message: MsgDOBRequired}
	}

	dob, err := time.Parse("2006-01-02", value)
	if err != nil {
		return models.FieldError{Message: MsgDOBInvalid}
	}

	now := v.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dob = time.Date(dob.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, now.Location())

	// today does not count as a past date
	if !dob.Before(today) {
		return models.FieldError{Message: MsgDOBFuture}
	}

	age := int(today.Sub(dob).Hours() / 24 / 365.25)
	if age < MinAge {
		return models.FieldError{Message: MsgDOBUnderage}
	}

	return models.FieldError{}
}

func (v *Validator) password(value string) models.FieldError {
	if value == "" {
		return models.FieldError{Message: MsgPasswordRequired}
	}
	if len(value) < 8 {
		return models.FieldError{Message: MsgPasswordTooShort}
	}

	var lower, upper, digit bool
	for _, r := range value {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return models.FieldError{Message: MsgPasswordComplexity}
	}

	return models.FieldError{}
}

// linkList validates an ordered URL list. When required and every entry is
// blank, a single "add at least one" message is reported and no per-index
// errors. Otherwise each non-blank entry gets an indexed message if it does
// not look like a URL.
func linkList(links []string, required bool) models.FieldError {
	remaining := models.NonBlank(links)
	if len(remaining) == 0 {
		if required {
			return models.FieldError{Message: MsgSocialLinksRequired}
		}
		return models.FieldError{}
	}

	perIndex := make(map[int]string)
	for i, link := range links {
		if models.IsBlank(link) {
			continue
		}
		if !urlRe.MatchString(link) {
			perIndex[i] = MsgURLInvalid
		}
	}
	if len(perIndex) == 0 {
		return models.FieldError{}
	}
	return models.FieldError{PerIndex: perIndex}
}

// SanitizePhone strips non-digits and truncates to the 10-digit limit; used
// on every keystroke so the stored phone never holds anything else.
func SanitizePhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == phoneLen {
				break
			}
		}
	}
	return b.String()
}

// SanitizeFullName strips everything but letters and spaces.
func SanitizeFullName(value string) string {
	var b strings.Builder
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeCode strips non-digits and truncates to the 6-digit code length.
func SanitizeCode(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == codeLen {
				break
			}
		}
	}
	return b.String()
}
