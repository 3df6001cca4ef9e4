package models

// UserType distinguishes individual applicants from team registrations
type UserType string

const (
	UserTypeIndividual UserType = "individual"
	UserTypeTeam       UserType = "team"
)

// Gender values accepted by the registration backend
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Genders lists every accepted gender value
var Genders = []string{GenderMale, GenderFemale, GenderOther}

// TalentOptions lists the talent scopes an applicant can select
var TalentOptions = []string{
	"Dancing",
	"Acting",
	"Singing",
	"Music",
	"script Writing",
}

// Field names as the backend and the error map know them
const (
	FieldUserType         = "user_type"
	FieldTeamName         = "team_name"
	FieldProfileImage     = "profile_image"
	FieldFullName         = "full_name"
	FieldGender           = "gender"
	FieldEmail            = "email"
	FieldPassword         = "password"
	FieldConfirmPassword  = "confirm_password"
	FieldTalentScope      = "talent_scope"
	FieldDateOfBirth      = "date_of_birth"
	FieldPhone            = "phone"
	FieldSocialMediaLinks = "social_media_links"
	FieldAdditionalLinks  = "additional_links"
	FieldPortfolioLinks   = "portfolio_links"
	FieldCountry          = "country"
	FieldState            = "state"
	FieldCity             = "city"
	FieldAddress          = "address"
	FieldIntroduction     = "introduction"
	FieldAgreeTerms       = "agree_terms"
	FieldVerificationCode = "verification_code"
)

// FieldOrder is the top-to-bottom order of the registration form. Full-form
// validation reports the first failing field in this order so the UI can
// bring it into view.
var FieldOrder = []string{
	FieldUserType,
	FieldTeamName,
	FieldProfileImage,
	FieldFullName,
	FieldGender,
	FieldEmail,
	FieldPassword,
	FieldConfirmPassword,
	FieldTalentScope,
	FieldDateOfBirth,
	FieldPhone,
	FieldSocialMediaLinks,
	FieldAdditionalLinks,
	FieldPortfolioLinks,
	FieldCountry,
	FieldState,
	FieldCity,
	FieldAddress,
	FieldIntroduction,
	FieldAgreeTerms,
}

// ApplicantDraft is the in-progress registration record. It lives only in
// memory for the lifetime of a workflow instance and is never persisted.
type ApplicantDraft struct {
	UserType UserType
	TeamName string

	FullName        string
	Gender          string
	DateOfBirth     string // YYYY-MM-DD, required for individuals only
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	Address         string
	Country         string
	State           string
	City            string

	Introduction     string
	TalentScope      []string
	SocialMediaLinks []string
	AdditionalLinks  []string
	PortfolioLinks   []string

	AgreeTerms bool
}

// NewApplicantDraft returns the empty draft a freshly mounted workflow edits.
// Link lists start with a single blank entry, matching the single empty input
// row the form renders.
func NewApplicantDraft() *ApplicantDraft {
	return &ApplicantDraft{
		UserType:         UserTypeIndividual,
		TalentScope:      []string{},
		SocialMediaLinks: []string{""},
		AdditionalLinks:  []string{""},
		PortfolioLinks:   []string{""},
	}
}

// Clone returns a deep copy of the draft. Validators receive snapshots so a
// rule can never mutate the store's copy.
func (d *ApplicantDraft) Clone() *ApplicantDraft {
	c := *d
	c.TalentScope = append([]string(nil), d.TalentScope...)
	c.SocialMediaLinks = append([]string(nil), d.SocialMediaLinks...)
	c.AdditionalLinks = append([]string(nil), d.AdditionalLinks...)
	c.PortfolioLinks = append([]string(nil), d.PortfolioLinks...)
	return &c
}

// ListField reports whether name is one of the ordered link lists and
// returns a pointer to it.
func (d *ApplicantDraft) ListField(name string) (*[]string, bool) {
	switch name {
	case FieldSocialMediaLinks:
		return &d.SocialMediaLinks, true
	case FieldAdditionalLinks:
		return &d.AdditionalLinks, true
	case FieldPortfolioLinks:
		return &d.PortfolioLinks, true
	default:
		return nil, false
	}
}

// NonBlank filters blank entries out of a link list, preserving order.
func NonBlank(links []string) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		if !IsBlank(l) {
			out = append(out, l)
		}
	}
	return out
}

// IsBlank reports whether a string is empty or whitespace only.
func IsBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
