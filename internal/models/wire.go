package models

import (
	"encoding/json"
	"strings"
)

// Messages the backend is known to send for business conflicts. Matching is
// exact; anything else flows through the generic normalization cascade.
const (
	MsgEmailNotVerified = "Email not verified. Verification code resent."
	MsgEmailRegistered  = "Email already registered and verified."
	MsgPhoneInUse       = "This phone number is already in use."
)

// Multipart part names the registration endpoint expects. The three link
// lists travel as JSON-encoded arrays under singular keys.
const (
	PartTalentScope     = "talent_scope"
	PartSocialMediaLink = "social_media_link"
	PartAdditionalLink  = "additional_link"
	PartPortfolioLink   = "portfolio_link"
)

// VerifyEmailRequest is the JSON body of the email-verification endpoint.
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

// ResendCodeRequest is the JSON body of the resend-code endpoint.
type ResendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UserIDResponse is the body of the lookup-by-email endpoint.
type UserIDResponse struct {
	UserID   string `json:"user_id"`
	Verified bool   `json:"verified"`
}

// StringOrList decodes a JSON value that is either a string or an array of
// strings; the backend emits both for the same key.
type StringOrList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringOrList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = StringOrList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = StringOrList(many)
	return nil
}

// First returns the first entry, or "".
func (s StringOrList) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Join concatenates the entries with ", ".
func (s StringOrList) Join() string {
	return strings.Join([]string(s), ", ")
}

// ErrorEnvelope is the union of every error shape the backend responds
// with. A single decode captures them all; the submission service then
// walks the keys in a fixed priority order.
type ErrorEnvelope struct {
	Message        string                  `json:"message"`
	Error          string                  `json:"error"`
	Errors         map[string]StringOrList `json:"errors"`
	Detail         string                  `json:"detail"`
	Email          StringOrList            `json:"email"`
	Phone          StringOrList            `json:"phone"`
	UserType       StringOrList            `json:"user_type"`
	NonFieldErrors []string                `json:"non_field_errors"`
}
