package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/mahadevaaya/registration-flow/internal/attachments"
	"github.com/mahadevaaya/registration-flow/internal/models"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// serializeDraft writes the applicant draft into the multipart wire format
// the registration endpoint expects: scalars as form fields, the link lists
// as JSON-encoded arrays (optional lists omitted when empty after blank
// filtering), files as binary parts carrying their original content type.
func serializeDraft(draft *models.ApplicantDraft, atts *attachments.Manager) (body *bytes.Buffer, contentType string, err error) {
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)

	write := func(field, value string) {
		if err == nil {
			err = w.WriteField(field, value)
		}
	}

	write(models.FieldUserType, string(draft.UserType))
	if draft.UserType == models.UserTypeTeam {
		write(models.FieldTeamName, draft.TeamName)
	}

	write(models.FieldFullName, draft.FullName)
	write(models.FieldGender, draft.Gender)

	if draft.UserType == models.UserTypeIndividual {
		write(models.FieldDateOfBirth, draft.DateOfBirth)
	}

	write(models.FieldEmail, draft.Email)
	write(models.FieldPassword, draft.Password)
	write(models.FieldCountry, draft.Country)
	write(models.FieldState, draft.State)
	write(models.FieldCity, draft.City)
	write(models.FieldPhone, draft.Phone)
	write(models.FieldAddress, draft.Address)
	write(models.FieldIntroduction, draft.Introduction)

	if err != nil {
		return nil, "", fmt.Errorf("failed to write form fields: %w", err)
	}

	if err = writeJSONField(w, models.PartTalentScope, draft.TalentScope); err != nil {
		return nil, "", err
	}

	// social_media_link is mandatory on the wire; the other two lists are
	// omitted entirely when empty
	social := models.NonBlank(draft.SocialMediaLinks)
	if err = writeJSONField(w, models.PartSocialMediaLink, social); err != nil {
		return nil, "", err
	}
	if additional := models.NonBlank(draft.AdditionalLinks); len(additional) > 0 {
		if err = writeJSONField(w, models.PartAdditionalLink, additional); err != nil {
			return nil, "", err
		}
	}
	if portfolio := models.NonBlank(draft.PortfolioLinks); len(portfolio) > 0 {
		if err = writeJSONField(w, models.PartPortfolioLink, portfolio); err != nil {
			return nil, "", err
		}
	}

	if profile := atts.ProfileImage(); profile != nil {
		if err = writeFilePart(w, models.FieldProfileImage, profile.File); err != nil {
			return nil, "", err
		}
	}

	certs := atts.Certificates()
	for _, slot := range attachments.Slots {
		att, ok := certs[slot]
		if !ok {
			continue
		}
		if err = writeFilePart(w, string(slot), att.File); err != nil {
			return nil, "", err
		}
	}

	if err = w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return body, w.FormDataContentType(), nil
}

func writeJSONField(w *multipart.Writer, field string, values []string) error {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", field, err)
	}
	if err := w.WriteField(field, string(encoded)); err != nil {
		return fmt.Errorf("failed to write %s: %w", field, err)
	}
	return nil
}

// writeFilePart writes a binary part with the file's real content type;
// multipart.Writer.CreateFormFile would hardcode application/octet-stream.
func writeFilePart(w *multipart.Writer, field string, f attachments.File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", f.ContentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part %s: %w", field, err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return fmt.Errorf("failed to write part %s: %w", field, err)
	}
	return nil
}
