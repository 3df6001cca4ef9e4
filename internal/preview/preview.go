// Package preview renders the confirmation document an applicant can save
// after a verified registration.
package preview

import (
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/mahadevaaya/registration-flow/internal/attachments"
	"github.com/mahadevaaya/registration-flow/internal/models"
)

// CertificateRow is one selected certificate in the document.
type CertificateRow struct {
	Label    string
	FileName string
	Preview  template.URL
}

// Data is everything the confirmation template needs.
type Data struct {
	Draft        *models.ApplicantDraft
	ProfileImage template.URL
	Certificates []CertificateRow
	UserID       string
	Verified     bool
	Notice       string

	TalentScope      []string
	SocialMediaLinks []string
	AdditionalLinks  []string
	PortfolioLinks   []string
}

// Build assembles the template data from a finished workflow instance. Blank
// link rows are dropped so the document only shows what was actually entered.
func Build(draft *models.ApplicantDraft, atts *attachments.Manager, userID string, verified bool, notice string) Data {
	d := Data{
		Draft:            draft,
		UserID:           userID,
		Verified:         verified,
		Notice:           notice,
		TalentScope:      draft.TalentScope,
		SocialMediaLinks: models.NonBlank(draft.SocialMediaLinks),
		AdditionalLinks:  models.NonBlank(draft.AdditionalLinks),
		PortfolioLinks:   models.NonBlank(draft.PortfolioLinks),
	}

	if profile := atts.ProfileImage(); profile != nil {
		d.ProfileImage = template.URL(profile.Preview)
	}

	certs := atts.Certificates()
	for _, slot := range attachments.Slots {
		att, ok := certs[slot]
		if !ok {
			continue
		}
		d.Certificates = append(d.Certificates, CertificateRow{
			Label:    slot.Label(),
			FileName: att.File.Name,
			Preview:  template.URL(att.Preview),
		})
	}

	return d
}

var slugRe = regexp.MustCompile(`\s+`)

// Filename names the saved document after the applicant and the date,
// for example registration-preview-jane-doe-2026-08-31.
func Filename(fullName string, now time.Time) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(fullName)), "-")
	return fmt.Sprintf("registration-preview-%s-%s", slug, now.Format("2006-01-02"))
}

// Render writes the confirmation document as HTML.
func Render(w io.Writer, d Data) error {
	return confirmationTmpl.Execute(w, d)
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Registration Preview</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #212529; }
h1 { font-size: 1.4rem; }
h2 { font-size: 1rem; border-bottom: 1px solid #dee2e6; padding-bottom: .25rem; margin-top: 1.5rem; }
dt { font-weight: bold; }
dd { margin: 0 0 .5rem 0; }
.banner { padding: .75rem; border-radius: .25rem; margin-bottom: 1rem; }
.verified { background: #d1e7dd; }
.notice { background: #fff3cd; }
img.profile { max-width: 160px; max-height: 160px; }
table { border-collapse: collapse; }
td, th { border: 1px solid #dee2e6; padding: .35rem .6rem; text-align: left; }
</style>
</head>
<body>
<h1>Registration Preview</h1>
{{- if .Verified}}
<div class="banner verified">Email verified successfully.{{if .UserID}} Registration ID: {{.UserID}}{{end}}</div>
{{- end}}
{{- if .Notice}}
<div class="banner notice">{{.Notice}}</div>
{{- end}}

{{- if .ProfileImage}}
<img class="profile" src="{{.ProfileImage}}" alt="Profile">
{{- end}}

<h2>Personal Details</h2>
<dl>
{{- if eq .Draft.UserType "team"}}
<dt>Team Name</dt><dd>{{.Draft.TeamName}}</dd>
{{- end}}
<dt>Full Name</dt><dd>{{.Draft.FullName}}</dd>
<dt>Gender</dt><dd>{{.Draft.Gender}}</dd>
{{- if eq .Draft.UserType "individual"}}
<dt>Date of Birth</dt><dd>{{.Draft.DateOfBirth}}</dd>
{{- end}}
<dt>Email</dt><dd>{{.Draft.Email}}</dd>
<dt>Phone</dt><dd>{{.Draft.Phone}}</dd>
<dt>Address</dt><dd>{{.Draft.Address}}</dd>
<dt>City</dt><dd>{{.Draft.City}}</dd>
<dt>State</dt><dd>{{.Draft.State}}</dd>
<dt>Country</dt><dd>{{.Draft.Country}}</dd>
</dl>

{{- if .TalentScope}}
<h2>Talent Scope</h2>
<ul>
{{- range .TalentScope}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}

{{- if .SocialMediaLinks}}
<h2>Social Media Links</h2>
<ul>
{{- range .SocialMediaLinks}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}

{{- if .AdditionalLinks}}
<h2>Additional Links</h2>
<ul>
{{- range .AdditionalLinks}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}

{{- if .PortfolioLinks}}
<h2>Portfolio Links</h2>
<ul>
{{- range .PortfolioLinks}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}

<h2>Introduction</h2>
<p>{{.Draft.Introduction}}</p>

{{- if .Certificates}}
<h2>Certificates</h2>
<table>
<tr><th>Certificate</th><th>File</th></tr>
{{- range .Certificates}}
<tr><td>{{.Label}}</td><td>{{.FileName}}</td></tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))
