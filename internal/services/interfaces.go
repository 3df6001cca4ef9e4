package services

import (
	"context"

	"github.com/mahadevaaya/registration-flow/internal/attachments"
	"github.com/mahadevaaya/registration-flow/internal/models"
)

// SubmissionAPI is the surface the workflow drives. Implemented by
// SubmissionService; mocked in workflow tests.
type SubmissionAPI interface {
	SubmitRegistration(ctx context.Context, draft *models.ApplicantDraft, atts *attachments.Manager) (models.Outcome, error)
	SubmitVerification(ctx context.Context, email, code string) (models.Outcome, error)
	ResendCode(ctx context.Context, email string) (models.Outcome, error)
	LookupUserID(ctx context.Context, email string) (string, error)
}
