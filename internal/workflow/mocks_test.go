package workflow_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mahadevaaya/registration-flow/internal/attachments"
	"github.com/mahadevaaya/registration-flow/internal/models"
)

// MockSubmissionAPI is a mock implementation of services.SubmissionAPI
type MockSubmissionAPI struct {
	mock.Mock
}

func (m *MockSubmissionAPI) SubmitRegistration(ctx context.Context, draft *models.ApplicantDraft, atts *attachments.Manager) (models.Outcome, error) {
	args := m.Called(ctx, draft, atts)
	return args.Get(0).(models.Outcome), args.Error(1)
}

func (m *MockSubmissionAPI) SubmitVerification(ctx context.Context, email, code string) (models.Outcome, error) {
	args := m.Called(ctx, email, code)
	return args.Get(0).(models.Outcome), args.Error(1)
}

func (m *MockSubmissionAPI) ResendCode(ctx context.Context, email string) (models.Outcome, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.Outcome), args.Error(1)
}

func (m *MockSubmissionAPI) LookupUserID(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

// fakeClock is a manually advanced clock for cooldown tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
