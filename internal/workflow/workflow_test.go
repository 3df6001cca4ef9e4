package workflow_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mahadevaaya/registration-flow/internal/attachments"
	"github.com/mahadevaaya/registration-flow/internal/form"
	"github.com/mahadevaaya/registration-flow/internal/models"
	"github.com/mahadevaaya/registration-flow/internal/validation"
	"github.com/mahadevaaya/registration-flow/internal/workflow"
	apperrors "github.com/mahadevaaya/registration-flow/pkg/errors"
)

func fixedNow() time.Time {
	return time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
}

func newWorkflow(t *testing.T, api *MockSubmissionAPI, clock workflow.Clock) *workflow.Workflow {
	t.Helper()
	v := validation.New()
	v.Now = fixedNow
	return workflow.New(workflow.Deps{
		Store:          form.NewStore(v),
		Attachments:    attachments.NewManager(attachments.DefaultLimits()),
		API:            api,
		Validator:      v,
		ResendCooldown: 60 * time.Second,
		Clock:          clock,
	})
}

func fillValidDraft(t *testing.T, wf *workflow.Workflow) {
	t.Helper()
	s := wf.Store()

	fields := map[string]string{
		models.FieldFullName:        "Jane Doe",
		models.FieldGender:          models.GenderFemale,
		models.FieldDateOfBirth:     "2000-01-15",
		models.FieldEmail:           "jane@example.com",
		models.FieldPassword:        "Sup3rSecret",
		models.FieldConfirmPassword: "Sup3rSecret",
		models.FieldPhone:           "9876543210",
		models.FieldAddress:         "12 Main Street",
		models.FieldCountry:         "India",
		models.FieldState:           "Karnataka",
		models.FieldCity:            "Bengaluru",
		models.FieldIntroduction:    strings.Repeat("I love performing on stage. ", 3),
	}
	for name, value := range fields {
		assert.NoError(t, s.SetField(name, value))
	}
	assert.NoError(t, s.SetField(models.FieldAgreeTerms, true))
	assert.NoError(t, s.ToggleSetMember(models.FieldTalentScope, "Dancing"))
	assert.NoError(t, s.SetArrayItem(models.FieldSocialMediaLinks, 0, "https://instagram.com/janedoe"))
}

func TestHappyPathThroughConfirmation(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.SuccessOutcome(), nil).Once()
	api.On("SubmitVerification", ctx, "jane@example.com", "123456").
		Return(models.SuccessOutcome(), nil).Once()
	api.On("LookupUserID", ctx, "jane@example.com").
		Return("EVT-0001", nil).Once()

	outcome, err := wf.Submit(ctx)
	assert.NoError(t, err)
	assert.True(t, outcome.OK())
	assert.Equal(t, workflow.StageVerification, wf.CurrentStage())
	assert.Equal(t, "jane@example.com", wf.RegisteredEmail())

	outcome, err = wf.Verify(ctx, "123456")
	assert.NoError(t, err)
	assert.True(t, outcome.OK())
	assert.Equal(t, workflow.StageConfirmation, wf.CurrentStage())
	assert.Equal(t, "EVT-0001", wf.UserID())

	api.AssertExpectations(t)
}

func TestSubmitBlockedByLocalValidation(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	// draft left empty

	_, err := wf.Submit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), models.FieldFullName)
	assert.Equal(t, workflow.StageRegistration, wf.CurrentStage())
	api.AssertNotCalled(t, "SubmitRegistration")
}

func TestUnverifiedEmailFastForwardsToVerification(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.Outcome{
			Kind:    models.OutcomeEmailUnverifiedRetry,
			Message: models.MsgEmailNotVerified,
		}, nil).Once()

	outcome, err := wf.Submit(ctx)
	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeEmailUnverifiedRetry, outcome.Kind)
	assert.Equal(t, workflow.StageVerification, wf.CurrentStage())
	assert.Equal(t, "jane@example.com", wf.RegisteredEmail())
	assert.Equal(t, models.MsgEmailNotVerified, wf.Notice())
}

func TestEmailConflictStaysOnRegistration(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.Outcome{
			Kind:    models.OutcomeEmailAlreadyRegistered,
			Message: models.MsgEmailRegistered,
		}, nil).Once()

	_, err := wf.Submit(ctx)
	assert.NoError(t, err)
	assert.Equal(t, workflow.StageRegistration, wf.CurrentStage())
	assert.Equal(t, models.MsgEmailRegistered, wf.Store().FieldError(models.FieldEmail).Message)
}

func TestPhoneConflictStaysOnRegistration(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.Outcome{
			Kind:    models.OutcomePhoneAlreadyRegistered,
			Message: models.MsgPhoneInUse,
		}, nil).Once()

	_, err := wf.Submit(ctx)
	assert.NoError(t, err)
	assert.Equal(t, workflow.StageRegistration, wf.CurrentStage())
	assert.Equal(t, models.MsgPhoneInUse, wf.Store().FieldError(models.FieldPhone).Message)
}

func TestBackendFieldErrorsMergeIntoStore(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.Outcome{
			Kind:        models.OutcomeFieldErrors,
			Message:     "Enter a valid email address.",
			FieldErrors: map[string]string{models.FieldEmail: "Enter a valid email address."},
		}, nil).Once()

	_, err := wf.Submit(ctx)
	assert.NoError(t, err)
	assert.Equal(t, workflow.StageRegistration, wf.CurrentStage())
	assert.Equal(t, "Enter a valid email address.", wf.Store().FieldError(models.FieldEmail).Message)
	assert.Equal(t, "Enter a valid email address.", wf.Alert())
}

func TestTimeoutSetsAlert(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.TimeoutOutcome(), nil).Once()

	_, err := wf.Submit(ctx)
	assert.NoError(t, err)
	assert.Equal(t, workflow.StageRegistration, wf.CurrentStage())
	assert.Equal(t, "Request timed out. Please check your connection and try again.", wf.Alert())
}

func TestVerifyRejectsMalformedCode(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.SuccessOutcome(), nil).Once()
	_, err := wf.Submit(ctx)
	assert.NoError(t, err)

	_, err = wf.Verify(ctx, "12")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	api.AssertNotCalled(t, "SubmitVerification")
}

func TestVerifyFailureStaysOnVerification(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.SuccessOutcome(), nil).Once()
	api.On("SubmitVerification", ctx, "jane@example.com", "000000").
		Return(models.FailureOutcome("Invalid verification code."), nil).Once()

	_, err := wf.Submit(ctx)
	assert.NoError(t, err)

	outcome, err := wf.Verify(ctx, "000000")
	assert.NoError(t, err)
	assert.False(t, outcome.OK())
	assert.Equal(t, workflow.StageVerification, wf.CurrentStage())
	assert.Equal(t, "Invalid verification code.", wf.Alert())
}

func TestVerifySucceedsWhenLookupFails(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.SuccessOutcome(), nil).Once()
	api.On("SubmitVerification", ctx, "jane@example.com", "123456").
		Return(models.SuccessOutcome(), nil).Once()
	api.On("LookupUserID", ctx, "jane@example.com").
		Return("", apperrors.ErrUnavailable).Once()

	_, err := wf.Submit(ctx)
	assert.NoError(t, err)

	outcome, err := wf.Verify(ctx, "123456")
	assert.NoError(t, err)
	assert.True(t, outcome.OK())
	assert.Equal(t, workflow.StageConfirmation, wf.CurrentStage())
	assert.Equal(t, "", wf.UserID())
}

func TestResendCooldown(t *testing.T) {
	api := new(MockSubmissionAPI)
	clock := &fakeClock{now: fixedNow()}
	wf := newWorkflow(t, api, clock)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.SuccessOutcome(), nil).Once()
	api.On("ResendCode", ctx, "jane@example.com").
		Return(models.SuccessOutcome(), nil).Once()

	_, err := wf.Submit(ctx)
	assert.NoError(t, err)

	// before any resend there is no cooldown
	assert.Equal(t, time.Duration(0), wf.ResendRemaining())

	_, err = wf.Resend(ctx)
	assert.NoError(t, err)
	assert.Equal(t, workflow.MsgResendSuccess, wf.Notice())
	assert.Equal(t, 60*time.Second, wf.ResendRemaining())

	// during the countdown a resend is refused without a network call
	_, err = wf.Resend(ctx)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	api.AssertNumberOfCalls(t, "ResendCode", 1)

	// the deadline is absolute: advancing the clock resumes, not restarts
	clock.Advance(45 * time.Second)
	assert.Equal(t, 15*time.Second, wf.ResendRemaining())

	clock.Advance(15 * time.Second)
	assert.Equal(t, time.Duration(0), wf.ResendRemaining())

	api.On("ResendCode", ctx, "jane@example.com").
		Return(models.SuccessOutcome(), nil).Once()
	_, err = wf.Resend(ctx)
	assert.NoError(t, err)
	api.AssertExpectations(t)
}

func TestBackReturnsToRegistrationKeepingDraft(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.SuccessOutcome(), nil).Once()
	_, err := wf.Submit(ctx)
	assert.NoError(t, err)

	assert.NoError(t, wf.Back())
	assert.Equal(t, workflow.StageRegistration, wf.CurrentStage())
	assert.Equal(t, "Jane Doe", wf.Store().Draft().FullName)
}

func TestCompleteResetsEverything(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	fillValidDraft(t, wf)
	ctx := context.Background()

	api.On("SubmitRegistration", ctx, mock.Anything, mock.Anything).
		Return(models.SuccessOutcome(), nil).Once()
	api.On("SubmitVerification", ctx, "jane@example.com", "123456").
		Return(models.SuccessOutcome(), nil).Once()
	api.On("LookupUserID", ctx, "jane@example.com").
		Return("EVT-0001", nil).Once()

	_, err := wf.Submit(ctx)
	assert.NoError(t, err)
	_, err = wf.Verify(ctx, "123456")
	assert.NoError(t, err)

	assert.NoError(t, wf.Complete())
	assert.Equal(t, workflow.StageRegistration, wf.CurrentStage())
	assert.Equal(t, "", wf.RegisteredEmail())
	assert.Equal(t, "", wf.UserID())
	assert.Equal(t, "", wf.Store().Draft().FullName)
	assert.Equal(t, time.Duration(0), wf.ResendRemaining())
}

func TestStageGuards(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	ctx := context.Background()

	_, err := wf.Verify(ctx, "123456")
	assert.Error(t, err)

	_, err = wf.Resend(ctx)
	assert.Error(t, err)

	assert.Error(t, wf.Back())
	assert.Error(t, wf.Complete())
}

func TestWorkflowIDIsStable(t *testing.T) {
	api := new(MockSubmissionAPI)
	wf := newWorkflow(t, api, nil)
	assert.NotEmpty(t, wf.ID())
	assert.Equal(t, wf.ID(), wf.ID())
}
