package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mahadevaaya/registration-flow/internal/attachments"
	"github.com/mahadevaaya/registration-flow/internal/form"
	"github.com/mahadevaaya/registration-flow/internal/models"
	"github.com/mahadevaaya/registration-flow/internal/services"
	"github.com/mahadevaaya/registration-flow/internal/validation"
	apperrors "github.com/mahadevaaya/registration-flow/pkg/errors"
	"github.com/mahadevaaya/registration-flow/pkg/logger"
	"github.com/mahadevaaya/registration-flow/pkg/metrics"
)

// Stage identifies where in the registration flow an instance currently is.
type Stage string

const (
	StageRegistration Stage = "registration"
	StageVerification Stage = "verification"
	StageConfirmation Stage = "confirmation"
)

// MsgResendSuccess is shown after the backend confirms a resend.
const MsgResendSuccess = "Verification code sent successfully!"

// Clock abstracts time for the resend cooldown so tests can control it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Deps wires a workflow instance.
type Deps struct {
	Store       *form.Store
	Attachments *attachments.Manager
	API         services.SubmissionAPI
	Validator   *validation.Validator

	// ResendCooldown is how long resends stay locked after a successful
	// one. Zero disables the cooldown.
	ResendCooldown time.Duration

	// Clock defaults to the system clock when nil.
	Clock Clock
}

// Workflow is the aggregate driving one applicant through registration,
// email verification and confirmation. It owns the form store and the
// attachment manager for the lifetime of the instance.
type Workflow struct {
	mu        sync.Mutex
	id        string
	stage     Stage
	store     *form.Store
	atts      *attachments.Manager
	api       services.SubmissionAPI
	validator *validation.Validator
	clock     Clock
	cooldown  time.Duration

	registeredEmail string
	userID          string
	alert           string
	notice          string
	resendDeadline  time.Time
}

// New creates a workflow instance in the registration stage.
func New(deps Deps) *Workflow {
	clock := deps.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Workflow{
		id:        uuid.NewString(),
		stage:     StageRegistration,
		store:     deps.Store,
		atts:      deps.Attachments,
		api:       deps.API,
		validator: deps.Validator,
		clock:     clock,
		cooldown:  deps.ResendCooldown,
	}
}

// ID returns the instance identifier.
func (w *Workflow) ID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.id
}

// CurrentStage returns the stage the instance is in.
func (w *Workflow) CurrentStage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// RegisteredEmail returns the email a verification code was sent to, empty
// before a successful submission.
func (w *Workflow) RegisteredEmail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.registeredEmail
}

// UserID returns the applicant id fetched after verification, possibly empty.
func (w *Workflow) UserID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.userID
}

// Alert returns the current error banner text, empty when there is none.
func (w *Workflow) Alert() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alert
}

// Notice returns the current informational banner text.
func (w *Workflow) Notice() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.notice
}

// Store exposes the form store for field edits.
func (w *Workflow) Store() *form.Store { return w.store }

// Attachments exposes the attachment manager.
func (w *Workflow) Attachments() *attachments.Manager { return w.atts }

// Submit validates the whole form and, if it passes, posts the registration.
// A validation failure returns ErrInvalidInput naming the first failing field
// in form order without touching the network. Outcomes move the instance:
// success and the unverified-email conflict both advance to verification,
// everything else stays on the registration stage with errors applied.
func (w *Workflow) Submit(ctx context.Context) (models.Outcome, error) {
	w.mu.Lock()
	if w.stage != StageRegistration {
		w.mu.Unlock()
		return models.Outcome{}, fmt.Errorf("submit is only valid in the registration stage, currently %s", w.stage)
	}

	if first := w.store.ValidateAll(); first != "" {
		msg := w.store.Errors().Get(first)
		w.mu.Unlock()
		return models.Outcome{}, apperrors.InvalidInputError(first, msg)
	}

	draft := w.store.Draft()
	w.alert = ""
	w.mu.Unlock()

	outcome, err := w.api.SubmitRegistration(ctx, draft, w.atts)
	if err != nil {
		return models.Outcome{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.applyRegistrationOutcome(outcome, draft.Email)
	return outcome, nil
}

func (w *Workflow) applyRegistrationOutcome(outcome models.Outcome, email string) {
	switch outcome.Kind {
	case models.OutcomeSuccess:
		w.registeredEmail = email
		w.notice = ""
		w.transitionLocked(StageVerification)

	case models.OutcomeEmailUnverifiedRetry:
		// The backend already resent a code, so the instance jumps
		// straight to verification with the conflict text as notice.
		w.registeredEmail = email
		w.notice = outcome.Message
		w.transitionLocked(StageVerification)

	case models.OutcomeEmailAlreadyRegistered:
		w.store.SetError(models.FieldEmail, outcome.Message)

	case models.OutcomePhoneAlreadyRegistered:
		w.store.SetError(models.FieldPhone, outcome.Message)

	case models.OutcomeFieldErrors:
		w.store.MergeErrors(outcome.FieldErrors)
		w.alert = outcome.Message

	default:
		w.alert = outcome.Message
	}
}

// Verify posts the six-digit code for the registered email. On success the
// applicant id is looked up (non-fatal when it cannot be fetched) and the
// instance advances to confirmation.
func (w *Workflow) Verify(ctx context.Context, code string) (models.Outcome, error) {
	w.mu.Lock()
	if w.stage != StageVerification {
		w.mu.Unlock()
		return models.Outcome{}, fmt.Errorf("verify is only valid in the verification stage, currently %s", w.stage)
	}

	code = validation.SanitizeCode(code)
	if msg := w.validator.VerificationCode(code); msg != "" {
		w.mu.Unlock()
		return models.Outcome{}, apperrors.InvalidInputError(models.FieldVerificationCode, msg)
	}

	email := w.registeredEmail
	w.alert = ""
	w.mu.Unlock()

	outcome, err := w.api.SubmitVerification(ctx, email, code)
	if err != nil {
		return models.Outcome{}, err
	}

	var userID string
	if outcome.OK() {
		// Lookup failures never block confirmation.
		userID, _ = w.api.LookupUserID(ctx, email)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if outcome.OK() {
		w.userID = userID
		w.notice = ""
		w.transitionLocked(StageConfirmation)
	} else {
		w.alert = outcome.Message
	}
	return outcome, nil
}

// Resend asks for a fresh verification code. During the cooldown window the
// call is rejected without a network request.
func (w *Workflow) Resend(ctx context.Context) (models.Outcome, error) {
	w.mu.Lock()
	if w.stage != StageVerification {
		w.mu.Unlock()
		return models.Outcome{}, fmt.Errorf("resend is only valid in the verification stage, currently %s", w.stage)
	}
	if remaining := w.resendRemainingLocked(); remaining > 0 {
		w.mu.Unlock()
		metrics.ResendRequests.WithLabelValues("cooldown").Inc()
		return models.Outcome{}, apperrors.ConflictError(
			fmt.Sprintf("resend available in %ds", int(remaining.Seconds()+0.999)))
	}

	email := w.registeredEmail
	w.alert = ""
	w.notice = ""
	w.mu.Unlock()

	outcome, err := w.api.ResendCode(ctx, email)
	if err != nil {
		return models.Outcome{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if outcome.OK() {
		w.resendDeadline = w.clock.Now().Add(w.cooldown)
		w.notice = MsgResendSuccess
	} else {
		w.alert = outcome.Message
	}
	return outcome, nil
}

// ResendRemaining returns how long until the next resend is allowed, zero
// when one is allowed now. The countdown is deadline based, so reading it
// repeatedly resumes where real time is rather than restarting.
func (w *Workflow) ResendRemaining() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resendRemainingLocked()
}

func (w *Workflow) resendRemainingLocked() time.Duration {
	if w.resendDeadline.IsZero() {
		return 0
	}
	remaining := w.resendDeadline.Sub(w.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Back returns from verification to the registration stage. The draft and
// attachments stay as they were so the applicant can correct and resubmit.
func (w *Workflow) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stage != StageVerification {
		return fmt.Errorf("back is only valid in the verification stage, currently %s", w.stage)
	}
	w.alert = ""
	w.notice = ""
	w.transitionLocked(StageRegistration)
	return nil
}

// Complete finishes a confirmed registration and resets the instance to a
// fresh registration stage for the next applicant.
func (w *Workflow) Complete() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stage != StageConfirmation {
		return fmt.Errorf("complete is only valid in the confirmation stage, currently %s", w.stage)
	}

	w.store.Reset()
	w.atts.Reset()
	w.registeredEmail = ""
	w.userID = ""
	w.alert = ""
	w.notice = ""
	w.resendDeadline = time.Time{}
	w.transitionLocked(StageRegistration)
	return nil
}

func (w *Workflow) transitionLocked(to Stage) {
	from := w.stage
	w.stage = to
	metrics.StageTransitions.WithLabelValues(string(from), string(to)).Inc()
	logger.Info("Workflow stage transition",
		zap.String("workflow_id", w.id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
}
