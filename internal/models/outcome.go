package models

// OutcomeKind is the closed set of normalized submission results. Every
// backend response shape collapses into one of these before it reaches the
// workflow.
type OutcomeKind string

const (
	OutcomeSuccess                OutcomeKind = "success"
	OutcomeEmailUnverifiedRetry   OutcomeKind = "email_unverified_retry"
	OutcomeEmailAlreadyRegistered OutcomeKind = "email_already_registered"
	OutcomePhoneAlreadyRegistered OutcomeKind = "phone_already_registered"
	OutcomeFieldErrors            OutcomeKind = "field_errors"
	OutcomeTimeout                OutcomeKind = "timeout"
	OutcomeSubmissionFailed       OutcomeKind = "submission_failed"
)

// Outcome is the normalized result of a registration, verification or
// resend attempt.
type Outcome struct {
	Kind OutcomeKind

	// Message is the user-facing text: the field-level message for conflict
	// outcomes, the alert text for failures, empty on success.
	Message string

	// FieldErrors carries per-field messages for OutcomeFieldErrors.
	FieldErrors map[string]string
}

// OK reports whether the attempt succeeded.
func (o Outcome) OK() bool { return o.Kind == OutcomeSuccess }

// SuccessOutcome returns the plain success outcome.
func SuccessOutcome() Outcome { return Outcome{Kind: OutcomeSuccess} }

// FailureOutcome returns a generic submission failure carrying the best
// available message.
func FailureOutcome(message string) Outcome {
	return Outcome{Kind: OutcomeSubmissionFailed, Message: message}
}

// TimeoutOutcome returns the outcome for a request aborted by its deadline.
func TimeoutOutcome() Outcome {
	return Outcome{
		Kind:    OutcomeTimeout,
		Message: "Request timed out. Please check your connection and try again.",
	}
}
