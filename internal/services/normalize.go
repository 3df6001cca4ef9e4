package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mahadevaaya/registration-flow/internal/models"
)

// normalizeRegistrationError collapses a non-2xx registration response into
// one of the closed outcome kinds. The backend answers with several distinct
// error shapes depending on which layer rejected the request, so the keys
// are consulted in a fixed priority order: message, error, errors, detail,
// email, phone, user_type, non_field_errors, then a status-line fallback.
func normalizeRegistrationError(status int, body []byte) models.Outcome {
	var env models.ErrorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.FailureOutcome(statusFallback(status))
	}

	if env.Message != "" {
		if out, ok := classifyConflict(env.Message); ok {
			return out
		}
		return models.FailureOutcome(env.Message)
	}

	if env.Error != "" {
		return models.FailureOutcome(env.Error)
	}

	if len(env.Errors) > 0 {
		fields := make(map[string]string, len(env.Errors))
		var all []string
		for key, msgs := range env.Errors {
			fields[key] = msgs.First()
			all = append(all, []string(msgs)...)
		}
		return models.Outcome{
			Kind:        models.OutcomeFieldErrors,
			Message:     strings.Join(all, ", "),
			FieldErrors: fields,
		}
	}

	if env.Detail != "" {
		return models.FailureOutcome(env.Detail)
	}

	if msg := env.Email.First(); msg != "" {
		if out, ok := classifyConflict(msg); ok {
			return out
		}
		return fieldOutcome(models.FieldEmail, msg)
	}

	if msg := env.Phone.First(); msg != "" {
		if out, ok := classifyConflict(msg); ok {
			return out
		}
		return fieldOutcome(models.FieldPhone, msg)
	}

	if msg := env.UserType.First(); msg != "" {
		return fieldOutcome(models.FieldUserType, msg)
	}

	if len(env.NonFieldErrors) > 0 {
		return models.FailureOutcome(strings.Join(env.NonFieldErrors, ", "))
	}

	return models.FailureOutcome(statusFallback(status))
}

// normalizeSimpleError handles the verification and resend endpoints, which
// only ever answer with message, error or detail.
func normalizeSimpleError(status int, body []byte) models.Outcome {
	var env models.ErrorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.FailureOutcome(statusFallback(status))
	}

	switch {
	case env.Message != "":
		return models.FailureOutcome(env.Message)
	case env.Error != "":
		return models.FailureOutcome(env.Error)
	case env.Detail != "":
		return models.FailureOutcome(env.Detail)
	default:
		return models.FailureOutcome(statusFallback(status))
	}
}

// classifyConflict matches the three business-conflict messages the backend
// sends verbatim. Matching is exact; a reworded message falls through to the
// generic handling.
func classifyConflict(msg string) (models.Outcome, bool) {
	switch msg {
	case models.MsgEmailNotVerified:
		return models.Outcome{
			Kind:        models.OutcomeEmailUnverifiedRetry,
			Message:     msg,
			FieldErrors: map[string]string{models.FieldEmail: msg},
		}, true
	case models.MsgEmailRegistered:
		return models.Outcome{
			Kind:        models.OutcomeEmailAlreadyRegistered,
			Message:     msg,
			FieldErrors: map[string]string{models.FieldEmail: msg},
		}, true
	case models.MsgPhoneInUse:
		return models.Outcome{
			Kind:        models.OutcomePhoneAlreadyRegistered,
			Message:     msg,
			FieldErrors: map[string]string{models.FieldPhone: msg},
		}, true
	default:
		return models.Outcome{}, false
	}
}

func fieldOutcome(field, msg string) models.Outcome {
	return models.Outcome{
		Kind:        models.OutcomeFieldErrors,
		Message:     msg,
		FieldErrors: map[string]string{field: msg},
	}
}

func statusFallback(status int) string {
	return fmt.Sprintf("Server returned %d: %s", status, http.StatusText(status))
}
