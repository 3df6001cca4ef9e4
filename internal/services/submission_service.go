package services

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mahadevaaya/registration-flow/config"
	"github.com/mahadevaaya/registration-flow/internal/attachments"
	"github.com/mahadevaaya/registration-flow/internal/models"
	apperrors "github.com/mahadevaaya/registration-flow/pkg/errors"
	"github.com/mahadevaaya/registration-flow/pkg/httpclient"
	"github.com/mahadevaaya/registration-flow/pkg/logger"
	"github.com/mahadevaaya/registration-flow/pkg/metrics"
	"github.com/mahadevaaya/registration-flow/pkg/retry"
	"github.com/mahadevaaya/registration-flow/pkg/tracing"
)

// msgNetworkError is shown for connectivity failures that are not timeouts.
const msgNetworkError = "Network error: Unable to connect to the server. Please check your internet connection and try again."

// SubmissionService talks to the registration backend and normalizes its
// heterogeneous error responses into outcomes. At most one request runs at a
// time; a second submit while one is pending returns ErrSubmissionInFlight
// without touching the network.
type SubmissionService struct {
	config     *config.Config
	httpClient httpclient.Client
	cache      *gocache.Cache
	inFlight   atomic.Bool
}

// NewSubmissionService creates a new submission service instance
func NewSubmissionService(cfg *config.Config, httpClient httpclient.Client) *SubmissionService {
	return &SubmissionService{
		config:     cfg,
		httpClient: httpClient,
		cache:      gocache.New(cfg.Backend.LookupCacheTTL, 2*cfg.Backend.LookupCacheTTL),
	}
}

// SubmitRegistration posts the draft and its attachments as multipart form
// data and returns the normalized outcome. The returned error is non-nil
// only for the in-flight gate and serialization failures; backend rejections
// arrive as outcomes.
func (s *SubmissionService) SubmitRegistration(ctx context.Context, draft *models.ApplicantDraft, atts *attachments.Manager) (models.Outcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return models.Outcome{}, apperrors.ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	ctx, span := tracing.StartSpan(ctx, "submission.register")
	defer span.End()
	span.SetAttributes(attribute.String("user_type", string(draft.UserType)))

	body, contentType, err := serializeDraft(draft, atts)
	if err != nil {
		logger.Error("Failed to serialize registration", zap.Error(err))
		return models.Outcome{}, apperrors.InternalError(err.Error())
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Backend.RegisterURL(), body)
	if err != nil {
		return models.Outcome{}, apperrors.InternalError(err.Error())
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		outcome := s.transportOutcome("register", err, start)
		return outcome, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		s.observe("register", "read_error", start)
		return models.FailureOutcome(msgNetworkError), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome := normalizeRegistrationError(resp.StatusCode, respBody)
		s.observe("register", string(outcome.Kind), start)
		metrics.Submissions.WithLabelValues(string(outcome.Kind)).Inc()
		logger.Warn("Registration rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("outcome", string(outcome.Kind)))
		return outcome, nil
	}

	s.observe("register", "success", start)
	metrics.Submissions.WithLabelValues(string(models.OutcomeSuccess)).Inc()
	logger.Info("Registration submitted",
		zap.String("email", draft.Email),
		zap.String("user_type", string(draft.UserType)))
	return models.SuccessOutcome(), nil
}

// SubmitVerification posts the email and six-digit code as JSON.
func (s *SubmissionService) SubmitVerification(ctx context.Context, email, code string) (models.Outcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return models.Outcome{}, apperrors.ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	ctx, span := tracing.StartSpan(ctx, "submission.verify")
	defer span.End()

	outcome := s.postJSON(ctx, "verify", s.config.Backend.VerifyURL(),
		models.VerifyEmailRequest{Email: email, Code: code})

	result := "failure"
	if outcome.OK() {
		result = "success"
		logger.Info("Email verified", zap.String("email", email))
	}
	metrics.Verifications.WithLabelValues(result).Inc()
	return outcome, nil
}

// ResendCode asks the backend to send a fresh verification code.
func (s *SubmissionService) ResendCode(ctx context.Context, email string) (models.Outcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return models.Outcome{}, apperrors.ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	ctx, span := tracing.StartSpan(ctx, "submission.resend")
	defer span.End()

	outcome := s.postJSON(ctx, "resend", s.config.Backend.ResendURL(),
		models.ResendCodeRequest{Email: email})

	result := "failure"
	if outcome.OK() {
		result = "success"
		logger.Info("Verification code resent", zap.String("email", email))
	}
	metrics.ResendRequests.WithLabelValues(result).Inc()
	return outcome, nil
}

// LookupUserID fetches the applicant's id after a successful verification.
// Results are cached by email; failures are returned for the caller to treat
// as non-fatal.
func (s *SubmissionService) LookupUserID(ctx context.Context, email string) (string, error) {
	if cached, found := s.cache.Get(email); found {
		metrics.LookupCacheHits.Inc()
		return cached.(string), nil
	}
	metrics.LookupCacheMisses.Inc()

	ctx, span := tracing.StartSpan(ctx, "submission.lookup_userid")
	defer span.End()

	lookupURL := fmt.Sprintf("%s?email=%s", s.config.Backend.UserIDURL(), url.QueryEscape(email))

	userID, err := retry.DoWithResult(ctx, retry.LookupConfig(), "lookup_userid", func() (string, error) {
		start := time.Now()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.observe("lookup_userid", "error", start)
			return "", fmt.Errorf("failed to fetch user id: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			s.observe("lookup_userid", fmt.Sprintf("%d", resp.StatusCode), start)
			return "", fmt.Errorf("user id lookup returned status %d", resp.StatusCode)
		}

		var result models.UserIDResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			s.observe("lookup_userid", "decode_error", start)
			return "", fmt.Errorf("failed to decode user id response: %w", err)
		}

		s.observe("lookup_userid", "success", start)
		return result.UserID, nil
	})
	if err != nil {
		logger.Warn("Could not fetch user id", zap.String("email", email), zap.Error(err))
		return "", err
	}

	if userID != "" {
		s.cache.Set(email, userID, gocache.DefaultExpiration)
	}
	return userID, nil
}

// postJSON runs a JSON POST against the verification-style endpoints, which
// only answer with the simple message/error/detail shapes.
func (s *SubmissionService) postJSON(ctx context.Context, operation, endpoint string, payload interface{}) models.Outcome {
	start := time.Now()

	encoded, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode request", zap.String("operation", operation), zap.Error(err))
		return models.FailureOutcome(msgNetworkError)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return models.FailureOutcome(msgNetworkError)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return s.transportOutcome(operation, err, start)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		s.observe(operation, "read_error", start)
		return models.FailureOutcome(msgNetworkError)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome := normalizeSimpleError(resp.StatusCode, respBody)
		s.observe(operation, string(outcome.Kind), start)
		logger.Warn("Backend rejected request",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode))
		return outcome
	}

	s.observe(operation, "success", start)
	return models.SuccessOutcome()
}

// transportOutcome classifies a transport-level failure: the 30s deadline
// maps to the timeout outcome, everything else to the network-error message.
func (s *SubmissionService) transportOutcome(operation string, err error, start time.Time) models.Outcome {
	if isTimeout(err) {
		s.observe(operation, "timeout", start)
		logger.Warn("Backend request timed out", zap.String("operation", operation), zap.Error(err))
		return models.TimeoutOutcome()
	}

	s.observe(operation, "network_error", start)
	logger.Error("Backend request failed", zap.String("operation", operation), zap.Error(err))
	return models.FailureOutcome(msgNetworkError)
}

func (s *SubmissionService) observe(operation, status string, start time.Time) {
	duration := metrics.MeasureDuration(start)
	metrics.BackendRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.BackendRequestTotal.WithLabelValues(operation, status).Inc()
	logger.LogAPICall(operation, status, duration)
}

// isTimeout reports whether a transport error was caused by a deadline,
// covering both http.Client timeouts and context cancellation.
func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return urlErr.Timeout() || strings.Contains(urlErr.Err.Error(), "Client.Timeout")
	}
	return false
}
