package fakebackend_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mahadevaaya/registration-flow/internal/fakebackend"
	"github.com/mahadevaaya/registration-flow/internal/models"
)

func registerForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		assert.NoError(t, w.WriteField(name, value))
	}
	assert.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func validFields(email, phone string) map[string]string {
	return map[string]string{
		models.FieldUserType: string(models.UserTypeIndividual),
		models.FieldFullName: "Ravi Kumar",
		models.FieldEmail:    email,
		models.FieldPhone:    phone,
		models.FieldPassword: "Sup3rSecret",
	}
}

func postRegister(s *fakebackend.Server, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/reg-user/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func postJSON(s *fakebackend.Server, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestRegisterMissingFieldsComeBackAsErrorsMap(t *testing.T) {
	s := fakebackend.NewServer()
	body, ct := registerForm(t, map[string]string{
		models.FieldUserType: string(models.UserTypeIndividual),
	})

	w := postRegister(s, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, models.FieldEmail)
	assert.Contains(t, resp.Errors, models.FieldFullName)
	assert.Contains(t, resp.Errors, models.FieldPassword)
}

func TestRegisterConflictMessages(t *testing.T) {
	s := fakebackend.NewServer()
	s.Seed("taken@example.com", "1112223334", true)
	s.Seed("pending@example.com", "5556667778", false)

	cases := []struct {
		name    string
		email   string
		phone   string
		message string
	}{
		{"verified email", "taken@example.com", "9876543210", models.MsgEmailRegistered},
		{"unverified email", "pending@example.com", "9876543210", models.MsgEmailNotVerified},
		{"phone in use", "new@example.com", "1112223334", models.MsgPhoneInUse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := registerForm(t, validFields(tc.email, tc.phone))
			w := postRegister(s, body, ct)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.message)
		})
	}
}

func TestVerifyAssignsUserID(t *testing.T) {
	s := fakebackend.NewServer()
	body, ct := registerForm(t, validFields("ravi@example.com", "9876543210"))
	assert.Equal(t, http.StatusCreated, postRegister(s, body, ct).Code)

	w := postJSON(s, "/api/verify-email/", models.VerifyEmailRequest{
		Email: "ravi@example.com",
		Code:  fakebackend.DefaultCode,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UserID string `json:"user_id"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.UserID, "EVT-"))

	lookup := httptest.NewRequest("GET", "/api/get-userid/?email=ravi@example.com", nil)
	lw := httptest.NewRecorder()
	s.Handler().ServeHTTP(lw, lookup)
	assert.Equal(t, http.StatusOK, lw.Code)
	assert.Contains(t, lw.Body.String(), resp.UserID)
}

func TestVerifyWrongCode(t *testing.T) {
	s := fakebackend.NewServer()
	s.Seed("ravi@example.com", "9876543210", false)

	w := postJSON(s, "/api/verify-email/", models.VerifyEmailRequest{
		Email: "ravi@example.com",
		Code:  "000000",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid verification code.")
}

func TestResendUnknownEmail(t *testing.T) {
	s := fakebackend.NewServer()
	w := postJSON(s, "/api/resend-email-otp/", models.ResendCodeRequest{
		Email: "nobody@example.com",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
