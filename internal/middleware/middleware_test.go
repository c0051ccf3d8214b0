package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/announcement-agent/internal/middleware"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

func TestValidateChatMessage(t *testing.T) {
	cases := []struct {
		name    string
		message string
		wantErr bool
	}{
		{name: "ok", message: "Draft an email about the offsite"},
		{name: "empty", message: "", wantErr: true},
		{name: "blank", message: "   ", wantErr: true},
		{name: "at limit", message: strings.Repeat("é", middleware.MaxMessageLength)},
		{name: "over limit", message: strings.Repeat("a", middleware.MaxMessageLength+1), wantErr: true},
		{name: "invalid utf8", message: "\xff", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := middleware.ValidateChatMessage(tc.message)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateSubject(t *testing.T) {
	assert.NoError(t, middleware.ValidateSubject("Quarterly update"))
	assert.Error(t, middleware.ValidateSubject(""))
	assert.Error(t, middleware.ValidateSubject(strings.Repeat("s", middleware.MaxSubjectLength+1)))
	assert.NoError(t, middleware.ValidateBody("Hello"))
	assert.Error(t, middleware.ValidateBody(" \n"))
}

func TestValidateRecipients(t *testing.T) {
	cases := []struct {
		name       string
		recipients []string
		required   bool
		wantErr    bool
	}{
		{name: "valid", recipients: []string{"a@x.com", "b.c@y.org"}, required: true},
		{name: "required but empty", required: true, wantErr: true},
		{name: "optional empty"},
		{name: "display name rejected", recipients: []string{"Ann <a@x.com>"}, wantErr: true},
		{name: "garbage", recipients: []string{"not-an-email"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := middleware.ValidateRecipients(tc.recipients, tc.required)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func signed(t *testing.T, secret string, claims middleware.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuth(t *testing.T) {
	const secret = "test-secret"

	var gotUser string
	var gotScope bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = middleware.GetUserID(r.Context())
		gotScope = middleware.HasScope(r.Context(), middleware.ScopeSend)
		w.WriteHeader(http.StatusNoContent)
	})
	h := middleware.Auth(secret)(next)

	valid := signed(t, secret, middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "comms-team",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scopes: []string{middleware.ScopeSend},
	})
	expired := signed(t, secret, middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid", header: "Bearer " + valid, status: http.StatusNoContent},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signed(t, "other", middleware.Claims{}), status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	assert.Equal(t, "comms-team", gotUser)
	assert.True(t, gotScope)
}

func TestRequireScope(t *testing.T) {
	h := middleware.RequireScope(middleware.ScopeSend)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"insufficient permissions"}`, rec.Body.String())
}

func TestLoggingCorrelationID(t *testing.T) {
	var seen string
	h := middleware.Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetCorrelationID(r.Context())
		_, ok := w.(http.Flusher)
		assert.True(t, ok)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.CorrelationIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(middleware.CorrelationIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get(middleware.CorrelationIDHeader))
}

func TestRateLimit(t *testing.T) {
	h := middleware.RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	var rec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded","retry_after":60}`, rec.Body.String())
}
