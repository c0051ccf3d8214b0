package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/capitalize-ai/announcement-agent/internal/middleware"
	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

// EmailService sends emails directly and lists send history.
type EmailService interface {
	SendEmailToEmployees(ctx context.Context, subject, body string, recipients []string) (*model.SendOutcome, error)
	GetRecentEmails(ctx context.Context, limit int) ([]model.RecentEmail, error)
}

// EmailHandler handles email endpoints.
type EmailHandler struct {
	emails EmailService
	logger *logger.Logger
}

// NewEmailHandler creates a new email handler.
func NewEmailHandler(emails EmailService, log *logger.Logger) *EmailHandler {
	return &EmailHandler{
		emails: emails,
		logger: log,
	}
}

// RecentEmailsResponse is the response for listing sent emails.
type RecentEmailsResponse struct {
	Emails []model.RecentEmail `json:"emails"`
	Count  int                 `json:"count"`
}

// Send handles POST /api/v1/email/send
func (h *EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.EmailSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateSubject(req.Subject); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateBody(req.Body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateRecipients(req.EmployeeEmails, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.emails.SendEmailToEmployees(r.Context(), req.Subject, req.Body, req.EmployeeEmails)
	if err != nil {
		h.logger.Error("failed to send email", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to send email")
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// Recent handles GET /api/v1/email/recent
func (h *EmailHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	emails, err := h.emails.GetRecentEmails(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list recent emails", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list recent emails")
		return
	}

	writeJSON(w, http.StatusOK, &RecentEmailsResponse{
		Emails: emails,
		Count:  len(emails),
	})
}
