package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/capitalize-ai/announcement-agent/internal/agent"
	"github.com/capitalize-ai/announcement-agent/internal/middleware"
	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

// ChatService runs agent turns.
type ChatService interface {
	ProcessChatMessage(ctx context.Context, message string, recipients []string, pending *model.EmailDraft) model.ChatResult
	ProcessChatMessageStream(ctx context.Context, message string, recipients []string, pending *model.EmailDraft, observe agent.Observer) model.ChatResult
}

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	chat   ChatService
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: log,
	}
}

// Message handles POST /api/v1/chat/message
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	result := h.chat.ProcessChatMessage(r.Context(), req.Message, req.EmployeeEmails, req.PendingEmail)
	writeJSON(w, http.StatusOK, result)
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (*model.ChatRequest, bool) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	if err := middleware.ValidateChatMessage(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	if err := middleware.ValidateRecipients(req.EmployeeEmails, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	return &req, true
}
