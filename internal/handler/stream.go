package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/pkg/metrics"
)

// HeartbeatInterval is how often an idle stream sends a heartbeat event.
var HeartbeatInterval = 15 * time.Second

// Stream handles POST /api/v1/chat/stream
// Each message the turn appends is sent as it happens, followed by a final
// result event carrying the same payload as /chat/message.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	// The turn runs in its own goroutine; only this goroutine writes to w.
	messages := make(chan model.Message)
	results := make(chan model.ChatResult, 1)
	go func() {
		results <- h.chat.ProcessChatMessageStream(ctx, req.Message, req.EmployeeEmails, req.PendingEmail, func(msg model.Message) {
			select {
			case messages <- msg:
			case <-ctx.Done():
			}
		})
	}()

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("SSE client disconnected before turn finished")
			return

		case msg := <-messages:
			switch msg.Role {
			case model.RoleAssistant:
				h.send(w, flusher, "assistant", msg)
			case model.RoleTool:
				h.send(w, flusher, "tool_result", msg)
			}

		case <-heartbeat.C:
			h.send(w, flusher, "heartbeat", &model.HeartbeatEvent{Timestamp: time.Now()})

		case result := <-results:
			h.send(w, flusher, "result", result)
			return
		}
	}
}

func (h *ChatHandler) send(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	if err := sendSSEEvent(w, flusher, event, data); err != nil {
		h.logger.Warn("failed to write SSE event", zap.String("event", event), zap.Error(err))
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
