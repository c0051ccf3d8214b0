package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/announcement-agent/internal/model"
)

const (
	// StreamName is the name of the announcements stream.
	StreamName = "ANNOUNCEMENTS"

	// SubjectPrefix is the prefix for all announcement subjects.
	SubjectPrefix = "announce"
)

// SentSubject carries one record per delivered batch.
const SentSubject = SubjectPrefix + ".sent"

// EventSubject returns the subject for a turn event with the given outcome.
func EventSubject(outcome string) string {
	return fmt.Sprintf("%s.turn.%s", SubjectPrefix, outcome)
}

// HistoryStream stores send history and turn events in JetStream.
type HistoryStream struct {
	client *Client
	stream jetstream.Stream
}

// NewHistoryStream creates the stream if needed and binds to it.
func NewHistoryStream(ctx context.Context, client *Client) (*HistoryStream, error) {
	js := client.JetStream()

	stream, err := js.Stream(ctx, StreamName)
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		stream, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:        StreamName,
			Subjects:    []string{SubjectPrefix + ".>"},
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      365 * 24 * time.Hour,
			MaxBytes:    1024 * 1024 * 1024,
			Storage:     jetstream.FileStorage,
			Replicas:    1,
			Compression: jetstream.S2Compression,
			DenyDelete:  true,
			DenyPurge:   true,
			Description: "Sent announcement history and agent turn events",
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to bind stream: %w", err)
	}

	return &HistoryStream{client: client, stream: stream}, nil
}

// Record publishes a send record. The stream sequence becomes rec.ID.
func (h *HistoryStream) Record(ctx context.Context, rec *model.RecentEmail) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	ack, err := h.client.JetStream().Publish(ctx, SentSubject, data)
	if err != nil {
		return fmt.Errorf("failed to publish record: %w", err)
	}

	rec.ID = int64(ack.Sequence)
	return nil
}

// PublishTurn publishes a turn event.
func (h *HistoryStream) PublishTurn(ctx context.Context, event *model.TurnEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := h.client.JetStream().Publish(ctx, EventSubject(event.Outcome), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Recent returns up to limit send records, newest first, by walking the
// stream backwards from its last sequence.
func (h *HistoryStream) Recent(ctx context.Context, limit int) ([]model.RecentEmail, error) {
	info, err := h.stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream info: %w", err)
	}

	out := make([]model.RecentEmail, 0, limit)
	for seq := info.State.LastSeq; seq >= info.State.FirstSeq && seq > 0 && len(out) < limit; seq-- {
		msg, err := h.stream.GetMsg(ctx, seq)
		if errors.Is(err, jetstream.ErrMsgNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read message %d: %w", seq, err)
		}
		if msg.Subject != SentSubject {
			continue
		}

		var rec model.RecentEmail
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			continue
		}
		rec.ID = int64(msg.Sequence)
		out = append(out, rec)
	}

	return out, nil
}

// Ping reports whether the underlying connection is up.
func (h *HistoryStream) Ping(ctx context.Context) error {
	return h.client.Ping(ctx)
}

// Close is a no-op; the connection is owned by the Client.
func (h *HistoryStream) Close() error {
	return nil
}
