package nats_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/internal/nats"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

func TestEventSubject(t *testing.T) {
	assert.Equal(t, "announce.turn.completed", nats.EventSubject("completed"))
	assert.Equal(t, "announce.sent", nats.SentSubject)
}

// Runs against a live JetStream server when NATS_TEST_URL is set.
func TestHistoryStreamRoundTrip(t *testing.T) {
	url := os.Getenv("NATS_TEST_URL")
	if url == "" {
		t.Skip("NATS_TEST_URL not set")
	}

	ctx := context.Background()
	client, err := nats.Connect(ctx, nats.Config{URL: url}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	history, err := nats.NewHistoryStream(ctx, client)
	require.NoError(t, err)

	rec := &model.RecentEmail{
		Subject:      "Round trip",
		Body:         "body",
		Recipients:   []string{"a@x.com"},
		SentAt:       time.Now().UTC(),
		SuccessCount: 1,
		TotalCount:   1,
	}
	require.NoError(t, history.Record(ctx, rec))
	require.NoError(t, history.PublishTurn(ctx, &model.TurnEvent{ID: "t1", Outcome: "completed", Timestamp: time.Now()}))

	first, err := history.Recent(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, rec.ID, first[0].ID)
	assert.Equal(t, "Round trip", first[0].Subject)

	second, err := history.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConnectRejectsMissingCA(t *testing.T) {
	_, err := nats.Connect(context.Background(), nats.Config{
		URL:    "nats://127.0.0.1:1",
		CAFile: "/nonexistent/ca.pem",
	}, logger.NewNop())
	assert.ErrorContains(t, err, "CA file")
}
