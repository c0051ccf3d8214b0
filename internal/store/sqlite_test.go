package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/announcement-agent/internal/model"
	"github.com/capitalize-ai/announcement-agent/internal/store"
)

func testStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "history", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.March, 4, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		rec := &model.RecentEmail{
			Subject:      fmt.Sprintf("Update %d", i),
			Body:         "Line one\nLine two",
			Recipients:   []string{"a@x.com", "b@x.com"},
			SentAt:       base.Add(time.Duration(i) * time.Minute),
			SuccessCount: 1,
			TotalCount:   2,
		}
		require.NoError(t, s.Record(ctx, rec))
		assert.EqualValues(t, i+1, rec.ID)
	}

	recent, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, "Update 6", recent[0].Subject)
	assert.Equal(t, "Update 2", recent[4].Subject)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, recent[0].Recipients)
	assert.Equal(t, "Line one\nLine two", recent[0].Body)
	assert.True(t, base.Add(6*time.Minute).Equal(recent[0].SentAt))
	assert.Equal(t, 1, recent[0].SuccessCount)
	assert.Equal(t, 2, recent[0].TotalCount)
}

func TestRecentIsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, &model.RecentEmail{Subject: "A", Body: "a", Recipients: []string{"a@x.com"}, SentAt: time.Now(), SuccessCount: 1, TotalCount: 1}))
	require.NoError(t, s.Record(ctx, &model.RecentEmail{Subject: "B", Body: "b", Recipients: []string{"b@x.com"}, SentAt: time.Now(), TotalCount: 1}))

	first, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	second, err := s.Recent(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestRecentEmpty(t *testing.T) {
	s := testStore(t)

	recent, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
	assert.NoError(t, s.Ping(context.Background()))
}
