package retention

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jusunglee/uzscript/internal/db"
	"github.com/jusunglee/uzscript/internal/db/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo db.Repository) {
	t.Helper()
	ctx := context.Background()

	c, err := repo.CreateConversion(ctx, db.CreateConversionParams{
		SourceText: "salom", ResultText: "салом", Direction: "latin-to-cyrillic", Source: "web",
	})
	require.NoError(t, err)
	_, err = repo.CreateConversion(ctx, db.CreateConversionParams{
		SourceText: "дунё", ResultText: "dunyo", Direction: "cyrillic-to-latin", Source: "discord",
	})
	require.NoError(t, err)

	_, err = repo.CreateFeedback(ctx, db.CreateFeedbackParams{
		ConversionID: sql.NullInt64{Int64: c.ID, Valid: true},
		FeedbackText: "ok",
	})
	require.NoError(t, err)
	_, err = repo.CreateFeedback(ctx, db.CreateFeedbackParams{
		DiscordMessageID: sql.NullString{String: "msg-1", Valid: true},
		FeedbackText:     "👍",
	})
	require.NoError(t, err)
}

func newTestCleaner(t *testing.T, maxAge time.Duration) (*Cleaner, db.Repository) {
	t.Helper()
	repo, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCleaner(repo, log, maxAge), repo
}

func TestRunOnceKeepsFreshRows(t *testing.T) {
	c, repo := newTestCleaner(t, 24*time.Hour)
	seed(t, repo)

	res, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	count, err := repo.CountConversions(context.Background(), db.CountConversionsParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRunOnceDeletesExpiredRows(t *testing.T) {
	c, repo := newTestCleaner(t, 24*time.Hour)
	seed(t, repo)
	c.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	res, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Conversions: 2, Feedback: 2}, res)

	ctx := context.Background()
	convs, err := repo.CountConversions(ctx, db.CountConversionsParams{})
	require.NoError(t, err)
	assert.Zero(t, convs)
	fb, err := repo.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Zero(t, fb)
}

func TestRunOnceReportsErrors(t *testing.T) {
	c, repo := newTestCleaner(t, time.Hour)
	require.NoError(t, repo.Close())

	_, err := c.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deleting old feedback")
}

func TestRunStopsOnCancel(t *testing.T) {
	c, _ := newTestCleaner(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
