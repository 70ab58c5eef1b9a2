package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jusunglee/uzscript/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createConversion(t *testing.T, repo db.Repository, src, dir, source string) db.Conversion {
	t.Helper()
	c, err := repo.CreateConversion(context.Background(), db.CreateConversionParams{
		SourceText: src,
		ResultText: src + "!",
		Direction:  dir,
		Source:     source,
	})
	require.NoError(t, err)
	return c
}

func TestConversionCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c, err := repo.CreateConversion(ctx, db.CreateConversionParams{
		SourceText: "salom",
		ResultText: "салом",
		Direction:  "latin-to-cyrillic",
		Detected:   true,
		Source:     "web",
	})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "салом", c.ResultText)
	assert.True(t, c.Detected)
	assert.WithinDuration(t, time.Now(), c.CreatedAt, time.Minute)

	got, err := repo.GetConversion(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = repo.GetConversion(ctx, c.ID+100)
	assert.True(t, db.IsNoRows(err))
}

func TestListAndCountConversions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	createConversion(t, repo, "a", "latin-to-cyrillic", "web")
	createConversion(t, repo, "b", "cyrillic-to-latin", "web")
	createConversion(t, repo, "c", "latin-to-cyrillic", "discord")

	all, err := repo.ListConversions(ctx, db.ListConversionsParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].SourceText, "newest first")

	l2c, err := repo.ListConversions(ctx, db.ListConversionsParams{Direction: "latin-to-cyrillic", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, l2c, 2)

	web, err := repo.ListConversions(ctx, db.ListConversionsParams{Source: "web", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, web, 1)
	assert.Equal(t, "a", web[0].SourceText)

	count, err := repo.CountConversions(ctx, db.CountConversionsParams{Direction: "latin-to-cyrillic", Source: "discord"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountConversions(ctx, db.CountConversionsParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestFeedback(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := createConversion(t, repo, "shahar", "latin-to-cyrillic", "web")

	fb, err := repo.CreateFeedback(ctx, db.CreateFeedbackParams{
		ConversionID: sql.NullInt64{Int64: c.ID, Valid: true},
		FeedbackText: "looks right",
	})
	require.NoError(t, err)
	assert.Equal(t, "looks right", fb.FeedbackText)
	assert.Equal(t, c.ID, fb.ConversionID.Int64)

	_, err = repo.CreateFeedback(ctx, db.CreateFeedbackParams{
		DiscordMessageID: sql.NullString{String: "msg-1", Valid: true},
		FeedbackText:     "👍",
	})
	require.NoError(t, err)

	rows, err := repo.ListFeedback(ctx, db.ListFeedbackParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "msg-1", rows[0].DiscordMessageID.String)
	assert.False(t, rows[0].SourceText.Valid)
	assert.Equal(t, "shahar", rows[1].SourceText.String)

	count, err := repo.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestFeedbackForMissingConversion(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateFeedback(context.Background(), db.CreateFeedbackParams{
		ConversionID: sql.NullInt64{Int64: 42, Valid: true},
		FeedbackText: "orphan",
	})
	require.Error(t, err)
	assert.True(t, db.IsForeignKeyViolation(err))
}

func TestDeleteOldRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	repo.now = func() time.Time { return old }
	oldConv := createConversion(t, repo, "old", "latin-to-cyrillic", "web")
	_, err := repo.CreateFeedback(ctx, db.CreateFeedbackParams{
		ConversionID: sql.NullInt64{Int64: oldConv.ID, Valid: true},
		FeedbackText: "old feedback",
	})
	require.NoError(t, err)

	repo.now = time.Now
	createConversion(t, repo, "new", "latin-to-cyrillic", "web")

	cutoff := time.Now().Add(-24 * time.Hour)
	deleted, err := repo.DeleteOldConversions(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Feedback on the deleted conversion goes with it.
	count, err := repo.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	deleted, err = repo.DeleteOldFeedback(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	remaining, err := repo.CountConversions(ctx, db.CountConversionsParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)
}

func TestWithTxRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := repo.WithTx(ctx, func(tx db.Repository) error {
		createConversion(t, tx, "inside", "latin-to-cyrillic", "web")
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	count, err := repo.CountConversions(ctx, db.CountConversionsParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	err = repo.WithTx(ctx, func(tx db.Repository) error {
		createConversion(t, tx, "committed", "latin-to-cyrillic", "web")
		return nil
	})
	require.NoError(t, err)

	count, err = repo.CountConversions(ctx, db.CountConversionsParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
