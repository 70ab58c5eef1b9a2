package conversion

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jusunglee/uzscript/internal/db"
	"github.com/jusunglee/uzscript/internal/db/sqlite"
	"github.com/jusunglee/uzscript/internal/transliteration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConverter(t *testing.T) (*Converter, db.Repository) {
	t.Helper()
	repo, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewConverter(repo, discardLogger()), repo
}

func TestConvertWithoutSave(t *testing.T) {
	c, repo := newTestConverter(t)
	ctx := context.Background()

	out, err := c.Convert(ctx, Request{Text: "Salom, dunyo!"})
	require.NoError(t, err)
	assert.Equal(t, "Салом, дунё!", out.Text)
	assert.Equal(t, transliteration.LatinToCyrillic, out.Direction)
	assert.True(t, out.Detected)
	assert.Zero(t, out.ID)

	count, err := repo.CountConversions(ctx, db.CountConversionsParams{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestConvertSaves(t *testing.T) {
	c, repo := newTestConverter(t)
	ctx := context.Background()

	out, err := c.Convert(ctx, Request{
		Text:      "Тошкент",
		Direction: transliteration.CyrillicToLatin,
		Source:    SourceDiscord,
		Save:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Toshkent", out.Text)
	assert.False(t, out.Detected)
	require.NotZero(t, out.ID)

	stored, err := repo.GetConversion(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, "Тошкент", stored.SourceText)
	assert.Equal(t, "Toshkent", stored.ResultText)
	assert.Equal(t, "cyrillic-to-latin", stored.Direction)
	assert.Equal(t, SourceDiscord, stored.Source)
}

func TestConvertWithoutRepoIgnoresSave(t *testing.T) {
	c := NewConverter(nil, discardLogger())

	out, err := c.Convert(context.Background(), Request{Text: "kitob", Save: true})
	require.NoError(t, err)
	assert.Equal(t, "китоб", out.Text)
	assert.Zero(t, out.ID)
}

func TestConvertValidation(t *testing.T) {
	c := NewConverter(nil, discardLogger())

	_, err := c.Convert(context.Background(), Request{Text: ""})
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = c.Convert(context.Background(), Request{Text: strings.Repeat("a", MaxTextBytes+1)})
	assert.ErrorIs(t, err, ErrTextTooLong)
	assert.True(t, IsUserError(err))

	_, err = c.Convert(context.Background(), Request{Text: strings.Repeat("a", MaxTextBytes)})
	assert.NoError(t, err)
}

func TestDetect(t *testing.T) {
	c := NewConverter(nil, discardLogger())

	d := c.Detect("Привет hi")
	assert.Equal(t, transliteration.ScriptCyrillic, d.Script)
	assert.Equal(t, 6, d.Cyrillic)
	assert.Equal(t, 2, d.Latin)

	d = c.Detect("12345")
	assert.Equal(t, transliteration.ScriptLatin, d.Script)
	assert.Zero(t, d.Latin+d.Cyrillic)
}

func TestSubmitFeedback(t *testing.T) {
	c, repo := newTestConverter(t)
	ctx := context.Background()

	out, err := c.Convert(ctx, Request{Text: "o'zbek", Save: true})
	require.NoError(t, err)

	fb, err := c.SubmitFeedback(ctx, FeedbackRequest{ConversionID: out.ID, Text: "  correct  "})
	require.NoError(t, err)
	assert.Equal(t, "correct", fb.FeedbackText)
	assert.Equal(t, out.ID, fb.ConversionID.Int64)
	assert.False(t, fb.DiscordMessageID.Valid)

	fb, err = c.SubmitFeedback(ctx, FeedbackRequest{DiscordMessageID: "123", Text: "ok", Source: SourceDiscord})
	require.NoError(t, err)
	assert.False(t, fb.ConversionID.Valid)

	count, err := repo.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSubmitFeedbackErrors(t *testing.T) {
	c, _ := newTestConverter(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  FeedbackRequest
		want error
	}{
		{"empty", FeedbackRequest{ConversionID: 1, Text: "   "}, ErrEmptyFeedback},
		{"too long", FeedbackRequest{ConversionID: 1, Text: strings.Repeat("x", MaxFeedbackBytes+1)}, ErrFeedbackTooLong},
		{"no target", FeedbackRequest{Text: "hm"}, ErrNoFeedbackTarget},
		{"missing conversion", FeedbackRequest{ConversionID: 999, Text: "hm"}, ErrConversionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SubmitFeedback(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsUserError(err))
		})
	}

	_, err := NewConverter(nil, discardLogger()).SubmitFeedback(ctx, FeedbackRequest{ConversionID: 1, Text: "x"})
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}
