// Package conversion runs transliterations on behalf of the web and bot
// surfaces: it validates input, records metrics, and optionally stores
// the result in history.
package conversion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jusunglee/uzscript/internal/db"
	"github.com/jusunglee/uzscript/internal/metrics"
	"github.com/jusunglee/uzscript/internal/transliteration"
)

const (
	MaxTextBytes     = 64 << 10
	MaxFeedbackBytes = 500
)

// Sources recorded alongside stored conversions.
const (
	SourceWeb     = "web"
	SourceDiscord = "discord"
	SourceCLI     = "cli"
)

var (
	ErrEmptyText          = errors.New("text is required")
	ErrTextTooLong        = fmt.Errorf("text must be %d bytes or fewer", MaxTextBytes)
	ErrEmptyFeedback      = errors.New("feedback text is required")
	ErrFeedbackTooLong    = fmt.Errorf("feedback text must be %d characters or fewer", MaxFeedbackBytes)
	ErrNoFeedbackTarget   = errors.New("feedback needs a conversion or a message")
	ErrConversionNotFound = errors.New("conversion not found")
	ErrHistoryDisabled    = errors.New("history is not configured")
)

type Converter struct {
	repo db.Repository
	log  *slog.Logger
}

// NewConverter returns a Converter. repo may be nil, in which case
// nothing is stored and Save is ignored.
func NewConverter(repo db.Repository, log *slog.Logger) *Converter {
	return &Converter{repo: repo, log: log}
}

type Request struct {
	Text      string
	Direction transliteration.Direction
	Source    string
	Save      bool
}

// Outcome is a transliteration result plus the history row id when it
// was stored (zero otherwise).
type Outcome struct {
	transliteration.Result
	ID int64
}

func (c *Converter) Convert(ctx context.Context, req Request) (Outcome, error) {
	if err := ValidateText(req.Text); err != nil {
		return Outcome{}, err
	}

	res := transliteration.TransliterateDetailed(req.Text, req.Direction)

	source := req.Source
	if source == "" {
		source = SourceWeb
	}
	metrics.TransliterationsTotal.WithLabelValues(string(res.Direction), strconv.FormatBool(res.Detected), source).Inc()
	metrics.InputBytes.WithLabelValues(source).Observe(float64(len(req.Text)))
	metrics.ShieldedSpans.Add(float64(res.Spans))

	out := Outcome{Result: res}
	if !req.Save || c.repo == nil {
		return out, nil
	}

	conv, err := c.repo.CreateConversion(ctx, db.CreateConversionParams{
		SourceText: req.Text,
		ResultText: res.Text,
		Direction:  string(res.Direction),
		Detected:   res.Detected,
		Source:     source,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("saving conversion: %w", err)
	}
	out.ID = conv.ID

	c.log.DebugContext(ctx, "stored conversion", "id", conv.ID, "direction", res.Direction, "source", source)
	return out, nil
}

// Detection is the script verdict for a text along with the letter
// counts it was based on.
type Detection struct {
	Script   transliteration.Script
	Latin    int
	Cyrillic int
}

func (c *Converter) Detect(text string) Detection {
	latin, cyrillic := transliteration.CountLetters(text)
	script := transliteration.DetectScript(text)
	metrics.DetectionsTotal.WithLabelValues(string(script)).Inc()
	return Detection{Script: script, Latin: latin, Cyrillic: cyrillic}
}

type FeedbackRequest struct {
	ConversionID     int64
	DiscordMessageID string
	Text             string
	Source           string
}

func (c *Converter) SubmitFeedback(ctx context.Context, req FeedbackRequest) (db.Feedback, error) {
	if c.repo == nil {
		return db.Feedback{}, ErrHistoryDisabled
	}

	text := strings.TrimSpace(req.Text)
	switch {
	case text == "":
		return db.Feedback{}, ErrEmptyFeedback
	case len(text) > MaxFeedbackBytes:
		return db.Feedback{}, ErrFeedbackTooLong
	case req.ConversionID == 0 && req.DiscordMessageID == "":
		return db.Feedback{}, ErrNoFeedbackTarget
	}

	fb, err := c.repo.CreateFeedback(ctx, db.CreateFeedbackParams{
		ConversionID:     sql.NullInt64{Int64: req.ConversionID, Valid: req.ConversionID != 0},
		DiscordMessageID: sql.NullString{String: req.DiscordMessageID, Valid: req.DiscordMessageID != ""},
		FeedbackText:     text,
	})
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return db.Feedback{}, ErrConversionNotFound
		}
		return db.Feedback{}, fmt.Errorf("creating feedback: %w", err)
	}

	source := req.Source
	if source == "" {
		source = SourceWeb
	}
	metrics.FeedbackTotal.WithLabelValues(source).Inc()
	c.log.InfoContext(ctx, "feedback stored", "id", fb.ID, "source", source)
	return fb, nil
}

// ValidateText reports whether text is acceptable input for Convert.
func ValidateText(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	if len(text) > MaxTextBytes {
		return ErrTextTooLong
	}
	return nil
}

// IsUserError reports whether err is caused by bad input rather than a
// failure on our side.
func IsUserError(err error) bool {
	for _, target := range []error{
		ErrEmptyText, ErrTextTooLong, ErrEmptyFeedback, ErrFeedbackTooLong,
		ErrNoFeedbackTarget, ErrConversionNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
