package db

import (
	"context"
	"database/sql"
	"time"
)

// Conversion is one stored transliteration.
type Conversion struct {
	ID         int64
	SourceText string
	ResultText string
	Direction  string
	Detected   bool
	Source     string
	CreatedAt  time.Time
}

// Feedback is a user correction. It points either at a stored conversion
// or at the Discord message that showed one.
type Feedback struct {
	ID               int64
	ConversionID     sql.NullInt64
	DiscordMessageID sql.NullString
	FeedbackText     string
	CreatedAt        time.Time
}

type CreateConversionParams struct {
	SourceText string
	ResultText string
	Direction  string
	Detected   bool
	Source     string
}

// ListConversionsParams filters by Direction and Source when they are
// non-empty.
type ListConversionsParams struct {
	Direction string
	Source    string
	Limit     int32
	Offset    int32
}

type CountConversionsParams struct {
	Direction string
	Source    string
}

type CreateFeedbackParams struct {
	ConversionID     sql.NullInt64
	DiscordMessageID sql.NullString
	FeedbackText     string
}

type ListFeedbackParams struct {
	Limit  int32
	Offset int32
}

// ListFeedbackRow joins feedback with the conversion it refers to, when
// there is one.
type ListFeedbackRow struct {
	ID               int64
	ConversionID     sql.NullInt64
	DiscordMessageID sql.NullString
	FeedbackText     string
	CreatedAt        time.Time
	SourceText       sql.NullString
	ResultText       sql.NullString
}

// Repository defines the interface for database operations
type Repository interface {
	// Conversions
	CreateConversion(ctx context.Context, arg CreateConversionParams) (Conversion, error)
	GetConversion(ctx context.Context, id int64) (Conversion, error)
	ListConversions(ctx context.Context, arg ListConversionsParams) ([]Conversion, error)
	CountConversions(ctx context.Context, arg CountConversionsParams) (int64, error)

	// Feedback
	CreateFeedback(ctx context.Context, arg CreateFeedbackParams) (Feedback, error)
	ListFeedback(ctx context.Context, arg ListFeedbackParams) ([]ListFeedbackRow, error)
	CountFeedback(ctx context.Context) (int64, error)

	// Retention/Cleanup
	DeleteOldConversions(ctx context.Context, before time.Time) (int64, error)
	DeleteOldFeedback(ctx context.Context, before time.Time) (int64, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
