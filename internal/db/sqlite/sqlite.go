package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jusunglee/uzscript/internal/db"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Fixed-width UTC layout so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements db.Repository using SQLite
type Repository struct {
	db  *sql.DB
	q   querier
	now func() time.Time
}

// New creates a new SQLite repository and applies the schema.
func New(ctx context.Context, dbPath string) (*Repository, error) {
	// Strip sqlite:// prefix if present
	dbPath = strings.TrimPrefix(dbPath, "sqlite://")

	sqliteDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening SQLite database: %w", err)
	}

	// A single connection keeps ":memory:" databases and per-connection
	// pragmas consistent across calls.
	sqliteDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := sqliteDB.ExecContext(ctx, p); err != nil {
			sqliteDB.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	if _, err := sqliteDB.ExecContext(ctx, schemaSQL); err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	slog.Debug("opened SQLite database", "path", dbPath)

	return &Repository{db: sqliteDB, q: sqliteDB, now: time.Now}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) WithTx(ctx context.Context, fn func(repo db.Repository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Repository{db: r.db, q: tx, now: r.now}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Conversion methods

func (r *Repository) CreateConversion(ctx context.Context, arg db.CreateConversionParams) (db.Conversion, error) {
	createdAt := r.now().UTC()
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO conversions (source_text, result_text, direction, detected, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, arg.SourceText, arg.ResultText, arg.Direction, arg.Detected, arg.Source, formatTime(createdAt))
	if err != nil {
		return db.Conversion{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return db.Conversion{}, err
	}

	return r.GetConversion(ctx, id)
}

func (r *Repository) GetConversion(ctx context.Context, id int64) (db.Conversion, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, source_text, result_text, direction, detected, source, created_at
		FROM conversions
		WHERE id = ?
	`, id)
	return scanConversion(row)
}

func (r *Repository) ListConversions(ctx context.Context, arg db.ListConversionsParams) ([]db.Conversion, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, source_text, result_text, direction, detected, source, created_at
		FROM conversions
		WHERE (? = '' OR direction = ?)
		  AND (? = '' OR source = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, arg.Direction, arg.Direction, arg.Source, arg.Source, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []db.Conversion
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CountConversions(ctx context.Context, arg db.CountConversionsParams) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM conversions
		WHERE (? = '' OR direction = ?)
		  AND (? = '' OR source = ?)
	`, arg.Direction, arg.Direction, arg.Source, arg.Source).Scan(&count)
	return count, err
}

func (r *Repository) DeleteOldConversions(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, `
		DELETE FROM conversions WHERE created_at < ?
	`, formatTime(before))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Feedback methods

func (r *Repository) CreateFeedback(ctx context.Context, arg db.CreateFeedbackParams) (db.Feedback, error) {
	createdAt := r.now().UTC()
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO feedback (conversion_id, discord_message_id, feedback_text, created_at)
		VALUES (?, ?, ?, ?)
	`, arg.ConversionID, arg.DiscordMessageID, arg.FeedbackText, formatTime(createdAt))
	if err != nil {
		return db.Feedback{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return db.Feedback{}, err
	}

	var f db.Feedback
	var createdAtStr string
	err = r.q.QueryRowContext(ctx, `
		SELECT id, conversion_id, discord_message_id, feedback_text, created_at
		FROM feedback WHERE id = ?
	`, id).Scan(&f.ID, &f.ConversionID, &f.DiscordMessageID, &f.FeedbackText, &createdAtStr)
	if err != nil {
		return db.Feedback{}, err
	}
	f.CreatedAt = parseTime(createdAtStr)
	return f, nil
}

func (r *Repository) ListFeedback(ctx context.Context, arg db.ListFeedbackParams) ([]db.ListFeedbackRow, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT f.id, f.conversion_id, f.discord_message_id, f.feedback_text, f.created_at,
		       c.source_text, c.result_text
		FROM feedback f
		LEFT JOIN conversions c ON c.id = f.conversion_id
		ORDER BY f.created_at DESC, f.id DESC
		LIMIT ? OFFSET ?
	`, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []db.ListFeedbackRow
	for rows.Next() {
		var row db.ListFeedbackRow
		var createdAtStr string
		if err := rows.Scan(&row.ID, &row.ConversionID, &row.DiscordMessageID, &row.FeedbackText, &createdAtStr,
			&row.SourceText, &row.ResultText); err != nil {
			return nil, err
		}
		row.CreatedAt = parseTime(createdAtStr)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repository) CountFeedback(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&count)
	return count, err
}

func (r *Repository) DeleteOldFeedback(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx, `
		DELETE FROM feedback WHERE created_at < ?
	`, formatTime(before))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversion(row rowScanner) (db.Conversion, error) {
	var c db.Conversion
	var createdAtStr string
	err := row.Scan(&c.ID, &c.SourceText, &c.ResultText, &c.Direction, &c.Detected, &c.Source, &createdAtStr)
	if err == sql.ErrNoRows {
		return db.Conversion{}, db.ErrNoRows
	}
	if err != nil {
		return db.Conversion{}, err
	}
	c.CreatedAt = parseTime(createdAtStr)
	return c, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
