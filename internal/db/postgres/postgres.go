package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jusunglee/uzscript/internal/db"
)

//go:embed schema.sql
var schemaSQL string

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements db.Repository using PostgreSQL via pgx
type Repository struct {
	pool *pgxpool.Pool
	q    querier
}

// New creates a new PostgreSQL repository
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := db.ParsePoolConfig(databaseURL, 5)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Repository{pool: pool, q: pool}, nil
}

// Migrate applies the embedded schema. Statements are idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// PoolStats exposes pool statistics for the metrics exporter.
func (r *Repository) PoolStats() *pgxpool.Stat {
	return r.pool.Stat()
}

func (r *Repository) WithTx(ctx context.Context, fn func(repo db.Repository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	// If fn() panics, the normal err-check rollback below won't run.
	// recover() catches the panic so we can roll back the tx (releasing the db connection), then re-panic.
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p)
		}
	}()

	err = fn(&Repository{pool: r.pool, q: tx})
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Conversion methods

const conversionColumns = `id, source_text, result_text, direction, detected, source, created_at`

func (r *Repository) CreateConversion(ctx context.Context, arg db.CreateConversionParams) (db.Conversion, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO conversions (source_text, result_text, direction, detected, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+conversionColumns,
		arg.SourceText, arg.ResultText, arg.Direction, arg.Detected, arg.Source)
	return scanConversion(row)
}

func (r *Repository) GetConversion(ctx context.Context, id int64) (db.Conversion, error) {
	row := r.q.QueryRow(ctx, `SELECT `+conversionColumns+` FROM conversions WHERE id = $1`, id)
	return scanConversion(row)
}

func (r *Repository) ListConversions(ctx context.Context, arg db.ListConversionsParams) ([]db.Conversion, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+conversionColumns+`
		FROM conversions
		WHERE ($1 = '' OR direction = $1)
		  AND ($2 = '' OR source = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, arg.Direction, arg.Source, arg.Limit, arg.Offset)
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
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM conversions
		WHERE ($1 = '' OR direction = $1)
		  AND ($2 = '' OR source = $2)
	`, arg.Direction, arg.Source).Scan(&count)
	return count, err
}

func (r *Repository) DeleteOldConversions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM conversions WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Feedback methods

func (r *Repository) CreateFeedback(ctx context.Context, arg db.CreateFeedbackParams) (db.Feedback, error) {
	var f db.Feedback
	err := r.q.QueryRow(ctx, `
		INSERT INTO feedback (conversion_id, discord_message_id, feedback_text)
		VALUES ($1, $2, $3)
		RETURNING id, conversion_id, discord_message_id, feedback_text, created_at
	`, arg.ConversionID, arg.DiscordMessageID, arg.FeedbackText).
		Scan(&f.ID, &f.ConversionID, &f.DiscordMessageID, &f.FeedbackText, &f.CreatedAt)
	if err != nil {
		return db.Feedback{}, err
	}
	return f, nil
}

func (r *Repository) ListFeedback(ctx context.Context, arg db.ListFeedbackParams) ([]db.ListFeedbackRow, error) {
	rows, err := r.q.Query(ctx, `
		SELECT f.id, f.conversion_id, f.discord_message_id, f.feedback_text, f.created_at,
		       c.source_text, c.result_text
		FROM feedback f
		LEFT JOIN conversions c ON c.id = f.conversion_id
		ORDER BY f.created_at DESC, f.id DESC
		LIMIT $1 OFFSET $2
	`, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []db.ListFeedbackRow
	for rows.Next() {
		var row db.ListFeedbackRow
		if err := rows.Scan(&row.ID, &row.ConversionID, &row.DiscordMessageID, &row.FeedbackText, &row.CreatedAt,
			&row.SourceText, &row.ResultText); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repository) CountFeedback(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&count)
	return count, err
}

func (r *Repository) DeleteOldFeedback(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM feedback WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanConversion(row pgx.Row) (db.Conversion, error) {
	var c db.Conversion
	err := row.Scan(&c.ID, &c.SourceText, &c.ResultText, &c.Direction, &c.Detected, &c.Source, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Conversion{}, db.ErrNoRows
	}
	if err != nil {
		return db.Conversion{}, err
	}
	return c, nil
}
