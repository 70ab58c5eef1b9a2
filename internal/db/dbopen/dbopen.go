// Package dbopen picks a repository implementation from a database URL.
package dbopen

import (
	"context"
	"fmt"
	"strings"

	"github.com/jusunglee/uzscript/internal/db"
	"github.com/jusunglee/uzscript/internal/db/postgres"
	"github.com/jusunglee/uzscript/internal/db/sqlite"
)

// Kind reports which backend a URL selects.
func Kind(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// Open connects to PostgreSQL for postgres:// URLs and SQLite otherwise
// (a sqlite:// URL, a file path, or ":memory:"). The schema is applied
// before returning.
func Open(ctx context.Context, databaseURL string) (db.Repository, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	if Kind(databaseURL) == "postgres" {
		repo, err := postgres.New(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating PostgreSQL connection: %w", err)
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	}

	repo, err := sqlite.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating SQLite connection: %w", err)
	}
	return repo, nil
}
