package dbopen

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jusunglee/uzscript/internal/db"
	"github.com/jusunglee/uzscript/internal/db/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgres://user@localhost/uzscript", "postgres"},
		{"postgresql://localhost/uzscript", "postgres"},
		{"sqlite://uzscript.db", "sqlite"},
		{"./data/uzscript.db", "sqlite"},
		{":memory:", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.url))
		})
	}
}

func TestOpenSQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "uzscript.db")

	repo, err := Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	defer repo.Close()

	_, ok := repo.(*sqlite.Repository)
	assert.True(t, ok)

	_, err = repo.CreateConversion(ctx, db.CreateConversionParams{
		SourceText: "kitob",
		ResultText: "китоб",
		Direction:  "latin-to-cyrillic",
		Source:     "cli",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// Reopening keeps existing rows.
	repo, err = Open(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	count, err := repo.CountConversions(ctx, db.CountConversionsParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestOpenEmptyURL(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
