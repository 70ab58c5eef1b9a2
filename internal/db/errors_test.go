package db

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsNoRows(t *testing.T) {
	assert.False(t, IsNoRows(nil))
	assert.True(t, IsNoRows(ErrNoRows))
	assert.True(t, IsNoRows(sql.ErrNoRows))
	assert.True(t, IsNoRows(fmt.Errorf("get conversion: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("boom")))
}

type codedErr int

func (c codedErr) Error() string { return "sqlite error" }
func (c codedErr) Code() int     { return int(c) }

func TestIsForeignKeyViolation(t *testing.T) {
	assert.False(t, IsForeignKeyViolation(nil))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("insert: %w", codedErr(787))))
	assert.False(t, IsForeignKeyViolation(codedErr(5)))
	assert.False(t, IsForeignKeyViolation(errors.New("constraint")))
}
