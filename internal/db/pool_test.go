package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

// readOnlyPool implements only the statement methods the stores call.
type readOnlyPool struct{}

func (readOnlyPool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("SELECT 0"), nil
}
func (readOnlyPool) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (readOnlyPool) QueryRow(context.Context, string, ...any) pgx.Row       { return nil }
func (readOnlyPool) Close()                                                 {}

var _ Pool = (*pgxpool.Pool)(nil)

func TestPool_NoTransactionMethods(t *testing.T) {
	var p Pool = readOnlyPool{}
	tag, err := p.Exec(context.Background(), "SELECT 1")
	assert.NoError(t, err)
	assert.Equal(t, "SELECT 0", tag.String())
}

func TestOpen_InvalidConnString(t *testing.T) {
	_, err := Open(context.Background(), "postgres://%zz", nil)
	assert.Error(t, err)
}
