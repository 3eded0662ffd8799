package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lunch-cli/internal/db"
	"github.com/sells-group/lunch-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := db.Open(ctx, connString, nil)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS menu_collections (
	date       TEXT PRIMARY KEY,
	menus      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_menu_collections_updated_at ON menu_collections(updated_at);
`

var upsertCollection = mustUpsertSQL(db.UpsertConfig{
	Table:        "menu_collections",
	Columns:      []string{"date", "menus", "updated_at"},
	ConflictKeys: []string{"date"},
})

func mustUpsertSQL(cfg db.UpsertConfig) string {
	sql, err := db.UpsertSQL(cfg)
	if err != nil {
		panic(err)
	}
	return sql
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, date string) (model.Collection, error) {
	if err := ValidDate(date); err != nil {
		return nil, err
	}
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT menus FROM menu_collections WHERE date = $1`, date).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Collection{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load %s", date)
	}
	c, err := model.DecodeCollection(data)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: decode %s", date)
	}
	return c, nil
}

func (s *PostgresStore) Save(ctx context.Context, date string, c model.Collection) error {
	if err := ValidDate(date); err != nil {
		return err
	}
	data, err := c.Encode()
	if err != nil {
		return eris.Wrapf(err, "postgres: encode %s", date)
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	_, err = s.pool.Exec(ctx, upsertCollection, date, string(data), now().UTC())
	return eris.Wrapf(err, "postgres: save %s", date)
}

func (s *PostgresStore) Dates(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT date FROM menu_collections ORDER BY date`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list dates")
	}
	dates, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan dates")
	}
	return dates, nil
}

func (s *PostgresStore) Prune(ctx context.Context, keepDays int, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM menu_collections WHERE updated_at < $1`, cutoff(keepDays, now).UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune")
	}
	return int(tag.RowsAffected()), nil
}
