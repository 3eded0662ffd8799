package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lunch-cli/internal/model"
)

// sqliteTime is fixed-width so stored instants compare as strings.
const sqliteTime = "2006-01-02T15:04:05Z"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS menu_collections (
	date       TEXT PRIMARY KEY,
	menus      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_menu_collections_updated_at ON menu_collections(updated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, date string) (model.Collection, error) {
	if err := ValidDate(date); err != nil {
		return nil, err
	}
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT menus FROM menu_collections WHERE date = ?`, date).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Collection{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load %s", date)
	}
	c, err := model.DecodeCollection([]byte(data))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode %s", date)
	}
	return c, nil
}

func (s *SQLiteStore) Save(ctx context.Context, date string, c model.Collection) error {
	if err := ValidDate(date); err != nil {
		return err
	}
	data, err := c.Encode()
	if err != nil {
		return eris.Wrapf(err, "sqlite: encode %s", date)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO menu_collections (date, menus, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (date) DO UPDATE SET menus = excluded.menus, updated_at = excluded.updated_at`,
		date, string(data), time.Now().UTC().Format(sqliteTime),
	)
	return eris.Wrapf(err, "sqlite: save %s", date)
}

func (s *SQLiteStore) Dates(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date FROM menu_collections ORDER BY date`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list dates")
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan date")
		}
		dates = append(dates, d)
	}
	return dates, eris.Wrap(rows.Err(), "sqlite: iterate dates")
}

func (s *SQLiteStore) Prune(ctx context.Context, keepDays int, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM menu_collections WHERE updated_at < ?`,
		cutoff(keepDays, now).UTC().Format(sqliteTime),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}
