// Package store persists the dated menu collections.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lunch-cli/internal/config"
	"github.com/sells-group/lunch-cli/internal/model"
)

// ErrInvalidDate is returned for keys that are not YYYY-MM-DD dates.
var ErrInvalidDate = eris.New("store: invalid date")

// Store holds one Collection per calendar date.
type Store interface {
	// Load returns the collection stored for date. A date with nothing
	// stored yields an empty collection and no error.
	Load(ctx context.Context, date string) (model.Collection, error)
	// Save replaces the collection stored for date.
	Save(ctx context.Context, date string, c model.Collection) error
	// Dates lists the stored dates in ascending order.
	Dates(ctx context.Context) ([]string, error)
	// Prune removes collections last written more than keepDays before now
	// and returns how many were removed.
	Prune(ctx context.Context, keepDays int, now time.Time) (int, error)
	Close() error
}

// New opens the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFile(cfg.Dir), nil
	case "sqlite":
		s, err := NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// ValidDate checks that date is a YYYY-MM-DD key.
func ValidDate(date string) error {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return eris.Wrapf(ErrInvalidDate, "store: %q", date)
	}
	return nil
}

func cutoff(keepDays int, now time.Time) time.Time {
	return now.Add(-time.Duration(keepDays) * 24 * time.Hour)
}
