package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lunch-cli/internal/model"
)

// FileStore keeps each collection in <dir>/<date>.json, the layout the
// static front-end reads directly.
type FileStore struct {
	dir string
}

// NewFile creates a FileStore rooted at dir. The directory is created on the
// first Save.
func NewFile(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(date string) string {
	return filepath.Join(s.dir, date+".json")
}

func (s *FileStore) Load(_ context.Context, date string) (model.Collection, error) {
	if err := ValidDate(date); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(date))
	if errors.Is(err, fs.ErrNotExist) {
		return model.Collection{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: read %s", date)
	}
	c, err := model.DecodeCollection(data)
	if err != nil {
		return nil, eris.Wrapf(err, "store: decode %s", date)
	}
	return c, nil
}

// Save writes to a temporary file and renames it over the target, so
// readers never see a partial document.
func (s *FileStore) Save(_ context.Context, date string, c model.Collection) error {
	if err := ValidDate(date); err != nil {
		return err
	}
	data, err := c.Encode()
	if err != nil {
		return eris.Wrapf(err, "store: encode %s", date)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrap(err, "store: create dir")
	}

	tmp, err := os.CreateTemp(s.dir, "."+date+"-*.tmp")
	if err != nil {
		return eris.Wrap(err, "store: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "store: write %s", date)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "store: sync %s", date)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "store: close %s", date)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return eris.Wrapf(err, "store: chmod %s", date)
	}
	if err := os.Rename(tmp.Name(), s.path(date)); err != nil {
		return eris.Wrapf(err, "store: rename %s", date)
	}
	return nil
}

func (s *FileStore) Dates(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: list dir")
	}
	var dates []string
	for _, e := range entries {
		date, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() || ValidDate(date) != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

// Prune removes collections by file modification time. Other files in the
// directory, such as .gitkeep, are left alone.
func (s *FileStore) Prune(ctx context.Context, keepDays int, now time.Time) (int, error) {
	dates, err := s.Dates(ctx)
	if err != nil {
		return 0, err
	}
	limit := cutoff(keepDays, now)
	removed := 0
	for _, date := range dates {
		info, err := os.Stat(s.path(date))
		if err != nil {
			return removed, eris.Wrapf(err, "store: stat %s", date)
		}
		if !info.ModTime().Before(limit) {
			continue
		}
		if err := os.Remove(s.path(date)); err != nil {
			return removed, eris.Wrapf(err, "store: remove %s", date)
		}
		zap.L().Info("store: removed old collection", zap.String("date", date))
		removed++
	}
	return removed, nil
}

func (s *FileStore) Close() error { return nil }
