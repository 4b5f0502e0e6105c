package trace

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/elasticpathing/traceprep/internal/database"
	"github.com/elasticpathing/traceprep/internal/models"
	"github.com/elasticpathing/traceprep/internal/repository"
)

// DefaultStoreSuffix is the file extension of trace stores.
const DefaultStoreSuffix = ".sq3"

// Store receives the interpolated samples of one segment group.
type Store interface {
	Name() string
	WriteSamples(ctx context.Context, samples []models.TraceSample) error
	Close() error
}

// StoreFactory opens the store for an ordinal. Opening an ordinal again must
// return it empty.
type StoreFactory interface {
	Open(ctx context.Context, ordinal int) (Store, error)
}

// FileStores creates SQLite trace stores named <base>_<ordinal><suffix>
// inside a directory.
type FileStores struct {
	Dir    string
	Base   string
	Suffix string
}

// Path returns the file path of the store for ordinal.
func (f FileStores) Path(ordinal int) string {
	suffix := f.Suffix
	if suffix == "" {
		suffix = DefaultStoreSuffix
	}
	return filepath.Join(f.Dir, fmt.Sprintf("%s_%d%s", f.Base, ordinal, suffix))
}

// Open creates or resets the store file for ordinal.
func (f FileStores) Open(ctx context.Context, ordinal int) (Store, error) {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := f.Path(ordinal)
	db, err := database.Open(ctx, database.Config{Path: path})
	if err != nil {
		return nil, err
	}

	repo := repository.NewTraceRepository(db)
	if err := repo.Reset(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &fileStore{path: path, db: db, repo: repo}, nil
}

type fileStore struct {
	path string
	db   *sql.DB
	repo *repository.TraceRepository
}

func (s *fileStore) Name() string { return s.path }

func (s *fileStore) WriteSamples(ctx context.Context, samples []models.TraceSample) error {
	return s.repo.InsertSamples(ctx, samples)
}

func (s *fileStore) Close() error { return s.db.Close() }
