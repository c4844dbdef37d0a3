package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// fileCollectionRepo is the flat-file implementation of CollectionRepo.
type fileCollectionRepo struct {
	path string
}

// NewFileCollectionRepo constructs a CollectionRepo backed by the JSON file at
// path. The file and its parent directory are created on the first Save.
func NewFileCollectionRepo(path string) CollectionRepo {
	return &fileCollectionRepo{path: path}
}

// Load reads and decodes the backing file.
func (r *fileCollectionRepo) Load(ctx context.Context) ([]domain.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("repo.FileCollectionRepo.Load: %w", err)
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Trip{}, nil
		}
		return nil, fmt.Errorf("repo.FileCollectionRepo.Load: %w", err)
	}

	trips, err := decodeCollection(data)
	if err != nil {
		return trips, fmt.Errorf("repo.FileCollectionRepo.Load: %s: %w", r.path, err)
	}
	return trips, nil
}

// Save encodes trips and atomically replaces the backing file.
func (r *fileCollectionRepo) Save(ctx context.Context, trips []domain.Trip) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("repo.FileCollectionRepo.Save: %w", err)
	}

	data, err := encodeCollection(trips)
	if err != nil {
		return fmt.Errorf("repo.FileCollectionRepo.Save: encode: %w", err)
	}
	if err := writeFileAtomic(r.path, data, 0o644); err != nil {
		return fmt.Errorf("repo.FileCollectionRepo.Save: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory, syncs
// it, and renames it over path. Readers observe either the old or the new
// document, never a truncated one. The temp file is removed on any failure.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

// syncDir flushes the directory entry so the rename survives a crash.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
