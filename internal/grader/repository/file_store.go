package repository

import (
	"context"
	"os"
	"path/filepath"

	"autograder/internal/grader/model"
	appErr "autograder/pkg/errors"
)

// FileStore keeps the dataset in a local file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Location() string {
	return s.path
}

func (s *FileStore) Save(_ context.Context, ds *model.IntermediateDataset) error {
	data, err := encode(ds, isCompressed(s.path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return appErr.Wrapf(err, appErr.DatasetSaveFailed, "create dataset dir failed")
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return appErr.Wrapf(err, appErr.DatasetSaveFailed, "write dataset failed")
	}
	return nil
}

func (s *FileStore) Load(_ context.Context) (*model.IntermediateDataset, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.DatasetLoadFailed, "read dataset failed").WithDetail("path", s.path)
	}
	return decode(data, isCompressed(s.path))
}
