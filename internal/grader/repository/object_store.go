package repository

import (
	"bytes"
	"context"
	"io"

	"autograder/internal/common/storage"
	"autograder/internal/grader/model"
	appErr "autograder/pkg/errors"
)

// ObjectStore keeps the dataset as one object in S3-compatible storage.
type ObjectStore struct {
	objects storage.ObjectStorage
	bucket  string
	key     string
}

func NewObjectStore(objects storage.ObjectStorage, bucket, key string) *ObjectStore {
	return &ObjectStore{objects: objects, bucket: bucket, key: key}
}

func (s *ObjectStore) Location() string {
	return objectScheme + s.bucket + "/" + s.key
}

func (s *ObjectStore) Save(ctx context.Context, ds *model.IntermediateDataset) error {
	compressed := isCompressed(s.key)
	data, err := encode(ds, compressed)
	if err != nil {
		return err
	}
	contentType := "application/json"
	if compressed {
		contentType = "application/zstd"
	}
	if err := s.objects.PutObject(ctx, s.bucket, s.key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return appErr.Wrapf(err, appErr.DatasetSaveFailed, "store dataset object failed").WithDetail("location", s.Location())
	}
	return nil
}

func (s *ObjectStore) Load(ctx context.Context) (*model.IntermediateDataset, error) {
	reader, err := s.objects.GetObject(ctx, s.bucket, s.key)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.DatasetLoadFailed, "open dataset object failed").WithDetail("location", s.Location())
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.DatasetLoadFailed, "read dataset object failed").WithDetail("location", s.Location())
	}
	return decode(data, isCompressed(s.key))
}
