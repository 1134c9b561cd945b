package repository

import (
	"context"
	"strings"

	"autograder/internal/common/storage"
	"autograder/internal/grader/model"
	appErr "autograder/pkg/errors"
)

const objectScheme = "s3://"

// Store saves and loads one dataset document.
type Store interface {
	Save(ctx context.Context, ds *model.IntermediateDataset) error
	Load(ctx context.Context) (*model.IntermediateDataset, error)
	Location() string
}

// Open picks the store for location: "s3://bucket/key" addresses an object
// in objects, anything else is a local path. A ".zst" suffix enables zstd
// compression for both.
func Open(location string, objects storage.ObjectStorage) (Store, error) {
	if location == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("dataset location is required")
	}
	if !strings.HasPrefix(location, objectScheme) {
		return NewFileStore(location), nil
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, objectScheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, appErr.Newf(appErr.InvalidParams, "dataset location %q must be s3://bucket/key", location)
	}
	if objects == nil {
		return nil, appErr.Newf(appErr.StorageUnavailable, "object storage is not configured for %s", location)
	}
	return NewObjectStore(objects, bucket, key), nil
}
