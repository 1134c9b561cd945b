// Package repository persists the intermediate dataset between the
// evaluation and upload phases.
package repository

import (
	"encoding/json"
	"strings"

	"autograder/internal/grader/model"
	appErr "autograder/pkg/errors"

	"github.com/klauspost/compress/zstd"
)

const compressedSuffix = ".zst"

func isCompressed(name string) bool {
	return strings.HasSuffix(name, compressedSuffix)
}

func encode(ds *model.IntermediateDataset, compress bool) ([]byte, error) {
	if ds == nil {
		return nil, appErr.New(appErr.DatasetInvalid).WithMessage("dataset is nil")
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.DatasetSaveFailed, "marshal dataset failed")
	}
	if !compress {
		return data, nil
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.DatasetSaveFailed, "create zstd writer failed")
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decode(data []byte, compressed bool) (*model.IntermediateDataset, error) {
	if compressed {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.DatasetLoadFailed, "create zstd reader failed")
		}
		defer dec.Close()
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.DatasetLoadFailed, "decompress dataset failed")
		}
	}
	var ds model.IntermediateDataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, appErr.Wrapf(err, appErr.DatasetInvalid, "parse dataset failed")
	}
	if ds.AssignmentID == "" || ds.CourseID == "" {
		return nil, appErr.New(appErr.DatasetInvalid).WithMessage("dataset is missing course or assignment id")
	}
	if ds.Records == nil {
		ds.Records = []model.AssessmentRecord{}
	}
	return &ds, nil
}
