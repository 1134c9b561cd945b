package service

import (
	"sort"
	"strings"

	"autograder/internal/grader/model"
	appErr "autograder/pkg/errors"

	"github.com/xorcare/pointer"
)

// DiscoverAssociation looks for the single rubric association shared by
// the existing assessments of submissions. It returns nil and a warning
// error when none or several distinct ids are found.
func DiscoverAssociation(submissions []model.Submission) (*string, error) {
	seen := make(map[string]struct{})
	for _, sub := range submissions {
		for _, id := range sub.RubricAssociationIDs {
			if id != "" {
				seen[id] = struct{}{}
			}
		}
	}

	switch len(seen) {
	case 0:
		return nil, appErr.Newf(appErr.AssociationMissing,
			"no assessment yet: grade one submission by hand in Canvas or pass --rubric-association")
	case 1:
		for id := range seen {
			return pointer.String(id), nil
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return nil, appErr.Newf(appErr.AssociationAmbiguous,
		"rubric association is ambiguous (%s): pass --rubric-association", strings.Join(ids, ", ")).
		WithDetail("candidates", ids)
}
