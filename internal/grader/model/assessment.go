package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	// AssessmentTypeGrading is the only assessment type the grader produces.
	AssessmentTypeGrading = "grading"

	criterionKeyPrefix = "criterion_"
)

// CriterionResult is the verdict for one (submission, criterion) pair.
type CriterionResult struct {
	Points   float64 `json:"points"`
	Comments string  `json:"comments"`
}

// AssessmentRecord is the rubric assessment for one submission.
// On the wire each criterion becomes a "criterion_<id>" field.
type AssessmentRecord struct {
	UserID         string
	AssessmentType string
	Criteria       map[string]CriterionResult
}

// NewAssessmentRecord creates an empty grading record for userID.
func NewAssessmentRecord(userID string) AssessmentRecord {
	return AssessmentRecord{
		UserID:         userID,
		AssessmentType: AssessmentTypeGrading,
		Criteria:       make(map[string]CriterionResult),
	}
}

// TotalPoints sums the points of all criteria.
func (r AssessmentRecord) TotalPoints() float64 {
	total := 0.0
	for _, res := range r.Criteria {
		total += res.Points
	}
	return total
}

// CriterionIDs returns the criterion ids in sorted order.
func (r AssessmentRecord) CriterionIDs() []string {
	ids := make([]string, 0, len(r.Criteria))
	for id := range r.Criteria {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r AssessmentRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, "user_id", r.UserID, true); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "assessment_type", r.AssessmentType, false); err != nil {
		return nil, err
	}
	for _, id := range r.CriterionIDs() {
		if err := writeField(&buf, criterionKeyPrefix+id, r.Criteria[id], false); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value interface{}, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

func (r *AssessmentRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rec := AssessmentRecord{Criteria: make(map[string]CriterionResult)}
	for key, value := range raw {
		switch {
		case key == "user_id":
			if err := json.Unmarshal(value, &rec.UserID); err != nil {
				return fmt.Errorf("decode user_id: %w", err)
			}
		case key == "assessment_type":
			if err := json.Unmarshal(value, &rec.AssessmentType); err != nil {
				return fmt.Errorf("decode assessment_type: %w", err)
			}
		case strings.HasPrefix(key, criterionKeyPrefix):
			var res CriterionResult
			if err := json.Unmarshal(value, &res); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			rec.Criteria[strings.TrimPrefix(key, criterionKeyPrefix)] = res
		}
	}
	*r = rec
	return nil
}
