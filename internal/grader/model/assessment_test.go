package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessmentRecordMarshalIsFlat(t *testing.T) {
	rec := NewAssessmentRecord("42")
	rec.Criteria["c2"] = CriterionResult{Points: 0, Comments: "missing output"}
	rec.Criteria["c1"] = CriterionResult{Points: 3, Comments: "ok"}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"user_id":"42","assessment_type":"grading","criterion_c1":{"points":3,"comments":"ok"},"criterion_c2":{"points":0,"comments":"missing output"}}`,
		string(data))
}

func TestAssessmentRecordUnmarshal(t *testing.T) {
	var rec AssessmentRecord
	err := json.Unmarshal([]byte(`{"user_id":"7","assessment_type":"grading","criterion_a":{"points":2,"comments":"x"},"ignored":1}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, "7", rec.UserID)
	assert.Equal(t, AssessmentTypeGrading, rec.AssessmentType)
	assert.Equal(t, map[string]CriterionResult{"a": {Points: 2, Comments: "x"}}, rec.Criteria)
}

func TestAssessmentRecordUnmarshalRejectsBadCriterion(t *testing.T) {
	var rec AssessmentRecord
	err := json.Unmarshal([]byte(`{"user_id":"7","criterion_a":"oops"}`), &rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "criterion_a")
}

func TestTotalPoints(t *testing.T) {
	testCases := []struct {
		name     string
		criteria map[string]CriterionResult
		expected float64
	}{
		{name: "empty", criteria: nil, expected: 0},
		{name: "mixed", criteria: map[string]CriterionResult{"a": {Points: 3}, "b": {Points: 0}, "c": {Points: 1.5}}, expected: 4.5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := AssessmentRecord{Criteria: tc.criteria}
			assert.Equal(t, tc.expected, rec.TotalPoints())
		})
	}
}
