package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"autograder/internal/grader/canvasclient"
	"autograder/internal/grader/console"
	"autograder/internal/grader/model"
	"autograder/internal/grader/service"
	appErr "autograder/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xorcare/pointer"
)

type fakePoster struct {
	calls   []string
	results map[string]canvasclient.PostResult
	errs    map[string]error
}

func (p *fakePoster) PostAssessment(ctx context.Context, courseID, associationID string, record model.AssessmentRecord) (canvasclient.PostResult, error) {
	p.calls = append(p.calls, courseID+"/"+associationID+"/"+record.UserID)
	if err := p.errs[record.UserID]; err != nil {
		return canvasclient.PostResult{}, err
	}
	if res, ok := p.results[record.UserID]; ok {
		return res, nil
	}
	return canvasclient.PostResult{StatusCode: 200, Body: []byte(`{"id":1}`)}, nil
}

func record(userID string, points map[string]float64) model.AssessmentRecord {
	rec := model.NewAssessmentRecord(userID)
	for id, p := range points {
		rec.Criteria[id] = model.CriterionResult{Points: p}
	}
	return rec
}

func dataset(records ...model.AssessmentRecord) *model.IntermediateDataset {
	return &model.IntermediateDataset{
		CanvasEndpoint:      "https://canvas.test",
		CourseID:            "11",
		AssignmentID:        "22",
		RubricAssociationID: pointer.String("7"),
		Records:             records,
	}
}

func TestDryRunPrintsTotalsWithoutPosting(t *testing.T) {
	var out bytes.Buffer
	poster := &fakePoster{}
	p, err := NewPipeline(poster, console.New(&out), Options{DryRun: true})
	require.NoError(t, err)

	summary, err := p.Run(context.Background(), dataset(record("42", map[string]float64{"c1": 3, "c2": 0})), "7")
	require.NoError(t, err)

	assert.Empty(t, poster.calls)
	assert.Equal(t, Summary{Total: 1}, summary)
	assert.Contains(t, out.String(), "[1/1] user 42: 3 points")
	assert.Contains(t, out.String(), "0/1 uploads failed")
}

func TestDryRunWithoutPoster(t *testing.T) {
	p, err := NewPipeline(nil, console.New(&bytes.Buffer{}), Options{DryRun: true})
	require.NoError(t, err)
	_, err = p.Run(context.Background(), dataset(record("42", nil)), "7")
	require.NoError(t, err)

	_, err = NewPipeline(nil, console.New(&bytes.Buffer{}), Options{})
	require.Error(t, err)
	assert.True(t, appErr.Is(err, appErr.InvalidParams))

	_, err = NewPipeline(&fakePoster{}, nil, Options{})
	require.Error(t, err)
	assert.True(t, appErr.Is(err, appErr.InvalidParams))
}

func TestDryRunAndRealUploadShareOutputShape(t *testing.T) {
	ds := dataset(record("1", map[string]float64{"c": 2}), record("2", map[string]float64{"c": 0}))

	var dry, live bytes.Buffer
	pd, err := NewPipeline(nil, console.New(&dry), Options{DryRun: true})
	require.NoError(t, err)
	_, err = pd.Run(context.Background(), ds, "7")
	require.NoError(t, err)

	pr, err := NewPipeline(&fakePoster{}, console.New(&live), Options{})
	require.NoError(t, err)
	_, err = pr.Run(context.Background(), ds, "7")
	require.NoError(t, err)

	dryLines := bytes.Split(dry.Bytes(), []byte("\n"))
	liveLines := bytes.Split(live.Bytes(), []byte("\n"))
	assert.Equal(t, len(dryLines), len(liveLines))
}

func TestFailuresAreCountedNotFatal(t *testing.T) {
	var out bytes.Buffer
	poster := &fakePoster{
		results: map[string]canvasclient.PostResult{
			"2": {StatusCode: 200, Body: []byte(`{"errors":{"rubric_assessment":["bad"]}}`), Errors: json.RawMessage(`{"rubric_assessment":["bad"]}`)},
		},
		errs: map[string]error{"3": appErr.New(appErr.CanvasRequestFailed)},
	}
	p, err := NewPipeline(poster, console.New(&out), Options{})
	require.NoError(t, err)

	ds := dataset(record("1", nil), record("2", nil), record("3", nil), record("4", nil))
	summary, err := p.Run(context.Background(), ds, "7")
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 4, Uploaded: 2, Failed: 2}, summary)
	assert.Equal(t, []string{"11/7/1", "11/7/2", "11/7/3", "11/7/4"}, poster.calls)
	assert.Contains(t, out.String(), `"rubric_assessment":["bad"]`)
	assert.Contains(t, out.String(), "2/4 uploads failed")
}

func TestRunReappliesFilter(t *testing.T) {
	poster := &fakePoster{}
	p, err := NewPipeline(poster, console.New(&bytes.Buffer{}), Options{Filter: service.NewFilter([]string{"1", "2"}, []string{"2"})})
	require.NoError(t, err)

	ds := dataset(record("1", nil), record("2", nil), record("3", nil))
	pending := p.Pending(ds)
	require.Len(t, pending, 1)
	assert.Equal(t, "1", pending[0].UserID)

	summary, err := p.Run(context.Background(), ds, "7")
	require.NoError(t, err)
	assert.Equal(t, len(pending), summary.Total)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, []string{"11/7/1"}, poster.calls)
}

func TestRunRequiresAssociation(t *testing.T) {
	p, err := NewPipeline(&fakePoster{}, console.New(&bytes.Buffer{}), Options{})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), dataset(), "")
	require.Error(t, err)
	assert.True(t, appErr.Is(err, appErr.AssociationMissing))
}

func TestPostResultFailed(t *testing.T) {
	assert.False(t, canvasclient.PostResult{StatusCode: 200}.Failed())
	assert.True(t, canvasclient.PostResult{StatusCode: 200, Errors: json.RawMessage(`[]`)}.Failed())
	assert.True(t, canvasclient.PostResult{StatusCode: 401}.Failed())
}
