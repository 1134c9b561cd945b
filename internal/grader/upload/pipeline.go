// Package upload posts the assessment records of an intermediate dataset to
// Canvas, one independent request per record.
package upload

import (
	"context"

	"autograder/internal/grader/canvasclient"
	"autograder/internal/grader/console"
	"autograder/internal/grader/model"
	"autograder/internal/grader/service"
	appErr "autograder/pkg/errors"
	"autograder/pkg/utils/logger"

	"go.uber.org/zap"
)

// Poster sends one assessment record.
type Poster interface {
	PostAssessment(ctx context.Context, courseID, associationID string, record model.AssessmentRecord) (canvasclient.PostResult, error)
}

// Options control which records are sent and whether anything is sent.
type Options struct {
	Filter service.Filter
	DryRun bool
}

// Summary counts the outcome of one upload run.
type Summary struct {
	Total    int
	Uploaded int
	Failed   int
}

// Pipeline uploads datasets.
type Pipeline struct {
	poster  Poster
	console *console.Console
	opts    Options
}

// NewPipeline creates a pipeline. poster may be nil for dry runs.
func NewPipeline(poster Poster, out *console.Console, opts Options) (*Pipeline, error) {
	if out == nil {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("console is required")
	}
	if poster == nil && !opts.DryRun {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("poster is required")
	}
	return &Pipeline{poster: poster, console: out, opts: opts}, nil
}

// Run re-filters the dataset and posts every remaining record. Rejected
// records are dumped and counted; they never stop the run.
func (p *Pipeline) Run(ctx context.Context, dataset *model.IntermediateDataset, associationID string) (Summary, error) {
	if dataset == nil {
		return Summary{}, appErr.New(appErr.InvalidParams).WithMessage("dataset is nil")
	}
	if associationID == "" {
		return Summary{}, appErr.New(appErr.AssociationMissing)
	}

	records := p.Pending(dataset)
	summary := Summary{Total: len(records)}
	mode := "uploading"
	if p.opts.DryRun {
		mode = "dry run"
	}
	p.console.Linef("%s %d records to course %s, rubric association %s",
		mode, summary.Total, dataset.CourseID, associationID)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, appErr.Wrapf(err, appErr.Canceled, "upload canceled")
		}
		p.console.Printf("[%d/%d] user %s: %g points ... ", i+1, summary.Total, rec.UserID, rec.TotalPoints())
		if p.opts.DryRun {
			p.console.Printf("skipped\n")
			continue
		}

		result, err := p.poster.PostAssessment(ctx, dataset.CourseID, associationID, rec)
		if err != nil || result.Failed() {
			summary.Failed++
			p.reportFailure(ctx, rec, result, err)
			continue
		}
		summary.Uploaded++
		p.console.Printf("ok\n")
	}

	p.console.Linef("%d/%d uploads failed", summary.Failed, summary.Total)
	logger.Info(ctx, "upload finished",
		zap.Bool("dry_run", p.opts.DryRun),
		zap.Int("total", summary.Total),
		zap.Int("uploaded", summary.Uploaded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// Pending returns the records of dataset that pass the filter, in order.
// These are the records Run posts.
func (p *Pipeline) Pending(dataset *model.IntermediateDataset) []model.AssessmentRecord {
	if dataset == nil {
		return nil
	}
	records := make([]model.AssessmentRecord, 0, len(dataset.Records))
	for _, rec := range dataset.Records {
		if p.opts.Filter.Allows(rec.UserID) {
			records = append(records, rec)
		}
	}
	return records
}

func (p *Pipeline) reportFailure(ctx context.Context, rec model.AssessmentRecord, result canvasclient.PostResult, err error) {
	p.console.Printf("failed\n")
	if err != nil {
		logger.Error(logger.WithUserID(ctx, rec.UserID), "post assessment failed", zap.Error(err))
		p.console.Printf("%v\n", err)
		return
	}
	rejected := appErr.Newf(appErr.UploadRejected, "canvas rejected assessment for user %s", rec.UserID).
		WithDetail("status", result.StatusCode)
	logger.Error(logger.WithUserID(ctx, rec.UserID), "assessment rejected",
		zap.Int("status", result.StatusCode),
		zap.ByteString("response", result.Body),
		zap.Error(rejected),
	)
	p.console.Printf("HTTP %d %s\n", result.StatusCode, result.Body)
}
