// Package service evaluates every submission of an assignment against its
// rubric and assembles the intermediate dataset.
package service

import (
	"context"
	"io"

	"autograder/internal/grader/console"
	"autograder/internal/grader/evaluator"
	"autograder/internal/grader/model"
	"autograder/internal/grader/workspace"
	appErr "autograder/pkg/errors"
	"autograder/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultWorkspacePrefix = "autograder-"

// AssignmentSource provides assignment metadata and attachment bodies.
type AssignmentSource interface {
	Endpoint() string
	FetchAssignment(ctx context.Context, assignmentID string) (*model.Assignment, error)
	DownloadAttachment(ctx context.Context, url string) (io.ReadCloser, error)
}

// CriterionEvaluator grades one criterion of one submission.
type CriterionEvaluator interface {
	Evaluate(ctx context.Context, req evaluator.Request) (model.CriterionResult, error)
}

// Options are the run settings resolved once at startup.
type Options struct {
	AssignmentID string
	// AssociationID skips discovery when set.
	AssociationID   *string
	Filter          Filter
	WorkRoot        string
	WorkspacePrefix string
}

// Config holds orchestrator dependencies and settings.
type Config struct {
	Source    AssignmentSource
	Evaluator CriterionEvaluator
	Console   *console.Console
	Options   Options
}

// Orchestrator runs submissions and criteria strictly in order.
type Orchestrator struct {
	source    AssignmentSource
	evaluator CriterionEvaluator
	console   *console.Console
	opts      Options
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Source == nil {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("assignment source is required")
	}
	if cfg.Evaluator == nil {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("criterion evaluator is required")
	}
	if cfg.Console == nil {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("console is required")
	}
	if cfg.Options.AssignmentID == "" {
		return nil, appErr.New(appErr.InvalidAssignment)
	}
	if cfg.Options.WorkspacePrefix == "" {
		cfg.Options.WorkspacePrefix = defaultWorkspacePrefix
	}
	return &Orchestrator{
		source:    cfg.Source,
		evaluator: cfg.Evaluator,
		console:   cfg.Console,
		opts:      cfg.Options,
	}, nil
}

// Evaluate fetches the assignment and grades every selected submission.
// Faults of a single submission are announced and skipped; only the
// metadata fetch and cancellation fail the run.
func (o *Orchestrator) Evaluate(ctx context.Context) (*model.IntermediateDataset, error) {
	assignment, err := o.source.FetchAssignment(ctx, o.opts.AssignmentID)
	if err != nil {
		return nil, err
	}

	dataset := &model.IntermediateDataset{
		CanvasEndpoint: o.source.Endpoint(),
		CourseID:       assignment.CourseID,
		AssignmentID:   assignment.ID,
		Records:        []model.AssessmentRecord{},
	}

	association := o.opts.AssociationID
	if association == nil {
		var warn error
		association, warn = DiscoverAssociation(assignment.Submissions)
		if warn != nil {
			logger.Warn(ctx, "rubric association not discovered", zap.Error(warn))
			o.console.Warnf("%s; upload will be skipped", warn.Error())
		}
	}
	dataset.RubricAssociationID = association

	criteria := assignment.Rubric.Criteria
	total := len(assignment.Submissions)
	o.console.Linef("%s (%s): %d submissions, %d criteria, %g points",
		assignment.Name, assignment.ID, total, len(criteria), assignment.Rubric.PointsPossible)
	logger.Info(ctx, "evaluation started",
		zap.String("assignment_id", assignment.ID),
		zap.Int("submissions", total),
		zap.Int("criteria", len(criteria)),
	)

	for i, sub := range assignment.Submissions {
		if err := ctx.Err(); err != nil {
			return nil, appErr.Wrapf(err, appErr.Canceled, "evaluation canceled")
		}
		n := i + 1
		if reason := o.opts.Filter.Reason(sub.User.ID); reason != "" {
			o.console.Linef("[%d/%d] skipping %s (%s): %s", n, total, sub.User.Name, sub.User.ID, reason)
			continue
		}
		if sub.Excused {
			o.console.Linef("[%d/%d] skipping %s (%s): excused", n, total, sub.User.Name, sub.User.ID)
			continue
		}

		record, err := o.evaluateSubmission(ctx, assignment, sub, n, total)
		if err != nil {
			if ctx.Err() != nil {
				return nil, appErr.Wrapf(ctx.Err(), appErr.Canceled, "evaluation canceled")
			}
			logger.Error(logger.WithUserID(ctx, sub.User.ID), "submission evaluation aborted",
				zap.String("submission_id", sub.ID),
				zap.Error(err),
			)
			o.console.Warnf("[%d/%d] %s (%s) aborted: %v", n, total, sub.User.Name, sub.User.ID, err)
			continue
		}
		o.console.Linef("[%d/%d] %s (%s): %g/%g", n, total, sub.User.Name, sub.User.ID,
			record.TotalPoints(), assignment.Rubric.PointsPossible)
		dataset.Records = append(dataset.Records, record)
	}

	logger.Info(ctx, "evaluation finished", zap.Int("records", len(dataset.Records)))
	return dataset, nil
}

// evaluateSubmission owns the submission workspace; it is removed on every
// return path.
func (o *Orchestrator) evaluateSubmission(ctx context.Context, assignment *model.Assignment, sub model.Submission, n, total int) (model.AssessmentRecord, error) {
	ctx = logger.WithUserID(ctx, sub.User.ID)

	ws, err := workspace.Create(o.opts.WorkRoot, o.opts.WorkspacePrefix)
	if err != nil {
		return model.AssessmentRecord{}, err
	}
	defer func() {
		if err := ws.Remove(); err != nil {
			logger.Warn(ctx, "remove workspace failed", zap.String("dir", ws.Dir()), zap.Error(err))
		}
	}()

	for _, att := range sub.Attachments {
		if err := o.fetchAttachment(ctx, ws, att); err != nil {
			return model.AssessmentRecord{}, err
		}
	}

	criteria := assignment.Rubric.Criteria
	record := model.NewAssessmentRecord(sub.User.ID)
	for j, crit := range criteria {
		o.console.Banner(n, total, j+1, len(criteria))
		result, err := o.evaluator.Evaluate(ctx, evaluator.Request{
			Assignment: assignment,
			Submission: sub,
			Criterion:  crit,
			Dir:        ws.Dir(),
		})
		if err != nil {
			return model.AssessmentRecord{}, err
		}
		record.Criteria[crit.ID] = result
	}
	return record, nil
}

func (o *Orchestrator) fetchAttachment(ctx context.Context, ws *workspace.Workspace, att model.Attachment) error {
	if err := workspace.ValidateName(att.DisplayName); err != nil {
		return err
	}
	body, err := o.source.DownloadAttachment(ctx, att.URL)
	if err != nil {
		return err
	}
	defer body.Close()

	size, err := ws.WriteFile(ctx, att.DisplayName, body)
	if err != nil {
		return err
	}
	logger.Debug(ctx, "attachment downloaded", zap.String("name", att.DisplayName), zap.Int64("bytes", size))
	return nil
}
