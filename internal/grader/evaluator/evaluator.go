// Package evaluator runs the test command for one (submission, criterion)
// pair and turns its exit status into a CriterionResult.
package evaluator

import (
	"context"
	"strconv"
	"strings"

	"autograder/internal/grader/console"
	"autograder/internal/grader/harness"
	"autograder/internal/grader/model"
	"autograder/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Environment variables exposed to the test command.
const (
	EnvAssignmentID         = "ASSIGNMENT_ID"
	EnvAssignmentName       = "ASSIGNMENT_NAME"
	EnvUserID               = "USER_ID"
	EnvUserName             = "USER_NAME"
	EnvRubricID             = "RUBRIC_ID"
	EnvRubricTitle          = "RUBRIC_TITLE"
	EnvRubricTotalPoints    = "RUBRIC_TOTAL_POINTS"
	EnvCriterionID          = "CRITERION_ID"
	EnvCriterionDescription = "CRITERION_DESCRIPTION"
	EnvCriterionPoints      = "CRITERION_POINTS"
)

// Request identifies one criterion evaluation.
type Request struct {
	Assignment *model.Assignment
	Submission model.Submission
	Criterion  model.Criterion
	// Dir is the submission workspace.
	Dir string
}

// Evaluator drives one harness and multiplexer pair per criterion.
type Evaluator struct {
	command     harness.Command
	console     *console.Console
	multiplexer *console.Multiplexer
}

// New creates an evaluator running command and mirroring output to out.
func New(command harness.Command, out *console.Console, opts ...console.Option) *Evaluator {
	return &Evaluator{
		command:     command,
		console:     out,
		multiplexer: console.NewMultiplexer(out, opts...),
	}
}

// Evaluate runs the test command once. Stdin writing and the drain of both
// output streams run concurrently; the exit status is read only after all
// three have finished.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (model.CriterionResult, error) {
	ctx = logger.WithCriterionID(ctx, req.Criterion.ID)

	proc, err := harness.Start(ctx, harness.Spec{
		Command: e.command,
		Dir:     req.Dir,
		Input:   NormalizeInstructions(req.Criterion.LongDescription),
		Env:     Environment(req),
	})
	if err != nil {
		return model.CriterionResult{}, err
	}

	var inputErr error
	var captured string
	var g errgroup.Group
	g.Go(func() error {
		inputErr = proc.WriteInput()
		return nil
	})
	g.Go(func() error {
		var drainErr error
		captured, drainErr = e.multiplexer.Drain(ctx, proc.Stdout, proc.Stderr)
		return drainErr
	})
	drainErr := g.Wait()

	status, waitErr := proc.Wait()
	if drainErr != nil {
		return model.CriterionResult{}, drainErr
	}
	if waitErr != nil {
		return model.CriterionResult{}, waitErr
	}

	if inputErr != nil {
		reason := "write failed"
		if harness.IsBrokenPipe(inputErr) {
			reason = "broken pipe"
		}
		logger.Warn(ctx, "criterion text not fully delivered", zap.String("reason", reason), zap.Error(inputErr))
		e.console.Warnf("criterion text not fully delivered to test command (%s)", reason)
	}

	result := model.CriterionResult{Points: 0, Comments: NormalizeComments(captured)}
	if status.Succeeded {
		result.Points = req.Criterion.Points
	}
	e.console.Verdict(status.Succeeded, result.Points, req.Criterion.Points, req.Criterion.Description)
	logger.Debug(ctx, "criterion evaluated",
		zap.Int("exit_code", status.Code),
		zap.Float64("points", result.Points),
	)
	return result, nil
}

// Environment builds the fixed environment contract of the test command.
func Environment(req Request) map[string]string {
	env := map[string]string{
		EnvUserID:               req.Submission.User.ID,
		EnvUserName:             req.Submission.User.Name,
		EnvCriterionID:          req.Criterion.ID,
		EnvCriterionDescription: req.Criterion.Description,
		EnvCriterionPoints:      formatPoints(req.Criterion.Points),
	}
	if a := req.Assignment; a != nil {
		env[EnvAssignmentID] = a.ID
		env[EnvAssignmentName] = a.Name
		env[EnvRubricID] = a.Rubric.ID
		env[EnvRubricTitle] = a.Rubric.Title
		env[EnvRubricTotalPoints] = formatPoints(a.Rubric.PointsPossible)
	}
	return env
}

func formatPoints(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// NormalizeInstructions turns Canvas rich-text line breaks ("<br/>" followed
// by CRLF) into plain newlines. Nothing else is changed.
func NormalizeInstructions(text string) string {
	return strings.ReplaceAll(text, "<br/>\r\n", "\n")
}

// thinSpace keeps indentation visible when comments render as rich text.
const thinSpace = '\u2009'

// NormalizeComments replaces the leading run of spaces on every line with
// the same number of thin spaces. Interior spaces are untouched.
func NormalizeComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		n := len(line) - len(strings.TrimLeft(line, " "))
		if n == 0 {
			continue
		}
		lines[i] = strings.Repeat(string(thinSpace), n) + line[n:]
	}
	return strings.Join(lines, "\n")
}
