package main

import (
	"context"
	"strings"

	"autograder/internal/common/storage"
	"autograder/internal/grader/canvasclient"
	"autograder/internal/grader/console"
	"autograder/internal/grader/evaluator"
	"autograder/internal/grader/harness"
	"autograder/internal/grader/model"
	"autograder/internal/grader/repository"
	"autograder/internal/grader/service"
	"autograder/internal/grader/upload"
	appErr "autograder/pkg/errors"
	"autograder/pkg/utils/logger"

	"github.com/spf13/cobra"
	"github.com/xorcare/pointer"
	"go.uber.org/zap"
)

type evaluateFlags struct {
	assignment  string
	command     string
	include     []string
	exclude     []string
	association string
	workRoot    string
	output      string
	upload      bool
	dryRun      bool
	confirm     bool
}

func (a *app) evaluateCommand() *cobra.Command {
	f := &evaluateFlags{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate every submission of an assignment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyGraderFlags(cmd, f.assignment, f.command, f.include, f.exclude, f.association, f.workRoot)
			return a.runEvaluate(cmd, f)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.assignment, "assignment", "a", "", "Canvas assignment id")
	flags.StringVar(&f.command, "command", "", "Test command run once per criterion")
	flags.StringSliceVar(&f.include, "include", nil, "Only evaluate these user ids")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "Never evaluate these user ids")
	flags.StringVar(&f.association, "rubric-association", "", "Rubric association id (skips discovery)")
	flags.StringVar(&f.workRoot, "work-root", "", "Directory for submission workspaces")
	flags.StringVarP(&f.output, "output", "o", "", "Save the dataset to a path or s3://bucket/key")
	flags.BoolVar(&f.upload, "upload", false, "Upload the assessments after evaluation")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Print the upload without posting anything")
	flags.BoolVar(&f.confirm, "confirm", false, "Ask before posting assessments")
	return cmd
}

// applyGraderFlags lets explicitly set flags override the config file.
func (a *app) applyGraderFlags(cmd *cobra.Command, assignment, command string, include, exclude []string, association, workRoot string) {
	flags := cmd.Flags()
	g := &a.cfg.Grader
	if flags.Changed("assignment") {
		g.AssignmentID = assignment
	}
	if flags.Changed("command") {
		g.Command = command
	}
	if flags.Changed("include") {
		g.Include = include
	}
	if flags.Changed("exclude") {
		g.Exclude = exclude
	}
	if flags.Changed("rubric-association") {
		g.RubricAssociationID = association
	}
	if flags.Changed("work-root") {
		g.WorkRoot = workRoot
	}
}

func (a *app) runEvaluate(cmd *cobra.Command, f *evaluateFlags) error {
	ctx := cmd.Context()
	cfg := a.cfg
	if err := cfg.validateEvaluate(); err != nil {
		return err
	}
	command, err := harness.ParseCommand(cfg.Grader.Command)
	if err != nil {
		return err
	}
	var store repository.Store
	if f.output != "" {
		if store, err = a.openStore(f.output); err != nil {
			return err
		}
	}
	client, err := canvasclient.New(cfg.canvasClientConfig())
	if err != nil {
		return err
	}

	out := console.New(cmd.OutOrStdout())
	var opts []console.Option
	if cfg.Grader.ChunkSize > 0 {
		opts = append(opts, console.WithChunkSize(cfg.Grader.ChunkSize))
	}
	filter := service.NewFilter(cfg.Grader.Include, cfg.Grader.Exclude)
	svcOpts := service.Options{
		AssignmentID:    cfg.Grader.AssignmentID,
		Filter:          filter,
		WorkRoot:        cfg.Grader.WorkRoot,
		WorkspacePrefix: "autograder-" + a.runID[:8] + "-",
	}
	if id := cfg.Grader.RubricAssociationID; id != "" {
		svcOpts.AssociationID = pointer.String(id)
	}
	orchestrator, err := service.NewOrchestrator(service.Config{
		Source:    client,
		Evaluator: evaluator.New(command, out, opts...),
		Console:   out,
		Options:   svcOpts,
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "evaluate started",
		zap.String("assignment_id", cfg.Grader.AssignmentID),
		zap.String("command", command.String()),
	)
	dataset, err := orchestrator.Evaluate(ctx)
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.Save(ctx, dataset); err != nil {
			return err
		}
		out.Linef("dataset saved to %s (%d records)", store.Location(), len(dataset.Records))
	}
	if !f.upload && !f.dryRun {
		return nil
	}
	return a.runUpload(ctx, out, client, dataset, uploadSettings{
		filter:      filter,
		association: dataset.AssociationID(),
		dryRun:      f.dryRun,
		confirm:     f.confirm,
	})
}

type uploadSettings struct {
	filter      service.Filter
	association string
	dryRun      bool
	confirm     bool
}

// runUpload posts dataset unless no rubric association is known, in which
// case the upload is skipped with a warning.
func (a *app) runUpload(ctx context.Context, out *console.Console, client *canvasclient.Client, dataset *model.IntermediateDataset, s uploadSettings) error {
	if s.association == "" {
		skipped := appErr.New(appErr.UploadSkipped).WithMessage("no rubric association; pass --rubric-association to upload")
		logger.Warn(ctx, "upload skipped", zap.Error(skipped))
		out.Warnf("%s", skipped.Message)
		return nil
	}
	var poster upload.Poster
	if client != nil {
		poster = client
	}
	pipeline, err := upload.NewPipeline(poster, out, upload.Options{Filter: s.filter, DryRun: s.dryRun})
	if err != nil {
		return err
	}
	if !s.dryRun && s.confirm {
		ok, err := confirmUpload(ctx, len(pipeline.Pending(dataset)), dataset.CourseID, s.association)
		if err != nil {
			return err
		}
		if !ok {
			out.Linef("upload aborted")
			return nil
		}
	}
	_, err = pipeline.Run(ctx, dataset, s.association)
	return err
}

func (a *app) openStore(location string) (repository.Store, error) {
	var objects storage.ObjectStorage
	if strings.HasPrefix(location, "s3://") && a.cfg.hasObjectStorage() {
		minio, err := storage.NewMinIOStorage(a.cfg.MinIO)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.StorageUnavailable, "init object storage failed")
		}
		objects = minio
	}
	return repository.Open(location, objects)
}
