package main

import (
	"autograder/internal/grader/canvasclient"
	"autograder/internal/grader/console"
	"autograder/internal/grader/service"
	"autograder/pkg/utils/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type uploadFlags struct {
	input       string
	include     []string
	exclude     []string
	association string
	dryRun      bool
	confirm     bool
}

func (a *app) uploadCommand() *cobra.Command {
	f := &uploadFlags{}
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a saved dataset to Canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyGraderFlags(cmd, "", "", f.include, f.exclude, f.association, "")
			return a.runUploadCommand(cmd, f)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "Dataset path or s3://bucket/key")
	flags.StringSliceVar(&f.include, "include", nil, "Only upload these user ids")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "Never upload these user ids")
	flags.StringVar(&f.association, "rubric-association", "", "Rubric association id (overrides the dataset)")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Print the upload without posting anything")
	flags.BoolVar(&f.confirm, "confirm", false, "Ask before posting assessments")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) runUploadCommand(cmd *cobra.Command, f *uploadFlags) error {
	ctx := cmd.Context()
	cfg := a.cfg
	if err := cfg.validateFilters(); err != nil {
		return err
	}
	store, err := a.openStore(f.input)
	if err != nil {
		return err
	}
	dataset, err := store.Load(ctx)
	if err != nil {
		return err
	}
	logger.Info(ctx, "dataset loaded",
		zap.String("location", store.Location()),
		zap.String("assignment_id", dataset.AssignmentID),
		zap.Int("records", len(dataset.Records)),
	)

	if cfg.Canvas.Endpoint == "" {
		cfg.Canvas.Endpoint = dataset.CanvasEndpoint
	}
	var client *canvasclient.Client
	if !f.dryRun {
		if err := cfg.validateCredentials(); err != nil {
			return err
		}
		if client, err = canvasclient.New(cfg.canvasClientConfig()); err != nil {
			return err
		}
	}

	association := dataset.AssociationID()
	if cfg.Grader.RubricAssociationID != "" {
		association = cfg.Grader.RubricAssociationID
	}
	return a.runUpload(ctx, console.New(cmd.OutOrStdout()), client, dataset, uploadSettings{
		filter:      service.NewFilter(cfg.Grader.Include, cfg.Grader.Exclude),
		association: association,
		dryRun:      f.dryRun,
		confirm:     f.confirm,
	})
}
