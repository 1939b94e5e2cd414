package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"vidsub/internal/backend"
	"vidsub/internal/catalog"
	"vidsub/internal/config"
	"vidsub/internal/history"
	"vidsub/internal/logging"
	"vidsub/internal/media"
	"vidsub/internal/presenter"
	"vidsub/internal/services"
	"vidsub/internal/session"
	"vidsub/internal/workflow"
)

const (
	previewWidth = 80
	previewLines = 12
)

type runOptions struct {
	target     string
	mediaType  string
	output     string
	noDownload bool
	lines      int
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Upload a video, transcribe it and save the subtitles",
		Long: "Upload a video to the transcription backend, wait for transcription (and\n" +
			"translation when --target is set), print the detected language with a\n" +
			"transcript preview and save the SRT file. Extra paths are ignored; the\n" +
			"first file wins.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, logger, err := ctx.backendClient()
			if err != nil {
				return err
			}
			lock, err := session.Acquire(cfg.Paths.StateDir)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			return runWorkflow(cmd.Context(), cmd.OutOrStdout(), cfg, client, logger, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "Target language code or name (default from config, usually original)")
	cmd.Flags().StringVar(&opts.mediaType, "type", "", "Declared media type, e.g. video/mp4 (default derived from the file)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Directory for the SRT file (default paths.output_dir)")
	cmd.Flags().BoolVar(&opts.noDownload, "no-download", false, "Skip saving the SRT file")
	cmd.Flags().IntVar(&opts.lines, "preview-lines", previewLines, "Transcript preview lines (0 prints everything)")
	return cmd
}

func runWorkflow(ctx context.Context, out io.Writer, cfg *config.Config, client *backend.Client, logger *slog.Logger, paths []string, opts runOptions) error {
	languages := catalog.NewLoader(client, logger).Load(ctx)

	controllerOpts := []workflow.Option{
		workflow.WithCatalog(languages),
		workflow.WithLogger(logger),
		workflow.WithEventBuffer(cfg.Workflow.EventBuffer),
		workflow.WithDefaultTargetLanguage(cfg.Workflow.DefaultTargetLanguage),
		workflow.WithProgressLogBucket(cfg.Workflow.ProgressLogBucket),
	}
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "run journal unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in vidsub history"),
		)
	} else {
		defer store.Close()
		controllerOpts = append(controllerOpts, workflow.WithRecorder(store))
	}
	controller := workflow.NewController(client, controllerOpts...)

	if strings.TrimSpace(opts.target) != "" {
		if err := controller.SetTargetLanguage(opts.target); err != nil {
			return userFacing(err, "Unsupported target language")
		}
	}

	asset, err := controller.Select(paths, opts.mediaType)
	if err != nil {
		return userFacing(err, media.MessageNotVideo)
	}
	fmt.Fprintf(out, "Selected %s (%s) -> %s\n", asset.Name, asset.DisplaySize(), languages.DisplayName(controller.TargetLanguage()))

	events, unsubscribe := controller.Events().Subscribe(256)
	reporter := newProgressReporter(out, isTerminal(out), cfg.Workflow.ProgressLogBucket)
	reporter.follow(events)
	runErr := controller.StartUpload(ctx)
	unsubscribe()
	reporter.wait()

	snap := controller.Snapshot()
	if runErr != nil {
		if snap.Error != nil && snap.Error.Message != "" {
			return errors.New(snap.Error.Message)
		}
		return runErr
	}
	if snap.Result == nil {
		return errors.New("run finished without a result")
	}

	printResult(out, *snap.Result, languages, opts.lines)

	if opts.noDownload {
		fmt.Fprintf(out, "Subtitle file on backend: %s\n", snap.Result.SubtitleFile)
		return nil
	}
	dir := strings.TrimSpace(opts.output)
	if dir == "" {
		dir = cfg.Paths.OutputDir
	}
	if dir, err = config.ExpandPath(dir); err != nil {
		return err
	}
	path, err := controller.DownloadSubtitle(ctx, presenter.New(client, logger), dir)
	if err != nil {
		return fmt.Errorf("%s (retry with: vidsub download %s)", workflow.MessageDownloadFailed, snap.Result.SubtitleFile)
	}
	fmt.Fprintf(out, "Saved subtitles to %s\n", path)
	return nil
}

func printResult(out io.Writer, result backend.Result, names presenter.NameLookup, lines int) {
	fmt.Fprintln(out, presenter.Summarize(result, names).String())
	fmt.Fprintln(out)
	fmt.Fprintln(out, presenter.Preview(result.Transcription, previewWidth, lines))
	fmt.Fprintln(out)
}

// userFacing reduces err to the message a user should see.
func userFacing(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return errors.New(services.UserMessage(err, fallback))
}
