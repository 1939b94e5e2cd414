package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"vidsub/internal/config"
	"vidsub/internal/history"
	"vidsub/internal/logging"
	"vidsub/internal/presenter"
	"vidsub/internal/services"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <srt_file|run_id>",
		Short: "Save the subtitle file of an earlier run",
		Long: "Download a subtitle file from the backend. The argument is either the\n" +
			"backend's SRT file name or a run ID (or prefix) from vidsub history.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, logger, err := ctx.backendClient()
			if err != nil {
				return err
			}

			ref := resolveSubtitleRef(cmd, cfg, args[0], logger)
			dir := strings.TrimSpace(output)
			if dir == "" {
				dir = cfg.Paths.OutputDir
			}
			if dir, err = config.ExpandPath(dir); err != nil {
				return err
			}

			path, err := presenter.New(client, logger).Save(cmd.Context(), ref, dir)
			if err != nil {
				var statusErr *services.StatusError
				if errors.As(err, &statusErr) && strings.TrimSpace(statusErr.Detail) != "" {
					return fmt.Errorf("%s: %s", presenter.MessageDownloadFailed, statusErr.Detail)
				}
				return errors.New(presenter.MessageDownloadFailed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved subtitles to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Directory for the SRT file (default paths.output_dir)")
	return cmd
}

// resolveSubtitleRef maps a run ID to its subtitle file through the journal.
// Anything the journal does not know is used as the file name directly.
func resolveSubtitleRef(cmd *cobra.Command, cfg *config.Config, arg string, logger *slog.Logger) string {
	arg = strings.TrimSpace(arg)
	if strings.HasSuffix(strings.ToLower(arg), ".srt") {
		return arg
	}
	store, err := history.Open(cfg)
	if err != nil {
		logger.Debug("run journal unavailable", logging.Error(err))
		return arg
	}
	defer store.Close()
	entry, err := store.Lookup(cmd.Context(), arg)
	if err != nil || entry.SubtitleFile == "" {
		return arg
	}
	return entry.SubtitleFile
}
