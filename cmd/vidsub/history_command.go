package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"vidsub/internal/history"
	"vidsub/internal/language"
	"vidsub/internal/textutil"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs from the local journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run journal: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			writeTable(out, historyColumns(), historyRows(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

const outcomeWidth = 48

func historyColumns() []column {
	return []column{
		{title: "Run"},
		{title: "Started"},
		{title: "File"},
		{title: "Target"},
		{title: "Status"},
		{title: "Detected"},
		{title: "Segments", right: true},
		{title: "Subtitle / Error"},
	}
}

func historyRows(entries []history.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		outcome := entry.SubtitleFile
		if entry.Status != history.StatusComplete {
			outcome = entry.ErrorMessage
		}
		segments := ""
		detected := ""
		if entry.Status == history.StatusComplete {
			segments = strconv.Itoa(entry.SegmentCount)
			detected = entry.DetectedLanguage
		}
		rows = append(rows, []string{
			shortRunID(entry.RunID),
			entry.StartedAt.Local().Format(time.DateTime),
			entry.FileName,
			language.DisplayName(entry.TargetLanguage),
			string(entry.Status),
			detected,
			segments,
			textutil.Truncate(textutil.SingleLine(outcome), outcomeWidth),
		})
	}
	return rows
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
