package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidsub/internal/catalog"
)

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the target languages offered by the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := ctx.backendClient()
			if err != nil {
				return err
			}
			loader := catalog.NewLoader(client, logger)
			languages := loader.Load(cmd.Context())
			if err := loader.Err(); err != nil {
				return fmt.Errorf("load languages: %w", err)
			}

			options := languages.Options()
			rows := make([][]string, 0, len(options))
			for _, option := range options {
				rows = append(rows, []string{option.Code, option.Name})
			}
			writeTable(cmd.OutOrStdout(), []column{{title: "Code"}, {title: "Language"}}, rows)
			return nil
		},
	}
}
