package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidsub/internal/api"
	"vidsub/internal/catalog"
	"vidsub/internal/history"
	"vidsub/internal/logging"
	"vidsub/internal/presenter"
	"vidsub/internal/session"
	"vidsub/internal/workflow"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local control API for a browser frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ctx.logToStderr = true
			client, logger, err := ctx.backendClient()
			if err != nil {
				return err
			}
			lock, err := session.Acquire(cfg.Paths.StateDir)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			languages := catalog.NewLoader(client, logger).Load(cmd.Context())
			controllerOpts := []workflow.Option{
				workflow.WithCatalog(languages),
				workflow.WithLogger(logger),
				workflow.WithEventBuffer(cfg.Workflow.EventBuffer),
				workflow.WithDefaultTargetLanguage(cfg.Workflow.DefaultTargetLanguage),
				workflow.WithProgressLogBucket(cfg.Workflow.ProgressLogBucket),
			}
			if store, err := history.Open(cfg); err != nil {
				logging.WarnWithContext(logger, "run journal unavailable", "history_open_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "runs started through the API are not journaled"),
				)
			} else {
				defer store.Close()
				controllerOpts = append(controllerOpts, workflow.WithRecorder(store))
			}

			opts := api.OptionsFromConfig(cfg)
			if strings.TrimSpace(bind) != "" {
				opts.Bind = strings.TrimSpace(bind)
			}
			controller := workflow.NewController(client, controllerOpts...)
			opts.Controller = controller
			opts.Catalog = languages
			opts.Downloader = presenter.New(client, logger)
			opts.Logger = logger

			server, err := api.New(opts)
			if err != nil {
				return err
			}
			if err := server.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Control API listening on http://%s/api (backend %s)\n", server.Addr(), client.BaseURL())
			<-cmd.Context().Done()
			// Runs share the command context; let them journal before the store closes.
			controller.Wait()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default paths.api_bind)")
	return cmd
}
