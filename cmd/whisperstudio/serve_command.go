package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"whisperstudio/internal/api"
	"whisperstudio/internal/inbox"
	"whisperstudio/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var slots int
	var withInbox bool
	var mediaRoots []string
	var keepJobs int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the inbox watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			if strings.TrimSpace(bind) == "" {
				bind = cfg.Paths.APIBind
			}
			inboxEnabled := cfg.Inbox.Enabled
			if cmd.Flags().Changed("inbox") {
				inboxEnabled = withInbox
			}

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			runner, store, err := ctx.newRunner(runCtx, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			jobs := api.NewJobService(runCtx, runner, slots, logger,
				api.WithRetainedJobs(keepJobs),
				api.WithMediaRoots(append([]string{cfg.Paths.InboxDir}, mediaRoots...)...),
			)
			server := api.NewServer(bind, api.Deps{
				Jobs:    jobs,
				Runs:    runner.Runs(),
				Tracker: runner.Tracker(),
				Store:   store,
			}, logger)

			g, gctx := errgroup.WithContext(runCtx)
			g.Go(func() error {
				if err := server.Start(gctx); err != nil {
					return err
				}
				<-gctx.Done()
				return nil
			})
			if inboxEnabled {
				watcher := inbox.New(cfg, runner, logger)
				g.Go(func() error {
					return watcher.Run(gctx)
				})
			}

			logger.Info("whisperstudio serving",
				logging.String(logging.FieldEventType, "serve_started"),
				logging.String("bind", bind),
				logging.Bool("inbox", inboxEnabled),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", bind)

			err = g.Wait()
			cancel()
			waitCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			if waitErr := jobs.Wait(waitCtx); waitErr != nil {
				logging.WarnWithContext(logger, "jobs still running at shutdown", "serve_shutdown_timeout",
					logging.Int("active_jobs", jobs.Active()),
				)
			}
			logger.Info("whisperstudio stopped", logging.String(logging.FieldEventType, "serve_stopped"))
			return err
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to paths.api_bind)")
	cmd.Flags().IntVar(&slots, "jobs", 1, "Maximum concurrent transcriptions")
	cmd.Flags().BoolVar(&withInbox, "inbox", false, "Watch the inbox directory (overrides inbox.enabled)")
	cmd.Flags().StringSliceVar(&mediaRoots, "media-root", nil, "Extra directory API clients may reference in mediaPath (the inbox is always allowed)")
	cmd.Flags().IntVar(&keepJobs, "keep-jobs", api.DefaultRetainedJobs, "Finished jobs kept for status queries")
	return cmd
}
