package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"whisperstudio/internal/history"
	"whisperstudio/internal/localize"
	"whisperstudio/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check configuration, tools and the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			report := newStatusReport(out)

			report.section("Configuration")
			configPath := ctx.configPath
			if !ctx.configExists {
				configPath += " (not found, defaults used)"
			}
			report.add("Config", levelInfo, configPath)
			report.add("Locale", levelInfo, fmt.Sprintf("%s (supported: %s)", cfg.UI.Locale, strings.Join(localize.Supported(), ", ")))
			report.add("Inbox", levelInfo, inboxSummary(cfg.Inbox.Enabled, cfg.Paths.InboxDir))

			report.section("Environment")
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				lvl := levelOK
				switch {
				case result.Passed:
				case result.Optional:
					lvl = levelWarn
				default:
					lvl = levelError
				}
				report.add(result.Name, lvl, result.Detail)
			}

			report.section("Services")
			api := preflight.CheckAPI(cmd.Context(), cfg.Paths.APIBind)
			apiLevel := levelInfo
			if api.Passed {
				apiLevel = levelOK
			}
			report.add("API server", apiLevel, api.Detail)
			ledgerLevel, ledgerDetail := ledgerSummary(ctx, cmd)
			report.add("History", ledgerLevel, ledgerDetail)

			report.writeTo(out)
			if blocking := preflight.Blocking(results); len(blocking) > 0 {
				names := make([]string, 0, len(blocking))
				for _, r := range blocking {
					names = append(names, r.Name)
				}
				return fmt.Errorf("environment not ready: %s", strings.Join(names, ", "))
			}
			return nil
		},
	}
}

func inboxSummary(enabled bool, dir string) string {
	if !enabled {
		return "disabled"
	}
	return "watching " + dir
}

func ledgerSummary(ctx *commandContext, cmd *cobra.Command) (level, string) {
	store, err := ctx.openStore()
	if err != nil {
		return levelError, err.Error()
	}
	defer store.Close()
	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return levelError, err.Error()
	}
	return levelOK, fmt.Sprintf("%d completed, %d failed, %d running",
		stats[history.StatusCompleted], stats[history.StatusFailed], stats[history.StatusRunning])
}
