package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"whisperstudio/internal/history"
	"whisperstudio/internal/localize"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statusFilter []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past transcription runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			statuses, err := parseStatuses(statusFilter)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit, statuses...)
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			if asJSON {
				if records == nil {
					records = []history.Record{}
				}
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, localize.New(cfg.UI.Locale).Sprintf(localize.MsgNoHistory))
				return nil
			}
			fmt.Fprintln(out, renderTable("", []column{
				{header: "Run"},
				{header: "Status"},
				{header: "Source"},
				{header: "Lang"},
				{header: "Segments", align: alignRight},
				{header: "Duration", align: alignRight},
				{header: "Elapsed", align: alignRight},
				{header: "Detail", maxWidth: 60},
			}, historyRows(records)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.Capacity, "Number of runs to show")
	cmd.Flags().StringSliceVar(&statusFilter, "status", nil, "Filter by status (running, completed, failed)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func parseStatuses(values []string) ([]history.Status, error) {
	var out []history.Status
	for _, raw := range values {
		switch status := history.Status(strings.ToLower(strings.TrimSpace(raw))); status {
		case history.StatusRunning, history.StatusCompleted, history.StatusFailed:
			out = append(out, status)
		default:
			return nil, fmt.Errorf("invalid status %q (want running, completed or failed)", raw)
		}
	}
	return out, nil
}

func historyRows(records []history.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		detail := ""
		switch {
		case rec.ErrorMessage != "":
			detail = firstLine(rec.ErrorMessage)
		case len(rec.Warnings) > 0:
			detail = fmt.Sprintf("%d warning(s)", len(rec.Warnings))
		case rec.DocumentPath != "":
			detail = "pdf"
		}
		rows = append(rows, []string{
			rec.RunID,
			string(rec.Status),
			rec.Source.String(),
			dashIfEmpty(rec.Language),
			strconv.Itoa(rec.SegmentCount),
			formatSeconds(rec.DurationSeconds),
			formatElapsed(rec.Elapsed()),
			detail,
		})
	}
	return rows
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return formatElapsed(time.Duration(seconds * float64(time.Second)))
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func firstLine(value string) string {
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		return value[:idx]
	}
	return value
}
