package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"whisperstudio/internal/progress"
	"whisperstudio/internal/workflow"
)

// runFailure carries the localized summary of a failed run while keeping the
// typed cause reachable through errors.Is/As.
type runFailure struct {
	message string
	err     error
}

func (f *runFailure) Error() string { return f.message }

func (f *runFailure) Unwrap() error { return f.err }

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var (
		url        string
		language   string
		subtitles  bool
		structured bool
		document   bool
		format     string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe [FILE]",
		Short: "Transcribe a media file or URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "text" && format != "json" {
				return fmt.Errorf("invalid --format %q (want text or json)", format)
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			runner, store, err := ctx.newRunner(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer store.Close()

			req := workflow.Request{
				URL:            url,
				Language:       language,
				WantSubtitles:  subtitles,
				WantStructured: structured,
				WantDocument:   document,
			}
			if len(args) == 1 {
				req.MediaPath = args[0]
			}

			errOut := cmd.ErrOrStderr()
			line := newProgressLine(errOut, isTerminal(errOut))
			var reporter progress.Reporter = line
			if quiet {
				reporter = progress.Nop{}
			}
			result, runErr := runner.Transcribe(cmd.Context(), req, reporter)
			line.Finish()

			if format == "json" {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else if runErr == nil {
				printResult(cmd.OutOrStdout(), result)
			} else if result.Transcript != "" {
				fmt.Fprintln(cmd.OutOrStdout(), result.Display)
			}
			if runErr != nil {
				return &runFailure{message: result.Message, err: runErr}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Remote media URL (takes precedence over FILE)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language hint (e.g. en, fr, French); empty or auto to detect")
	cmd.Flags().BoolVar(&subtitles, "srt", false, "Also produce SRT subtitles")
	cmd.Flags().BoolVar(&structured, "json", false, "Also produce structured JSON with timings")
	cmd.Flags().BoolVar(&document, "pdf", false, "Export the transcript as a PDF document")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print progress")
	return cmd
}

func printResult(out io.Writer, result *workflow.Result) {
	fmt.Fprintln(out, result.Display)
	fmt.Fprintln(out)

	if len(result.Artifacts) > 0 || result.Document != "" {
		rows := make([][]string, 0, len(result.Artifacts)+1)
		for _, artifact := range result.Artifacts {
			rows = append(rows, []string{string(artifact.Kind), strconv.Itoa(artifact.SegmentIndex), artifact.Path})
		}
		if result.Document != "" {
			rows = append(rows, []string{"document", "-", result.Document})
		}
		fmt.Fprintln(out, renderTable("Artifacts", []column{
			{header: "Kind"},
			{header: "Segment", align: alignRight},
			{header: "Path"},
		}, rows))
	}
	if result.RunDir != "" {
		fmt.Fprintf(out, "Run: %s (%s)\n", result.RunID, filepath.Clean(result.RunDir))
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", warning)
	}
	if len(result.History) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Recent runs:")
		for _, entry := range result.History {
			fmt.Fprintln(out, entry.Line())
		}
	}
	if result.Message != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, result.Message)
	}
}
