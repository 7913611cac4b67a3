package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"telecine/internal/jobstore"
)

const historyTimeLayout = "2006-01-02 15:04"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded capture runs, or the frames of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := jobstore.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if len(args) == 1 {
				return showRun(cmd, store, args[0], colorize)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			var colors []text.Colors
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID[:8],
					run.StartedAt.Local().Format(historyTimeLayout),
					run.Job,
					fmt.Sprintf("%d-%d%s", run.StartFrame, run.EndFrame, reverseMark(run.Reverse)),
					string(run.Status),
					strconv.Itoa(run.Frames),
					strconv.Itoa(run.Fallbacks),
					formatRunDuration(run),
				})
				colors = append(colors, runColor(run.Status, colorize))
			}
			fmt.Fprintln(out, renderTableWith(
				[]string{"Run", "Started", "Job", "Range", "Status", "Frames", "Fallbacks", "Duration"},
				rows,
				tableOptions{
					aligns:    []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
					rowColors: colors,
				},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

func showRun(cmd *cobra.Command, store *jobstore.Store, id string, colorize bool) error {
	run, err := findRun(cmd, store, id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(run.Status), string(run.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("Job", statusInfo, run.Job, colorize))
	fmt.Fprintln(out, renderStatusLine("Bracketing", statusInfo, yesNo(run.Bracket), colorize))
	if run.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
	}

	frames, err := store.Frames(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(frames))
	var colors []text.Colors
	for _, f := range frames {
		rows = append(rows, []string{strconv.Itoa(f.Frame), string(f.Outcome), strconv.Itoa(f.YDiff), f.Path})
		kind := statusOK
		switch f.Outcome {
		case jobstore.OutcomeFallback:
			kind = statusWarn
		case jobstore.OutcomeFailed:
			kind = statusError
		}
		colors = append(colors, rowColor(kind, colorize))
	}
	fmt.Fprintln(out, renderTableWith([]string{"Frame", "Outcome", "Offset", "File"}, rows,
		tableOptions{aligns: []columnAlignment{alignRight, alignLeft, alignRight, alignLeft}, rowColors: colors}))
	return nil
}

// findRun accepts a full id or the prefix shown by the listing.
func findRun(cmd *cobra.Command, store *jobstore.Store, id string) (*jobstore.Run, error) {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil || run != nil {
		return run, err
	}
	runs, err := store.ListRuns(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var match *jobstore.Run
	for _, r := range runs {
		if len(id) >= 4 && len(r.ID) >= len(id) && r.ID[:len(id)] == id {
			if match != nil {
				return nil, fmt.Errorf("run prefix %q is ambiguous", id)
			}
			match = r
		}
	}
	if match == nil {
		return nil, errors.New("run not found: " + id)
	}
	return match, nil
}

func runColor(status jobstore.Status, colorize bool) text.Colors {
	return rowColor(runStatusKind(status), colorize)
}

func rowColor(kind statusKind, colorize bool) text.Colors {
	if !colorize {
		return nil
	}
	return statusColors(kind)
}

func reverseMark(reverse bool) string {
	if reverse {
		return " (rev)"
	}
	return ""
}

func formatRunDuration(run *jobstore.Run) string {
	if run.Status == jobstore.StatusRunning || run.FinishedAt.IsZero() {
		return "-"
	}
	return run.Duration().Round(time.Second).String()
}
