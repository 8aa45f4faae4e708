package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"audioscribe/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently uploaded batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			batches, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, historyJSON(batches))
			}

			out := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(out, "History recording is disabled; showing previously recorded batches.")
			}
			if len(batches) == 0 {
				fmt.Fprintln(out, "No batches recorded.")
				return nil
			}
			rows := make([][]string, 0, len(batches))
			for _, b := range batches {
				rows = append(rows, []string{
					shortID(b.ID),
					humanize.Time(b.StartedAt),
					b.Duration().Round(time.Millisecond).String(),
					string(b.Outcome),
					describeFiles(b.Files),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{Title: "Batch"},
				{Title: "Started"},
				{Title: "Took", Right: true},
				{Title: "Outcome"},
				{Title: "Files", Wrap: transcriptColumnWidth},
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of batches to show (0 for all)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func describeFiles(files []history.File) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		label := fmt.Sprintf("%s (%s, %s)", f.Name, f.Status, humanize.Bytes(uint64(max(f.Size, 0))))
		if f.Reason != "" {
			label = fmt.Sprintf("%s (%s: %s)", f.Name, f.Status, f.Reason)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "\n")
}

type historyFileJSON struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Blake3   string `json:"blake3,omitempty"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

type historyBatchJSON struct {
	ID         string            `json:"id"`
	BaseURL    string            `json:"base_url"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Outcome    string            `json:"outcome"`
	Error      string            `json:"error,omitempty"`
	Files      []historyFileJSON `json:"files"`
}

func historyJSON(batches []history.Batch) []historyBatchJSON {
	out := make([]historyBatchJSON, 0, len(batches))
	for _, b := range batches {
		files := make([]historyFileJSON, 0, len(b.Files))
		for _, f := range b.Files {
			files = append(files, historyFileJSON{
				Filename: f.Name,
				Size:     f.Size,
				Blake3:   f.Digest,
				Status:   f.Status,
				Reason:   f.Reason,
			})
		}
		out = append(out, historyBatchJSON{
			ID:         b.ID,
			BaseURL:    b.BaseURL,
			StartedAt:  b.StartedAt,
			FinishedAt: b.FinishedAt,
			Outcome:    string(b.Outcome),
			Error:      b.Error,
			Files:      files,
		})
	}
	return out
}
