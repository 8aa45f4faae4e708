package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"audioscribe/internal/listview"
	"audioscribe/internal/transcripts"
	"audioscribe/internal/upload"
)

const transcriptColumnWidth = 60

type pageJSON struct {
	Page       int                         `json:"page"`
	TotalPages int                         `json:"total_pages"`
	Total      int                         `json:"total"`
	Items      []transcripts.Transcription `json:"items"`
	Message    string                      `json:"message,omitempty"`
	Banner     string                      `json:"banner,omitempty"`
}

func newPageJSON(pager *listview.Pager, message, banner string) pageJSON {
	items := pager.Visible()
	if items == nil {
		items = []transcripts.Transcription{}
	}
	return pageJSON{
		Page:       pager.Page(),
		TotalPages: pager.TotalPages(),
		Total:      pager.Len(),
		Items:      items,
		Message:    message,
		Banner:     banner,
	}
}

// selectPage moves the pager to page, rejecting pages outside
// [1, TotalPages]. Page 1 of an empty list is always accepted.
func selectPage(pager *listview.Pager, page int) error {
	if page == pager.Page() {
		return nil
	}
	if !pager.SetPage(page) {
		return fmt.Errorf("page %d out of range (1-%d)", page, max(pager.TotalPages(), 1))
	}
	return nil
}

func renderTranscriptionPage(out io.Writer, pager *listview.Pager) {
	visible := pager.Visible()
	if len(visible) == 0 {
		fmt.Fprintln(out, "No transcriptions.")
		return
	}
	offset := pager.Offset()
	rows := make([][]string, 0, len(visible))
	for i, item := range visible {
		rows = append(rows, []string{
			strconv.Itoa(offset + i + 1),
			item.Filename,
			strings.TrimSpace(item.Transcription),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		{Title: "#", Right: true},
		{Title: "Filename"},
		{Title: "Transcription", Wrap: transcriptColumnWidth},
	}, rows))
	fmt.Fprintf(out, "Page %d of %d (%d transcriptions)\n", pager.Page(), pager.TotalPages(), pager.Len())
}

func printBanner(out io.Writer, banner string) {
	if banner == "" {
		return
	}
	fmt.Fprintln(out, renderBanner(banner, shouldColorize(out)))
}

type entryJSON struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

func entriesJSON(entries []upload.Entry) []entryJSON {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryJSON{
			Filename: e.File.Name(),
			Size:     e.File.Size(),
			Status:   e.Status.String(),
			Reason:   e.Reason,
		})
	}
	return out
}

func renderQueue(out io.Writer, entries []upload.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "Upload queue is empty.")
		return
	}
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(entries))
	waiting := 0
	for _, e := range entries {
		if !e.Status.IsFinished() {
			waiting++
		}
		status := e.Status.String()
		if colorize {
			status = statusKindColor(uploadStatusKind(e.Status)) + status + ansiReset
		}
		rows = append(rows, []string{
			e.File.Name(),
			humanize.Bytes(uint64(max(e.File.Size(), 0))),
			status,
			e.Reason,
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		{Title: "File"},
		{Title: "Size", Right: true},
		{Title: "Status"},
		{Title: "Reason", Wrap: transcriptColumnWidth},
	}, rows))
	if waiting > 0 {
		fmt.Fprintf(out, "%d file(s) waiting to upload\n", waiting)
	}
}

func printRejections(out io.Writer, outcome upload.Outcome) {
	colorize := shouldColorize(out)
	for _, r := range outcome.Rejected {
		fmt.Fprintln(out, renderStatusLine(r.Filename, statusWarn, r.Err.Message, colorize))
	}
}

func pageFlag(cmd *cobra.Command, target *int) {
	cmd.Flags().IntVarP(target, "page", "p", 1, "Page to show")
}
