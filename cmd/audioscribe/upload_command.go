package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"audioscribe/internal/app"
	"audioscribe/internal/upload"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload audio files for transcription",
		Long: "Upload up to two .mp3 or .wav files in one batch. Files whose names " +
			"already appear in the transcription list are rejected before upload.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := upload.FromPaths(args)
			if err != nil {
				return err
			}

			s, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			_ = s.app.Start(cmd.Context())
			return runUpload(cmd, ctx.jsonOutput(), s.app, files)
		},
	}
}

type uploadJSON struct {
	Banner    string      `json:"banner,omitempty"`
	Message   string      `json:"message,omitempty"`
	Rejected  []entryJSON `json:"rejected,omitempty"`
	Files     []entryJSON `json:"files"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// runUpload stages files, uploads the accepted ones, and reports the queue.
// It fails when nothing was uploaded or any file failed.
func runUpload(cmd *cobra.Command, asJSON bool, a *app.App, files []upload.File) error {
	out := cmd.OutOrStdout()
	uploads := a.Uploads()

	outcome := a.Stage(files)
	report := uploadJSON{Banner: a.Banner(), Files: []entryJSON{}}
	for _, r := range outcome.Rejected {
		report.Rejected = append(report.Rejected, entryJSON{Filename: r.Filename, Status: "Rejected", Reason: r.Err.Message})
	}

	if !asJSON {
		printBanner(out, a.Banner())
		printRejections(out, outcome)
	}

	var (
		summary   upload.Summary
		uploadErr error
	)
	if outcome.Err == nil {
		staged := uploads.Staged()
		quiet := asJSON || len(staged) == 0
		if !quiet {
			printStaged(out, staged)
		}
		stopSpinner := startSpinner(cmd.ErrOrStderr(), quiet, len(staged))
		summary, uploadErr = a.Upload(cmd.Context())
		stopSpinner()
	} else {
		uploadErr = outcome.Err
	}

	report.Message = uploads.Message()
	report.Files = entriesJSON(uploads.Entries())
	report.Succeeded = summary.Succeeded
	report.Failed = summary.Failed

	if asJSON {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		if len(summary.Entries) > 0 {
			renderQueue(out, summary.Entries)
		}
		if report.Message != "" {
			fmt.Fprintln(out, report.Message)
		}
		if errors.Is(uploadErr, app.ErrUploadLocked) {
			fmt.Fprintln(out, "Another upload is in progress on this machine; try again shortly.")
		}
	}

	switch {
	case errors.Is(uploadErr, context.Canceled):
		return uploadErr
	case uploadErr != nil:
		return errSilentExit
	case summary.Failed > 0:
		return errSilentExit
	}
	return nil
}

func printStaged(out io.Writer, staged []upload.File) {
	var total int64
	for _, f := range staged {
		total += f.Size()
	}
	fmt.Fprintf(out, "Uploading %d file(s), %s\n", len(staged), humanize.Bytes(uint64(max(total, 0))))
}

// startSpinner animates on w until the returned stop func is called. JSON
// mode stays silent.
func startSpinner(w io.Writer, silent bool, files int) func() {
	if silent {
		return func() {}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(fmt.Sprintf("Transcribing %d file(s)", files)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
		_ = bar.Finish()
	}
}
