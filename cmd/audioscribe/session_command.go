package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"audioscribe/internal/app"
	"audioscribe/internal/listview"
	"audioscribe/internal/search"
	"audioscribe/internal/services"
	"audioscribe/internal/upload"
)

const sessionHelp = `Commands:
  list               show the current page of transcriptions
  page <n>           jump to page n
  next | prev        move one page forward or back
  search <query>     search transcriptions by filename
  results [n]        show search results, optionally page n
  stage <file>...    validate files for the next upload (replaces the batch)
  upload             upload the staged files
  queue              show the upload queue and statuses
  refresh            re-fetch the transcription list
  health             re-check the service
  help               show this help
  quit               leave the session`

func newSessionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			_ = s.app.Start(cmd.Context())
			r := &repl{app: s.app, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
			return r.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

// repl drives one App from line-oriented input. The health banner is
// repeated above every view for the life of the session.
type repl struct {
	app    *app.App
	out    io.Writer
	errOut io.Writer
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(r.out, "audioscribe session - type 'help' for commands")
	r.showList()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if quit := r.dispatch(ctx, fields[0], fields[1:]); quit {
			return nil
		}
	}
}

func (r *repl) dispatch(ctx context.Context, name string, args []string) bool {
	switch strings.ToLower(name) {
	case "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintln(r.out, sessionHelp)
	case "list", "ls":
		r.showList()
	case "page":
		r.gotoPage(r.app.Pager(), args, r.showList)
	case "next":
		pager := r.app.Pager()
		r.step(pager, pager.HasNext, pager.Next, r.showList)
	case "prev":
		pager := r.app.Pager()
		r.step(pager, pager.HasPrev, pager.Prev, r.showList)
	case "search":
		r.search(ctx, strings.Join(args, " "))
	case "results":
		if len(args) == 0 {
			r.showResults()
			return false
		}
		r.gotoPage(r.app.Search().Pager(), args, r.showResults)
	case "stage":
		r.stage(args)
	case "upload":
		r.upload(ctx)
	case "queue":
		r.header()
		renderQueue(r.out, r.app.Uploads().Entries())
	case "refresh":
		_ = r.app.Refresh(ctx)
		r.showList()
	case "health":
		if err := r.app.CheckHealth(ctx); err == nil {
			fmt.Fprintln(r.out, renderStatusLine("Server", statusOK, r.app.BaseURL(), shouldColorize(r.out)))
		}
		r.header()
	default:
		fmt.Fprintf(r.out, "Unknown command %q; type 'help' for commands\n", name)
	}
	return false
}

func (r *repl) header() {
	printBanner(r.out, r.app.Banner())
}

func (r *repl) showList() {
	r.header()
	if msg := r.app.ListMessage(); msg != "" {
		fmt.Fprintln(r.out, msg)
		return
	}
	renderTranscriptionPage(r.out, r.app.Pager())
}

func (r *repl) showResults() {
	r.header()
	searcher := r.app.Search()
	if searcher.Query() == "" {
		fmt.Fprintln(r.out, "No search yet; use 'search <query>'")
		return
	}
	if msg := searcher.Message(); msg != "" {
		fmt.Fprintln(r.out, msg)
		return
	}
	fmt.Fprintf(r.out, "Results for %q\n", searcher.Query())
	renderTranscriptionPage(r.out, searcher.Pager())
}

func (r *repl) gotoPage(pager *listview.Pager, args []string, show func()) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: page <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(r.out, "invalid page %q\n", args[0])
		return
	}
	if err := selectPage(pager, n); err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	show()
}

func (r *repl) step(pager *listview.Pager, can, move func() bool, show func()) {
	if !can() || !move() {
		fmt.Fprintf(r.out, "Already on page %d of %d\n", pager.Page(), max(pager.TotalPages(), 1))
		return
	}
	show()
}

func (r *repl) search(ctx context.Context, query string) {
	err := r.app.Search().Search(ctx, query)
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		fmt.Fprintln(r.out, "usage: search <query>")
		return
	case errors.Is(err, services.ErrBusy):
		fmt.Fprintln(r.out, "A search is already running")
		return
	}
	r.showResults()
}

func (r *repl) stage(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "usage: stage <file>...")
		return
	}
	files, err := upload.FromPaths(args)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	outcome := r.app.Stage(files)
	r.header()
	printRejections(r.out, outcome)
	if msg := r.app.Uploads().Message(); msg != "" {
		fmt.Fprintln(r.out, msg)
	}
	if outcome.Err == nil {
		fmt.Fprintf(r.out, "%d file(s) staged\n", len(outcome.Accepted))
	}
}

func (r *repl) upload(ctx context.Context) {
	uploads := r.app.Uploads()
	stop := startSpinner(r.errOut, false, len(uploads.Staged()))
	summary, err := r.app.Upload(ctx)
	stop()

	r.header()
	if len(summary.Entries) > 0 {
		renderQueue(r.out, summary.Entries)
	}
	if msg := uploads.Message(); msg != "" {
		fmt.Fprintln(r.out, msg)
	}
	switch {
	case errors.Is(err, app.ErrUploadLocked):
		fmt.Fprintln(r.out, "Another upload is in progress on this machine; try again shortly.")
	case err == nil:
		fmt.Fprintf(r.out, "%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}
}
