package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"audioscribe/internal/search"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search transcriptions by filename",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return search.ErrEmptyQuery
			}

			s, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			_ = s.app.CheckHealth(cmd.Context())
			searcher := s.app.Search()
			searchErr := searcher.Search(cmd.Context(), query)
			if searchErr != nil && errors.Is(searchErr, search.ErrEmptyQuery) {
				return searchErr
			}
			pager := searcher.Pager()
			if searchErr == nil {
				if err := selectPage(pager, page); err != nil {
					return err
				}
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, newPageJSON(pager, searcher.Message(), s.app.Banner())); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				printBanner(out, s.app.Banner())
				if msg := searcher.Message(); msg != "" {
					fmt.Fprintln(out, msg)
				} else {
					renderTranscriptionPage(out, pager)
				}
			}
			if searchErr != nil {
				return errSilentExit
			}
			return nil
		},
	}
	pageFlag(cmd, &page)
	return cmd
}
