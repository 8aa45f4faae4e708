package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored transcriptions, ten per page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			fetchErr := s.app.Start(cmd.Context())
			pager := s.app.Pager()
			if fetchErr == nil {
				if err := selectPage(pager, page); err != nil {
					return err
				}
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, newPageJSON(pager, s.app.ListMessage(), s.app.Banner())); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				printBanner(out, s.app.Banner())
				if fetchErr != nil {
					fmt.Fprintln(out, s.app.ListMessage())
				} else {
					renderTranscriptionPage(out, pager)
				}
			}
			if fetchErr != nil {
				return errSilentExit
			}
			return nil
		},
	}
	pageFlag(cmd, &page)
	return cmd
}
