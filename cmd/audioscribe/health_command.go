package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the transcription service is healthy",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			checkErr := s.app.CheckHealth(cmd.Context())
			if ctx.jsonOutput() {
				payload := map[string]any{
					"healthy":  checkErr == nil,
					"base_url": s.app.BaseURL(),
				}
				if checkErr != nil {
					payload["error"] = checkErr.Error()
					payload["banner"] = s.app.Banner()
				}
				if err := writeJSON(cmd, payload); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				if checkErr != nil {
					printBanner(out, s.app.Banner())
					fmt.Fprintln(out, renderStatusLine("Server", statusError, s.app.BaseURL(), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Server", statusOK, s.app.BaseURL(), colorize))
				}
			}
			if checkErr != nil {
				return errSilentExit
			}
			return nil
		},
	}
}
