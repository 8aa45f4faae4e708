package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON prints one indented document per invocation. Transcript text and
// filenames are emitted as-is, so HTML escaping is off.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
