// Package cli wires the sapling commands. Each command writes its JSON
// result to stdout; failures become a single {"error": message} object
// and a non-zero exit status, with diagnostics on stderr.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomasreimers/sapling/internal/output"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sapling",
		Short: "Sapling translates between JSON stack descriptions and the repository commit graph",
		Long: `Sapling is a bidirectional interchange engine between external tools and a
repository's commit graph. Import a JSON action list to materialize commits,
history rewrites, and working-copy state; export a commit range as a
self-contained JSON stack that can be replayed without repository access.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newImportStackCmd())
	rootCmd.AddCommand(newExportStackCmd())

	return rootCmd
}

// errorBody is the single top-level error object emitted on failure
type errorBody struct {
	Error string `json:"error"`
}

// emitError writes the error object to stdout and a styled diagnostic to
// stderr, then returns a silent error so the process exits non-zero.
func emitError(err error) error {
	body, marshalErr := json.Marshal(errorBody{Error: err.Error()})
	if marshalErr == nil {
		fmt.Fprintln(os.Stdout, string(body))
	}
	fmt.Fprintln(os.Stderr, output.FormatError(err.Error()))
	return err
}

// emitJSON writes a result document to stdout
func emitJSON(value interface{}) error {
	body, err := json.Marshal(value)
	if err != nil {
		return emitError(err)
	}
	fmt.Fprintln(os.Stdout, string(body))
	return nil
}
