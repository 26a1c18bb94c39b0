package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomasreimers/sapling/internal/runtime"
	"github.com/tomasreimers/sapling/internal/stack"
)

// newImportStackCmd creates the import-stack command
func newImportStackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-stack [file]",
		Short: "Materialize a JSON action list as commits and mutation records",
		Long: `Read a JSON array of [action, object] pairs from a file or stdin and apply
it to the repository: create commits, record history rewrites (amend, fold,
split), move the working copy, and hide commits.

On success the complete mark-to-hash table is printed as a JSON object.
Nothing becomes visible on failure.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(args)
			if err != nil {
				return emitError(err)
			}

			actions, err := stack.ParseActions(input)
			if err != nil {
				return emitError(err)
			}

			ctx, err := runtime.GetContext()
			if err != nil {
				return emitError(err)
			}
			defer ctx.Splog.Close()

			importer := stack.NewImporter(ctx.Repo, ctx.Repo, ctx.Repo, stack.ImporterOptions{
				DefaultAuthor: ctx.Repo.DefaultAuthor(),
				Splog:         ctx.Splog,
			})

			marks, err := importer.Run(cmd.Context(), actions)
			if err != nil {
				return emitError(err)
			}
			return emitJSON(marks)
		},
	}

	return cmd
}

// readInput loads the action document from the named file or stdin
func readInput(args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}
