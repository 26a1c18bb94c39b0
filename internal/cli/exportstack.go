package cli

import (
	"github.com/spf13/cobra"

	"github.com/tomasreimers/sapling/internal/runtime"
	"github.com/tomasreimers/sapling/internal/stack"
)

// newExportStackCmd creates the export-stack command
func newExportStackCmd() *cobra.Command {
	var (
		workingCopy bool
		maxCommits  int64
		maxFiles    int64
		maxBytes    int64
	)

	cmd := &cobra.Command{
		Use:   "export-stack <rev>...",
		Short: "Export a commit range as a self-contained JSON stack",
		Long: `Export the given commits, oldest first, as a JSON array. The first entry is
parent context for replay; each requested entry carries its metadata, its
diff, and the auxiliary file state the next entry needs. With
--working-copy the uncommitted state is appended as a final entry under the
sentinel node.

Exceeding a commit, file, or byte limit aborts the export with no partial
output.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext()
			if err != nil {
				return emitError(err)
			}
			defer ctx.Splog.Close()

			hashes := make([]string, 0, len(args))
			for _, rev := range args {
				hash, err := ctx.Repo.Resolve(rev)
				if err != nil {
					return emitError(err)
				}
				hashes = append(hashes, hash)
			}

			limits, err := ctx.ExportLimits()
			if err != nil {
				return emitError(err)
			}
			if cmd.Flags().Changed("max-commits") {
				limits.MaxCommits = maxCommits
			}
			if cmd.Flags().Changed("max-files") {
				limits.MaxFiles = maxFiles
			}
			if cmd.Flags().Changed("max-bytes") {
				limits.MaxBytes = maxBytes
			}

			trunk, err := ctx.Trunk()
			if err != nil {
				return emitError(err)
			}

			exporter := stack.NewExporter(ctx.Repo, ctx.Repo, ctx.Repo.TrunkChecker(trunk), stack.ExportOptions{
				IncludeWorkingCopy: workingCopy,
				Limits:             limits,
			})

			entries, err := exporter.Export(cmd.Context(), hashes)
			if err != nil {
				return emitError(err)
			}
			return emitJSON(entries)
		},
	}

	cmd.Flags().BoolVarP(&workingCopy, "working-copy", "w", false, "Append the working copy as a final synthetic entry")
	cmd.Flags().Int64Var(&maxCommits, "max-commits", 0, "Maximum number of commits to export (0 = unlimited)")
	cmd.Flags().Int64Var(&maxFiles, "max-files", 0, "Maximum number of file entries across the range (0 = unlimited)")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 0, "Maximum cumulative content bytes (0 = unlimited)")

	return cmd
}
