package cmd

import (
	"fmt"

	"github.com/nanophoto/nanophoto/internal/export"
	"github.com/nanophoto/nanophoto/internal/models"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var user string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's analysis history to Parquet",
		Long: `Exports every stored analysis for a user as a Parquet archive,
one row per critique with scores flattened into columns. Image and
sketch payloads are left out of the archive.`,
		Example: `  # Export alice's history
  nanophoto export --user alice --output alice.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, cleanup, err := newAnalysisStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			summaries, err := store.ListByUser(ctx, user)
			if err != nil {
				return fmt.Errorf("failed to list analyses: %w", err)
			}

			records := make([]*models.Analysis, 0, len(summaries))
			for _, s := range summaries {
				record, err := store.Get(ctx, s.AnalysisID)
				if err != nil {
					return fmt.Errorf("failed to load analysis %s: %w", s.AnalysisID, err)
				}
				records = append(records, record)
			}

			if err := export.WriteHistory(output, records); err != nil {
				return err
			}
			fmt.Printf("Exported %d analyses to %s\n", len(records), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User id to export")
	cmd.Flags().StringVarP(&output, "output", "o", "history.parquet", "Output Parquet file")
	if err := cmd.MarkFlagRequired("user"); err != nil {
		panic(err)
	}

	return cmd
}
