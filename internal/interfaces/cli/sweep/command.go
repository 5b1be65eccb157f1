// Package sweep implements the "sweep" command.
package sweep

import (
	"fmt"

	"github.com/spf13/cobra"

	uploadapp "photopick/internal/application/upload"
	"photopick/internal/interfaces/cli/bootstrap"
)

func NewCommand(opts *bootstrap.Options) *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Retry deletion of orphaned storage objects once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap.LoadConfig(opts)
			if err != nil {
				return err
			}
			app, err := bootstrap.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.Sweeper.Sweep(cmd.Context(), batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d resolved=%d failed=%d\n",
				report.Scanned, report.Resolved, report.Failed)
			return nil
		},
	}
	cmd.Flags().IntVarP(&batch, "batch", "b", uploadapp.DefaultSweepBatch, "Maximum orphans to process")
	return cmd
}
