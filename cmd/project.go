package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cfsim/internal/model"
	"github.com/sells-group/cfsim/internal/projection"
	"github.com/sells-group/cfsim/internal/report"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project simulation results forward in time",
	Long:  "Reads a summary workbook (or a stored run's year results) and projects the latest-year baseline and alternative of each variable over the following years.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		years, _ := cmd.Flags().GetInt("years")
		if !cmd.Flags().Changed("years") {
			years = cfg.Projection.YearsAhead
		}
		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			input = cfg.Simulation.Output
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = cfg.Projection.Output
		}
		runID, _ := cmd.Flags().GetString("run")

		var summary []model.SummaryRow
		if runID != "" {
			st, err := requireStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if summary, err = st.YearResults(ctx, runID); err != nil {
				return eris.Wrap(err, "project: load run results")
			}
		} else {
			var err error
			if summary, err = report.ReadSummary(input); err != nil {
				return err
			}
		}

		points, err := projection.Project(summary, projection.Options{
			YearsAhead: years,
			Growth:     cfg.Projection.Growth,
		})
		if err != nil {
			return err
		}

		if cfg.Simulation.BackupDir != "" {
			if _, err := report.Backup(output, cfg.Simulation.BackupDir, time.Now()); err != nil {
				return err
			}
		}
		if err := report.WriteProjection(output, points); err != nil {
			return err
		}
		zap.L().Info("project: projection written", zap.String("output", output), zap.Int("points", len(points)))

		return report.WriteJSON(os.Stdout, points)
	},
}

func init() {
	projectCmd.Flags().Int("years", 30, "number of years to project ahead")
	projectCmd.Flags().String("input", "", "summary workbook to project (defaults to simulation.output)")
	projectCmd.Flags().String("run", "", "project the year results of a stored run instead of a workbook")
	projectCmd.Flags().String("output", "", "projection workbook path")
	rootCmd.AddCommand(projectCmd)
}
