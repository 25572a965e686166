package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cfsim/internal/analysis"
	"github.com/sells-group/cfsim/internal/model"
	"github.com/sells-group/cfsim/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Correlate variables and run PCA over detailed results",
	Long:  "Reads a detailed results workbook and writes cross-variable correlation matrices (baseline, alternative and their difference, for all rows and each demographic filter) and a principal component analysis of baseline vs alternative values.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			input = cfg.Simulation.DetailedOutput
		}
		if input == "" {
			return eris.New("analyze: no detailed workbook (set --input or simulation.detailed_output)")
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = cfg.Analysis.Output
		}
		filters, _ := cmd.Flags().GetStringArray("filter")
		if !cmd.Flags().Changed("filter") {
			filters = cfg.Analysis.Filters
		}

		results, err := report.ReadDetailed(input)
		if err != nil {
			return err
		}
		res, err := analyze(results, filters)
		if err != nil {
			return err
		}

		if cfg.Simulation.BackupDir != "" {
			if _, err := report.Backup(output, cfg.Simulation.BackupDir, time.Now()); err != nil {
				return err
			}
		}
		if err := report.WriteAnalysis(output, res.correlations, res.pca); err != nil {
			return err
		}
		zap.L().Info("analyze: analysis written",
			zap.String("output", output),
			zap.Int("correlations", len(res.correlations)),
		)
		return report.WriteJSON(os.Stdout, res.summary())
	},
}

func init() {
	analyzeCmd.Flags().String("input", "", "detailed results workbook (defaults to simulation.detailed_output)")
	analyzeCmd.Flags().String("output", "", "analysis workbook path")
	analyzeCmd.Flags().StringArray("filter", nil, "demographic filter such as sex=M or age=20-24,sex=K (repeatable)")
	rootCmd.AddCommand(analyzeCmd)
}

type analysisResult struct {
	rows         int
	variables    []string
	correlations []*analysis.Correlation
	skipped      []string
	pca          *analysis.PCA
}

// analyze correlates all rows and then each filtered subset. Filters matching
// fewer than two rows are skipped.
func analyze(results []model.VariableResult, filters []string) (*analysisResult, error) {
	d, err := analysis.NewDataset(results)
	if err != nil {
		return nil, err
	}
	all, err := analysis.Correlate(d)
	if err != nil {
		return nil, err
	}
	res := &analysisResult{
		rows:         d.Rows(),
		variables:    d.Variables,
		correlations: []*analysis.Correlation{all},
	}

	for _, raw := range filters {
		f, err := analysis.ParseFilter(raw)
		if err != nil {
			return nil, err
		}
		sub := d.Select(f)
		if sub.Rows() < 2 {
			zap.L().Warn("analyze: filter skipped", zap.Stringer("filter", f), zap.Int("rows", sub.Rows()))
			res.skipped = append(res.skipped, f.String())
			continue
		}
		c, err := analysis.Correlate(sub)
		if err != nil {
			return nil, err
		}
		res.correlations = append(res.correlations, c)
	}

	if res.pca, err = analysis.Principal(d); err != nil {
		return nil, err
	}
	return res, nil
}

type analysisSummary struct {
	Rows          int       `json:"rows"`
	Variables     []string  `json:"variables"`
	Filters       []string  `json:"filters"`
	Skipped       []string  `json:"skipped_filters,omitempty"`
	VarianceRatio []float64 `json:"variance_ratio"`
}

func (r *analysisResult) summary() analysisSummary {
	s := analysisSummary{
		Rows:          r.rows,
		Variables:     r.variables,
		Skipped:       r.skipped,
		VarianceRatio: r.pca.VarianceRatio,
	}
	for _, c := range r.correlations {
		s.Filters = append(s.Filters, c.Filter.String())
	}
	return s
}
