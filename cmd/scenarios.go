package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/cfsim/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List available counterfactual scenarios",
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("scenario-file")
		if file == "" {
			file = cfg.Simulation.ScenarioFile
		}

		var shocks []scenario.Shock
		if file != "" {
			f, err := scenario.Load(file)
			if err != nil {
				return err
			}
			shocks = f.Scenarios
		} else {
			shocks = scenario.Default()
			for i := range shocks {
				if shocks[i].Name == scenario.DefaultName {
					shocks[i].S1 = cfg.Simulation.Shock.S1
					shocks[i].S2 = cfg.Simulation.Shock.S2
					shocks[i].S3 = cfg.Simulation.Shock.S3
				}
			}
		}

		formatScenarios(os.Stdout, shocks)
		return nil
	},
}

func init() {
	scenariosCmd.Flags().String("scenario-file", "", "YAML file of scenario definitions")
	rootCmd.AddCommand(scenariosCmd)
}

func formatScenarios(out io.Writer, shocks []scenario.Shock) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tKIND\tPARAMETERS\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t----\t----------\t-----------")
	for _, s := range shocks {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.Kind, shockParams(s), s.Description)
	}
	_ = w.Flush()
}

func shockParams(s scenario.Shock) string {
	switch s.Kind {
	case scenario.KindShift:
		return fmt.Sprintf("s1%+g s2%+g s3%+g", s.S1, s.S2, s.S3)
	case scenario.KindProportional:
		return fmt.Sprintf("factor=%g", s.Factor)
	case scenario.KindZeroRedist:
		return fmt.Sprintf("to_s2=%g to_s3=%g", s.ToS2, s.ToS3)
	default:
		return "-"
	}
}
