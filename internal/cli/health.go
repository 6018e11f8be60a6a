package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var healthFormat string

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Load and validate the reference data, then report its size",
	Long: `Health loads the configured reference data exactly as diagnose would and
reports table sizes. A configuration error (unknown symptom, invalid weight,
duplicate disease, empty table) makes the command fail.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := newRenderer(healthFormat)
		if err != nil {
			return err
		}
		_, _, p, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		return renderer.RenderHealth(os.Stdout, p.Health())
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	addFormatFlag(healthCmd, &healthFormat)
}
