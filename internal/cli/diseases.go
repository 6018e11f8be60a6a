package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var diseasesFormat string

// diseasesCmd represents the diseases command
var diseasesCmd = &cobra.Command{
	Use:   "diseases",
	Short: "Browse the reference disease profiles",
}

var diseasesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every disease in the reference data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := newRenderer(diseasesFormat)
		if err != nil {
			return err
		}
		_, _, p, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		return renderer.RenderDiseases(os.Stdout, p.Diseases())
	},
}

var diseasesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show symptoms, description and precautions of one disease",
	Long: `Show the profile of one disease. Names match case-insensitively.

Example:
  medimatch diseases show "common cold"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := newRenderer(diseasesFormat)
		if err != nil {
			return err
		}
		_, _, p, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		info, err := p.Disease(args[0])
		if err != nil {
			return err
		}
		return renderer.RenderDisease(os.Stdout, info)
	},
}

func init() {
	rootCmd.AddCommand(diseasesCmd)
	diseasesCmd.AddCommand(diseasesListCmd)
	diseasesCmd.AddCommand(diseasesShowCmd)
	diseasesCmd.PersistentFlags().StringVarP(&diseasesFormat, "format", "f", "text", "output format (text, markdown, json)")
}
