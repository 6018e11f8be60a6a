package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/medimatch/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	diagnoseFormat  string
	diagnoseTop     int
	diagnoseOut     string
	diagnoseTimeout time.Duration
)

// diagnoseCmd represents the diagnose command
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <symptoms>...",
	Short: "Match a symptom list against the reference profiles",
	Long: `Diagnose normalizes a delimiter-separated symptom list and reports the
best-matching condition:
- Tokens are case-folded, punctuation-stripped and resolved through synonyms
- Every profile is scored by the severity-weighted share of its symptoms present
- Below the confidence threshold the result is "Unknown Condition"

Several arguments are joined with the symptom delimiter.

Example:
  medimatch diagnose "high fever, cough, runny nose"
  medimatch diagnose fever cough headache --top 3
  medimatch diagnose "itching, skin rash" --format json --threshold 0.6`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiagnose,
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)

	addFormatFlag(diagnoseCmd, &diagnoseFormat)
	diagnoseCmd.Flags().IntVar(&diagnoseTop, "top", 0, "also list the top N ranked candidates")
	diagnoseCmd.Flags().StringVarP(&diagnoseOut, "out", "o", "", "write the result to a file instead of stdout")
	diagnoseCmd.Flags().DurationVar(&diagnoseTimeout, "timeout", 30*time.Second, "timeout for loading data and matching")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), diagnoseTimeout)
	defer cancel()

	renderer, err := newRenderer(diagnoseFormat)
	if err != nil {
		return err
	}

	cfg, logger, p, err := setup(ctx)
	if err != nil {
		return err
	}

	input := strings.Join(args, cfg.Normalizer.SymptomDelimiter)
	logger.WithField("input", input).Debug("Diagnosing")

	result, err := p.DiagnoseRanked(ctx, input, diagnoseTop)
	if err != nil {
		return fmt.Errorf("diagnose: %w", err)
	}

	render := func(w io.Writer) error {
		return renderer.RenderResult(w, result)
	}

	if diagnoseOut != "" {
		if err := pipeline.WriteFile(diagnoseOut, render); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", diagnoseOut)
		}
		return nil
	}

	return render(os.Stdout)
}
