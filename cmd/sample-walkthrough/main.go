// Walkthrough of the matching rules against the embedded sample dataset.
// Shows synonym resolution, the threshold fallback and ranked candidates.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/medimatch/internal/dataset"
	"github.com/ppiankov/medimatch/internal/model"
	"github.com/ppiankov/medimatch/internal/pipeline"
)

func main() {
	fmt.Println("=== medimatch sample walkthrough ===")
	fmt.Println()

	inputs := []string{
		"High Fever, COUGH, runny-nose, stuffy nose, sneezing", // aliases and mixed case
		"itching, skin_rash, nodal skin eruptions",             // exact profile
		"headache",                                             // too general
		"glowing toes, purple ears",                            // nothing recognized
		"",                                                     // empty input
	}

	k, err := dataset.LoadSample(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load sample: %v\n", err)
		os.Exit(1)
	}

	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false

	p, err := pipeline.NewPipeline(cfg, k, pipeline.SourceSample, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build pipeline: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, input := range inputs {
		fmt.Printf("Input: %q\n", input)
		fmt.Println(strings.Repeat("-", 60))

		result, err := p.DiagnoseRanked(ctx, input, 3)
		if err != nil {
			fmt.Printf("  error: %v\n\n", err)
			continue
		}

		fmt.Printf("  Result:      %s\n", result.Disease)
		fmt.Printf("  Confidence:  %.1f%% (threshold %.0f%%)\n", result.Confidence*100, result.Threshold*100)
		if len(result.Unrecognized) > 0 {
			fmt.Printf("  Dropped:     %s\n", strings.Join(result.Unrecognized, ", "))
		}
		for i, c := range result.Candidates {
			fmt.Printf("  #%d %-26s %5.1f%%  weighted %.0f of %.0f\n", i+1, c.Disease, c.Score*100, c.Overlap, c.Total)
		}
		fmt.Println()
	}
}
