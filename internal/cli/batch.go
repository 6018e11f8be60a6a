package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/ppiankov/medimatch/internal/pipeline"
	"github.com/ppiankov/medimatch/internal/worker"
	"github.com/spf13/cobra"
)

var (
	batchConcurrency int
	batchOut         string
	batchFormat      string
	batchTimeout     time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Diagnose many symptom lists from a file in parallel",
	Long: `Batch diagnoses one symptom list per input line:
- Blank lines and lines starting with # are skipped
- Lines are processed in parallel with a configurable worker count
- Results keep input order and carry their source line number
- Use "-" to read from stdin

With --format json the output is JSON Lines, one result per case.

Example:
  medimatch batch cases.txt
  medimatch batch cases.txt --concurrency 8 --format json --out results.jsonl
  cat cases.txt | medimatch batch -`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "write results to a file instead of stdout")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "text", "output format (text, json)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

// caseLine is one JSON Lines record
type caseLine struct {
	Line   int         `json:"line"`
	Input  string      `json:"input"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	format, err := pipeline.ParseFormat(batchFormat)
	if err != nil {
		return err
	}
	if format == pipeline.FormatMarkdown {
		return fmt.Errorf("batch supports text or json output: %w", pipeline.ErrUnknownFormat)
	}

	cfg, logger, p, err := setup(ctx)
	if err != nil {
		return err
	}

	workers := batchConcurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	interactive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if interactive {
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
		fmt.Fprintf(os.Stderr, "  medimatch batch diagnosis\n")
		fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
		fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
		fmt.Fprintf(os.Stderr, "  Threshold:    %.2f\n", cfg.Engine.ConfidenceThreshold)
		fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
		fmt.Fprintf(os.Stderr, "\n")
	}

	processor := worker.NewBatchProcessor(p, workers, logger)

	start := time.Now()
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	write := func(w io.Writer) error {
		return writeBatch(w, format, results)
	}
	if batchOut != "" {
		if err := pipeline.WriteFile(batchOut, write); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	} else if err := write(os.Stdout); err != nil {
		return err
	}

	summary := summarize(results)
	logger.WithField("cases", summary.total).WithField("elapsed", time.Since(start).String()).Info("Batch complete")

	if interactive {
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "  Total:      %d cases\n", summary.total)
		fmt.Fprintf(os.Stderr, "  Diagnosed:  %d\n", summary.diagnosed)
		fmt.Fprintf(os.Stderr, "  Unknown:    %d\n", summary.unknown)
		fmt.Fprintf(os.Stderr, "  Failures:   %d\n", summary.failed)
		if batchOut != "" {
			fmt.Fprintf(os.Stderr, "  Output:     %s\n", batchOut)
		}
		fmt.Fprintf(os.Stderr, "\n")
	}

	if summary.failed > 0 {
		return fmt.Errorf("%d of %d cases failed", summary.failed, summary.total)
	}
	return nil
}

type batchSummary struct {
	total, diagnosed, unknown, failed int
}

func summarize(results []*worker.CaseResult) batchSummary {
	s := batchSummary{total: len(results)}
	for _, r := range results {
		switch {
		case r.Error != nil:
			s.failed++
		case r.Result.IsUnknown():
			s.unknown++
		default:
			s.diagnosed++
		}
	}
	return s
}

// writeBatch writes one line per case, as JSON Lines or aligned text
func writeBatch(w io.Writer, format pipeline.Format, results []*worker.CaseResult) error {
	bw := bufio.NewWriter(w)

	if format == pipeline.FormatJSON {
		enc := json.NewEncoder(bw)
		for _, r := range results {
			line := caseLine{Line: r.Case.Line, Input: r.Case.Input}
			if r.Error != nil {
				line.Error = r.Error.Error()
			} else {
				line.Result = r.Result
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		}
		return bw.Flush()
	}

	for _, r := range results {
		var err error
		switch {
		case r.Error != nil:
			_, err = fmt.Fprintf(bw, "line %-5d ✗ %v\n", r.Case.Line, r.Error)
		default:
			_, err = fmt.Fprintf(bw, "line %-5d %-28s %6.1f%%  %s\n", r.Case.Line, r.Result.Disease, r.Result.Confidence*100, r.Case.Input)
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
