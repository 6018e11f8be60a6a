package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/medimatch/internal/logging"
	"github.com/ppiankov/medimatch/internal/model"
	"github.com/sirupsen/logrus"
)

// Diagnoser runs one symptom string through the matching pipeline
type Diagnoser interface {
	Diagnose(ctx context.Context, raw string) (model.MatchResult, error)
}

// Case is one symptom line read from a batch input
type Case struct {
	Line  int    // 1-based source line
	Input string // raw symptom string
}

// DiagnoseJob represents one case to diagnose
type DiagnoseJob struct {
	Case      Case
	Diagnoser Diagnoser
	index     int
}

// Execute executes the diagnosis job
func (j *DiagnoseJob) Execute(ctx context.Context) Result {
	result, err := j.Diagnoser.Diagnose(ctx, j.Case.Input)
	if err != nil {
		return &CaseResult{Case: j.Case, Error: err, index: j.index}
	}
	return &CaseResult{Case: j.Case, Result: &result, index: j.index}
}

// CaseResult represents the result of a diagnosis job
type CaseResult struct {
	Case   Case
	Result *model.MatchResult
	Error  error
	index  int
}

// GetError returns the error from the case result
func (r *CaseResult) GetError() error {
	return r.Error
}

// BatchProcessor diagnoses many cases concurrently
type BatchProcessor struct {
	diagnoser   Diagnoser
	concurrency int
	logger      logrus.FieldLogger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(diagnoser Diagnoser, concurrency int, logger logrus.FieldLogger) *BatchProcessor {
	return &BatchProcessor{
		diagnoser:   diagnoser,
		concurrency: concurrency,
		logger:      logging.OrDiscard(logger),
	}
}

// Process diagnoses every case and returns results in input order. Cases
// that never ran because ctx was cancelled carry the context error.
func (b *BatchProcessor) Process(ctx context.Context, cases []Case) []*CaseResult {
	if len(cases) == 0 {
		return []*CaseResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		defer pool.Close()
		for i, c := range cases {
			if !pool.Submit(&DiagnoseJob{Case: c, Diagnoser: b.diagnoser, index: i}) {
				return
			}
		}
	}()

	byIndex := make([]*CaseResult, len(cases))
	for r := range pool.Results() {
		cr := r.(*CaseResult)
		byIndex[cr.index] = cr
		if cr.Error != nil {
			b.logger.WithFields(logrus.Fields{
				"line":  cr.Case.Line,
				"error": cr.Error,
			}).Warn("Case failed")
		}
	}

	for i, cr := range byIndex {
		if cr != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		byIndex[i] = &CaseResult{Case: cases[i], Error: err, index: i}
	}

	b.logger.WithFields(logrus.Fields{
		"cases":   len(cases),
		"workers": b.concurrency,
	}).Debug("Batch finished")

	return byIndex
}

// ProcessFile reads cases from a file ("-" for stdin) and diagnoses them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CaseResult, error) {
	cases, err := ReadCasesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}

	return b.Process(ctx, cases), nil
}

// ReadCasesFromFile reads symptom strings from a file (one case per line)
func ReadCasesFromFile(filePath string) ([]Case, error) {
	if filePath == "-" {
		return ReadCases(os.Stdin)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadCases(file)
}

// ReadCases reads one case per line, skipping blank lines and # comments.
// Repeated lines are kept: each one is a separate case.
func ReadCases(r io.Reader) ([]Case, error) {
	var cases []Case

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		cases = append(cases, Case{Line: line, Input: text})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return cases, nil
}
