// Package batch runs the extraction chain over many files with a bounded
// worker pool and aggregates the outcome.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/stmt-extract/internal/fileutils"
	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/textsource"
)

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s",
		dr.Start.Format("2006-01-02"),
		dr.End.Format("2006-01-02"))
}

// Merge combines this date range with another, returning the overall range
func (dr DateRange) Merge(other DateRange) DateRange {
	start := dr.Start
	end := dr.End

	if dr.Start.IsZero() {
		start = other.Start
	} else if !other.Start.IsZero() && other.Start.Before(start) {
		start = other.Start
	}

	if dr.End.IsZero() {
		end = other.End
	} else if !other.End.IsZero() && other.End.After(end) {
		end = other.End
	}

	return DateRange{Start: start, End: end}
}

// Processor extracts transactions from a single upload.
type Processor interface {
	Process(ctx context.Context, upload textsource.Upload) (*models.ExtractionResult, error)
}

// FileResult is the outcome for one input file. Exactly one of Result and
// Err is set.
type FileResult struct {
	File     string
	Result   *models.ExtractionResult
	Err      error
	Duration time.Duration
}

// Summary aggregates a batch run.
type Summary struct {
	Files        int                             `json:"files"`
	Succeeded    int                             `json:"succeeded"`
	Failed       int                             `json:"failed"`
	Transactions int                             `json:"transactions"`
	Methods      map[models.ExtractionMethod]int `json:"methods"`
	Charges      decimal.Decimal                 `json:"charges"`
	Credits      decimal.Decimal                 `json:"credits"`
	Period       string                          `json:"period,omitempty"`
	Errors       map[string]string               `json:"errors,omitempty"`
}

// Runner processes files concurrently.
type Runner struct {
	processor   Processor
	logger      logging.Logger
	workerCount int
	password    string
	readFile    func(string) ([]byte, error)
}

// NewRunner creates a runner with workers goroutines; workers <= 0 uses the
// number of CPUs.
func NewRunner(processor Processor, workers int, logger logging.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{
		processor:   processor,
		logger:      logging.OrDefault(logger),
		workerCount: workers,
		readFile:    fileutils.ReadFile,
	}
}

// WithPassword sets the password tried on every encrypted PDF.
func (r *Runner) WithPassword(password string) *Runner {
	r.password = password
	return r
}

// Workers returns the size of the worker pool.
func (r *Runner) Workers() int {
	return r.workerCount
}

type job struct {
	index int
	file  string
}

// Run processes files and returns one FileResult per file in input order.
// When ctx is cancelled, files that were not started carry ctx.Err() and
// Run returns that error.
func (r *Runner) Run(ctx context.Context, files []string) ([]FileResult, error) {
	results := make([]FileResult, len(files))
	started := make([]bool, len(files))
	if len(files) == 0 {
		return results, nil
	}

	workers := r.workerCount
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan job, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go r.worker(ctx, &wg, jobs, results, started)
	}

	go func() {
		defer close(jobs)
		for i, f := range files {
			select {
			case jobs <- job{index: i, file: f}:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	var runErr error
	for i := range results {
		if !started[i] {
			results[i] = FileResult{File: files[i], Err: ctx.Err()}
			runErr = ctx.Err()
		}
	}

	r.logger.Debug("Batch processing completed",
		logging.Field{Key: logging.FieldCount, Value: len(files)},
		logging.Field{Key: "workers", Value: workers})

	return results, runErr
}

// worker writes only to the indices it receives, so results needs no lock.
func (r *Runner) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan job, results []FileResult, started []bool) {
	defer wg.Done()

	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				continue
			}
			started[j.index] = true
			results[j.index] = r.processFile(ctx, j.file)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) processFile(ctx context.Context, file string) FileResult {
	begin := time.Now()
	res := FileResult{File: file}

	data, err := r.readFile(file)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(begin)
		return res
	}

	res.Result, res.Err = r.processor.Process(ctx, textsource.Upload{
		FileName: filepath.Base(file),
		Data:     data,
		Password: r.password,
	})
	res.Duration = time.Since(begin)

	if res.Err != nil {
		r.logger.WithError(res.Err).Warn("File extraction failed",
			logging.Field{Key: logging.FieldInputFile, Value: file})
	} else {
		r.logger.Info("File extracted",
			logging.Field{Key: logging.FieldInputFile, Value: file},
			logging.Field{Key: logging.FieldCount, Value: len(res.Result.LineItems)},
			logging.Field{Key: logging.FieldMethod, Value: string(res.Result.Method)},
			logging.Field{Key: logging.FieldDuration, Value: res.Duration.Milliseconds()})
	}
	return res
}

// Summarize aggregates per-file results. Charges are summed as a negative
// total and credits as a positive total, following the line item sign
// convention.
func Summarize(results []FileResult) Summary {
	s := Summary{
		Files:   len(results),
		Methods: make(map[models.ExtractionMethod]int),
		Charges: decimal.Zero,
		Credits: decimal.Zero,
	}

	var period DateRange
	for _, r := range results {
		if r.Err != nil || r.Result == nil {
			s.Failed++
			if s.Errors == nil {
				s.Errors = make(map[string]string)
			}
			if r.Err != nil {
				s.Errors[filepath.Base(r.File)] = r.Err.Error()
			}
			continue
		}

		s.Succeeded++
		s.Methods[r.Result.Method]++
		s.Transactions += len(r.Result.LineItems)
		for _, item := range r.Result.LineItems {
			if item.Amount.IsNegative() {
				s.Charges = s.Charges.Add(item.Amount)
			} else {
				s.Credits = s.Credits.Add(item.Amount)
			}
			if item.Date != nil {
				period = period.Merge(DateRange{Start: *item.Date, End: *item.Date})
			}
		}
	}

	s.Period = period.String()
	return s
}
