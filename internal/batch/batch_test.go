package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/parsererror"
	"fjacquet/stmt-extract/internal/textsource"
)

// mockProcessor returns canned results keyed by file name.
type mockProcessor struct {
	mu        sync.Mutex
	results   map[string]*models.ExtractionResult
	errs      map[string]error
	uploads   []textsource.Upload
	inFlight  int32
	maxFlight int32
	delay     time.Duration
}

func (m *mockProcessor) Process(ctx context.Context, upload textsource.Upload) (*models.ExtractionResult, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		cur := atomic.LoadInt32(&m.maxFlight)
		if n <= cur || atomic.CompareAndSwapInt32(&m.maxFlight, cur, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.uploads = append(m.uploads, upload)
	m.mu.Unlock()

	if err := m.errs[upload.FileName]; err != nil {
		return nil, err
	}
	if r, ok := m.results[upload.FileName]; ok {
		return r, nil
	}
	return nil, &parsererror.ExtractionFailedError{Steps: []string{"ocr"}}
}

func item(y int, m time.Month, d int, desc, amount string) models.ExtractedTransaction {
	return models.ExtractedTransaction{
		Date:        models.DatePtr(y, m, d),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
	}
}

func writeFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte("content of "+n), 0600))
		paths = append(paths, p)
	}
	return paths
}

func TestDateRange_String(t *testing.T) {
	assert.Equal(t, "", DateRange{}.String())
	dr := DateRange{
		Start: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "2025-09-01_2025-09-30", dr.String())
}

func TestDateRange_Merge(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	may := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		a, b  DateRange
		start time.Time
		end   time.Time
	}{
		{"empty with range", DateRange{}, DateRange{Start: jan, End: mar}, jan, mar},
		{"range with empty", DateRange{Start: jan, End: mar}, DateRange{}, jan, mar},
		{"widens both ends", DateRange{Start: mar, End: mar}, DateRange{Start: jan, End: may}, jan, may},
		{"inner range", DateRange{Start: jan, End: may}, DateRange{Start: mar, End: mar}, jan, may},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Merge(tt.b)
			assert.Equal(t, tt.start, got.Start)
			assert.Equal(t, tt.end, got.End)
		})
	}
}

func TestNewRunner_DefaultWorkers(t *testing.T) {
	r := NewRunner(&mockProcessor{}, 0, nil)
	assert.GreaterOrEqual(t, r.Workers(), 1)
	assert.Equal(t, 3, NewRunner(&mockProcessor{}, 3, nil).Workers())
}

func TestRunner_Run_PreservesOrder(t *testing.T) {
	files := writeFiles(t, "a.txt", "b.pdf", "c.png", "d.txt")
	proc := &mockProcessor{
		results: map[string]*models.ExtractionResult{
			"a.txt": models.NewExtractionResult(models.MethodOCR, []models.ExtractedTransaction{item(2025, 9, 21, "STARBUCKS", "-12.50")}),
			"c.png": models.NewExtractionResult(models.MethodAI, []models.ExtractedTransaction{item(2025, 10, 25, "Trader Joe's", "-45.23")}),
			"d.txt": models.NewExtractionResult(models.MethodColumn, []models.ExtractedTransaction{item(2025, 10, 1, "PAYMENT", "450.00")}),
		},
		errs:  map[string]error{"b.pdf": parsererror.ErrPasswordRequired},
		delay: 5 * time.Millisecond,
	}
	logger := logging.NewMockLogger()

	results, err := NewRunner(proc, 2, logger).WithPassword("secret").Run(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, f := range files {
		assert.Equal(t, f, results[i].File)
	}
	assert.Equal(t, models.MethodOCR, results[0].Result.Method)
	assert.ErrorIs(t, results[1].Err, parsererror.ErrPasswordRequired)
	assert.Nil(t, results[1].Result)
	assert.Equal(t, models.MethodAI, results[2].Result.Method)
	assert.Equal(t, models.MethodColumn, results[3].Result.Method)

	assert.LessOrEqual(t, atomic.LoadInt32(&proc.maxFlight), int32(2))
	require.Len(t, proc.uploads, 4)
	for _, u := range proc.uploads {
		assert.Equal(t, "secret", u.Password)
		assert.Equal(t, []byte("content of "+u.FileName), u.Data)
	}

	assert.Len(t, logger.GetEntriesByLevel("WARN"), 1)
	assert.Len(t, logger.GetEntriesByLevel("INFO"), 3)
}

func TestRunner_Run_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.pdf")
	proc := &mockProcessor{}

	results, err := NewRunner(proc, 1, logging.NewMockLogger()).Run(context.Background(), []string{missing})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Err, "file does not exist")
	assert.Empty(t, proc.uploads)
}

func TestRunner_Run_Empty(t *testing.T) {
	results, err := NewRunner(&mockProcessor{}, 1, nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunner_Run_Cancelled(t *testing.T) {
	files := writeFiles(t, "a.txt", "b.txt", "c.txt")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := &mockProcessor{}
	results, err := NewRunner(proc, 1, logging.NewMockLogger()).Run(ctx, files)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, files[i], r.File)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Empty(t, proc.uploads)
}

func TestSummarize(t *testing.T) {
	results := []FileResult{
		{File: "/in/a.txt", Result: models.NewExtractionResult(models.MethodOCR, []models.ExtractedTransaction{
			item(2025, 9, 21, "STARBUCKS", "-12.50"),
			item(2025, 10, 1, "PAYMENT", "450.00"),
		})},
		{File: "/in/b.pdf", Err: errors.New("boom")},
		{File: "/in/c.png", Result: models.NewExtractionResult(models.MethodOCR, []models.ExtractedTransaction{
			item(2025, 10, 25, "Trader Joe's", "-45.23"),
			{Description: "UNDATED", Amount: decimal.RequireFromString("-1.00")},
		})},
	}

	s := Summarize(results)
	assert.Equal(t, 3, s.Files)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 4, s.Transactions)
	assert.Equal(t, map[models.ExtractionMethod]int{models.MethodOCR: 2}, s.Methods)
	assert.True(t, decimal.RequireFromString("-58.73").Equal(s.Charges), s.Charges.String())
	assert.True(t, decimal.RequireFromString("450").Equal(s.Credits), s.Credits.String())
	assert.Equal(t, "2025-09-21_2025-10-25", s.Period)
	assert.Equal(t, map[string]string{"b.pdf": "boom"}, s.Errors)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Files)
	assert.Empty(t, s.Period)
	assert.Nil(t, s.Errors)
	assert.True(t, s.Charges.IsZero())
}
