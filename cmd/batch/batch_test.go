package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/stmt-extract/internal/batch"
	"fjacquet/stmt-extract/internal/config"
	"fjacquet/stmt-extract/internal/container"
	"fjacquet/stmt-extract/internal/logging"
)

const statementText = `09/21/25  09/22/25  STARBUCKS #123  12.50
10/01/25  PAYMENT THANK YOU  -450.00`

func testFactory(t *testing.T) containerFactory {
	t.Helper()
	cfg := &config.Config{
		Log:        config.LogConfig{Level: "info", Format: "text"},
		AI:         config.AIConfig{Provider: "gemini", TimeoutSeconds: 1},
		Extraction: config.ExtractionConfig{MaxFileSizeMB: 1, MinOCRChars: 50},
		Categories: config.CategoriesConfig{File: filepath.Join(t.TempDir(), "none.yaml")},
		CSV:        config.CSVConfig{Delimiter: ","},
	}
	return func(ctx context.Context, opts ...container.Option) (*container.Container, error) {
		return container.NewContainer(ctx, cfg, append([]container.Option{container.WithLogger(logging.NewMockLogger())}, opts...)...)
	}
}

func inputDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
	return dir
}

func readSummary(t *testing.T, dir string) batch.Summary {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	var s batch.Summary
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func TestCommandFlags(t *testing.T) {
	assert.Equal(t, "batch", Cmd.Use)
	for _, name := range []string{"input", "output", "format", "password", "workers", "no-ai"} {
		assert.NotNil(t, Cmd.Flags().Lookup(name), name)
	}
}

func TestRun_WritesResultsAndSummary(t *testing.T) {
	in := inputDir(t, map[string]string{
		"september.txt": statementText,
		"junk.txt":      "nothing here at all",
		"readme.md":     statementText,
	})
	out := filepath.Join(t.TempDir(), "results")

	err := run(context.Background(), Options{InputDir: in, OutputDir: out, Format: "csv", Workers: 2, NoAI: true}, testFactory(t), logging.NewMockLogger())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "september_txt.csv"))
	assert.NoFileExists(t, filepath.Join(out, "junk_txt.csv"))
	assert.NoFileExists(t, filepath.Join(out, "readme_md.csv"))

	s := readSummary(t, out)
	assert.Equal(t, 2, s.Files)
	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.Transactions)
	assert.Equal(t, "2025-09-21_2025-10-01", s.Period)
	assert.Contains(t, s.Errors["junk.txt"], "steps tried")
}

func TestRun_NoSupportedFiles(t *testing.T) {
	in := inputDir(t, map[string]string{"readme.md": "x"})
	out := filepath.Join(t.TempDir(), "results")

	require.NoError(t, run(context.Background(), Options{InputDir: in, OutputDir: out, Format: "json"}, testFactory(t), logging.NewMockLogger()))
	assert.NoDirExists(t, out)
}

func TestRun_AllFailed(t *testing.T) {
	in := inputDir(t, map[string]string{"junk.txt": "nothing here"})
	out := filepath.Join(t.TempDir(), "results")

	err := run(context.Background(), Options{InputDir: in, OutputDir: out, Format: "json", NoAI: true}, testFactory(t), logging.NewMockLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transactions extracted from 1 files")
	assert.FileExists(t, filepath.Join(out, SummaryFile))
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		errorMsg string
	}{
		{"bad format", Options{InputDir: t.TempDir(), OutputDir: t.TempDir(), Format: "xml"}, "xml"},
		{"missing input dir", Options{InputDir: filepath.Join(t.TempDir(), "missing"), OutputDir: t.TempDir(), Format: "json"}, "directory does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.opts, testFactory(t), logging.NewMockLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
