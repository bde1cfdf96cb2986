package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetclean/internal/config"
	"sheetclean/internal/dataprocessing"
	apperrors "sheetclean/internal/errors"
	"sheetclean/internal/shared/testutil"
)

func writeInput(t *testing.T, dir string) string {
	return testutil.WriteWorkbook(t, dir, [][]interface{}{
		{"age", "city"},
		{30, "Oslo"},
		{nil, nil},
		{40, "Oslo"},
		{50, "Bergen"},
	})
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)
	output := filepath.Join(dir, "cleaned_data.xlsx")
	figure := filepath.Join(dir, "histograms.svg")
	stats := filepath.Join(dir, "stats.csv")

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-in", input,
		"-out", output,
		"-plot", figure,
		"-stats-csv", stats,
	}, strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "Basic Descriptive Statistics:")
	assert.Contains(t, out, "Cleaned data saved to "+output)
	assert.FileExists(t, figure)
	assert.FileExists(t, stats)

	table, err := dataprocessing.ParseFile(output, dataprocessing.ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 40, 40, 50}, table.Column("age").PresentNumbers())
	assert.Equal(t, "Oslo", table.Column("city").Cells[1].Text)
}

func TestRun_PromptsForPath(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)
	output := filepath.Join(dir, "out.xlsx")

	var stdout bytes.Buffer
	code := run([]string{"-out", output, "-no-plot"}, strings.NewReader(input+"\n"), &stdout, io.Discard)

	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(stdout.String(), "Enter the path to the Excel file: "))
	assert.FileExists(t, output)
}

func TestRun_MissingFile(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.xlsx")

	tests := []struct {
		name  string
		args  []string
		stdin string
	}{
		{"flag", []string{"-in", filepath.Join(dir, "missing.xlsx"), "-out", output}, ""},
		{"prompt", []string{"-out", output}, filepath.Join(dir, "missing.xlsx") + "\n"},
		{"empty prompt", []string{"-out", output}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			code := run(tt.args, strings.NewReader(tt.stdin), &stdout, io.Discard)

			assert.Equal(t, exitOK, code)
			assert.Contains(t, stdout.String(), "File does not exist.")
			assert.NoFileExists(t, output)
		})
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"threshold out of range", []string{"-threshold", "2"}, exitConfig},
		{"empty placeholder", []string{"-placeholder", ""}, exitConfig},
		{"missing config file", []string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}, exitConfig},
		{"unknown flag", []string{"-bogus"}, exitUsage},
		{"help", []string{"-h"}, exitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			code := run(tt.args, strings.NewReader(""), io.Discard, &stderr)
			assert.Equal(t, tt.want, code, stderr.String())
		})
	}
}

func TestRun_ConfigErrorIsTyped(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"-threshold", "-1"}, strings.NewReader(""), io.Discard, &stderr)

	assert.Equal(t, exitConfig, code)
	assert.Contains(t, stderr.String(), "Configuration error: [CONFIG]")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"config", apperrors.NewConfigError("bad threshold", nil), exitConfig},
		{"wrapped config", fmt.Errorf("step load failed: %w", apperrors.NewConfigError("bad", nil)), exitConfig},
		{"cancelled", fmt.Errorf("pipeline cancelled before step clean: %w", context.Canceled), exitConfig},
		{"missing input", apperrors.NewNotFoundError("file"), exitOK},
		{"unparsable input", apperrors.NewParsingError("not a workbook", nil), exitOK},
		{"untyped", assert.AnError, exitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	assert.Equal(t, exitOK, run([]string{"-version"}, strings.NewReader(""), &stdout, io.Discard))
	assert.Contains(t, stdout.String(), "sheetclean v")
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "unset flags keep config values",
			args: nil,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "from-config.xlsx", cfg.Output.File)
				assert.Equal(t, 0.0, cfg.Cleaning.NumericThreshold)
				assert.True(t, cfg.Plot.Enabled)
			},
		},
		{
			name: "set flags override",
			args: []string{"-out", "x.xlsx", "-threshold", "0.75", "-no-plot", "-interactive", "-sheet", "Data", "-placeholder", "N/A", "-stats-csv", "s.csv", "-plot", "h.pdf"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "x.xlsx", cfg.Output.File)
				assert.Equal(t, 0.75, cfg.Cleaning.NumericThreshold)
				assert.False(t, cfg.Plot.Enabled)
				assert.True(t, cfg.Plot.Interactive)
				assert.Equal(t, "Data", cfg.Cleaning.Sheet)
				assert.Equal(t, "N/A", cfg.Cleaning.Placeholder)
				assert.Equal(t, "s.csv", cfg.Output.StatsCSV)
				assert.Equal(t, "h.pdf", cfg.Plot.File)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Output.File = "from-config.xlsx"
			cfg.Cleaning.NumericThreshold = 0

			var f cliFlags
			fs := newFlagSet(&f, io.Discard)
			require.NoError(t, fs.Parse(tt.args))

			applyFlags(cfg, fs, &f)
			tt.check(t, cfg)
		})
	}
}

func TestPromptInput(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		want    string
		wantErr bool
	}{
		{"newline terminated", "  data.xlsx \n", "data.xlsx", false},
		{"no trailing newline", "data.xlsx", "data.xlsx", false},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := promptInput(strings.NewReader(tt.stdin), io.Discard)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
