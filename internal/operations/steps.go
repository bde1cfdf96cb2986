package operations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"sheetclean/internal/dataprocessing"
	"sheetclean/internal/exporter"
	"sheetclean/internal/histogram"
	"sheetclean/internal/infrastructure"
	"sheetclean/internal/report"
	"sheetclean/internal/validation"
)

// Step IDs
const (
	StepIDLoad    = "load"
	StepIDClean   = "clean"
	StepIDAnalyze = "analyze"
	StepIDPlot    = "plot"
	StepIDSave    = "save"
)

// LoadStep validates the input workbook and parses it into the run's table
type LoadStep struct {
	BaseStep
	validator *validation.FileValidator
	opts      dataprocessing.ParseOptions
	metrics   *infrastructure.RunMetrics
	out       io.Writer
}

// NewLoadStep creates the load step
func NewLoadStep(validator *validation.FileValidator, opts dataprocessing.ParseOptions, metrics *infrastructure.RunMetrics, out io.Writer) *LoadStep {
	if validator == nil {
		validator = validation.NewFileValidator(nil)
	}
	return &LoadStep{
		BaseStep:  NewBaseStep(StepIDLoad, "Load Workbook", true),
		validator: validator,
		opts:      opts,
		metrics:   metrics,
		out:       out,
	}
}

// Execute implements Step
func (s *LoadStep) Execute(ctx context.Context, state *RunState) error {
	if err := s.validator.ValidateSpreadsheet(state.InputPath); err != nil {
		return err
	}

	table, err := dataprocessing.ParseFile(state.InputPath, s.opts)
	if err != nil {
		fmt.Fprintf(s.out, "Error loading Excel file: %v\n", err)
		return err
	}
	state.Table = table

	if s.metrics != nil {
		s.metrics.RowsProcessed.Add(ctx, int64(table.RowCount()))
	}
	infrastructure.AddSpanEvent(ctx, "workbook.loaded",
		attribute.String("sheet", table.Sheet),
		attribute.Int("rows", table.RowCount()),
		attribute.Int("columns", len(table.Columns)))
	return nil
}

// CleanStep coerces and imputes every column of the run's table
type CleanStep struct {
	BaseStep
	imputer *dataprocessing.Imputer
	metrics *infrastructure.RunMetrics

	// fills, when set, receives a table of the columns that changed
	fills io.Writer
}

// NewCleanStep creates the clean step. A nil fills writer prints nothing.
func NewCleanStep(imputer *dataprocessing.Imputer, metrics *infrastructure.RunMetrics, fills io.Writer) *CleanStep {
	return &CleanStep{
		BaseStep: NewBaseStep(StepIDClean, "Clean Data", true),
		imputer:  imputer,
		metrics:  metrics,
		fills:    fills,
	}
}

// Execute implements Step
func (s *CleanStep) Execute(ctx context.Context, state *RunState) error {
	if state.Table == nil {
		return errors.New("no table loaded")
	}

	table, stats := s.imputer.ImputeWithStats(state.Table)
	state.Table = table
	state.Imputation = stats

	if s.metrics != nil {
		for _, c := range stats.Columns {
			if c.Filled > 0 {
				s.metrics.CellsImputed.Add(ctx, int64(c.Filled),
					metric.WithAttributes(attribute.String("strategy", string(c.Strategy))))
			}
		}
		s.metrics.ColumnsCoerced.Add(ctx, int64(stats.ColumnsCoerced))
	}
	infrastructure.AddSpanEvent(ctx, "table.imputed",
		attribute.Int("cells_filled", stats.CellsFilled),
		attribute.Int("columns_coerced", stats.ColumnsCoerced))

	if s.fills != nil {
		return report.RenderImputation(s.fills, stats, report.FormatTable)
	}
	return nil
}

// AnalyzeStep describes the cleaned table and prints the statistics
type AnalyzeStep struct {
	BaseStep
	out    io.Writer
	format string
}

// NewAnalyzeStep creates the analyze step. format is a report format.
func NewAnalyzeStep(out io.Writer, format string) *AnalyzeStep {
	return &AnalyzeStep{
		BaseStep: NewBaseStep(StepIDAnalyze, "Describe Data", true),
		out:      out,
		format:   format,
	}
}

// Execute implements Step
func (s *AnalyzeStep) Execute(ctx context.Context, state *RunState) error {
	if state.Table == nil {
		return errors.New("no table loaded")
	}

	summary := dataprocessing.Describe(state.Table)
	state.Summary = &summary

	fmt.Fprintln(s.out)
	return report.RenderSummary(s.out, state.Summary, s.format)
}

// PlotStep renders histograms of the numeric columns
type PlotStep struct {
	BaseStep
	enabled bool
	opts    histogram.RenderOptions
	out     io.Writer
}

// NewPlotStep creates the plot step. A disabled step always skips.
func NewPlotStep(enabled bool, opts histogram.RenderOptions, out io.Writer) *PlotStep {
	return &PlotStep{
		BaseStep: NewBaseStep(StepIDPlot, "Render Histograms", false),
		enabled:  enabled,
		opts:     opts,
		out:      out,
	}
}

// Execute implements Step
func (s *PlotStep) Execute(ctx context.Context, state *RunState) error {
	if !s.enabled {
		return ErrSkipStep
	}
	if state.Table == nil {
		return errors.New("no table loaded")
	}

	panels, err := histogram.Render(state.Table, s.opts)
	if errors.Is(err, histogram.ErrNoNumericColumns) {
		fmt.Fprintln(s.out, "No numeric columns to plot.")
		return ErrSkipStep
	}
	state.Panels = panels
	if panels > 0 {
		state.Outputs = append(state.Outputs, s.opts.File)
		fmt.Fprintf(s.out, "Histograms saved to %s\n", s.opts.File)
	}
	return err
}

// SaveStep writes the cleaned workbook and, optionally, the statistics CSV
type SaveStep struct {
	BaseStep
	validator *validation.FileValidator
	file      string
	sheet     string
	statsCSV  string
	out       io.Writer
}

// NewSaveStep creates the save step. An empty statsCSV skips the CSV export.
func NewSaveStep(validator *validation.FileValidator, file, sheet, statsCSV string, out io.Writer) *SaveStep {
	if validator == nil {
		validator = validation.NewFileValidator(nil)
	}
	return &SaveStep{
		BaseStep:  NewBaseStep(StepIDSave, "Save Results", false),
		validator: validator,
		file:      file,
		sheet:     sheet,
		statsCSV:  statsCSV,
		out:       out,
	}
}

// Execute implements Step
func (s *SaveStep) Execute(ctx context.Context, state *RunState) error {
	if state.Table == nil {
		return errors.New("no table loaded")
	}

	if err := s.save(state); err != nil {
		fmt.Fprintf(s.out, "Error saving Excel file: %v\n", err)
		return err
	}
	state.Outputs = append(state.Outputs, s.file)
	fmt.Fprintf(s.out, "Cleaned data saved to %s\n", s.file)

	if s.statsCSV == "" || state.Summary == nil {
		return nil
	}

	if err := exporter.NewCSVWriter("").WriteSummary(s.statsCSV, state.Summary); err != nil {
		fmt.Fprintf(s.out, "Error saving statistics: %v\n", err)
		return err
	}
	state.Outputs = append(state.Outputs, s.statsCSV)
	slog.InfoContext(ctx, "Statistics exported", slog.String("file", s.statsCSV))
	fmt.Fprintf(s.out, "Statistics saved to %s\n", s.statsCSV)
	return nil
}

func (s *SaveStep) save(state *RunState) error {
	if err := s.validator.ValidateOutputDirectory(filepath.Dir(s.file)); err != nil {
		return err
	}
	return exporter.WriteWorkbook(s.file, state.Table, exporter.WorkbookOptions{Sheet: s.sheet})
}
