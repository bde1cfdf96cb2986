package operations

import (
	"io"
	"log/slog"
	"os"

	"sheetclean/internal/config"
	"sheetclean/internal/dataprocessing"
	"sheetclean/internal/histogram"
	"sheetclean/internal/infrastructure"
	"sheetclean/internal/report"
	"sheetclean/internal/validation"
)

// BuildOptions holds what the standard cleaning pipeline needs besides config
type BuildOptions struct {
	Telemetry *infrastructure.Telemetry
	Logger    *slog.Logger

	// Out receives the user-facing console output. Nil uses stdout.
	Out io.Writer

	// ShowFills prints a per-column table of what the imputer changed
	ShowFills bool

	// Viewer opens the figure in interactive mode. Nil uses the system viewer.
	Viewer histogram.Viewer
}

// NewCleaningPipeline wires load, clean, analyze, plot and save from cfg
func NewCleaningPipeline(cfg *config.Config, opts BuildOptions) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	var metrics *infrastructure.RunMetrics
	if opts.Telemetry != nil {
		metrics = opts.Telemetry.Metrics
	}

	validator := validation.NewFileValidator(infrastructure.WithComponent(opts.Logger, "validation"))

	imputer := dataprocessing.NewImputer(dataprocessing.ImputeOptions{
		NumericThreshold: cfg.Cleaning.NumericThreshold,
		Placeholder:      cfg.Cleaning.Placeholder,
		EmptyNumeric:     cfg.Cleaning.EmptyNumeric,
	}).WithLogger(infrastructure.WithComponent(opts.Logger, "imputer"))

	var fills io.Writer
	if opts.ShowFills {
		fills = opts.Out
	}

	return NewPipeline(opts.Telemetry, opts.Logger,
		NewLoadStep(validator, dataprocessing.ParseOptions{
			Sheet:    cfg.Cleaning.Sheet,
			NAValues: cfg.Cleaning.NAValues,
		}, metrics, opts.Out),
		NewCleanStep(imputer, metrics, fills),
		NewAnalyzeStep(opts.Out, report.FormatTable),
		NewPlotStep(cfg.Plot.Enabled, histogram.RenderOptions{
			File:         cfg.Plot.File,
			Bins:         cfg.Plot.Bins,
			WidthInches:  cfg.Plot.WidthInches,
			HeightInches: cfg.Plot.HeightInches,
			Interactive:  cfg.Plot.Interactive,
			Viewer:       opts.Viewer,
		}, opts.Out),
		NewSaveStep(validator, cfg.Output.File, cfg.Output.Sheet, cfg.Output.StatsCSV, opts.Out),
	)
}
