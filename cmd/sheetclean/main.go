package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"sheetclean/internal/config"
	apperrors "sheetclean/internal/errors"
	"sheetclean/internal/infrastructure"
	"sheetclean/internal/operations"
	"sheetclean/pkg/contracts"
)

// Exit codes
const (
	exitOK     = 0
	exitConfig = 1
	exitUsage  = 2
)

// cliFlags holds the raw command line values. Only flags that were actually
// set override the loaded configuration.
type cliFlags struct {
	in          string
	out         string
	sheet       string
	plotFile    string
	interactive bool
	noPlot      bool
	statsCSV    string
	threshold   float64
	placeholder string
	configFile  string
	showFills   bool
	version     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func newFlagSet(f *cliFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.in, "in", "", "input .xlsx file (prompted for when empty)")
	fs.StringVar(&f.out, "out", config.DefaultOutputFile, "cleaned workbook to write")
	fs.StringVar(&f.sheet, "sheet", "", "worksheet to read (defaults to the first sheet)")
	fs.StringVar(&f.plotFile, "plot", config.DefaultFigureFile, "histogram figure file; the extension selects the format")
	fs.BoolVar(&f.interactive, "interactive", false, "open the histogram figure in the system viewer")
	fs.BoolVar(&f.noPlot, "no-plot", false, "skip histogram rendering")
	fs.StringVar(&f.statsCSV, "stats-csv", "", "also write the descriptive statistics to this CSV file")
	fs.Float64Var(&f.threshold, "threshold", config.DefaultNumericThreshold, "share of parseable cells needed to convert a text column to numeric (0 converts any column with a parseable cell)")
	fs.StringVar(&f.placeholder, "placeholder", config.DefaultPlaceholder, "fill value for text columns without any value")
	fs.StringVar(&f.configFile, "config", "", "YAML configuration file")
	fs.BoolVar(&f.showFills, "show-fills", false, "print a table of the filled and converted columns")
	fs.BoolVar(&f.version, "version", false, "print version information and exit")
	return fs
}

// applyFlags overlays the explicitly set flags onto cfg
func applyFlags(cfg *config.Config, fs *flag.FlagSet, f *cliFlags) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "out":
			cfg.Output.File = f.out
		case "sheet":
			cfg.Cleaning.Sheet = f.sheet
		case "plot":
			cfg.Plot.File = f.plotFile
		case "interactive":
			cfg.Plot.Interactive = f.interactive
		case "no-plot":
			cfg.Plot.Enabled = !f.noPlot
		case "stats-csv":
			cfg.Output.StatsCSV = f.statsCSV
		case "threshold":
			cfg.Cleaning.NumericThreshold = f.threshold
		case "placeholder":
			cfg.Cleaning.Placeholder = f.placeholder
		}
	})
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var f cliFlags
	fs := newFlagSet(&f, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if f.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}

	cfg, err := config.Load(f.configFile)
	if err == nil {
		applyFlags(cfg, fs, &f)
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitCode(err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil || logger == nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	paths, err := config.GetPaths(cfg)
	if err != nil {
		logger.Error("Failed to initialize paths", slog.String("error", err.Error()))
		return exitConfig
	}
	paths.LogPathResolution(logger)

	input := f.in
	if input == "" {
		input, err = promptInput(stdin, stdout)
		if err != nil {
			logger.Warn("No input path given", slog.String("error", err.Error()))
		}
	}

	if !config.FileExists(input) {
		fmt.Fprintln(stdout, "File does not exist.")
		logger.Warn("Input file does not exist", slog.String("file", input))
		return exitOK
	}

	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create required directories", slog.String("error", err.Error()))
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runID := infrastructure.GenerateTraceID()
	ctx = infrastructure.WithTraceID(ctx, runID)

	telemetry, err := infrastructure.InitializeTelemetry(infrastructure.TelemetryOptions{
		TraceFile:   paths.TraceFile,
		MetricsFile: paths.MetricsFile,
	}, logger)
	if err != nil {
		logger.Warn("Telemetry disabled", slog.String("error", err.Error()))
		telemetry = nil
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.InfoContext(ctx, "Starting sheetclean",
		slog.String("version", contracts.Version),
		slog.String("input", input),
		slog.String("output", cfg.Output.File),
		slog.Bool("plot", cfg.Plot.Enabled),
		slog.Float64("numeric_threshold", cfg.Cleaning.NumericThreshold))

	pipeline := operations.NewCleaningPipeline(cfg, operations.BuildOptions{
		Telemetry: telemetry,
		Logger:    logger,
		Out:       stdout,
		ShowFills: f.showFills,
	})
	state := operations.NewRunState(runID, input)

	if err := pipeline.Run(ctx, state); err != nil {
		logger.ErrorContext(ctx, "Run failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))))
		return exitCode(err)
	}

	for _, w := range state.Warnings {
		logger.WarnContext(ctx, "Run completed with warning", slog.String("error", w.Error()))
	}
	logger.InfoContext(ctx, "Run complete",
		slog.Int("rows", state.Table.RowCount()),
		slog.Int("cells_filled", state.Imputation.CellsFilled),
		slog.Any("outputs", state.Outputs))
	return exitOK
}

// exitCode maps a run error to the process exit code. Input and output
// failures are reported on the console and exit 0; configuration errors and
// cancellation exit 1.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case apperrors.IsType(err, apperrors.ErrTypeConfig), errors.Is(err, context.Canceled):
		return exitConfig
	default:
		return exitOK
	}
}

// promptInput asks for the workbook path on stdin
func promptInput(stdin io.Reader, stdout io.Writer) (string, error) {
	fmt.Fprint(stdout, "Enter the path to the Excel file: ")

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input path: %w", err)
	}
	return strings.TrimSpace(line), nil
}
