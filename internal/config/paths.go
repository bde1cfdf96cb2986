package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every file the run reads or writes, resolved to absolute paths.
// Relative configuration values are resolved against the working directory.
type Paths struct {
	WorkDir     string
	OutputFile  string
	FigureFile  string
	StatsCSV    string
	LogFile     string
	TraceFile   string
	MetricsFile string
}

// GetPaths resolves the configured paths against the current working directory
func GetPaths(cfg *Config) (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return ResolvePaths(cfg, wd), nil
}

// ResolvePaths resolves the configured paths against baseDir. Empty optional
// paths stay empty.
func ResolvePaths(cfg *Config, baseDir string) *Paths {
	return &Paths{
		WorkDir:     baseDir,
		OutputFile:  resolve(baseDir, cfg.Output.File),
		FigureFile:  resolve(baseDir, cfg.Plot.File),
		StatsCSV:    resolve(baseDir, cfg.Output.StatsCSV),
		LogFile:     resolve(baseDir, cfg.Logging.FilePath),
		TraceFile:   resolve(baseDir, cfg.Telemetry.TraceFile),
		MetricsFile: resolve(baseDir, cfg.Telemetry.MetricsFile),
	}
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// EnsureDirectories creates the parent directory of every configured output file
func (p *Paths) EnsureDirectories() error {
	files := []string{p.OutputFile, p.FigureFile, p.StatsCSV, p.TraceFile, p.MetricsFile}

	for _, file := range files {
		if file == "" {
			continue
		}
		dir := filepath.Dir(file)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("Path resolution summary",
		slog.String("work_dir", p.WorkDir),
		slog.Group("outputs",
			slog.String("workbook", p.OutputFile),
			slog.String("figure", p.FigureFile),
			slog.String("stats_csv", p.StatsCSV),
		),
		slog.Group("telemetry",
			slog.String("log", p.LogFile),
			slog.String("trace", p.TraceFile),
			slog.String("metrics", p.MetricsFile),
		))
}
