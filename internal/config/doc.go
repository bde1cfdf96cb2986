// Package config provides centralized configuration management for sheetclean.
// It loads configuration from multiple sources, validates it, and resolves the
// file paths a run reads and writes.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Command line flags (applied by cmd/sheetclean)
//	2. Environment variables
//	3. Configuration file (YAML)
//	4. Default values
//
// # Environment Variables
//
// All environment variables follow the pattern SHEETCLEAN_<SECTION>_<FIELD>:
//
//	SHEETCLEAN_LOGGING_LEVEL=debug
//	SHEETCLEAN_CLEANING_NUMERIC_THRESHOLD=0.8
//	SHEETCLEAN_CLEANING_PLACEHOLDER=Unknown
//	SHEETCLEAN_PLOT_INTERACTIVE=true
//	SHEETCLEAN_OUTPUT_FILE=cleaned_data.xlsx
//
// # Configuration File
//
// sheetclean.yaml (or configs/sheetclean.yaml) in the working directory:
//
//	cleaning:
//	  numeric_threshold: 0.6
//	  empty_numeric: zero
//	plot:
//	  bins: 20
//
// # Paths
//
// Output paths are resolved against the working directory:
//
//	paths, err := config.GetPaths(cfg)
//	fmt.Println(paths.OutputFile) // /current/dir/cleaned_data.xlsx
package config
