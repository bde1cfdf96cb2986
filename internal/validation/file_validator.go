package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "sheetclean/internal/errors"
)

// SpreadsheetExtensions are the workbook formats the parser can read
var SpreadsheetExtensions = []string{".xlsx", ".xlsm"}

// FileValidator checks input and output locations before the pipeline touches them
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable. A missing
// file yields a NOT_FOUND error; any other problem is an INPUT error.
func (v *FileValidator) ValidateFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return apperrors.NewValidationError("file path is empty")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError("file").WithContext("file", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewInputError("failed to stat file", err).WithContext("file", path)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewInputError("path is a directory, not a file", nil).WithContext("file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewInputError("file is not readable", err).WithContext("file", path)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateSpreadsheet checks that path is a readable workbook the parser supports
func (v *FileValidator) ValidateSpreadsheet(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !isSpreadsheetExt(ext) {
		v.logger.Error("File is not a supported spreadsheet",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewInputError("unsupported spreadsheet format", nil).
			WithContext("file", path).
			WithContext("extension", ext)
	}

	// Excel lock files share the workbook's extension
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary Excel file",
			slog.String("file", path))
		return apperrors.NewInputError("file is a temporary Excel lock file", nil).WithContext("file", path)
	}

	return nil
}

// ValidateOutputDirectory ensures the directory holding path exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory", err).WithContext("directory", dir)
	}

	// Verify it's writable by creating a test file
	file, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("output directory is not writable", err).WithContext("directory", dir)
	}
	name := file.Name()
	file.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

func isSpreadsheetExt(ext string) bool {
	for _, e := range SpreadsheetExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
