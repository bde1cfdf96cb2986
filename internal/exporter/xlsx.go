package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"sheetclean/internal/config"
	apperrors "sheetclean/internal/errors"
	"sheetclean/pkg/contracts/domain"
)

// WorkbookOptions configures workbook export
type WorkbookOptions struct {
	// Sheet names the single worksheet. Empty selects config.DefaultOutputSheet.
	Sheet string
}

// WriteWorkbook writes the table to an xlsx file: a header row with the
// column names, then one row per record. Numbers are written as numeric
// cells, text as strings, bools as booleans and missing cells are left blank.
func WriteWorkbook(filePath string, table *domain.Table, opts WorkbookOptions) error {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = config.DefaultOutputSheet
	}

	slog.Info("Writing workbook",
		slog.String("file_path", filePath),
		slog.String("sheet", sheet),
		slog.Int("rows", table.RowCount()),
		slog.Int("columns", len(table.Columns)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).
			WithContext("file", filePath)
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != config.DefaultOutputSheet {
		if err := f.SetSheetName(config.DefaultOutputSheet, sheet); err != nil {
			return apperrors.NewStorageError("invalid sheet name", err).
				WithContext("sheet", sheet)
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return apperrors.NewStorageError("failed to create stream writer", err)
	}

	header := make([]interface{}, len(table.Columns))
	for j, col := range table.Columns {
		header[j] = col.Name
	}
	if err := writeRow(sw, 1, header); err != nil {
		return err
	}

	row := make([]interface{}, len(table.Columns))
	for i := 0; i < table.RowCount(); i++ {
		for j, col := range table.Columns {
			row[j] = cellValue(col.Cells[i])
		}
		if err := writeRow(sw, i+2, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return apperrors.NewStorageError("failed to flush worksheet", err)
	}

	if err := f.SaveAs(filePath); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).
			WithContext("file", filePath)
	}

	return nil
}

func writeRow(sw *excelize.StreamWriter, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return apperrors.NewStorageError("invalid row", err)
	}
	if err := sw.SetRow(cell, values); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write row %d", rowNum), err)
	}
	return nil
}

// cellValue converts a cell to the value excelize writes; nil leaves the cell blank.
// Workbooks cannot hold non-finite numbers: infinities are written as "inf" or
// "-inf" text and NaN as a blank cell.
func cellValue(v domain.Value) interface{} {
	switch v.Kind {
	case domain.ValueNumber:
		switch {
		case math.IsNaN(v.Number):
			return nil
		case math.IsInf(v.Number, 1):
			return "inf"
		case math.IsInf(v.Number, -1):
			return "-inf"
		}
		return v.Number
	case domain.ValueText:
		return v.Text
	case domain.ValueBool:
		return v.Bool
	default:
		return nil
	}
}
