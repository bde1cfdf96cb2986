package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// WriteWorkbook saves rows to dir/input.xlsx on the default sheet and returns
// the path. The first row is the header; nil values leave the cell empty.
func WriteWorkbook(t *testing.T, dir string, rows [][]interface{}) string {
	t.Helper()
	return WriteWorkbookFile(t, filepath.Join(dir, "input.xlsx"), "Sheet1", rows)
}

// WriteWorkbookFile saves rows to path on the named sheet
func WriteWorkbookFile(t *testing.T, path, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}

	for i, row := range rows {
		for j, val := range row {
			if val == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}

	require.NoError(t, f.SaveAs(path))
	return path
}
