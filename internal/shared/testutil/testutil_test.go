package testutil

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBufferedSlogHandler(t *testing.T) {
	logger, logs := NewTestLogger(t)

	logger.With("component", "imputer").Info("Column imputed", slog.String("column", "age"))
	logger.Warn("Optional step failed")

	require.Len(t, logs.GetRecords(), 2)
	assert.True(t, logs.ContainsMessage("imputed"))
	assert.True(t, logs.ContainsAttr("component", "imputer"))
	assert.True(t, logs.ContainsAttr("column", "age"))
	assert.False(t, logs.ContainsAttr("column", "city"))
	assert.Len(t, logs.GetRecordsByLevel(slog.LevelWarn), 1)
}

func TestWriteWorkbookFile(t *testing.T) {
	path := WriteWorkbookFile(t, filepath.Join(t.TempDir(), "data.xlsx"), "Data", [][]interface{}{
		{"a", "b"},
		{1, nil},
	})

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Data"}, f.GetSheetList())
	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1"}}, rows)
}
