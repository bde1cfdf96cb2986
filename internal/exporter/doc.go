// Package exporter writes cleaned tables and their statistics to disk.
//
// WriteWorkbook streams a domain.Table into a single-sheet xlsx workbook.
// CSVWriter writes CSV files with an optional UTF-8 BOM for Excel
// compatibility, and WriteSummary lays out descriptive statistics the same
// way the console report does.
//
// Example usage:
//
//	err := exporter.WriteWorkbook("cleaned_data.xlsx", table, exporter.WorkbookOptions{})
//
//	writer := exporter.NewCSVWriter(paths.WorkDir)
//	err = writer.WriteSummary("reports/stats.csv", &summary)
package exporter
