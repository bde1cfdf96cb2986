// Package dataprocessing reads a worksheet into a Table, cleans it, and
// computes descriptive statistics.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Parser: reads an xlsx worksheet into a domain.Table
// 2. Imputer: coerces text columns to numeric and fills missing cells
// 3. Describer: count, mean, std, min, quartiles and max per numeric column
//
// # Usage
//
//	table, err := dataprocessing.ParseFile("survey.xlsx", dataprocessing.ParseOptions{})
//	if err != nil {
//	    return err
//	}
//
//	imputer := dataprocessing.NewImputer(dataprocessing.DefaultImputeOptions())
//	table, stats := imputer.ImputeWithStats(table)
//
//	summary := dataprocessing.Describe(table)
//
// # Data Flow
//
//	Excel File → Parser → Table → Imputer → Cleaned Table → Describer → Summary
//
// # Imputation
//
// A categorical column holding text is converted to numeric as soon as one
// of its present cells parses as a number; cells that do not parse become
// missing. A non-zero NumericThreshold additionally requires that share of
// present cells to parse. Numeric columns are then filled with their median
// and categorical columns with their mode, or the placeholder when no value
// is present. The row count never changes.
package dataprocessing
