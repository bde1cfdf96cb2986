package config

// Application constants
const (
	AppName = "sheetclean"

	// EnvPrefix namespaces every environment variable, e.g. SHEETCLEAN_LOGGING_LEVEL
	EnvPrefix = "SHEETCLEAN"

	// Output defaults (relative to the working directory)
	DefaultOutputFile  = "cleaned_data.xlsx"
	DefaultOutputSheet = "Sheet1"
	DefaultFigureFile  = "histograms.png"
	DefaultLogFile     = "logs/sheetclean.log"

	// Cleaning defaults
	DefaultPlaceholder      = "Unknown"
	DefaultNumericThreshold = 0.0
	EmptyNumericLeave       = "leave"
	EmptyNumericZero        = "zero"

	// Histogram defaults
	DefaultHistogramBins = 10
	DefaultFigureInches  = 10.0
)

// DefaultNAValues are the text cell values read as missing
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}
