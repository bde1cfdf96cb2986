// Package histogram renders one histogram per numeric column of a table into
// a single tiled figure.
package histogram

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgeps"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"sheetclean/internal/config"
	apperrors "sheetclean/internal/errors"
	"sheetclean/pkg/contracts/domain"
)

// ErrNoNumericColumns is returned when the table has nothing to plot
var ErrNoNumericColumns = errors.New("no numeric columns to plot")

// RenderOptions configures the figure
type RenderOptions struct {
	// File is the output path; its extension selects the format
	// (png, jpg, tif, svg, pdf, eps, tex).
	File string

	Bins         int
	WidthInches  float64
	HeightInches float64

	// Interactive opens the written figure with Viewer
	Interactive bool
	Viewer      Viewer
}

func (o *RenderOptions) setDefaults() {
	if o.Bins <= 0 {
		o.Bins = config.DefaultHistogramBins
	}
	if o.WidthInches <= 0 {
		o.WidthInches = config.DefaultFigureInches
	}
	if o.HeightInches <= 0 {
		o.HeightInches = config.DefaultFigureInches
	}
	if o.Viewer == nil {
		o.Viewer = SystemViewer{}
	}
}

// Render draws a histogram for every numeric column with at least one finite
// value and writes the figure to opts.File. It returns the number of panels
// drawn, or ErrNoNumericColumns when there is nothing to draw.
func Render(table *domain.Table, opts RenderOptions) (int, error) {
	opts.setDefaults()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.File)), ".")
	if format == "" {
		return 0, apperrors.NewRenderError("figure file has no extension", nil).
			WithContext("file", opts.File)
	}

	var plots []*plot.Plot
	for _, col := range table.NumericColumns() {
		values := finiteValues(col.PresentNumbers())
		if len(values) == 0 {
			slog.Debug("Skipping column without values", slog.String("column", col.Name))
			continue
		}

		p, err := newHistogram(col.Name, values, opts.Bins)
		if err != nil {
			return 0, apperrors.NewRenderError("failed to build histogram", err).
				WithContext("column", col.Name)
		}
		plots = append(plots, p)
	}

	if len(plots) == 0 {
		return 0, ErrNoNumericColumns
	}

	width := vg.Length(opts.WidthInches) * vg.Inch
	height := vg.Length(opts.HeightInches) * vg.Inch

	canvas, err := draw.NewFormattedCanvas(width, height, format)
	if err != nil {
		return 0, apperrors.NewRenderError("unsupported figure format", err).
			WithContext("format", format)
	}

	rows, cols := GridSize(len(plots))
	grid := make([][]*plot.Plot, rows)
	for r := range grid {
		grid[r] = make([]*plot.Plot, cols)
		for c := range grid[r] {
			if i := r*cols + c; i < len(plots) {
				grid[r][c] = plots[i]
			}
		}
	}

	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}

	canvases := plot.Align(grid, tiles, draw.New(canvas))
	for r := range grid {
		for c, p := range grid[r] {
			if p != nil {
				p.Draw(canvases[r][c])
			}
		}
	}

	if err := writeFigure(opts.File, canvas); err != nil {
		return 0, err
	}

	slog.Info("Histograms rendered",
		slog.String("file", opts.File),
		slog.Int("panels", len(plots)),
		slog.Int("bins", opts.Bins))

	if opts.Interactive {
		if err := opts.Viewer.Open(opts.File); err != nil {
			return len(plots), apperrors.NewRenderError("failed to open figure", err).
				WithContext("file", opts.File)
		}
	}

	return len(plots), nil
}

func newHistogram(title string, values []float64, bins int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, err
	}
	p.Add(h)
	return p, nil
}

func writeFigure(path string, canvas vg.CanvasWriterTo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewRenderError("failed to create directory", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewRenderError("failed to create figure file", err).
			WithContext("file", path)
	}

	if _, err := canvas.WriteTo(f); err != nil {
		f.Close()
		return apperrors.NewRenderError("failed to write figure", err)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewRenderError("failed to close figure file", err)
	}
	return nil
}

// GridSize returns a near-square rows x cols layout holding n panels
func GridSize(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return rows, cols
}

func finiteValues(values []float64) []float64 {
	out := values[:0:0]
	for _, v := range values {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
