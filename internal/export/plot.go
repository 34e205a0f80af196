package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/bodelab/bodesweep/pkg/models"
)

var (
	gainColor  = color.RGBA{R: 0x00, G: 0x79, B: 0x8c, A: 0xff}
	phaseColor = color.RGBA{R: 0xd1, G: 0x49, B: 0x5b, A: 0xff}
)

// RenderBode draws the two-panel Bode plot (gain over frequency, phase over
// frequency, both on a log-10 frequency axis) and writes it as PNG.
func RenderBode(w io.Writer, records []models.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("cannot render Bode plot: no records")
	}

	gainPts := make(plotter.XYs, len(records))
	phasePts := make(plotter.XYs, len(records))
	for i, rec := range records {
		gainPts[i].X = rec.Ch1Freq
		gainPts[i].Y = rec.GainDb
		phasePts[i].X = rec.Ch1Freq
		phasePts[i].Y = rec.PhaseDiff
	}

	gainPlot, err := newPanel("Frequency Response", "Gain (dB)", gainPts, gainColor)
	if err != nil {
		return err
	}
	phasePlot, err := newPanel("Phase Response", "Phase (Deg)", phasePts, phaseColor)
	if err != nil {
		return err
	}

	img := vgimg.New(9*vg.Inch, 7*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2,
		Cols: 1,
		PadY: vg.Millimeter * 4,
	}

	panels := [][]*plot.Plot{{gainPlot}, {phasePlot}}
	canvases := plot.Align(panels, tiles, dc)
	gainPlot.Draw(canvases[0][0])
	phasePlot.Draw(canvases[1][0])

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode Bode plot: %w", err)
	}
	return nil
}

func newPanel(title, yLabel string, pts plotter.XYs, lineColor color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = yLabel
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build plot line: %w", err)
	}
	line.Color = lineColor
	p.Add(line)
	return p, nil
}

// SavePlot renders the session's Bode plot to <dir>/<BaseName>.png and
// returns the path.
func SavePlot(dir string, session *models.SweepSession, completedAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}
	path := filepath.Join(dir, BaseName(completedAt)+".png")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create plot file: %w", err)
	}
	defer f.Close()

	if err := RenderBode(f, session.Records); err != nil {
		return "", err
	}
	return path, nil
}
