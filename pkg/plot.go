package calib

import (
	"fmt"
	"image/color"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PlotStyle is passed to every rendering call; there is no package-level
// plotting state.
type PlotStyle struct {
	Cols       int
	TileWidth  vg.Length
	TileHeight vg.Length
	// HitColors is indexed by channel number in the quartet.
	HitColors  []color.Color
	FitColor   color.Color
	ShowTitles bool
}

func DefaultPlotStyle() PlotStyle {
	return PlotStyle{
		Cols:       8,
		TileWidth:  6 * vg.Centimeter,
		TileHeight: 4 * vg.Centimeter,
		HitColors: []color.Color{
			color.NRGBA{R: 255, A: 255},
			color.NRGBA{G: 128, A: 255},
			color.NRGBA{B: 255, A: 255},
			color.NRGBA{R: 255, B: 255, A: 255},
		},
		FitColor:   color.Black,
		ShowTitles: true,
	}
}

// PlotSpectra draws one tile per channel with its spectrum and, for
// resolved channels, the fitted Gaussian.
func PlotSpectra(fname string, res *Result, style PlotStyle) error {
	if style.Cols <= 0 {
		return fmt.Errorf("invalid number of columns %d", style.Cols)
	}
	rows := (NChannels + style.Cols - 1) / style.Cols
	tp := hplot.NewTiledPlot(draw.Tiles{Cols: style.Cols, Rows: rows, PadX: vg.Millimeter, PadY: vg.Millimeter})

	resolved := make(map[int]bool, len(res.Records))
	for _, r := range res.Records {
		if !r.Empty {
			resolved[int(r.Channel)] = true
		}
	}

	for ch := 0; ch < NChannels; ch++ {
		p := tp.Plot(ch/style.Cols, ch%style.Cols)
		var fitted *PeakFit
		if resolved[ch] {
			fitted = res.Fits[ch]
		}
		drawChannel(p, ch, res.Histos, fitted, style)
	}

	w := vg.Length(style.Cols) * style.TileWidth
	h := vg.Length(rows) * style.TileHeight
	if err := tp.Save(w, h, fname); err != nil {
		return fmt.Errorf("could not save %s: %w", fname, err)
	}
	return nil
}

func drawChannel(p *hplot.Plot, ch int, histos *ChannelHistos, pf *PeakFit, style PlotStyle) {
	if style.ShowTitles {
		p.Title.Text = fmt.Sprintf("iChanAbs240=%d", ch)
	}
	p.X.Label.Text = string(histos.Observable)

	h := hplot.NewH1D(histos.H[ch])
	if n := len(style.HitColors); n > 0 {
		h.LineStyle.Color = style.HitColors[ch%n]
	}
	p.Add(h)

	if pf == nil {
		return
	}
	ps := []float64{pf.Amplitude, pf.Mean, pf.Sigma}
	f := plotter.NewFunction(func(x float64) float64 { return gauss(x, ps) })
	f.XMin = pf.ModeEstimate * 0.5
	f.XMax = pf.ModeEstimate * 1.5
	f.Samples = 200
	f.LineStyle.Color = style.FitColor
	p.Add(f)
}
