package spectra

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotComparison writes one PNG per organ overlaying the simulated (blue) and
// real (red) mean spectrum, each with dashed ±1 std band lines. Organs missing
// from either map are skipped.
func PlotComparison(simSpectra, realSpectra map[string]*ClassSpectrum, outDir string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	wl := Wavelengths()

	for organ, sim := range simSpectra {
		obs, ok := realSpectra[organ]
		if !ok {
			continue
		}
		p := plot.New()
		p.Title.Text = organ + " reflectance: simulated (blue) vs real (red)"
		p.X.Label.Text = "wavelength [nm]"
		p.Y.Label.Text = "L2-normalized reflectance"

		if err := addSpectrum(p, wl, sim, "simulated", color.RGBA{R: 20, G: 80, B: 200, A: 220}); err != nil {
			return err
		}
		if err := addSpectrum(p, wl, obs, "real", color.RGBA{R: 200, G: 30, B: 30, A: 220}); err != nil {
			return err
		}
		p.Add(plotter.NewGrid())

		outPath := filepath.Join(outDir, organ+"_spectra.png")
		if err := p.Save(8*vg.Inch, 6*vg.Inch, outPath); err != nil {
			return err
		}
	}
	return nil
}

// addSpectrum draws the mean line plus dashed upper/lower std lines.
func addSpectrum(p *plot.Plot, wl []float64, cs *ClassSpectrum, label string, col color.RGBA) error {
	mean := make(plotter.XYs, len(wl))
	upper := make(plotter.XYs, len(wl))
	lower := make(plotter.XYs, len(wl))
	for i, w := range wl {
		mean[i] = plotter.XY{X: w, Y: cs.Mean[i]}
		upper[i] = plotter.XY{X: w, Y: cs.Mean[i] + cs.Std[i]}
		lower[i] = plotter.XY{X: w, Y: cs.Mean[i] - cs.Std[i]}
	}

	line, err := plotter.NewLine(mean)
	if err != nil {
		return err
	}
	line.Color = col
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("%s (n=%d)", label, cs.Count), line)

	faint := col
	faint.A = 110
	for _, band := range []plotter.XYs{upper, lower} {
		bl, err := plotter.NewLine(band)
		if err != nil {
			return err
		}
		bl.Color = faint
		bl.Width = vg.Points(0.8)
		bl.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(bl)
	}
	return nil
}
