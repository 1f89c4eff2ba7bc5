package main

// Renders per-organ comparison plots of simulated vs real tissue reflectance
// spectra from two split directories of subject archives.
//
// Usage:
//   go run ./cmd/spectra -sim-dir intermediates/semantic/train_synthetic_sampled \
//     -real-dir intermediates/semantic/train -organs liver,spleen,kidney -out plots

import (
	"flag"
	"log"
	"strings"

	"github.com/spectralseg/hsipig/spectra"
)

func main() {
	simDir := flag.String("sim-dir", "intermediates/semantic/train_synthetic_sampled", "directory of simulated subject archives")
	realDir := flag.String("real-dir", "intermediates/semantic/train", "directory of real subject archives")
	outDir := flag.String("out", "plots", "output directory for generated plots")
	organsFlag := flag.String("organs", "liver,spleen,kidney", "comma-separated organ names to plot")
	flag.Parse()

	var organs []string
	for _, name := range strings.Split(*organsFlag, ",") {
		if name = strings.TrimSpace(name); name != "" {
			organs = append(organs, name)
		}
	}
	if len(organs) == 0 {
		log.Fatalf("no organ names given")
	}

	log.Printf("Computing mean spectra for %d organs from %s", len(organs), *simDir)
	simSpectra, err := spectra.MeanSpectra(*simDir, organs)
	if err != nil {
		log.Fatalf("failed to compute simulated spectra: %v", err)
	}
	log.Printf("Computing mean spectra for %d organs from %s", len(organs), *realDir)
	realSpectra, err := spectra.MeanSpectra(*realDir, organs)
	if err != nil {
		log.Fatalf("failed to compute real spectra: %v", err)
	}

	for _, name := range organs {
		s, okSim := simSpectra[name]
		r, okReal := realSpectra[name]
		if !okSim || !okReal {
			log.Printf("warning: %s missing from one of the sources, skipping", name)
			continue
		}
		log.Printf("%s: %d simulated and %d real spectra", name, s.Count, r.Count)
	}

	if err := spectra.PlotComparison(simSpectra, realSpectra, *outDir); err != nil {
		log.Fatalf("failed to generate plots: %v", err)
	}
	log.Printf("Spectra plots written to %s", *outDir)
}
