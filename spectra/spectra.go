// Package spectra provides exploratory analysis of tissue reflectance:
// per-organ mean and standard deviation spectra across a directory of
// subject archives, for comparing simulated against real acquisitions.
package spectra

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/spectralseg/hsipig/datasets"
)

// ClassSpectrum is the channel-wise mean and standard deviation of all
// L2-normalized pixel spectra of one organ class.
type ClassSpectrum struct {
	Organ string
	Count int
	Mean  []float64
	Std   []float64
}

// Wavelengths returns the acquisition wavelength axis in nanometers:
// datasets.Dimensions channels starting at 500nm in 5nm steps.
func Wavelengths() []float64 {
	wl := make([]float64, datasets.Dimensions)
	for i := range wl {
		wl[i] = 500 + 5*float64(i)
	}
	return wl
}

// MeanSpectra scans every subject archive under dir and accumulates spectra
// for the requested organ names. Each pixel spectrum is scaled to unit L2
// norm before accumulation so that simulated and real value ranges become
// comparable. Organs absent from the directory are absent from the result.
func MeanSpectra(dir string, organs []string) (map[string]*ClassSpectrum, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.npz"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no subject archives found in %s", dir)
	}

	want := make(map[int]string, len(organs))
	for _, name := range organs {
		idx := slices.Index(datasets.OrganLabels, name)
		if idx < 0 {
			return nil, fmt.Errorf("unknown organ %q", name)
		}
		want[idx] = name
	}

	samples := make(map[string][][]float64)
	for _, path := range paths {
		refl, labels, err := datasets.ReadSubject(path)
		if err != nil {
			return nil, err
		}
		for i, lab := range labels {
			name, ok := want[int(lab)]
			if !ok {
				continue
			}
			v := append([]float64(nil), refl[i]...)
			n := floats.Norm(v, 2)
			if n == 0 {
				continue
			}
			floats.Scale(1/n, v)
			samples[name] = append(samples[name], v)
		}
	}

	out := make(map[string]*ClassSpectrum, len(samples))
	for name, vs := range samples {
		cs := &ClassSpectrum{
			Organ: name,
			Count: len(vs),
			Mean:  make([]float64, datasets.Dimensions),
			Std:   make([]float64, datasets.Dimensions),
		}
		col := make([]float64, len(vs))
		for c := 0; c < datasets.Dimensions; c++ {
			for i, v := range vs {
				col[i] = v[c]
			}
			m, s := stat.MeanStdDev(col, nil)
			if math.IsNaN(s) { // single sample
				s = 0
			}
			cs.Mean[c] = m
			cs.Std[c] = s
		}
		out[name] = cs
	}
	return out, nil
}
