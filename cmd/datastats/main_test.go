package main

import (
	"archive/zip"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/spectralseg/hsipig/datasets"
)

func writeArchive(t *testing.T, path string, refl [][]float64, labels []int64) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("reflectance.npy")
	if err != nil {
		t.Fatalf("failed to create reflectance entry: %v", err)
	}
	m := mat.NewDense(len(refl), len(refl[0]), nil)
	for i, row := range refl {
		m.SetRow(i, row)
	}
	if err := npyio.Write(w, m); err != nil {
		t.Fatalf("failed to write reflectance: %v", err)
	}
	w, err = zw.Create("labels.npy")
	if err != nil {
		t.Fatalf("failed to create label entry: %v", err)
	}
	if err := npyio.Write(w, labels); err != nil {
		t.Fatalf("failed to write labels: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
}

func constRow(v float64) []float64 {
	row := make([]float64, datasets.Dimensions)
	for i := range row {
		row[i] = v
	}
	return row
}

func TestSplitStats_IgnoresFilteredPixels(t *testing.T) {
	tmp := t.TempDir()
	// Two liver pixels at 0.1 and 0.3 plus one gallbladder pixel at 9.0 that
	// must not enter the statistics.
	writeArchive(t, filepath.Join(tmp, "p01.npz"),
		[][]float64{constRow(0.1), constRow(9.0), constRow(0.3)},
		[]int64{3, 4, 3})

	organs := datasets.NewOrganLabelSet(datasets.OrganLabels, datasets.IgnoreClasses)
	mean, std, pixels, err := splitStats(tmp, organs)
	if err != nil {
		t.Fatalf("splitStats failed: %v", err)
	}
	if pixels != 2 {
		t.Fatalf("pixel count = %d, want 2", pixels)
	}
	if math.Abs(mean-0.2) > 1e-9 {
		t.Fatalf("mean = %v, want 0.2", mean)
	}
	// Sample std of {0.1, 0.3} values repeated per channel.
	if std <= 0 {
		t.Fatalf("std = %v, want > 0", std)
	}
}

func TestSplitStats_RoundTrip(t *testing.T) {
	tmp := t.TempDir()
	splitDir := filepath.Join(tmp, "train")
	if err := os.MkdirAll(splitDir, 0755); err != nil {
		t.Fatalf("failed to create split directory: %v", err)
	}
	writeArchive(t, filepath.Join(splitDir, "p01.npz"),
		[][]float64{constRow(0.15), constRow(0.25)}, []int64{3, 3})

	organs := datasets.NewOrganLabelSet(datasets.OrganLabels, datasets.IgnoreClasses)
	mean, std, _, err := splitStats(splitDir, organs)
	if err != nil {
		t.Fatalf("splitStats failed: %v", err)
	}

	// Persist the artifact the way main does and load it back.
	stats := map[string]datasets.SplitStats{"train": {Mean: mean, Std: std}}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		t.Fatalf("failed to encode statistics: %v", err)
	}
	out := filepath.Join(tmp, datasets.StatsFileName)
	if err := os.WriteFile(out, data, 0644); err != nil {
		t.Fatalf("failed to write statistics: %v", err)
	}

	loaded, err := datasets.LoadStats(out)
	if err != nil {
		t.Fatalf("LoadStats failed: %v", err)
	}
	got := loaded["train"]
	if got.Mean != mean || got.Std != std {
		t.Fatalf("round trip mismatch: got %+v, want {%v %v}", got, mean, std)
	}
}

func TestSplitStats_EmptyDirectory(t *testing.T) {
	organs := datasets.NewOrganLabelSet(datasets.OrganLabels, datasets.IgnoreClasses)
	if _, _, _, err := splitStats(t.TempDir(), organs); err == nil {
		t.Fatalf("expected error for directory without archives")
	}
}
