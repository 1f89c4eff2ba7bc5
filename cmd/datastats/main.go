package main

// Computes the per-split normalization statistics consumed by the data
// module and persists them as the data_stats.json side channel. Statistics
// pool every reflectance value of a split after ignore-class filtering, so
// they match what SampleDataset normalizes with.

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"

	"github.com/spectralseg/hsipig/datasets"
)

func main() {
	root := flag.String("root", "intermediates/semantic", "root directory containing the split directories")
	target := flag.String("target", "sampled", "synthetic-generation variant paired against real data")
	out := flag.String("out", "", "output path for the statistics artifact (default <root>/data_stats.json)")
	flag.Parse()

	if *out == "" {
		*out = filepath.Join(*root, datasets.StatsFileName)
	}

	splits := []string{
		"train_synthetic_" + *target,
		"train",
		"val_synthetic_" + *target,
		"val",
		"test_synthetic_" + *target,
		"test",
	}
	organs := datasets.NewOrganLabelSet(datasets.OrganLabels, datasets.IgnoreClasses)

	stats := make(map[string]datasets.SplitStats)
	for _, split := range splits {
		dir := filepath.Join(*root, split)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			log.Printf("skipping %s: directory not present", split)
			continue
		}
		mean, std, pixels, err := splitStats(dir, organs)
		if err != nil {
			log.Fatalf("failed to compute statistics for %s: %v", split, err)
		}
		log.Printf("%s: %d pixels, mean=%.6f std=%.6f", split, pixels, mean, std)
		stats[split] = datasets.SplitStats{Mean: mean, Std: std}
	}
	if len(stats) == 0 {
		log.Fatalf("no split directories found under %s", *root)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode statistics: %v", err)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		log.Fatalf("failed to write statistics to %s: %v", *out, err)
	}
	log.Printf("Statistics written to %s", *out)
}

// splitStats pools every post-filter reflectance value of a split into one
// scalar mean/std pair.
func splitStats(dir string, organs *datasets.OrganLabelSet) (mean, std float64, pixels int, err error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.npz"))
	if err != nil {
		return 0, 0, 0, err
	}
	if len(paths) == 0 {
		return 0, 0, 0, fmt.Errorf("no subject archives found in %s", dir)
	}

	var values []float64
	for _, path := range paths {
		refl, labels, err := datasets.ReadSubject(path)
		if err != nil {
			return 0, 0, 0, err
		}
		for i, lab := range labels {
			if _, ok := organs.Compact(int(lab)); !ok {
				continue
			}
			values = append(values, refl[i]...)
			pixels++
		}
	}
	if pixels == 0 {
		return 0, 0, 0, fmt.Errorf("no usable pixels in %s", dir)
	}
	mean, std = stat.MeanStdDev(values, nil)
	return mean, std, pixels, nil
}
