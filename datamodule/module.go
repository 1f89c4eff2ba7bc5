// Package datamodule wires the split datasets, normalization statistics and
// batch loaders of the segmentation pipeline into one lifecycle. Each loader
// feeds batches containing normalized reflectance spectra, integer organ
// labels and the label -> organ name mapping.
//
// By default the test split is hidden to avoid data leakage during training.
// During testing it can be enabled through the scoped TestGate:
//
//	cfg := config.DefaultExperiment()
//	dm, patch, err := datamodule.New(cfg, cfg.Target, root)
//	patch.Apply(cfg)
//	err = dm.Setup("fit")
//	dl, err := dm.TrainLoader()
//	err = datamodule.WithTestData(dm, func(dm *datamodule.DataModule) error {
//		tl, err := dm.TestLoader()
//		...
//	})
package datamodule

import (
	"fmt"
	"path/filepath"

	"github.com/spectralseg/hsipig/config"
	"github.com/spectralseg/hsipig/datasets"
)

// lifecycle stage of a DataModule. There is no transition back; a fresh
// instance is required to reset.
type moduleStage int

const (
	stageConfigured moduleStage = iota + 1 // post-New
	stageReady                             // post-Setup
)

// pair holds the synthetic and real dataset of one split.
type pair struct {
	syn  *datasets.SampleDataset
	real *datasets.SampleDataset
}

func (p pair) union() datasets.Dataset { return datasets.NewConcat(p.syn, p.real) }

// DataModule orchestrates the dataset lifecycle: it loads the statistics
// artifact once, builds one synthetic/real dataset pair per split at Setup,
// and exposes the loader entry points.
type DataModule struct {
	cfg    *config.Experiment
	target string
	root   string

	stats  map[string]datasets.SplitStats
	organs *datasets.OrganLabelSet

	stage      moduleStage
	setupStage string

	train pair
	val   pair

	// test split state, bound only while a TestGate is active
	testEnabled bool
	test        pair
}

// ConfigPatch carries the configuration fields that are only knowable after
// the statistics artifact is loaded. New returns it alongside the module and
// the caller applies it to its own configuration object, which keeps the
// dependency explicit instead of mutating cfg behind the caller's back.
type ConfigPatch struct {
	Dimensions int
	MeanA      float64 // synthetic-source train mean
	StdA       float64 // synthetic-source train std
	MeanB      float64 // real-source train mean
	StdB       float64 // real-source train std
	NClasses   int
}

// Apply writes the derived fields into the configuration's data block.
func (p *ConfigPatch) Apply(cfg *config.Experiment) {
	cfg.Data.Dimensions = p.Dimensions
	cfg.Data.MeanA = p.MeanA
	cfg.Data.StdA = p.StdA
	cfg.Data.MeanB = p.MeanB
	cfg.Data.StdB = p.StdB
	cfg.Data.NClasses = p.NClasses
}

// New loads the statistics artifact from root, builds the working organ
// label set and derives the configuration patch. target identifies the
// synthetic-generation variant paired against real data ("sampled", "real",
// "synthetic"). The statistics are read exactly once per module lifetime.
func New(cfg *config.Experiment, target, root string) (*DataModule, *ConfigPatch, error) {
	stats, err := datasets.LoadStats(filepath.Join(root, datasets.StatsFileName))
	if err != nil {
		return nil, nil, err
	}
	synKey := "train_synthetic_" + target
	synStats, ok := stats[synKey]
	if !ok {
		return nil, nil, &datasets.ConfigurationError{Path: synKey, Err: fmt.Errorf("split statistics missing")}
	}
	realStats, ok := stats["train"]
	if !ok {
		return nil, nil, &datasets.ConfigurationError{Path: "train", Err: fmt.Errorf("split statistics missing")}
	}

	organs := datasets.NewOrganLabelSet(datasets.OrganLabels, datasets.IgnoreClasses)
	dm := &DataModule{
		cfg:    cfg,
		target: target,
		root:   root,
		stats:  stats,
		organs: organs,
		stage:  stageConfigured,
	}
	patch := &ConfigPatch{
		Dimensions: datasets.Dimensions,
		MeanA:      synStats.Mean,
		StdA:       synStats.Std,
		MeanB:      realStats.Mean,
		StdB:       realStats.Std,
		NClasses:   organs.NumClasses(),
	}
	return dm, patch, nil
}

// Organs returns the compact label -> organ name mapping shared by all
// batches of this module.
func (dm *DataModule) Organs() map[int]string { return dm.organs.Organs() }

// Setup builds the train and validation dataset pairs. Calling it again with
// the same stage is a no-op; dataset construction errors (absent split
// directories, corrupt archives) propagate unchanged.
func (dm *DataModule) Setup(stage string) error {
	if dm.stage >= stageReady && dm.setupStage == stage {
		return nil
	}
	train, err := dm.buildPair("train")
	if err != nil {
		return err
	}
	val, err := dm.buildPair("val")
	if err != nil {
		return err
	}
	dm.train = train
	dm.val = val
	dm.setupStage = stage
	dm.stage = stageReady
	return nil
}

// buildPair constructs the synthetic and real dataset of one split. Every
// split of a source is normalized with that source's train statistics.
func (dm *DataModule) buildPair(split string) (pair, error) {
	synStats := dm.stats["train_synthetic_"+dm.target]
	realStats := dm.stats["train"]

	syn, err := datasets.NewSampleDataset(
		filepath.Join(dm.root, split+"_synthetic_"+dm.target), synStats, dm.organs)
	if err != nil {
		return pair{}, err
	}
	realDS, err := datasets.NewSampleDataset(
		filepath.Join(dm.root, split), realStats, dm.organs)
	if err != nil {
		return pair{}, err
	}
	return pair{syn: syn, real: realDS}, nil
}

// TrainLoader returns a loader over the concatenated train pair with the
// configured batch size, shuffling and worker count. Every yielded batch has
// exactly BatchSize samples; a trailing partial batch is dropped.
func (dm *DataModule) TrainLoader() (*Loader, error) {
	if dm.stage < stageReady {
		return nil, &PreconditionError{Op: "TrainLoader", Reason: "Setup has not run"}
	}
	return NewLoader(dm.train.union(), LoaderConfig{
		BatchSize:  dm.cfg.BatchSize,
		Shuffle:    dm.cfg.Shuffle,
		NumWorkers: dm.cfg.NumWorkers,
		Organs:     dm.organs.Organs(),
	}), nil
}

// ValLoader returns a loader over the validation pair with batch size fixed
// at 1 for per-image evaluation granularity. Shuffling follows the experiment
// flag.
func (dm *DataModule) ValLoader() (*Loader, error) {
	if dm.stage < stageReady {
		return nil, &PreconditionError{Op: "ValLoader", Reason: "Setup has not run"}
	}
	return NewLoader(dm.val.union(), LoaderConfig{
		BatchSize:  1,
		Shuffle:    dm.cfg.Shuffle,
		NumWorkers: dm.cfg.NumWorkers,
		Organs:     dm.organs.Organs(),
	}), nil
}

// TestLoader behaves like ValLoader but sources the test split. It is only
// available while a TestGate is active; outside the gate it fails with
// NotSupportedError.
func (dm *DataModule) TestLoader() (*Loader, error) {
	if dm.stage < stageReady {
		return nil, &PreconditionError{Op: "TestLoader", Reason: "Setup has not run"}
	}
	if !dm.testEnabled {
		return nil, &NotSupportedError{Op: "TestLoader"}
	}
	return NewLoader(dm.test.union(), LoaderConfig{
		BatchSize:  1,
		Shuffle:    dm.cfg.Shuffle,
		NumWorkers: dm.cfg.NumWorkers,
		Organs:     dm.organs.Organs(),
	}), nil
}
