package datasets

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
)

// SampleDataset presents a uniform, pixel-addressable view over every subject
// archive of one (split, source) directory. Pixels labeled with an ignored
// class are excluded, the remaining labels are remapped to the compact organ
// set, and spectra are z-score normalized with the source-specific train
// statistics. Synthetic and real sources are never pooled for normalization;
// each SampleDataset carries exactly one source's statistics.
//
// Construction reads the label channel and the reflectance header of every
// archive to build a cumulative pixel index. The reflectance payloads are
// decoded lazily on first access and memoized per subject, so repeated Gets
// are cheap and deterministic.
type SampleDataset struct {
	dir    string
	stats  SplitStats
	organs *OrganLabelSet

	paths  []string  // one archive per subject, sorted for stable order
	keep   [][]int32 // per archive: row indices surviving class filtering
	labels [][]int32 // per archive: compact labels of the kept rows
	cum    []int     // cumulative kept-pixel counts, len(paths)+1

	mu     sync.Mutex
	loaded map[int][][]float32 // archive index -> normalized kept spectra
}

// NewSampleDataset scans dir for subject archives and builds the pixel index.
// It fails with DataIntegrityError when the directory holds no archives or
// any archive is missing a channel or has mismatched pixel counts, and with
// ConfigurationError when the statistics are unusable.
func NewSampleDataset(dir string, stats SplitStats, organs *OrganLabelSet) (*SampleDataset, error) {
	if stats.Std <= 0 {
		return nil, &ConfigurationError{Path: dir, Err: fmt.Errorf("non-positive std %v in split statistics", stats.Std)}
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.npz"))
	if err != nil {
		return nil, &DataIntegrityError{Archive: dir, Reason: "scan split directory", Err: err}
	}
	if len(paths) == 0 {
		return nil, &DataIntegrityError{Archive: dir, Reason: "no subject archives found"}
	}
	sort.Strings(paths)

	ds := &SampleDataset{
		dir:    dir,
		stats:  stats,
		organs: organs,
		paths:  paths,
		keep:   make([][]int32, len(paths)),
		labels: make([][]int32, len(paths)),
		cum:    make([]int, len(paths)+1),
		loaded: make(map[int][][]float32),
	}
	for i, path := range paths {
		raw, err := readIndex(path)
		if err != nil {
			return nil, err
		}
		var keep, compact []int32
		for row, lab := range raw {
			if !organs.Known(int(lab)) {
				return nil, &DataIntegrityError{Archive: path, Reason: fmt.Sprintf("label %d outside organ vocabulary", lab)}
			}
			c, ok := organs.Compact(int(lab))
			if !ok {
				continue // ignored class
			}
			keep = append(keep, int32(row))
			compact = append(compact, int32(c))
		}
		ds.keep[i] = keep
		ds.labels[i] = compact
		ds.cum[i+1] = ds.cum[i] + len(keep)
	}
	return ds, nil
}

// Len returns the total pixel count across all subjects, post-filtering.
func (d *SampleDataset) Len() int { return d.cum[len(d.paths)] }

// Organs exposes the compact label -> organ name mapping of this dataset.
func (d *SampleDataset) Organs() map[int]string { return d.organs.Organs() }

// Get returns the normalized spectrum and compact label of one pixel. The
// result is stable across repeated calls; the returned slice is shared with
// the dataset's cache and must not be modified.
func (d *SampleDataset) Get(i int) ([]float32, int, error) {
	if i < 0 || i >= d.Len() {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", i, d.Len())
	}
	// Find the archive containing this global index.
	ai := sort.Search(len(d.paths), func(k int) bool { return d.cum[k+1] > i })
	local := i - d.cum[ai]
	spectra, err := d.archive(ai)
	if err != nil {
		return nil, 0, err
	}
	return spectra[local], int(d.labels[ai][local]), nil
}

// archive returns the normalized kept spectra of one subject, decoding and
// memoizing the reflectance payload on first use.
func (d *SampleDataset) archive(ai int) ([][]float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.loaded[ai]; ok {
		return s, nil
	}
	arrs, err := readArchive(d.paths[ai])
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(d.keep[ai]))
	for k, row := range d.keep[ai] {
		raw := arrs.reflectance.RawRowView(int(row))
		vec := make([]float32, Dimensions)
		for c, v := range raw {
			vec[c] = float32((v - d.stats.Mean) / d.stats.Std)
		}
		out[k] = vec
	}
	d.loaded[ai] = out
	return out, nil
}

// Concat joins two datasets into one index space, a in front of b. The
// synthetic and real halves of a split keep their own normalization because
// it is applied inside each dataset; concatenation only merges iteration
// order.
type Concat struct {
	a, b Dataset
}

// NewConcat builds the concatenation of a and b.
func NewConcat(a, b Dataset) *Concat { return &Concat{a: a, b: b} }

// Len returns the combined pixel count.
func (c *Concat) Len() int { return c.a.Len() + c.b.Len() }

// Get dispatches to the dataset owning index i.
func (c *Concat) Get(i int) ([]float32, int, error) {
	if i < 0 || i >= c.Len() {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", i, c.Len())
	}
	if i < c.a.Len() {
		return c.a.Get(i)
	}
	return c.b.Get(i - c.a.Len())
}
