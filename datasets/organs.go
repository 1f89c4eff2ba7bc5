package datasets

// OrganLabels is the process-wide ordered organ vocabulary. Pixel labels
// stored in the subject archives index into this list.
var OrganLabels = []string{
	"stomach",
	"small_bowel",
	"colon",
	"liver",
	"gallbladder",
	"pancreas",
	"kidney",
	"spleen",
	"bladder",
	"omentum",
	"lung",
	"heart",
	"cartilage",
	"bone",
	"skin",
	"muscle",
	"peritoneum",
	"major_vein",
}

// IgnoreClasses are organ names excluded from training and evaluation. Their
// pixels are dropped before normalization statistics apply.
var IgnoreClasses = []string{"gallbladder"}

// OrganLabelSet is the working label set: the vocabulary minus the ignored
// classes, re-indexed contiguously. It is computed once at data-module
// construction and immutable afterwards; its class count configures the
// segmentation model downstream.
type OrganLabelSet struct {
	vocabSize int
	names     []string
	compact   map[int]int    // vocabulary index -> compact label
	organs    map[int]string // compact label -> organ name
}

// NewOrganLabelSet builds the working set from an ordered vocabulary and an
// ignore list. Order of the remaining names is preserved.
func NewOrganLabelSet(vocabulary, ignore []string) *OrganLabelSet {
	ignored := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		ignored[name] = true
	}
	s := &OrganLabelSet{
		vocabSize: len(vocabulary),
		compact:   make(map[int]int),
		organs:    make(map[int]string),
	}
	for i, name := range vocabulary {
		if ignored[name] {
			continue
		}
		c := len(s.names)
		s.names = append(s.names, name)
		s.compact[i] = c
		s.organs[c] = name
	}
	return s
}

// NumClasses returns the label cardinality of the working set.
func (s *OrganLabelSet) NumClasses() int { return len(s.names) }

// Names returns the ordered organ names of the working set.
func (s *OrganLabelSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Known reports whether a vocabulary label is inside the vocabulary at all.
// Ignored classes are still known; labels outside the vocabulary indicate a
// corrupted archive.
func (s *OrganLabelSet) Known(vocab int) bool {
	return vocab >= 0 && vocab < s.vocabSize
}

// Compact maps a vocabulary label to its compact label. ok is false for
// ignored and out-of-vocabulary labels.
func (s *OrganLabelSet) Compact(vocab int) (label int, ok bool) {
	label, ok = s.compact[vocab]
	return label, ok
}

// Organs returns the compact label -> organ name mapping attached to batches.
// The map is shared and order-stable; callers must not modify it.
func (s *OrganLabelSet) Organs() map[int]string { return s.organs }
