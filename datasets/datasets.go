package datasets

// This package provides the dataset layer of the semantic segmentation
// pipeline: per-subject hyperspectral archives are presented as a flat,
// index-addressable collection of pixel spectra with integer organ labels.
//
// Each data split (train/val/test) was generated upstream by partitioning
// whole pigs, so a subject never appears in more than one split. The package
// trusts split directory membership; it only validates archive contents.
//
// Datasets use lazy loading - construction reads label channels and array
// headers to build a pixel index, while the heavy reflectance arrays are
// decoded on first access and memoized per subject.

// Dimensions is the number of wavelength channels per pixel spectrum. The
// camera records 100 bands from 500nm to 995nm in 5nm steps.
const Dimensions = 100

// Dataset is the minimal contract the batch loaders need from a pixel
// collection. Get must be deterministic and stable across repeated calls;
// shuffling belongs to the loader layer, not here.
type Dataset interface {
	Len() int
	Get(i int) (reflectance []float32, label int, err error)
}
