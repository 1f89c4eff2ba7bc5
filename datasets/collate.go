package datasets

import "github.com/gomlx/gomlx/pkg/core/tensors"

// Item is one (reflectance, label) pair produced by a Dataset.
type Item struct {
	Reflectance []float32
	Label       int
}

// Batch is a fixed-size collection of pixel spectra with their compact organ
// labels and the shared label -> organ name mapping. Reflectance is stored in
// one flat row-major buffer of Size*Channels values so it converts cheaply
// into tensors. Batches are produced fresh per iteration and never persisted.
type Batch struct {
	Reflectance []float32
	Labels      []int32
	Organs      map[int]string
	Size        int
	Channels    int
}

// Collate merges a list of items into one batch, stacking reflectance into a
// (len(items), Dimensions) buffer and labels into a parallel vector. It is a
// pure function with no state or I/O. It fails with ShapeMismatchError when
// any input vector's channel dimension differs from Dimensions.
func Collate(items []Item, organs map[int]string) (*Batch, error) {
	b := &Batch{
		Reflectance: make([]float32, len(items)*Dimensions),
		Labels:      make([]int32, len(items)),
		Organs:      organs,
		Size:        len(items),
		Channels:    Dimensions,
	}
	for i, it := range items {
		if len(it.Reflectance) != Dimensions {
			return nil, &ShapeMismatchError{Index: i, Got: len(it.Reflectance), Want: Dimensions}
		}
		copy(b.Reflectance[i*Dimensions:], it.Reflectance)
		b.Labels[i] = int32(it.Label)
	}
	return b, nil
}

// Row returns the i-th spectrum as a view into the flat buffer.
func (b *Batch) Row(i int) []float32 {
	return b.Reflectance[i*b.Channels : (i+1)*b.Channels]
}

// Tensors converts the batch into gomlx tensors: reflectance with shape
// (Size, Channels) and labels with shape (Size).
func (b *Batch) Tensors() (reflectance *tensors.Tensor, labels *tensors.Tensor, err error) {
	if b.Size == 0 {
		return tensors.FromAnyValue(make([][]float32, 0)), tensors.FromAnyValue(make([]int32, 0)), nil
	}
	rows := make([][]float32, b.Size)
	for i := range rows {
		rows[i] = b.Row(i)
	}
	return tensors.FromAnyValue(rows), tensors.FromAnyValue(b.Labels), nil
}
