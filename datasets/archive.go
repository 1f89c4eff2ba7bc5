package datasets

import (
	"archive/zip"
	"fmt"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// Subject archives are numpy .npz files (a zip of .npy entries) with two
// parallel arrays: a float reflectance array of shape pixels x Dimensions and
// an integer label array of length pixels. Archives are opened read-only and
// never mutated.
const (
	reflectanceEntry = "reflectance.npy"
	labelsEntry      = "labels.npy"
)

// subjectArrays holds the fully decoded contents of one subject archive.
type subjectArrays struct {
	reflectance *mat.Dense
	labels      []int64
}

// readIndex reads only the label channel and the reflectance header of an
// archive. This is enough to build the pixel index and validate the archive
// without decoding the reflectance payload.
func readIndex(path string) ([]int64, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &DataIntegrityError{Archive: path, Reason: "open archive", Err: err}
	}
	defer zr.Close()

	var labels []int64
	rows, cols := -1, -1
	for _, f := range zr.File {
		switch f.Name {
		case labelsEntry:
			rc, err := f.Open()
			if err != nil {
				return nil, &DataIntegrityError{Archive: path, Reason: "open label channel", Err: err}
			}
			err = npyio.Read(rc, &labels)
			rc.Close()
			if err != nil {
				return nil, &DataIntegrityError{Archive: path, Reason: "decode label channel", Err: err}
			}
		case reflectanceEntry:
			rc, err := f.Open()
			if err != nil {
				return nil, &DataIntegrityError{Archive: path, Reason: "open reflectance channel", Err: err}
			}
			r, err := npyio.NewReader(rc)
			if err != nil {
				rc.Close()
				return nil, &DataIntegrityError{Archive: path, Reason: "decode reflectance header", Err: err}
			}
			shape := r.Header.Descr.Shape
			rc.Close()
			if len(shape) != 2 {
				return nil, &DataIntegrityError{Archive: path, Reason: fmt.Sprintf("reflectance array has %d dimensions, want 2", len(shape))}
			}
			rows, cols = shape[0], shape[1]
		}
	}
	if rows < 0 {
		return nil, &DataIntegrityError{Archive: path, Reason: "missing reflectance channel"}
	}
	if labels == nil {
		return nil, &DataIntegrityError{Archive: path, Reason: "missing label channel"}
	}
	if cols != Dimensions {
		return nil, &DataIntegrityError{Archive: path, Reason: fmt.Sprintf("reflectance has %d channels, want %d", cols, Dimensions)}
	}
	if rows != len(labels) {
		return nil, &DataIntegrityError{Archive: path, Reason: fmt.Sprintf("pixel count mismatch: %d reflectance rows, %d labels", rows, len(labels))}
	}
	return labels, nil
}

// readArchive decodes both channels of a subject archive and re-validates
// their shapes.
func readArchive(path string) (*subjectArrays, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &DataIntegrityError{Archive: path, Reason: "open archive", Err: err}
	}
	defer zr.Close()

	var refl *mat.Dense
	var labels []int64
	for _, f := range zr.File {
		switch f.Name {
		case reflectanceEntry:
			rc, err := f.Open()
			if err != nil {
				return nil, &DataIntegrityError{Archive: path, Reason: "open reflectance channel", Err: err}
			}
			var m mat.Dense
			err = npyio.Read(rc, &m)
			rc.Close()
			if err != nil {
				return nil, &DataIntegrityError{Archive: path, Reason: "decode reflectance channel", Err: err}
			}
			refl = &m
		case labelsEntry:
			rc, err := f.Open()
			if err != nil {
				return nil, &DataIntegrityError{Archive: path, Reason: "open label channel", Err: err}
			}
			err = npyio.Read(rc, &labels)
			rc.Close()
			if err != nil {
				return nil, &DataIntegrityError{Archive: path, Reason: "decode label channel", Err: err}
			}
		}
	}
	if refl == nil {
		return nil, &DataIntegrityError{Archive: path, Reason: "missing reflectance channel"}
	}
	if labels == nil {
		return nil, &DataIntegrityError{Archive: path, Reason: "missing label channel"}
	}
	rows, cols := refl.Dims()
	if cols != Dimensions {
		return nil, &DataIntegrityError{Archive: path, Reason: fmt.Sprintf("reflectance has %d channels, want %d", cols, Dimensions)}
	}
	if rows != len(labels) {
		return nil, &DataIntegrityError{Archive: path, Reason: fmt.Sprintf("pixel count mismatch: %d reflectance rows, %d labels", rows, len(labels))}
	}
	return &subjectArrays{reflectance: refl, labels: labels}, nil
}

// ReadSubject decodes one subject archive into its raw reflectance rows and
// vocabulary labels, without filtering or normalization. The returned rows
// are views into one backing array; callers must not modify them.
func ReadSubject(path string) (reflectance [][]float64, labels []int64, err error) {
	arrs, err := readArchive(path)
	if err != nil {
		return nil, nil, err
	}
	rows, _ := arrs.reflectance.Dims()
	reflectance = make([][]float64, rows)
	for i := 0; i < rows; i++ {
		reflectance[i] = arrs.reflectance.RawRowView(i)
	}
	return reflectance, arrs.labels, nil
}
