package datasets

import "fmt"

// ConfigurationError reports a missing or malformed statistics artifact or
// configuration field. A bad statistic invalidates the whole training run,
// so these always surface at construction time.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// DataIntegrityError reports a subject archive whose contents are missing or
// inconsistent. These abort the current epoch instead of skipping the sample.
type DataIntegrityError struct {
	Archive string
	Reason  string
	Err     error
}

func (e *DataIntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data integrity: %s: %s: %v", e.Archive, e.Reason, e.Err)
	}
	return fmt.Sprintf("data integrity: %s: %s", e.Archive, e.Reason)
}

func (e *DataIntegrityError) Unwrap() error { return e.Err }

// ShapeMismatchError reports a reflectance vector whose channel dimension
// does not match the spectral dimensionality expected by the collator.
type ShapeMismatchError struct {
	Index int
	Got   int
	Want  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch at item %d: got %d channels, want %d", e.Index, e.Got, e.Want)
}
