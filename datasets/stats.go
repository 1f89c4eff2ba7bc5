package datasets

import (
	"encoding/json"
	"fmt"
	"os"
)

// StatsFileName is the name of the statistics artifact inside the data root.
const StatsFileName = "data_stats.json"

// SplitStats holds the normalization scalars of one data split. The values
// are computed offline over all post-filter pixels of the split (see
// cmd/datastats) and persisted as a JSON side channel.
type SplitStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// LoadStats reads the per-split normalization statistics artifact. Keys are
// split names such as "train_synthetic_sampled" or "train". The mapping is
// read once per DataModule lifetime and treated as immutable afterwards.
func LoadStats(path string) (map[string]SplitStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	stats := make(map[string]SplitStats)
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("decode statistics: %w", err)}
	}
	return stats, nil
}
