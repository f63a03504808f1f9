package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/signbridge/internal/gesture"
)

// SamplesKey is the settings key holding the trained sample set.
const SamplesKey = "signbridge_asl_trained"

// SampleRepository persists the whole sample set as one JSON array of
// {letter, vector} records under SamplesKey.
type SampleRepository struct {
	settings *SettingsRepository
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{settings: s.Settings()}
}

// LoadSamples returns the stored samples. A missing key yields no samples.
func (r *SampleRepository) LoadSamples() ([]gesture.Sample, error) {
	raw, err := r.settings.Get(SamplesKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var samples []gesture.Sample
	if err := json.Unmarshal([]byte(raw), &samples); err != nil {
		return nil, fmt.Errorf("failed to decode samples: %w", err)
	}
	return samples, nil
}

// SaveSamples replaces the stored sample set.
func (r *SampleRepository) SaveSamples(samples []gesture.Sample) error {
	if samples == nil {
		samples = []gesture.Sample{}
	}
	data, err := json.Marshal(samples)
	if err != nil {
		return fmt.Errorf("failed to encode samples: %w", err)
	}
	return r.settings.Put(SamplesKey, string(data))
}
