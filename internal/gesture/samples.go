package gesture

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/signbridge/internal/detector"
)

var (
	// ErrInvalidLetter is returned for training letters that are not a
	// single ASCII letter.
	ErrInvalidLetter = errors.New("invalid letter")
	// ErrStorePersistence is returned when a sample change was applied in
	// memory but could not be written durably.
	ErrStorePersistence = errors.New("sample store persistence failed")
)

// Sample is one training example: a letter and the normalized hand vector.
type Sample struct {
	Letter string          `json:"letter"`
	Vector detector.Vector `json:"vector"`
}

// SamplePersister loads and saves the complete sample set.
type SamplePersister interface {
	LoadSamples() ([]Sample, error)
	SaveSamples(samples []Sample) error
}

// LetterCount is the number of samples stored for one letter.
type LetterCount struct {
	Letter string `json:"letter"`
	Count  int    `json:"count"`
}

// TrainingStatus summarizes the sample set.
type TrainingStatus struct {
	Letters []LetterCount `json:"letters"`
	Total   int           `json:"total"`
	Trained bool          `json:"trained"`
}

// NormalizeLetter trims and upper-cases s and checks that it is one of A-Z.
func NormalizeLetter(s string) (string, error) {
	l := strings.ToUpper(strings.TrimSpace(s))
	if len(l) != 1 || l[0] < 'A' || l[0] > 'Z' {
		return "", fmt.Errorf("%w: %q", ErrInvalidLetter, s)
	}
	return l, nil
}

// SampleStore holds the training samples shared by all sessions.
//
// Writers serialize on writeMu and publish a new slice; readers take the
// current slice under a read lock and never see a partial append. The
// published slice is never modified afterwards.
type SampleStore struct {
	writeMu   sync.Mutex
	mu        sync.RWMutex
	samples   []Sample
	params    Params
	persister SamplePersister
	logger    *zap.Logger
}

// NewSampleStore creates an empty store. persister may be nil for a
// memory-only store.
func NewSampleStore(persister SamplePersister, params Params, logger *zap.Logger) *SampleStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SampleStore{
		params:    params,
		persister: persister,
		logger:    logger,
	}
}

// Load replaces the in-memory samples with the persisted ones. Records with
// an invalid letter are skipped.
func (s *SampleStore) Load() error {
	if s.persister == nil {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	loaded, err := s.persister.LoadSamples()
	if err != nil {
		return fmt.Errorf("%w: load: %w", ErrStorePersistence, err)
	}

	samples := make([]Sample, 0, len(loaded))
	for _, sample := range loaded {
		letter, err := NormalizeLetter(sample.Letter)
		if err != nil {
			s.logger.Warn("skipping stored sample", zap.String("letter", sample.Letter))
			continue
		}
		samples = append(samples, Sample{Letter: letter, Vector: sample.Vector})
	}

	s.publish(samples)
	s.logger.Info("samples loaded", zap.Int("count", len(samples)))
	return nil
}

// Add normalizes hand and appends it under letter. Nothing is stored when
// the letter or the frame is invalid. A persistence failure leaves the
// sample in memory and returns an error matching ErrStorePersistence.
func (s *SampleStore) Add(letter string, hand *detector.HandLandmarks) error {
	l, err := NormalizeLetter(letter)
	if err != nil {
		return err
	}
	v, err := hand.Normalize()
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.Snapshot()
	next := make([]Sample, len(current), len(current)+1)
	copy(next, current)
	next = append(next, Sample{Letter: l, Vector: v})
	s.publish(next)

	s.logger.Debug("sample added", zap.String("letter", l), zap.Int("total", len(next)))
	return s.persist(next)
}

// Clear removes every sample.
func (s *SampleStore) Clear() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.publish(nil)
	s.logger.Info("samples cleared")
	return s.persist(nil)
}

// Snapshot returns the current samples. The returned slice must not be
// modified.
func (s *SampleStore) Snapshot() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.samples
}

// Len returns the number of stored samples.
func (s *SampleStore) Len() int {
	return len(s.Snapshot())
}

// Counts returns the number of samples per letter.
func (s *SampleStore) Counts() map[string]int {
	return countLetters(s.Snapshot())
}

// IsTrained reports whether the sample set is large enough for the
// nearest-neighbour classifier.
func (s *SampleStore) IsTrained() bool {
	return trained(s.Snapshot(), s.params)
}

// Status returns per-letter counts sorted by letter, the total and the
// readiness flag, all from one snapshot.
func (s *SampleStore) Status() TrainingStatus {
	samples := s.Snapshot()
	counts := countLetters(samples)

	letters := make([]LetterCount, 0, len(counts))
	for l, n := range counts {
		letters = append(letters, LetterCount{Letter: l, Count: n})
	}
	sort.Slice(letters, func(i, j int) bool {
		return letters[i].Letter < letters[j].Letter
	})

	return TrainingStatus{
		Letters: letters,
		Total:   len(samples),
		Trained: trained(samples, s.params),
	}
}

func (s *SampleStore) publish(samples []Sample) {
	s.mu.Lock()
	s.samples = samples
	s.mu.Unlock()
}

func (s *SampleStore) persist(samples []Sample) error {
	if s.persister == nil {
		return nil
	}
	if samples == nil {
		samples = []Sample{}
	}
	if err := s.persister.SaveSamples(samples); err != nil {
		s.logger.Error("persist samples", zap.Int("count", len(samples)), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorePersistence, err)
	}
	return nil
}

func countLetters(samples []Sample) map[string]int {
	counts := make(map[string]int)
	for _, sample := range samples {
		counts[sample.Letter]++
	}
	return counts
}

// trained is the readiness predicate: enough samples in total and enough
// letters that each have enough samples.
func trained(samples []Sample, p Params) bool {
	if len(samples) < p.MinTotalSamples {
		return false
	}
	qualified := 0
	for _, n := range countLetters(samples) {
		if n >= p.MinSamplesPerLetter {
			qualified++
		}
	}
	return qualified >= p.MinTrainedLetters
}
