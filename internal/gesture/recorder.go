package gesture

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/signbridge/internal/detector"
)

// ErrRecordingActive is returned when a recording is started while another
// one is still running.
var ErrRecordingActive = errors.New("recording already active")

// RecordingStatus describes a training recording.
type RecordingStatus struct {
	Active bool   `json:"active"`
	Letter string `json:"letter"`
	Count  int    `json:"count"`
	Target int    `json:"target"`
}

// Recorder collects training samples for one letter from consecutive
// frames, spaced by at least RecordingInterval, until RecordingTarget
// samples are stored.
type Recorder struct {
	store  *SampleStore
	params Params
	logger *zap.Logger

	status  RecordingStatus
	last    time.Time
	started bool
}

// NewRecorder creates an idle Recorder that writes to store.
func NewRecorder(store *SampleStore, params Params, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		store:  store,
		params: params,
		logger: logger,
		status: RecordingStatus{Target: params.RecordingTarget},
	}
}

// Start begins recording samples for letter.
func (r *Recorder) Start(letter string) (RecordingStatus, error) {
	if r.status.Active {
		return r.status, ErrRecordingActive
	}
	l, err := NormalizeLetter(letter)
	if err != nil {
		return r.status, err
	}

	r.status = RecordingStatus{Active: true, Letter: l, Target: r.params.RecordingTarget}
	r.started = false
	r.logger.Info("recording started", zap.String("letter", l), zap.Int("target", r.status.Target))
	return r.status, nil
}

// Active reports whether a recording is running.
func (r *Recorder) Active() bool {
	return r.status.Active
}

// Status returns the current or most recent recording status.
func (r *Recorder) Status() RecordingStatus {
	return r.status
}

// Offer feeds one frame observed at now. Frames without a hand, frames
// arriving before the spacing interval and frames that cannot be
// normalized are skipped. The returned error is non-nil only when a sample
// could not be stored or persisted; a sample that failed only to persist
// still counts.
func (r *Recorder) Offer(hand *detector.HandLandmarks, now time.Time) (RecordingStatus, error) {
	if !r.status.Active || hand == nil {
		return r.status, nil
	}
	if r.started && now.Sub(r.last) < r.params.RecordingInterval {
		return r.status, nil
	}

	err := r.store.Add(r.status.Letter, hand)
	if err != nil && !errors.Is(err, ErrStorePersistence) {
		return r.status, err
	}

	r.status.Count++
	r.last = now
	r.started = true

	if r.status.Count >= r.status.Target {
		r.status.Active = false
		r.logger.Info("recording finished",
			zap.String("letter", r.status.Letter),
			zap.Int("count", r.status.Count))
	}
	return r.status, err
}

// Stop ends the recording. Samples already stored are kept.
func (r *Recorder) Stop() RecordingStatus {
	if r.status.Active {
		r.status.Active = false
		r.logger.Info("recording stopped",
			zap.String("letter", r.status.Letter),
			zap.Int("count", r.status.Count))
	}
	return r.status
}
