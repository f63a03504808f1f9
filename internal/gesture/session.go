package gesture

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/signbridge/internal/detector"
)

// Tick is the outcome of processing one frame.
type Tick struct {
	Stable         string           `json:"stable,omitempty"`
	MeanConfidence float64          `json:"mean_confidence"`
	Current        Result           `json:"current"`
	Emitted        string           `json:"emitted,omitempty"`
	Text           string           `json:"text"`
	Recording      *RecordingStatus `json:"recording,omitempty"`
}

// LetterEvent is delivered to Session.OnEmit for every emitted letter.
type LetterEvent struct {
	SessionID  string    `json:"session_id"`
	Letter     string    `json:"letter"`
	Confidence float64   `json:"confidence"`
	Text       string    `json:"text"`
	At         time.Time `json:"at"`
}

// Session is one recognition stream. Ticks are processed one at a time;
// calls from several goroutines are serialized.
type Session struct {
	id         string
	classifier Classifier
	stabilizer *Stabilizer
	recorder   *Recorder
	logger     *zap.Logger
	now        func() time.Time

	mu sync.Mutex

	// OnEmit is called after a letter was appended to the text. It runs
	// outside the session lock.
	OnEmit func(LetterEvent)
}

// NewSession creates a session that classifies frames with classifier and
// records training samples into samples.
func NewSession(id string, classifier Classifier, samples *SampleStore, params Params, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session", id))
	return &Session{
		id:         id,
		classifier: classifier,
		stabilizer: NewStabilizer(params),
		recorder:   NewRecorder(samples, params, logger),
		logger:     logger,
		now:        time.Now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetClock replaces the time source used for the hold and recording gates.
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ProcessTick handles one frame; hand is nil when no hand was detected.
//
// A nil hand always empties the vote window. While a recording is active
// the frame goes to the recorder only.
func (s *Session) ProcessTick(hand *detector.HandLandmarks) Tick {
	s.mu.Lock()
	now := s.now()

	if hand == nil {
		s.stabilizer.ClearVotes()
	}

	if s.recorder.Active() {
		status, err := s.recorder.Offer(hand, now)
		if err != nil {
			s.logger.Warn("recording sample", zap.Error(err))
		}
		tick := Tick{Text: s.stabilizer.Text(), Recording: &status}
		s.mu.Unlock()
		return tick
	}

	if hand == nil {
		tick := Tick{Text: s.stabilizer.Text()}
		s.mu.Unlock()
		return tick
	}

	current := s.classifier.Classify(hand)
	state := s.stabilizer.Push(current, now)
	tick := Tick{
		Stable:         state.Stable,
		MeanConfidence: state.MeanConfidence,
		Current:        current,
		Emitted:        state.Emitted,
		Text:           s.stabilizer.Text(),
	}
	onEmit := s.OnEmit
	s.mu.Unlock()

	if tick.Emitted != "" {
		s.logger.Debug("letter emitted",
			zap.String("letter", tick.Emitted),
			zap.Float64("mean_confidence", tick.MeanConfidence))
		if onEmit != nil {
			onEmit(LetterEvent{
				SessionID:  s.id,
				Letter:     tick.Emitted,
				Confidence: tick.MeanConfidence,
				Text:       tick.Text,
				At:         now,
			})
		}
	}
	return tick
}

// Reset clears votes, text and emission state and discards an active
// recording. Samples already recorded are kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder.Stop()
	s.stabilizer.Reset()
	s.logger.Debug("session reset")
}

// Clear empties the text, the last emitted letter and the votes.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stabilizer.Reset()
}

// Commit returns the accumulated text and starts a new one. The next
// stable letter is emitted immediately even if it repeats the last one.
func (s *Session) Commit() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := s.stabilizer.TakeText()
	s.stabilizer.Forget()
	if text != "" {
		s.logger.Info("text committed", zap.Int("length", len(text)))
	}
	return text
}

// Text returns the accumulated text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stabilizer.Text()
}

// StartRecording switches the session to training mode for letter.
func (s *Session) StartRecording(letter string) (RecordingStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder.Start(letter)
}

// StopRecording leaves training mode.
func (s *Session) StopRecording() RecordingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder.Stop()
}

// Recording returns the current or most recent recording status.
func (s *Session) Recording() RecordingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder.Status()
}
