// Package app runs the local camera recognition pipeline for SignBridge.
package app

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/signbridge/internal/capture"
	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/emitter"
	"github.com/ayusman/signbridge/internal/gesture"
	"github.com/ayusman/signbridge/internal/store"
)

// Pipeline defaults.
const (
	// DefaultActivityThreshold is the percentage of changed pixels that
	// wakes the detector while no hand is in view.
	DefaultActivityThreshold = 1.0
	// DefaultMaxSkips bounds how many quiet frames in a row are not sent
	// to the detector.
	DefaultMaxSkips = 5
)

// TranscriptWriter stores committed text.
type TranscriptWriter interface {
	Create(t *store.Transcript) error
}

// Config holds configuration options for the application.
type Config struct {
	Camera            capture.Config
	Detector          detector.Config
	Params            gesture.Params
	ActivityThreshold float64
	MaxSkips          int
}

// App owns the local camera session: it reads frames, extracts the first
// hand and feeds it to a gesture.Session.
type App struct {
	config      Config
	camera      capture.Camera
	gate        *capture.ActivityGate
	detector    detector.Detector
	session     *gesture.Session
	transcripts TranscriptWriter
	emitter     emitter.Emitter
	logger      *zap.Logger

	mu      sync.RWMutex
	enabled bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	onTick  func(gesture.Tick)
	last    gesture.Tick
}

// New creates an App. classifier and samples are shared with the other
// sessions of the process; transcripts may be nil.
func New(config Config, classifier gesture.Classifier, samples *gesture.SampleStore, transcripts TranscriptWriter, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ActivityThreshold <= 0 {
		config.ActivityThreshold = DefaultActivityThreshold
	}
	if config.MaxSkips <= 0 {
		config.MaxSkips = DefaultMaxSkips
	}
	if config.Camera.FPS <= 0 {
		config.Camera.FPS = capture.DefaultConfig().FPS
	}
	logger = logger.Named("camera")

	a := &App{
		config:      config,
		camera:      capture.NewCamera(config.Camera),
		gate:        capture.NewActivityGate(config.ActivityThreshold, config.MaxSkips),
		session:     gesture.NewSession(uuid.NewString(), classifier, samples, config.Params, logger),
		transcripts: transcripts,
		emitter:     emitter.Nop{},
		logger:      logger,
		enabled:     true,
	}
	a.session.OnEmit = a.publish

	// Try MediaPipe first, fall back to the mock detector.
	if mp, err := detector.NewMediaPipeDetector(config.Detector, logger); err == nil {
		a.detector = mp
		logger.Info("using mediapipe hand detection")
	} else {
		logger.Warn("mediapipe not available, using mock detector", zap.Error(err))
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetEnabled pauses or resumes recognition without releasing the camera.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frames are being processed.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the frame source. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetEmitter sets where emitted letters are published.
func (a *App) SetEmitter(e emitter.Emitter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if e == nil {
		e = emitter.Nop{}
	}
	a.emitter = e
}

// OnTick registers a callback invoked after every processed frame.
func (a *App) OnTick(fn func(gesture.Tick)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onTick = fn
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Start opens the camera and begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	a.logger.Info("detection pipeline started", zap.Int("fps", a.config.Camera.FPS))
	return nil
}

// Stop halts the pipeline, commits the remaining text as a transcript and
// resets the session. It is safe to call Stop when not running.
func (a *App) Stop() error {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return nil
	}
	close(stopCh)
	<-doneCh

	var errs []error
	if _, err := a.commit(); err != nil {
		errs = append(errs, err)
	}
	a.session.Reset()

	a.mu.RLock()
	camera, det := a.camera, a.detector
	a.mu.RUnlock()

	if err := camera.Close(); err != nil {
		a.logger.Warn("closing camera", zap.Error(err))
		errs = append(errs, err)
	}
	a.gate.Reset()
	if det != nil {
		if err := det.Close(); err != nil {
			a.logger.Warn("closing detector", zap.Error(err))
		}
	}

	a.logger.Info("detection pipeline stopped")
	return errors.Join(errs...)
}

// Close stops the pipeline and releases the activity gate.
func (a *App) Close() error {
	err := a.Stop()
	a.gate.Close()
	return err
}

// Commit stores the accumulated text as a transcript and starts a new one.
func (a *App) Commit() (*store.Transcript, error) {
	return a.commit()
}

// Clear empties the accumulated text and the vote window.
func (a *App) Clear() {
	a.session.Clear()
}

// Session returns the camera session.
func (a *App) Session() *gesture.Session {
	return a.session
}

// LastTick returns the most recent tick produced by the pipeline.
func (a *App) LastTick() gesture.Tick {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

func (a *App) commit() (*store.Transcript, error) {
	text := a.session.Commit()
	if text == "" || a.transcripts == nil {
		return nil, nil
	}
	t := &store.Transcript{
		SessionID: a.session.ID(),
		Text:      text,
		Source:    store.SourceCamera,
	}
	if err := a.transcripts.Create(t); err != nil {
		a.logger.Error("saving transcript", zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (a *App) publish(event gesture.LetterEvent) {
	a.mu.RLock()
	e := a.emitter
	a.mu.RUnlock()
	if err := e.Publish(event); err != nil {
		a.logger.Warn("publishing letter", zap.String("letter", event.Letter), zap.Error(err))
	}
}
