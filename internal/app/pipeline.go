package app

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/signbridge/internal/capture"
	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/gesture"
)

// runPipeline is the main detection loop. Each tick reads one frame and
// turns it into at most one Session tick:
//
//  1. frames with no activity and no hand in view are skipped
//  2. the detector returns landmarks, only the first hand is used
//  3. the session classifies, stabilizes and emits
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.Camera.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			if err := a.step(); errors.Is(err, capture.ErrNoFrames) {
				a.logger.Info("frame source exhausted")
				<-stopCh
				return
			}
		}
	}
}

// step processes one frame.
func (a *App) step() error {
	a.mu.RLock()
	camera, det := a.camera, a.detector
	a.mu.RUnlock()

	frame, err := camera.ReadFrame()
	if err != nil {
		if !errors.Is(err, capture.ErrNoFrames) {
			a.logger.Warn("reading frame", zap.Error(err))
		}
		return err
	}
	defer frame.Close()

	if ok, _ := a.gate.Allow(frame); !ok {
		return nil
	}

	hands, err := det.Detect(frame)
	if err != nil {
		// A failed detection counts as a frame without a hand.
		a.logger.Debug("detecting hands", zap.Error(err))
		hands = nil
	}

	hand := detector.FirstHand(hands)
	a.gate.SetHandPresent(hand != nil)
	a.deliver(a.session.ProcessTick(hand))
	return nil
}

func (a *App) deliver(tick gesture.Tick) {
	a.mu.Lock()
	a.last = tick
	fn := a.onTick
	a.mu.Unlock()
	if fn != nil {
		fn(tick)
	}
}
