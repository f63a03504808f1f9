package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestActivityGate_FirstFramePasses(t *testing.T) {
	g := NewActivityGate(1.0, 10)
	defer g.Close()

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if ok, _ := g.Allow(&frame); !ok {
		t.Error("first frame should pass")
	}
	if ok, change := g.Allow(&frame); ok {
		t.Errorf("static scene without hand should be held back, change = %f", change)
	}
}

func TestActivityGate_ChangePasses(t *testing.T) {
	g := NewActivityGate(1.0, 10)
	defer g.Close()

	black := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	g.Allow(&black)
	ok, change := g.Allow(&white)
	if !ok {
		t.Errorf("black to white should pass, change = %f", change)
	}
	if change < 50 {
		t.Errorf("change = %f, expected > 50%%", change)
	}
}

func TestActivityGate_HandPresentPasses(t *testing.T) {
	g := NewActivityGate(1.0, 10)
	defer g.Close()

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	g.Allow(&frame)
	g.SetHandPresent(true)
	for i := 0; i < 3; i++ {
		if ok, _ := g.Allow(&frame); !ok {
			t.Fatalf("frame %d should pass while a hand is in view", i)
		}
	}
}

func TestActivityGate_MaxSkips(t *testing.T) {
	g := NewActivityGate(1.0, 2)
	defer g.Close()

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	var passed []bool
	for i := 0; i < 5; i++ {
		ok, _ := g.Allow(&frame)
		passed = append(passed, ok)
	}

	// First frame, two skips, forced pass, skip.
	want := []bool{true, false, false, true, false}
	for i := range want {
		if passed[i] != want[i] {
			t.Errorf("frame %d: passed = %v, want %v", i, passed[i], want[i])
		}
	}
}

func TestActivityGate_EmptyFrame(t *testing.T) {
	g := NewActivityGate(1.0, 2)
	defer g.Close()

	if ok, _ := g.Allow(nil); ok {
		t.Error("nil frame should not pass")
	}
	empty := gocv.NewMat()
	defer empty.Close()
	if ok, _ := g.Allow(&empty); ok {
		t.Error("empty frame should not pass")
	}
}

func TestActivityGate_Reset(t *testing.T) {
	g := NewActivityGate(1.0, 10)

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	g.Allow(&frame)
	g.Reset()
	if g.initialized {
		t.Error("gate should not be initialized after Reset")
	}
	if ok, _ := g.Allow(&frame); !ok {
		t.Error("first frame after reset should pass")
	}

	// Close multiple times should not panic
	g.Close()
	g.Close()
}
