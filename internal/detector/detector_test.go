package detector

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func sampleHand() HandLandmarks {
	hand := HandLandmarks{Handedness: "Right", Score: 0.9}

	// Set wrist at arbitrary position
	hand.Points[Wrist] = Point3D{X: 100.0, Y: 200.0, Z: 50.0}
	// Middle MCP 50 units from the wrist
	hand.Points[MiddleMCP] = Point3D{X: 130.0, Y: 240.0, Z: 50.0}

	for i := 1; i < NumLandmarks; i++ {
		if i != MiddleMCP {
			hand.Points[i] = Point3D{
				X: 100.0 + float64(i)*10.0,
				Y: 200.0 + float64(i)*5.0,
				Z: 50.0 + float64(i)*2.0,
			}
		}
	}
	return hand
}

func TestHandLandmarks_Normalize(t *testing.T) {
	t.Run("wrist at origin after normalization", func(t *testing.T) {
		hand := sampleHand()

		v, err := hand.Normalize()
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}

		for axis := 0; axis < 3; axis++ {
			if math.Abs(v[axis]) > epsilon {
				t.Errorf("expected wrist axis %d to be 0, got %f", axis, v[axis])
			}
		}
	})

	t.Run("distance from wrist to middle MCP is 1.0", func(t *testing.T) {
		hand := sampleHand()

		v, err := hand.Normalize()
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}

		i := MiddleMCP * 3
		distance := math.Sqrt(v[i]*v[i] + v[i+1]*v[i+1] + v[i+2]*v[i+2])
		if math.Abs(distance-1.0) > epsilon {
			t.Errorf("expected distance from wrist to middle MCP to be 1.0, got %f", distance)
		}
	})

	t.Run("each axis is offset from wrist over palm size", func(t *testing.T) {
		hand := sampleHand()

		v, err := hand.Normalize()
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}

		// Palm size is 50: sqrt(30^2 + 40^2)
		want := (hand.Points[IndexTip].Y - hand.Points[Wrist].Y) / 50.0
		if got := v[IndexTip*3+1]; math.Abs(got-want) > epsilon {
			t.Errorf("index tip Y = %f, want %f", got, want)
		}
	})

	t.Run("degenerate palm fails", func(t *testing.T) {
		hand := sampleHand()
		hand.Points[MiddleMCP] = hand.Points[Wrist]

		_, err := hand.Normalize()
		if !errors.Is(err, ErrDegenerateGeometry) {
			t.Errorf("expected ErrDegenerateGeometry, got %v", err)
		}
	})

	t.Run("palm just above epsilon succeeds", func(t *testing.T) {
		hand := sampleHand()
		hand.Points[MiddleMCP] = Point3D{
			X: hand.Points[Wrist].X + 2e-6,
			Y: hand.Points[Wrist].Y,
			Z: hand.Points[Wrist].Z,
		}

		if _, err := hand.Normalize(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("nil hand is an invalid frame", func(t *testing.T) {
		var hand *HandLandmarks
		if _, err := hand.Normalize(); !errors.Is(err, ErrInvalidFrame) {
			t.Errorf("expected ErrInvalidFrame, got %v", err)
		}
	})
}

func TestNormalize_ScaleTranslationInvariant(t *testing.T) {
	transforms := []struct {
		name  string
		scale float64
		shift Point3D
	}{
		{"identity", 1, Point3D{}},
		{"shrink", 0.25, Point3D{X: 0.1, Y: 0.2}},
		{"grow and move", 3.5, Point3D{X: -4, Y: 7, Z: 1.5}},
		{"tiny", 0.01, Point3D{X: 0.5, Y: 0.5, Z: -0.2}},
	}

	for _, letter := range FixtureLetters() {
		base, _ := LetterLandmarks(letter)
		want, err := base.Normalize()
		if err != nil {
			t.Fatalf("%s: Normalize() error = %v", letter, err)
		}

		for _, tt := range transforms {
			t.Run(letter+"/"+tt.name, func(t *testing.T) {
				got, err := base.Transform(tt.scale, tt.shift).Normalize()
				if err != nil {
					t.Fatalf("Normalize() error = %v", err)
				}
				for i := range want {
					if math.Abs(got[i]-want[i]) > 1e-9 {
						t.Fatalf("component %d = %f, want %f", i, got[i], want[i])
					}
				}
			})
		}
	}
}

func TestFromPoints(t *testing.T) {
	points := make([]Point3D, NumLandmarks)
	for i := range points {
		points[i] = Point3D{X: float64(i), Y: float64(i) * 2}
	}

	t.Run("accepts 21 points", func(t *testing.T) {
		h, err := FromPoints(points)
		if err != nil {
			t.Fatalf("FromPoints() error = %v", err)
		}
		if h.Points[PinkyTip].X != 20 {
			t.Errorf("expected pinky tip X 20, got %f", h.Points[PinkyTip].X)
		}
	})

	t.Run("rejects short frames", func(t *testing.T) {
		_, err := FromPoints(points[:20])
		if !errors.Is(err, ErrInvalidFrame) {
			t.Errorf("expected ErrInvalidFrame, got %v", err)
		}
	})

	t.Run("rejects empty frames", func(t *testing.T) {
		_, err := FromPoints(nil)
		if !errors.Is(err, ErrInvalidFrame) {
			t.Errorf("expected ErrInvalidFrame, got %v", err)
		}
	})

	t.Run("rejects non-finite coordinates", func(t *testing.T) {
		for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			broken := append([]Point3D{}, points...)
			broken[IndexTip].Y = bad
			if _, err := FromPoints(broken); !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("%v: expected ErrInvalidFrame, got %v", bad, err)
			}
		}
	})

	t.Run("ignores extra points", func(t *testing.T) {
		extra := append(append([]Point3D{}, points...), Point3D{X: 99})
		h, err := FromPoints(extra)
		if err != nil {
			t.Fatalf("FromPoints() error = %v", err)
		}
		if h.Points[PinkyTip].X != 20 {
			t.Errorf("expected pinky tip X 20, got %f", h.Points[PinkyTip].X)
		}
	})
}

func TestNormalize_Overflow(t *testing.T) {
	// Wrist and the other points sit at opposite ends of the float range,
	// so the palm size itself overflows.
	var infinitePalm HandLandmarks
	for i := range infinitePalm.Points {
		infinitePalm.Points[i] = Point3D{X: 1e308}
	}
	infinitePalm.Points[Wrist] = Point3D{X: -1e308}

	// Finite palm size, but one coordinate difference overflows.
	var farTip HandLandmarks
	farTip.Points[Wrist] = Point3D{X: -1e308}
	farTip.Points[IndexTip] = Point3D{X: 1e308}

	for name, hand := range map[string]*HandLandmarks{"palm": &infinitePalm, "tip": &farTip} {
		t.Run(name, func(t *testing.T) {
			v, err := hand.Normalize()
			if !errors.Is(err, ErrDegenerateGeometry) {
				t.Fatalf("expected ErrDegenerateGeometry, got %v", err)
			}
			if v != (Vector{}) {
				t.Error("expected zero vector on failure")
			}
		})
	}

	if ValidPalmSize(math.Inf(1)) || ValidPalmSize(math.NaN()) || ValidPalmSize(MinPalmSize/2) {
		t.Error("ValidPalmSize accepted an unusable size")
	}
	if !ValidPalmSize(1) {
		t.Error("ValidPalmSize rejected 1")
	}
}

func TestEuclideanDistance(t *testing.T) {
	var a, b Vector
	if d := EuclideanDistance(&a, &b); d != 0 {
		t.Errorf("expected 0 for identical vectors, got %f", d)
	}

	b[0] = 3
	b[VectorLen-1] = 4
	if d := EuclideanDistance(&a, &b); math.Abs(d-5) > epsilon {
		t.Errorf("expected 5, got %f", d)
	}
}

func TestParseResponse(t *testing.T) {
	full := `{"x":0.1,"y":0.2,"z":0}`
	points := full
	for i := 1; i < NumLandmarks; i++ {
		points += "," + full
	}

	t.Run("filters by score and skeleton size", func(t *testing.T) {
		line := []byte(`{"hands":[` +
			`{"points":[` + points + `],"handedness":"Left","score":0.9},` +
			`{"points":[` + points + `],"handedness":"Right","score":0.2},` +
			`{"points":[` + full + `],"handedness":"Right","score":0.99}]}`)

		hands, err := parseResponse(line, 0.5)
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if hands[0].Handedness != "Left" {
			t.Errorf("expected Left hand, got %s", hands[0].Handedness)
		}
	})

	t.Run("service error", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"hands":[],"error":"model missing"}`), 0.5)
		if err == nil {
			t.Error("expected error from service error field")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := parseResponse([]byte(`{nope`), 0.5); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
		if FirstHand(hands) != nil {
			t.Error("expected no first hand")
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()

		a, _ := LetterLandmarks("A")
		b, _ := LetterLandmarks("B")
		mock.SetHands([]HandLandmarks{a, b})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if first := FirstHand(hands); first == nil || first.Points != a.Points {
			t.Error("expected first hand to be the A shape")
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestLetterLandmarks(t *testing.T) {
	for _, letter := range FixtureLetters() {
		h, ok := LetterLandmarks(letter)
		if !ok {
			t.Fatalf("missing fixture for %s", letter)
		}
		if math.Abs(h.PalmSize()-1.0) > epsilon {
			t.Errorf("%s: expected palm size 1.0, got %f", letter, h.PalmSize())
		}
	}

	if _, ok := LetterLandmarks("Z"); ok {
		t.Error("expected no fixture for Z")
	}
}
