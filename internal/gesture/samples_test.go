package gesture

import (
	"errors"
	"sync"
	"testing"

	"github.com/ayusman/signbridge/internal/detector"
)

type memoryPersister struct {
	mu      sync.Mutex
	saved   []Sample
	saves   int
	failErr error
}

func (p *memoryPersister) LoadSamples() ([]Sample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Sample(nil), p.saved...), nil
}

func (p *memoryPersister) SaveSamples(samples []Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.failErr != nil {
		return p.failErr
	}
	p.saved = append([]Sample(nil), samples...)
	return nil
}

func addN(t *testing.T, s *SampleStore, letter string, n int) {
	t.Helper()
	base := fixture(t, letter)
	for i := 0; i < n; i++ {
		h := detector.Jitter(*base, i, 0.01)
		if err := s.Add(letter, &h); err != nil {
			t.Fatalf("Add(%s) error = %v", letter, err)
		}
	}
}

func TestNormalizeLetter(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a", "A", false},
		{" b ", "B", false},
		{"Z", "Z", false},
		{"", "", true},
		{"AB", "", true},
		{"1", "", true},
		{"é", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeLetter(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidLetter) {
				t.Errorf("NormalizeLetter(%q): expected ErrInvalidLetter, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizeLetter(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestSampleStore_Add(t *testing.T) {
	t.Run("stores upper-cased letter and vector", func(t *testing.T) {
		p := &memoryPersister{}
		s := NewSampleStore(p, DefaultParams(), nil)

		if err := s.Add("b", fixture(t, "B")); err != nil {
			t.Fatalf("Add() error = %v", err)
		}

		snap := s.Snapshot()
		if len(snap) != 1 || snap[0].Letter != "B" {
			t.Fatalf("unexpected samples %+v", snap)
		}
		want, _ := fixture(t, "B").Normalize()
		if snap[0].Vector != want {
			t.Error("stored vector differs from normalized frame")
		}
		if len(p.saved) != 1 {
			t.Errorf("expected 1 persisted sample, got %d", len(p.saved))
		}
	})

	t.Run("rejects invalid letter", func(t *testing.T) {
		s := NewSampleStore(nil, DefaultParams(), nil)
		if err := s.Add("", fixture(t, "A")); !errors.Is(err, ErrInvalidLetter) {
			t.Errorf("expected ErrInvalidLetter, got %v", err)
		}
		if s.Len() != 0 {
			t.Errorf("expected nothing stored, got %d", s.Len())
		}
	})

	t.Run("rejects degenerate frame", func(t *testing.T) {
		s := NewSampleStore(nil, DefaultParams(), nil)
		h := fixture(t, "A")
		h.Points[detector.MiddleMCP] = h.Points[detector.Wrist]
		if err := s.Add("A", h); !errors.Is(err, detector.ErrDegenerateGeometry) {
			t.Errorf("expected ErrDegenerateGeometry, got %v", err)
		}
		if err := s.Add("A", nil); !errors.Is(err, detector.ErrInvalidFrame) {
			t.Errorf("expected ErrInvalidFrame, got %v", err)
		}
		if s.Len() != 0 {
			t.Errorf("expected nothing stored, got %d", s.Len())
		}
	})

	t.Run("persistence failure keeps sample in memory", func(t *testing.T) {
		diskErr := errors.New("disk full")
		p := &memoryPersister{failErr: diskErr}
		s := NewSampleStore(p, DefaultParams(), nil)

		err := s.Add("A", fixture(t, "A"))
		if !errors.Is(err, ErrStorePersistence) {
			t.Errorf("expected ErrStorePersistence, got %v", err)
		}
		if !errors.Is(err, diskErr) {
			t.Errorf("expected wrapped disk error, got %v", err)
		}
		if s.Len() != 1 {
			t.Errorf("expected sample kept in memory, got %d", s.Len())
		}
	})
}

func TestSampleStore_IsTrained(t *testing.T) {
	s := NewSampleStore(nil, DefaultParams(), nil)

	if s.IsTrained() {
		t.Fatal("empty store must not be trained")
	}

	addN(t, s, "A", 5)
	addN(t, s, "B", 4)
	if s.IsTrained() {
		t.Fatal("9 samples must not be trained")
	}

	addN(t, s, "B", 1)
	if !s.IsTrained() {
		t.Fatal("10 samples over two full letters must be trained")
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if s.IsTrained() {
		t.Fatal("cleared store must not be trained")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestSampleStore_IsTrained_OneLetter(t *testing.T) {
	s := NewSampleStore(nil, DefaultParams(), nil)

	addN(t, s, "A", 12)
	if s.IsTrained() {
		t.Error("one letter must not be trained")
	}

	// A second letter below the per-letter minimum is not enough either.
	addN(t, s, "B", 4)
	if s.IsTrained() {
		t.Error("second letter with 4 samples must not be trained")
	}
}

func TestSampleStore_Status(t *testing.T) {
	s := NewSampleStore(nil, DefaultParams(), nil)
	addN(t, s, "C", 2)
	addN(t, s, "A", 3)

	status := s.Status()
	if status.Total != 5 || status.Trained {
		t.Errorf("unexpected status %+v", status)
	}
	if len(status.Letters) != 2 || status.Letters[0].Letter != "A" || status.Letters[1].Count != 2 {
		t.Errorf("expected letters sorted A, C, got %+v", status.Letters)
	}

	counts := s.Counts()
	if counts["A"] != 3 || counts["C"] != 2 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestSampleStore_LoadRoundTrip(t *testing.T) {
	p := &memoryPersister{}
	first := NewSampleStore(p, DefaultParams(), nil)
	addN(t, first, "A", 5)
	addN(t, first, "B", 5)

	second := NewSampleStore(p, DefaultParams(), nil)
	if err := second.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	a, b := first.Snapshot(), second.Snapshot()
	if len(a) != len(b) {
		t.Fatalf("expected %d samples, got %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("sample %d differs after load", i)
		}
	}
	if !second.IsTrained() {
		t.Error("loaded store should be trained")
	}
}

func TestSampleStore_LoadSkipsInvalidLetters(t *testing.T) {
	p := &memoryPersister{saved: []Sample{{Letter: "a"}, {Letter: "?"}, {Letter: ""}}}
	s := NewSampleStore(p, DefaultParams(), nil)

	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Len() != 1 || s.Snapshot()[0].Letter != "A" {
		t.Errorf("expected one sample for A, got %+v", s.Snapshot())
	}
}

func TestSampleStore_ConcurrentReaders(t *testing.T) {
	s := NewSampleStore(nil, DefaultParams(), nil)
	base := fixture(t, "A")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			h := detector.Jitter(*base, i, 0.01)
			_ = s.Add("A", &h)
		}
	}()
	go func() {
		defer wg.Done()
		prev := 0
		for i := 0; i < 200; i++ {
			n := len(s.Snapshot())
			if n < prev {
				t.Errorf("snapshot shrank from %d to %d", prev, n)
				return
			}
			prev = n
		}
	}()
	wg.Wait()

	if s.Len() != 50 {
		t.Errorf("expected 50 samples, got %d", s.Len())
	}
}
