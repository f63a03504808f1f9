package hook

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ayusman/signbridge/internal/gesture"
)

func TestRunner_RunsHooksInOrder(t *testing.T) {
	skipWindows(t)
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "letters.txt")

	// Each hook appends the letter it was given.
	script := "L=$(sed -n 's/.*\"letter\":\"\\([A-Z]\\)\".*/\\1/p')\necho \"$L\" >> " + out + "\n"
	writeHook(t, root, "all", "", script)
	writeHook(t, root, "only-a", "A", script)

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(m, 5*time.Second, zaptest.NewLogger(t))
	for _, letter := range []string{"A", "B", "C"} {
		if err := r.Publish(gesture.LetterEvent{SessionID: "s1", Letter: letter}); err != nil {
			t.Fatalf("Publish(%s) error = %v", letter, err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	// "all" sorts before "only-a", so A is written twice in a row.
	if got := string(data); got != "A\nA\nB\nC\n" {
		t.Errorf("unexpected hook output %q", got)
	}

	if err := r.Publish(gesture.LetterEvent{Letter: "D"}); err != nil {
		t.Errorf("Publish after Close should be ignored, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
