package hook

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeHook creates a hook directory holding script as its executable.
func writeHook(t *testing.T, root, name, letters, script string) *Hook {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	manifest := Manifest{Name: name, Version: "1.0.0", Executable: "run.sh", Letters: letters}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return &Hook{Manifest: manifest, Path: dir, Executable: filepath.Join(dir, "run.sh")}
}

func skipWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}
}

func TestExecutor_Execute(t *testing.T) {
	skipWindows(t)
	h := writeHook(t, t.TempDir(), "ok", "", "cat >/dev/null\necho '{\"success\":true,\"data\":{\"message\":\"hello\"}}'\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), h, &Request{Event: "letter", Letter: "A"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success || resp.Error != "" {
		t.Errorf("unexpected response %+v", resp)
	}

	var data map[string]string
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello" {
		t.Errorf("expected message 'hello', got %q", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	skipWindows(t)
	h := writeHook(t, t.TempDir(), "echo", "", "INPUT=$(cat)\necho \"{\\\"success\\\":true,\\\"data\\\":$INPUT}\"\n")
	h.Manifest.Config = json.RawMessage(`{"mode":"type"}`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), h, &Request{
		Event:     "letter",
		SessionID: "s1",
		Letter:    "L",
		Text:      "HEL",
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var got Request
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("failed to unmarshal echoed request: %v", err)
	}
	if got.Letter != "L" || got.Text != "HEL" || got.SessionID != "s1" || got.Event != "letter" {
		t.Errorf("unexpected echoed request %+v", got)
	}
	if string(got.Config) != `{"mode":"type"}` {
		t.Errorf("expected manifest config in request, got %s", got.Config)
	}
}

func TestExecutor_EmptyOutputIsSuccess(t *testing.T) {
	skipWindows(t)
	h := writeHook(t, t.TempDir(), "quiet", "", "cat >/dev/null\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), h, &Request{Letter: "B"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success {
		t.Error("expected success for empty output")
	}
}

func TestExecutor_Timeout(t *testing.T) {
	skipWindows(t)
	h := writeHook(t, t.TempDir(), "slow", "", "exec sleep 10\n")

	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), h, &Request{Letter: "C"})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got: %v", err)
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	skipWindows(t)
	root := t.TempDir()
	executor := NewExecutor(5 * time.Second)

	h := writeHook(t, root, "refuse", "", "echo '{\"success\":false,\"error\":\"something went wrong\"}'\n")
	resp, err := executor.Execute(context.Background(), h, &Request{Letter: "D"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if resp.Success || resp.Error != "something went wrong" {
		t.Errorf("unexpected response %+v", resp)
	}

	h = writeHook(t, root, "garbage", "", "echo 'not valid json'\n")
	if _, err := executor.Execute(context.Background(), h, &Request{Letter: "D"}); err == nil {
		t.Error("expected error for invalid JSON")
	}

	h = writeHook(t, root, "exit", "", "echo 'boom' >&2\nexit 1\n")
	_, err = executor.Execute(context.Background(), h, &Request{Letter: "D"})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected error with stderr, got %v", err)
	}
}
