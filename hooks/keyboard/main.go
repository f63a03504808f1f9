// Package main is a SignBridge hook that types each recognized letter
// into the focused window. It uses AppleScript on macOS and xdotool on
// Linux.
//
// Build it next to its manifest:
//
//	go build -o hooks/keyboard/keyboard ./hooks/keyboard
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request is the letter event sent by SignBridge.
type Request struct {
	Event  string          `json:"event"`
	Letter string          `json:"letter"`
	Text   string          `json:"text"`
	Config json.RawMessage `json:"config"`
}

// Response is written back on stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Options come from the manifest's config block.
type Options struct {
	Lowercase bool `json:"lowercase"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}
	if req.Event != "letter" {
		writeResponse(fmt.Errorf("unknown event: %s", req.Event))
		return
	}

	var opts Options
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &opts); err != nil {
			writeResponse(fmt.Errorf("failed to parse config: %w", err))
			return
		}
	}

	name, args, err := keystrokeCommand(runtime.GOOS, req.Letter, opts)
	if err != nil {
		writeResponse(err)
		return
	}
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		writeResponse(fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out))))
		return
	}
	writeResponse(nil)
}

// keystrokeCommand returns the program and arguments that type letter on goos.
func keystrokeCommand(goos, letter string, opts Options) (string, []string, error) {
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return "", nil, fmt.Errorf("invalid letter %q", letter)
	}
	if opts.Lowercase {
		letter = strings.ToLower(letter)
	}

	switch goos {
	case "darwin":
		script := fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, letter)
		return "osascript", []string{"-e", script}, nil
	case "linux":
		return "xdotool", []string{"type", "--", letter}, nil
	default:
		return "", nil, fmt.Errorf("typing is not supported on %s", goos)
	}
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	_ = json.NewEncoder(os.Stdout).Encode(resp)
}
