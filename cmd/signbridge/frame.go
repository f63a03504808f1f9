package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ayusman/signbridge/internal/detector"
)

// readFrame loads a hand frame from a JSON file. The file holds either an
// object with a points array or the bare array. A path of "-" reads stdin.
func readFrame(path string, stdin io.Reader) (*detector.HandLandmarks, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}

	var points []detector.Point3D
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &points)
	} else {
		var wrapped struct {
			Points []detector.Point3D `json:"points"`
		}
		err = json.Unmarshal(trimmed, &wrapped)
		points = wrapped.Points
	}
	if err != nil {
		return nil, fmt.Errorf("parse frame %s: %w", path, err)
	}
	return detector.FromPoints(points)
}
