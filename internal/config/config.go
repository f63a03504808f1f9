// Package config loads SignBridge configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ayusman/signbridge/internal/gesture"
)

// Paths contains data directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	StaticDir string `toml:"static_dir"`
}

// Server contains the HTTP listener configuration.
type Server struct {
	Bind string `toml:"bind"`
}

// Camera contains local capture configuration.
type Camera struct {
	Enabled bool `toml:"enabled"`
	Device  int  `toml:"device"`
	FPS     int  `toml:"fps"`
	Width   int  `toml:"width"`
	Height  int  `toml:"height"`
}

// Detector contains the MediaPipe landmarker subprocess configuration.
type Detector struct {
	Python        string  `toml:"python"`
	Script        string  `toml:"script"`
	MinConfidence float64 `toml:"min_confidence"`
	IdleTimeoutS  int     `toml:"idle_timeout_s"`
}

// Recognition contains the stabilizer, arbiter and recorder knobs. The
// geometric thresholds are not configurable.
type Recognition struct {
	VoteWindow           int     `toml:"vote_window"`
	VoteMajority         int     `toml:"vote_majority"`
	MinVoteConfidence    float64 `toml:"min_vote_confidence"`
	HoldMS               int     `toml:"hold_ms"`
	ArbiterMinConfidence float64 `toml:"arbiter_min_confidence"`
	KNeighbors           int     `toml:"k_neighbors"`
	RecordingTarget      int     `toml:"recording_target"`
	RecordingIntervalMS  int     `toml:"recording_interval_ms"`
}

// MQTT contains letter event publishing configuration.
type MQTT struct {
	Enabled     bool   `toml:"enabled"`
	Broker      string `toml:"broker"`
	ClientID    string `toml:"client_id"`
	TopicPrefix string `toml:"topic_prefix"`
	QoS         int    `toml:"qos"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Tray contains system tray configuration.
type Tray struct {
	Enabled bool `toml:"enabled"`
}

// Hooks contains letter hook configuration. An empty Dir means the hooks
// directory inside the data dir.
type Hooks struct {
	Enabled   bool   `toml:"enabled"`
	Dir       string `toml:"dir"`
	TimeoutMS int    `toml:"timeout_ms"`
}

// Config encapsulates all configuration values for SignBridge.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Server      Server      `toml:"server"`
	Camera      Camera      `toml:"camera"`
	Detector    Detector    `toml:"detector"`
	Recognition Recognition `toml:"recognition"`
	MQTT        MQTT        `toml:"mqtt"`
	Logging     Logging     `toml:"log"`
	Tray        Tray        `toml:"tray"`
	Hooks       Hooks       `toml:"hooks"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	p := gesture.DefaultParams()
	return Config{
		Paths: Paths{
			DataDir:   filepath.Join(XDGDataHome(), "signbridge"),
			StaticDir: "web/static",
		},
		Server: Server{Bind: "127.0.0.1:8080"},
		Camera: Camera{
			Device: 0,
			FPS:    15,
			Width:  640,
			Height: 480,
		},
		Detector: Detector{
			MinConfidence: 0.5,
			IdleTimeoutS:  30,
		},
		Recognition: Recognition{
			VoteWindow:           p.VoteWindow,
			VoteMajority:         p.VoteMajority,
			MinVoteConfidence:    p.MinVoteConfidence,
			HoldMS:               int(p.Hold / time.Millisecond),
			ArbiterMinConfidence: p.ModelMinConfidence,
			KNeighbors:           p.KNeighbors,
			RecordingTarget:      p.RecordingTarget,
			RecordingIntervalMS:  int(p.RecordingInterval / time.Millisecond),
		},
		MQTT: MQTT{
			Broker:      "tcp://localhost:1883",
			ClientID:    "signbridge",
			TopicPrefix: "signbridge",
			QoS:         1,
		},
		Logging: Logging{Level: "info", Format: "console"},
		Hooks:   Hooks{TimeoutMS: 2000},
	}
}

// Load parses the file at path on top of the defaults and validates the
// result. An empty path means DefaultConfigPath. A missing file is not an
// error; the second result reports whether the file existed.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}
	path, err := ExpandPath(path)
	if err != nil {
		return nil, false, err
	}

	exists := true
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("read config: %w", err)
		}
		exists = false
	}

	if exists {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, false, fmt.Errorf("parse config: %w", err)
		}
	}

	if cfg.Paths.DataDir, err = ExpandPath(cfg.Paths.DataDir); err != nil {
		return nil, false, fmt.Errorf("paths.data_dir: %w", err)
	}
	if cfg.Hooks.Dir, err = ExpandPath(cfg.Hooks.Dir); err != nil {
		return nil, false, fmt.Errorf("hooks.dir: %w", err)
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

// Params converts the recognition section into classifier parameters.
// Values the file does not cover keep their defaults.
func (c *Config) Params() gesture.Params {
	p := gesture.DefaultParams()
	r := c.Recognition
	p.VoteWindow = r.VoteWindow
	p.VoteMajority = r.VoteMajority
	p.MinVoteConfidence = r.MinVoteConfidence
	p.Hold = time.Duration(r.HoldMS) * time.Millisecond
	p.ModelMinConfidence = r.ArbiterMinConfidence
	p.KNeighbors = r.KNeighbors
	p.RecordingTarget = r.RecordingTarget
	p.RecordingInterval = time.Duration(r.RecordingIntervalMS) * time.Millisecond
	return p
}

// DatabasePath returns the SQLite database location inside the data dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "signbridge.db")
}

// LockPath returns the lock file guarding the data dir.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "signbridge.lock")
}

// HooksDir returns the directory scanned for letter hooks.
func (c *Config) HooksDir() string {
	if c.Hooks.Dir != "" {
		return c.Hooks.Dir
	}
	return filepath.Join(c.Paths.DataDir, "hooks")
}

// HookTimeout returns how long a single hook may run.
func (c *Config) HookTimeout() time.Duration {
	return time.Duration(c.Hooks.TimeoutMS) * time.Millisecond
}

// Encode renders c as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// ExpandPath expands a leading ~ and makes the path absolute.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
