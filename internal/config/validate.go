package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	if err := c.validateCamera(); err != nil {
		return err
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return errors.New("detector.min_confidence must be between 0 and 1")
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("recognition: %w", err)
	}
	if err := c.validateMQTT(); err != nil {
		return err
	}
	if c.Hooks.Enabled && c.Hooks.TimeoutMS <= 0 {
		return fmt.Errorf("hooks.timeout_ms must be positive, got %d", c.Hooks.TimeoutMS)
	}
	return c.validateLogging()
}

func (c *Config) validateCamera() error {
	if !c.Camera.Enabled {
		return nil
	}
	if c.Camera.FPS <= 0 || c.Camera.FPS > 120 {
		return fmt.Errorf("camera.fps must be between 1 and 120, got %d", c.Camera.FPS)
	}
	if c.Camera.Device < 0 {
		return errors.New("camera.device must not be negative")
	}
	return nil
}

func (c *Config) validateMQTT() error {
	if !c.MQTT.Enabled {
		return nil
	}
	if strings.TrimSpace(c.MQTT.Broker) == "" {
		return errors.New("mqtt.broker must be set when mqtt.enabled is true")
	}
	if strings.TrimSpace(c.MQTT.TopicPrefix) == "" {
		return errors.New("mqtt.topic_prefix must be set when mqtt.enabled is true")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
