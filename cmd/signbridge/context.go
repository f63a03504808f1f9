package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/ayusman/signbridge/internal/config"
	"github.com/ayusman/signbridge/internal/gesture"
	"github.com/ayusman/signbridge/internal/logging"
	"github.com/ayusman/signbridge/internal/store"
)

type globalFlags struct {
	config   string
	dataDir  string
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logger *zap.Logger
	lock   *flock.Flock
	store  *store.Store
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration file once and applies the global
// flag overrides.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if dir := strings.TrimSpace(c.flags.dataDir); dir != "" {
			if cfg.Paths.DataDir, err = config.ExpandPath(dir); err != nil {
				c.configErr = fmt.Errorf("--data-dir: %w", err)
				return
			}
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}

		logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

// lockDataDir takes the exclusive lock on the data directory so that only
// one process writes the sample set.
func (c *commandContext) lockDataDir() error {
	if c.lock != nil {
		return nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("data directory %s is in use by another signbridge process", cfg.Paths.DataDir)
	}
	c.lock = lock
	return nil
}

// openStore opens the database. Writers must call lockDataDir first.
func (c *commandContext) openStore() (*store.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c.store = st
	return st, nil
}

// loadSamples opens the store and loads the persisted sample set.
func (c *commandContext) loadSamples() (*gesture.SampleStore, error) {
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}
	samples := gesture.NewSampleStore(st.Samples(), c.config.Params(), c.logger)
	if err := samples.Load(); err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	return samples, nil
}

func (c *commandContext) close() {
	var errs []error
	if c.store != nil {
		errs = append(errs, c.store.Close())
		c.store = nil
	}
	if c.lock != nil {
		errs = append(errs, c.lock.Unlock())
		c.lock = nil
	}
	if err := errors.Join(errs...); err != nil && c.logger != nil {
		c.logger.Warn("closing resources", zap.Error(err))
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
