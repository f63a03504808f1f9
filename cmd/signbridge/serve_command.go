package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/signbridge/internal/app"
	"github.com/ayusman/signbridge/internal/capture"
	"github.com/ayusman/signbridge/internal/config"
	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/emitter"
	"github.com/ayusman/signbridge/internal/gesture"
	"github.com/ayusman/signbridge/internal/hook"
	"github.com/ayusman/signbridge/internal/server"
	"github.com/ayusman/signbridge/internal/store"
	"github.com/ayusman/signbridge/internal/tray"
)

const mqttConnectTimeout = 5 * time.Second

type serveOptions struct {
	bind   string
	camera bool
	tray   bool
	mqtt   bool
	hooks  bool
}

func newServeCommand(ctx *commandContext) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket service",
		Long: `Run the recognition service.

Clients stream hand landmarks over /api/stream and receive recognized letters.
The local camera pipeline, the MQTT letter publisher, letter hooks and the
tray icon are enabled from the configuration file or the flags below.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bind") {
				cfg.Server.Bind = opts.bind
			}
			if cmd.Flags().Changed("camera") {
				cfg.Camera.Enabled = opts.camera
			}
			if cmd.Flags().Changed("tray") {
				cfg.Tray.Enabled = opts.tray
			}
			if cmd.Flags().Changed("mqtt") {
				cfg.MQTT.Enabled = opts.mqtt
			}
			if cmd.Flags().Changed("hooks") {
				cfg.Hooks.Enabled = opts.hooks
			}
			return runServe(cmd.Context(), ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.bind, "bind", "", "Listen address (overrides server.bind)")
	cmd.Flags().BoolVar(&opts.camera, "camera", false, "Run the local camera pipeline")
	cmd.Flags().BoolVar(&opts.tray, "tray", false, "Show the system tray icon")
	cmd.Flags().BoolVar(&opts.mqtt, "mqtt", false, "Publish letters to the MQTT broker")
	cmd.Flags().BoolVar(&opts.hooks, "hooks", false, "Run letter hooks from the hooks directory")
	return cmd
}

func runServe(parent context.Context, ctx *commandContext, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	runCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := ctx.logger
	if err := ctx.lockDataDir(); err != nil {
		return err
	}
	st, err := ctx.openStore()
	if err != nil {
		return err
	}
	samples, err := ctx.loadSamples()
	if err != nil {
		return err
	}
	params := cfg.Params()
	logger.Info("samples loaded",
		zap.Int("total", samples.Len()),
		zap.Bool("trained", samples.IsTrained()),
		zap.String("database", st.Path()))

	var sinks emitter.Fanout
	if cfg.Hooks.Enabled {
		manager := hook.NewManager(cfg.HooksDir())
		if err := manager.Discover(); err != nil {
			return fmt.Errorf("discover hooks: %w", err)
		}
		logger.Info("hooks loaded", zap.String("dir", manager.Dir()), zap.Int("count", len(manager.List())))
		sinks = append(sinks, hook.NewRunner(manager, cfg.HookTimeout(), logger.Named("hooks")))
	}

	if cfg.MQTT.Enabled {
		mq := emitter.NewMQTT(emitter.MQTTConfig{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
		}, logger)
		connectCtx, cancel := context.WithTimeout(runCtx, mqttConnectTimeout)
		if err := mq.Connect(connectCtx); err != nil {
			// The client keeps retrying in the background.
			logger.Warn("mqtt broker unavailable", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		}
		cancel()
		sinks = append(sinks, mq)
	}

	var ui *tray.Tray
	if cfg.Tray.Enabled {
		ui = tray.New()
		sinks = append(sinks, ui)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("closing emitters", zap.Error(err))
		}
	}()

	rules := gesture.NewRuleClassifier()
	classifier := gesture.NewArbiter(rules, gesture.NewNearestNeighbor(samples, params), params)

	srv := server.New(server.Config{
		StaticDir:   cfg.Paths.StaticDir,
		Samples:     samples,
		Classifier:  classifier,
		Transcripts: st.Transcripts(),
		Emitter:     sinks,
		Params:      params,
		Logger:      logger,
	})

	var camera *app.App
	if cfg.Camera.Enabled {
		camera = newCameraApp(cfg, classifier, samples, st, logger)
		camera.SetEmitter(sinks)
		if err := camera.Start(); err != nil {
			return err
		}
		defer camera.Close()
	}

	if ui != nil {
		wireTray(ui, camera, samples, stop, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(runCtx, cfg.Server.Bind)
	}()

	if ui != nil {
		// The tray loop must own the main goroutine.
		go func() {
			<-runCtx.Done()
			ui.Quit()
		}()
		ui.Run()
		stop()
	}

	err = <-errCh
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("signbridge stopped")
	return err
}

func newCameraApp(cfg *config.Config, classifier gesture.Classifier, samples *gesture.SampleStore, st *store.Store, logger *zap.Logger) *app.App {
	det := detector.DefaultConfig()
	det.Python = cfg.Detector.Python
	det.Script = cfg.Detector.Script
	det.MinConfidence = cfg.Detector.MinConfidence
	det.IdleTimeoutS = cfg.Detector.IdleTimeoutS

	return app.New(app.Config{
		Camera: capture.Config{
			Device: cfg.Camera.Device,
			FPS:    cfg.Camera.FPS,
			Width:  cfg.Camera.Width,
			Height: cfg.Camera.Height,
			Mirror: true,
		},
		Detector: det,
		Params:   cfg.Params(),
	}, classifier, samples, st.Transcripts(), logger)
}

// wireTray connects the tray menu to the camera session and sample set.
func wireTray(ui *tray.Tray, camera *app.App, samples *gesture.SampleStore, quit func(), logger *zap.Logger) {
	ui.SetEnabled(camera != nil)
	ui.OnToggle(func(enabled bool) {
		if camera == nil {
			ui.SetEnabled(false)
			return
		}
		var err error
		if enabled {
			err = camera.Start()
		} else {
			err = camera.Stop()
		}
		if err != nil {
			logger.Warn("toggling camera", zap.Bool("enabled", enabled), zap.Error(err))
		}
	})
	ui.OnCommit(func() {
		if camera == nil {
			return
		}
		if _, err := camera.Commit(); err != nil {
			logger.Warn("committing text", zap.Error(err))
		}
		ui.SetText(ui.Last(), "")
	})
	ui.OnClearText(func() {
		if camera != nil {
			camera.Clear()
		}
		ui.SetText("", "")
	})
	ui.OnClearSamples(func() {
		if err := samples.Clear(); err != nil {
			logger.Warn("clearing samples", zap.Error(err))
		}
	})
	ui.OnQuit(quit)
}
