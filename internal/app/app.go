package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/lmshao/remote-desk/internal/api"
	"github.com/lmshao/remote-desk/pkg/capture"
	"github.com/lmshao/remote-desk/pkg/converter"
	"github.com/lmshao/remote-desk/pkg/discovery"
	"github.com/lmshao/remote-desk/pkg/encoder"
	"github.com/lmshao/remote-desk/pkg/frame"
	"github.com/lmshao/remote-desk/pkg/media"
	"github.com/lmshao/remote-desk/pkg/scaler"
	"github.com/lmshao/remote-desk/pkg/service"
	"github.com/lmshao/remote-desk/pkg/sink"
)

const (
	captureServiceName   = "capture-pipeline"
	discoveryServiceName = "discovery"
	apiServiceName       = "api"
)

// App owns the process's whole lifetime: load config, build the capture
// pipeline and discovery service, register both with a service.Manager, and
// run until a termination signal arrives. Grounded on ssungk-SOL's
// App/NewApp/Start/waitForShutdown/shutdown shape.
type App struct {
	cfg *Config
	log *zap.Logger

	manager   *service.Manager
	pipeline  *media.Pipeline
	discovery *discovery.Service

	ctx    context.Context
	cancel context.CancelFunc
}

// New loads configuration from path (or defaults if path doesn't exist),
// builds a logger, and wires the capture pipeline and discovery service
// without starting anything.
func New(configPath string) (*App, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		cfg:    cfg,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.build(); err != nil {
		cancel()
		return nil, err
	}

	return app, nil
}

func (a *App) build() error {
	tech, err := parseTechnology(a.cfg.Capture.Technology)
	if err != nil {
		return err
	}

	engine, err := capture.NewEngine(tech)
	if err != nil {
		return fmt.Errorf("app: create capture engine: %w", err)
	}

	captureCfg := capture.Config{
		FrameRate:     a.cfg.Capture.FrameRate,
		Width:         a.cfg.Capture.Width,
		Height:        a.cfg.Capture.Height,
		MonitorIndex:  a.cfg.Capture.MonitorIndex,
		CaptureCursor: a.cfg.Capture.CaptureCursor,
	}
	if res := engine.Initialize(captureCfg); res != capture.Success {
		return fmt.Errorf("app: initialize capture engine: %s", res)
	}

	source := capture.NewSource(engine)

	sc, err := scaler.New(scaler.Config{
		TargetWidth:  a.cfg.Scaler.TargetWidth,
		TargetHeight: a.cfg.Scaler.TargetHeight,
		Algorithm:    scaler.Bilinear,
	})
	if err != nil {
		return fmt.Errorf("app: create scaler: %w", err)
	}

	outputFormat, err := parseCodec(a.cfg.Encoder.Codec)
	if err != nil {
		return err
	}

	conv, err := converter.New(converter.Config{
		OutputFormat: frame.I420,
	})
	if err != nil {
		return fmt.Errorf("app: create converter: %w", err)
	}

	backend, err := encoder.NewFFmpegBackend(a.ctx, "ffmpeg", encoder.Config{
		Width:            a.cfg.Scaler.TargetWidth,
		Height:           a.cfg.Scaler.TargetHeight,
		FPS:              a.cfg.Capture.FrameRate,
		Bitrate:          a.cfg.Encoder.Bitrate,
		KeyframeInterval: a.cfg.Capture.FrameRate * 2,
		InputFormat:      frame.I420,
		OutputFormat:     outputFormat,
		QueueSize:        a.cfg.Encoder.QueueSize,
	})
	if err != nil {
		return fmt.Errorf("app: create ffmpeg backend: %w", err)
	}

	enc := encoder.New(encoder.Config{
		Width:        a.cfg.Scaler.TargetWidth,
		Height:       a.cfg.Scaler.TargetHeight,
		FPS:          a.cfg.Capture.FrameRate,
		Bitrate:      a.cfg.Encoder.Bitrate,
		OutputFormat: outputFormat,
		QueueSize:    a.cfg.Encoder.QueueSize,
	}, backend)

	dumper := sink.NewRawDumper(os.Stdout, nil)

	pipeline := media.NewPipeline()
	pipeline.SetSource(source)
	pipeline.AddProcessor(sc)
	pipeline.AddProcessor(conv)
	pipeline.AddProcessor(enc)
	pipeline.SetSink(dumper)
	if !pipeline.LinkAll() {
		return errors.New("app: failed to link capture pipeline")
	}
	a.pipeline = pipeline

	a.manager = service.New(a.log)
	if err := a.manager.Register(captureServiceName, &pipelineService{p: pipeline}); err != nil {
		return err
	}

	if a.cfg.Discovery.Enabled {
		a.discovery = discovery.New(discovery.Config{
			Type:           a.cfg.Discovery.ServiceType,
			AdvertisedPort: a.cfg.API.Port,
			Version:        "1",
		})
		if err := a.manager.Register(discoveryServiceName, a.discovery); err != nil {
			return err
		}
	}

	if a.cfg.API.Enabled {
		apiServer := api.NewServer(a.cfg.API.Port, a.manager, a.pipeline, a.log)
		if err := a.manager.Register(apiServiceName, apiServer); err != nil {
			return err
		}
	}

	return nil
}

// Run starts every registered service and blocks until a SIGINT/SIGTERM
// arrives, then stops every service (StopAll follows no particular order).
func (a *App) Run() error {
	a.log.Info("starting services", zap.String("info", a.pipeline.PipelineInfo()))

	if err := a.manager.StartAll(); err != nil {
		a.log.Error("one or more services failed to start", zap.Error(err))
	}

	a.waitForShutdown()
	return nil
}

func (a *App) waitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.log.Info("context cancelled, shutting down")
	}

	a.shutdown()
}

func (a *App) shutdown() {
	a.cancel()
	a.manager.StopAll()
	a.log.Info("stopped")
	_ = a.log.Sync()
}

// Manager exposes the service manager for the API server to query/control.
func (a *App) Manager() *service.Manager { return a.manager }

// Config exposes the loaded configuration, mainly for the API server.
func (a *App) Config() *Config { return a.cfg }

func parseTechnology(s string) (capture.Technology, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return capture.Auto, nil
	case "desktop_duplication":
		return capture.DesktopDuplication, nil
	case "x11":
		return capture.X11, nil
	case "wayland":
		return capture.Wayland, nil
	case "coregraphics":
		return capture.CoreGraphics, nil
	default:
		return 0, fmt.Errorf("app: unknown capture technology %q", s)
	}
}

func parseCodec(s string) (frame.Format, error) {
	switch strings.ToLower(s) {
	case "", "h264":
		return frame.H264, nil
	case "h265":
		return frame.H265, nil
	default:
		return 0, fmt.Errorf("app: unknown codec %q", s)
	}
}

// pipelineService adapts *media.Pipeline to service.Service.
type pipelineService struct {
	p *media.Pipeline
}

func (s *pipelineService) Start() error {
	if !s.p.Start() {
		return errors.New("app: pipeline failed to start")
	}
	return nil
}

func (s *pipelineService) Stop() { s.p.Stop() }
