package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aurora-voice/avs-core/capabilityagent"
	"github.com/aurora-voice/avs-core/config"
	"github.com/aurora-voice/avs-core/focus"
	"github.com/aurora-voice/avs-core/internal/metrics"
	internalserver "github.com/aurora-voice/avs-core/internal/server"
	"github.com/aurora-voice/avs-core/internal/telemetry"
	"github.com/aurora-voice/avs-core/speechsynthesizer"
)

// Server owns the process-lifetime components: the focus manager, the
// speech synthesizer agent, their shared collaborators, and the
// Prometheus metrics endpoint.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	otel   *telemetry.Providers

	metricsCollector *metrics.Collector
	metricsManager   *internalserver.Manager

	focusManager      *focus.Manager
	synthesizer       *speechsynthesizer.Agent
	attachmentManager *poolAttachmentManager

	bg       *errgroup.Group
	bgCancel context.CancelFunc
}

// NewServer constructs the components described by cfg but does not
// start any of them.
func NewServer(cfg *config.Config, logger *zap.Logger, otel *telemetry.Providers) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger, otel: otel}

	s.metricsCollector = metrics.NewCollector(cfg.Metrics.Namespace, logger)

	channels := make([]focus.ChannelConfiguration, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		channels = append(channels, focus.ChannelConfiguration{Name: ch.Name, Priority: ch.Priority})
	}

	s.focusManager = focus.NewManager(focus.Config{
		Channels:          channels,
		Logger:            logger,
		Metrics:           s.metricsCollector,
		ExecutorQueueSize: cfg.Synthesizer.ExecutorQueueSize,
	})

	s.attachmentManager = newPoolAttachmentManager(demoAttachmentBlobs(), 30*time.Millisecond, logger)

	agent, err := speechsynthesizer.NewAgent(speechsynthesizer.Config{
		MediaPlayer:        newBufferedMediaPlayer(logger),
		MessageSender:      &logMessageSender{logger: logger},
		FocusManager:       s.focusManager,
		ContextManager:     newAggregatingContextManager(logger),
		AttachmentManager:  s.attachmentManager,
		ExceptionSender:    &logExceptionSender{logger: logger},
		Logger:             logger,
		Metrics:            s.metricsCollector,
		StateChangeTimeout: cfg.Synthesizer.StateChangeTimeout,
		ExecutorQueueSize:  cfg.Synthesizer.ExecutorQueueSize,
	})
	if err != nil {
		return nil, fmt.Errorf("construct speech synthesizer: %w", err)
	}
	s.synthesizer = agent

	return s, nil
}

// demoAttachmentBlobs is the in-memory store the demo attachment
// manager resolves cid: references against.
func demoAttachmentBlobs() map[string][]byte {
	return map[string][]byte{
		"greeting-001": []byte("synthetic audio payload for the greeting prompt"),
	}
}

// Start brings up the metrics HTTP endpoint. The focus manager and
// speech synthesizer need no separate start step; their executors run
// as soon as they're constructed.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel
	s.bg, ctx = errgroup.WithContext(ctx)
	s.bg.Go(func() error { return s.reportPoolStats(ctx) })

	if !s.cfg.Metrics.Enabled {
		s.logger.Info("metrics endpoint disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := internalserver.DefaultConfig()
	serverConfig.Addr = s.cfg.Metrics.ListenAddr
	s.metricsManager = internalserver.NewManager(mux, serverConfig, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}
	s.logger.Info("metrics endpoint started", zap.String("addr", s.cfg.Metrics.ListenAddr))
	return nil
}

// reportPoolStats periodically logs the attachment fetch pool's
// utilization until ctx is canceled.
func (s *Server) reportPoolStats(ctx context.Context) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats := s.attachmentManager.pool.Stats()
			s.logger.Debug("attachment fetch pool stats",
				zap.Int("workers", stats.Workers),
				zap.Int64("submitted", stats.Submitted),
				zap.Int64("completed", stats.Completed),
				zap.Int64("failed", stats.Failed),
			)
		}
	}
}

// RunDemoSpeak drives one scripted Speak directive through the full
// preHandle/handle lifecycle so a fresh checkout produces observable
// behavior without a real cloud connection.
func (s *Server) RunDemoSpeak() {
	payload, _ := json.Marshal(struct {
		Token  string `json:"token"`
		Format string `json:"format"`
		URL    string `json:"url"`
	}{
		Token:  "demo-token-1",
		Format: "AUDIO_MPEG",
		URL:    "cid:greeting-001",
	})

	directive := capabilityagent.Directive{
		Namespace: "SpeechSynthesizer",
		Name:      "Speak",
		MessageID: "demo-msg-1",
		DialogID:  "demo-dialog-1",
		Payload:   payload,
	}

	info := &capabilityagent.DirectiveInfo{
		Directive: directive,
		Result:    &loggingResultSink{logger: s.logger, directive: directive.MessageID},
	}

	s.synthesizer.PreHandleDirective(info)
	if err := s.synthesizer.HandleDirective(info); err != nil {
		s.logger.Error("failed to submit Speak directive", zap.Error(err))
	}
}

// WaitForShutdown blocks until the metrics server receives a shutdown
// signal (or exits on its own), then releases every component.
func (s *Server) WaitForShutdown() {
	if s.metricsManager != nil {
		s.metricsManager.WaitForShutdown()
		s.Shutdown()
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	signal.Stop(quit)
	s.Shutdown()
}

// Shutdown releases every owned component. It is safe to call more
// than once.
func (s *Server) Shutdown() {
	s.logger.Info("shutting down avs-core")

	if s.bgCancel != nil {
		s.bgCancel()
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(context.Background()); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}

	s.synthesizer.Close()
	s.focusManager.Close()
	s.attachmentManager.Close()

	if s.otel != nil {
		if err := s.otel.Shutdown(context.Background()); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}

	if s.bg != nil {
		_ = s.bg.Wait()
	}
	s.logger.Info("avs-core shutdown complete")
}
