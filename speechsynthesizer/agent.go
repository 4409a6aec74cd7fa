package speechsynthesizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aurora-voice/avs-core/avsinterfaces"
	"github.com/aurora-voice/avs-core/capabilityagent"
	"github.com/aurora-voice/avs-core/focus"
	"github.com/aurora-voice/avs-core/internal/executor"
)

var tracer = otel.Tracer("avs-core/speechsynthesizer")

// DefaultStateChangeTimeout bounds how long onFocusChanged waits for
// playback to confirm a state transition before giving up. The
// source AVS SDK leaves this unspecified; this is a conservative
// default.
const DefaultStateChangeTimeout = 2 * time.Second

// MetricsRecorder receives playback lifecycle events for observability.
type MetricsRecorder interface {
	RecordSpeechStarted()
	RecordSpeechFinished(duration time.Duration)
	RecordSpeechFailed()
}

type noopMetrics struct{}

func (noopMetrics) RecordSpeechStarted()               {}
func (noopMetrics) RecordSpeechFinished(time.Duration) {}
func (noopMetrics) RecordSpeechFailed()                {}

// Config configures an Agent. MediaPlayer, MessageSender,
// FocusManager, ContextManager, AttachmentManager, and
// ExceptionSender are required collaborators.
type Config struct {
	MediaPlayer       avsinterfaces.MediaPlayer
	MessageSender     avsinterfaces.MessageSender
	FocusManager      *focus.Manager
	ContextManager    avsinterfaces.ContextManager
	AttachmentManager avsinterfaces.AttachmentManager
	ExceptionSender   avsinterfaces.ExceptionSender

	Logger  *zap.Logger
	Metrics MetricsRecorder

	// StateChangeTimeout bounds onFocusChanged's wait for playback
	// confirmation. Defaults to DefaultStateChangeTimeout.
	StateChangeTimeout time.Duration
	ExecutorQueueSize  int
}

// Agent is the SpeechSynthesizer capability agent.
type Agent struct {
	player            avsinterfaces.MediaPlayer
	messageSender     avsinterfaces.MessageSender
	focusManager      *focus.Manager
	contextManager    avsinterfaces.ContextManager
	attachmentManager avsinterfaces.AttachmentManager
	exceptionSender   avsinterfaces.ExceptionSender

	logger  *zap.Logger
	metrics MetricsRecorder

	observerAdapter    *observerAdapter
	stateChangeTimeout time.Duration

	executor *executor.Sequential

	// mu guards currentState, desiredState, and stateChanged: the
	// small set of fields onFocusChanged must read and wait on from
	// outside the executor.
	mu           sync.Mutex
	currentState State
	desiredState State
	stateChanged chan struct{}

	// currentFocus, currentInfo, pending, sourceID, and observers are
	// mutated only on the executor.
	currentFocus focus.FocusState
	currentInfo  *speakDirectiveInfo
	pending      map[string]*speakDirectiveInfo
	sourceID     uint64
	observers    map[Observer]struct{}

	speakStartedAt time.Time
}

// NewAgent constructs an Agent and registers it as an observer of its
// own media player.
func NewAgent(cfg Config) (*Agent, error) {
	if cfg.MediaPlayer == nil {
		return nil, fmt.Errorf("speechsynthesizer: MediaPlayer is required")
	}
	if cfg.MessageSender == nil {
		return nil, fmt.Errorf("speechsynthesizer: MessageSender is required")
	}
	if cfg.FocusManager == nil {
		return nil, fmt.Errorf("speechsynthesizer: FocusManager is required")
	}
	if cfg.ContextManager == nil {
		return nil, fmt.Errorf("speechsynthesizer: ContextManager is required")
	}
	if cfg.AttachmentManager == nil {
		return nil, fmt.Errorf("speechsynthesizer: AttachmentManager is required")
	}
	if cfg.ExceptionSender == nil {
		return nil, fmt.Errorf("speechsynthesizer: ExceptionSender is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	timeout := cfg.StateChangeTimeout
	if timeout <= 0 {
		timeout = DefaultStateChangeTimeout
	}
	queueSize := cfg.ExecutorQueueSize
	if queueSize <= 0 {
		queueSize = 32
	}

	a := &Agent{
		player:             cfg.MediaPlayer,
		messageSender:      cfg.MessageSender,
		focusManager:       cfg.FocusManager,
		contextManager:     cfg.ContextManager,
		attachmentManager:  cfg.AttachmentManager,
		exceptionSender:    cfg.ExceptionSender,
		logger:             logger,
		metrics:            metrics,
		stateChangeTimeout: timeout,
		executor:           executor.New(executor.Config{QueueSize: queueSize}),
		currentState:       StateFinished,
		desiredState:       StateFinished,
		stateChanged:       make(chan struct{}),
		pending:            make(map[string]*speakDirectiveInfo),
		observers:          make(map[Observer]struct{}),
	}
	a.observerAdapter = &observerAdapter{agent: a}
	a.player.SetObserver(a)
	return a, nil
}

// GetConfiguration returns the directive-handling configuration
// consumed by a directive sequencer: Speak blocks the audio medium
// until it completes.
func (a *Agent) GetConfiguration() map[avsinterfaces.NamespaceAndName]capabilityagent.BlockingPolicy {
	return map[avsinterfaces.NamespaceAndName]capabilityagent.BlockingPolicy{
		{Namespace: "SpeechSynthesizer", Name: "Speak"}: {
			Medium:     capabilityagent.BlockingMediumAudio,
			IsBlocking: true,
		},
	}
}

// AddObserver registers o to receive future state transitions.
func (a *Agent) AddObserver(o Observer) {
	_ = a.executor.Submit(context.Background(), func() {
		a.observers[o] = struct{}{}
	})
}

// HandleDirectiveImmediately implements capabilityagent.DirectiveHandler.
func (a *Agent) HandleDirectiveImmediately(directive capabilityagent.Directive) {
	_ = a.executor.Submit(context.Background(), func() {
		a.executeHandleImmediately(directive)
	})
}

// PreHandleDirective implements capabilityagent.DirectiveHandler.
func (a *Agent) PreHandleDirective(info *capabilityagent.DirectiveInfo) {
	_ = a.executor.Submit(context.Background(), func() {
		a.executePreHandle(info)
	})
}

// HandleDirective implements capabilityagent.DirectiveHandler.
func (a *Agent) HandleDirective(info *capabilityagent.DirectiveInfo) error {
	_, span := tracer.Start(context.Background(), "speechsynthesizer.HandleDirective",
		trace.WithAttributes(
			attribute.String("message_id", info.Directive.MessageID),
			attribute.String("namespace", info.Directive.Namespace),
			attribute.String("name", info.Directive.Name),
		))
	return a.executor.Submit(context.Background(), func() {
		defer span.End()
		a.executeHandle(info)
	})
}

// CancelDirective implements capabilityagent.DirectiveHandler.
func (a *Agent) CancelDirective(info *capabilityagent.DirectiveInfo) {
	_ = a.executor.Submit(context.Background(), func() {
		a.executeCancel(info)
	})
}

// OnDeregistered implements capabilityagent.DirectiveHandler.
func (a *Agent) OnDeregistered() {
	_ = a.executor.Submit(context.Background(), func() {
		a.executeOnDeregistered()
	})
}

// Close releases the Agent's executor. It does not stop any in-flight
// playback; callers should cancel outstanding directives first.
func (a *Agent) Close() {
	a.executor.Close()
}

var (
	_ capabilityagent.DirectiveHandler   = (*Agent)(nil)
	_ avsinterfaces.MediaPlayerObserver  = (*Agent)(nil)
	_ avsinterfaces.StateProvider        = (*Agent)(nil)
	_ avsinterfaces.ContextRequester     = (*Agent)(nil)
	_ focus.ChannelObserver              = (*observerAdapter)(nil)
)
