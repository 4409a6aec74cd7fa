package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aurora-voice/avs-core/avsinterfaces"
	"github.com/aurora-voice/avs-core/internal/pool"
)

// logMessageSender delivers outbound events by logging them. avs-core
// has no cloud transport of its own; a real deployment would swap this
// for an AVS gateway client satisfying the same interface.
type logMessageSender struct {
	logger *zap.Logger
}

func (s *logMessageSender) SendMessage(ctx context.Context, msg avsinterfaces.Message) error {
	s.logger.Info("event sent",
		zap.String("name", msg.Name),
		zap.Int("payload_bytes", len(msg.Payload)),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}

// aggregatingContextManager assembles the JSON context blob from the
// last state each capability agent published, keyed by namespace/name.
type aggregatingContextManager struct {
	mu     sync.Mutex
	states map[avsinterfaces.NamespaceAndName]string
	logger *zap.Logger
}

func newAggregatingContextManager(logger *zap.Logger) *aggregatingContextManager {
	return &aggregatingContextManager{
		states: make(map[avsinterfaces.NamespaceAndName]string),
		logger: logger,
	}
}

func (c *aggregatingContextManager) SetState(id avsinterfaces.NamespaceAndName, jsonState string, policy avsinterfaces.StateRefreshPolicy, stateRequestToken uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[id] = jsonState
	return nil
}

func (c *aggregatingContextManager) GetContext(requester avsinterfaces.ContextRequester) {
	c.mu.Lock()
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for id, state := range c.states {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&buf, "%q:%s", id.Namespace+"."+id.Name, state)
	}
	buf.WriteByte('}')
	c.mu.Unlock()

	requester.OnContextAvailable(buf.String())
}

// poolAttachmentManager resolves attachment ids against an in-memory
// blob store, fetching each one on internal/pool's goroutine pool so
// that several Speak directives referencing different attachments
// don't serialize behind a single simulated network round trip.
type poolAttachmentManager struct {
	pool   *pool.GoroutinePool
	blobs  map[string][]byte
	delay  time.Duration
	logger *zap.Logger
}

func newPoolAttachmentManager(blobs map[string][]byte, delay time.Duration, logger *zap.Logger) *poolAttachmentManager {
	return &poolAttachmentManager{
		pool:   pool.NewGoroutinePool(pool.DefaultGoroutinePoolConfig()),
		blobs:  blobs,
		delay:  delay,
		logger: logger,
	}
}

func (m *poolAttachmentManager) CreateReader(attachmentID string, policy avsinterfaces.AttachmentReaderPolicy) (io.ReadCloser, error) {
	blob, ok := m.blobs[attachmentID]
	if !ok {
		return nil, fmt.Errorf("attachment %q not found", attachmentID)
	}

	pr, pw := io.Pipe()
	err := m.pool.Submit(context.Background(), func(ctx context.Context) error {
		defer pw.Close()
		m.logger.Debug("fetching attachment", zap.String("attachment_id", attachmentID))
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		_, writeErr := pw.Write(blob)
		return writeErr
	})
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("submit attachment fetch: %w", err)
	}

	return pr, nil
}

func (m *poolAttachmentManager) Close() {
	m.pool.Close()
}

// logExceptionSender reports directive failures by logging them.
type logExceptionSender struct {
	logger *zap.Logger
}

func (s *logExceptionSender) SendExceptionEncountered(unparsedDirective string, errType avsinterfaces.ExceptionErrorType, message string) {
	s.logger.Warn("exception encountered",
		zap.String("error_type", errType.String()),
		zap.String("message", message),
	)
}

// bufferedMediaPlayer plays whatever it is given by draining the
// reader and reporting completion shortly afterward. It supports one
// source at a time, matching avsinterfaces.MediaPlayer's contract.
type bufferedMediaPlayer struct {
	mu       sync.Mutex
	nextID   uint64
	observer avsinterfaces.MediaPlayerObserver
	playing  map[uint64]chan struct{}
	logger   *zap.Logger
}

func newBufferedMediaPlayer(logger *zap.Logger) *bufferedMediaPlayer {
	return &bufferedMediaPlayer{
		playing: make(map[uint64]chan struct{}),
		logger:  logger,
	}
}

func (p *bufferedMediaPlayer) SetObserver(observer avsinterfaces.MediaPlayerObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = observer
}

func (p *bufferedMediaPlayer) SetSource(reader io.Reader) (uint64, avsinterfaces.PlayerStatus) {
	p.mu.Lock()
	p.nextID++
	sourceID := p.nextID
	p.mu.Unlock()

	data, err := io.ReadAll(reader)
	if err != nil {
		p.logger.Warn("failed to read source", zap.Error(err))
		return sourceID, avsinterfaces.PlayerStatusFailure
	}

	p.mu.Lock()
	p.playing[sourceID] = make(chan struct{})
	p.mu.Unlock()

	go p.simulatePlayback(sourceID, len(data))

	return sourceID, avsinterfaces.PlayerStatusSuccess
}

func (p *bufferedMediaPlayer) simulatePlayback(sourceID uint64, bytesLen int) {
	duration := time.Duration(bytesLen) * time.Microsecond
	if duration < 50*time.Millisecond {
		duration = 50 * time.Millisecond
	}

	p.mu.Lock()
	stop := p.playing[sourceID]
	p.mu.Unlock()

	select {
	case <-time.After(duration):
		p.mu.Lock()
		observer := p.observer
		_, active := p.playing[sourceID]
		delete(p.playing, sourceID)
		p.mu.Unlock()
		if active && observer != nil {
			observer.OnPlaybackFinished(sourceID)
		}
	case <-stop:
	}
}

func (p *bufferedMediaPlayer) Play(sourceID uint64) avsinterfaces.PlayerStatus {
	p.mu.Lock()
	observer := p.observer
	p.mu.Unlock()
	if observer != nil {
		observer.OnPlaybackStarted(sourceID)
	}
	return avsinterfaces.PlayerStatusSuccess
}

func (p *bufferedMediaPlayer) Stop(sourceID uint64) avsinterfaces.PlayerStatus {
	p.mu.Lock()
	stop, ok := p.playing[sourceID]
	if ok {
		delete(p.playing, sourceID)
	}
	observer := p.observer
	p.mu.Unlock()

	if !ok {
		return avsinterfaces.PlayerStatusFailure
	}
	close(stop)
	if observer != nil {
		observer.OnPlaybackFinished(sourceID)
	}
	return avsinterfaces.PlayerStatusSuccess
}

func (p *bufferedMediaPlayer) OffsetMillis(sourceID uint64) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.playing[sourceID]; !ok {
		return 0, fmt.Errorf("source %d is not playing", sourceID)
	}
	return 0, nil
}

// loggingResultSink reports a directive's outcome via structured logs.
type loggingResultSink struct {
	logger    *zap.Logger
	directive string
}

func (s *loggingResultSink) Completed() {
	s.logger.Info("directive completed", zap.String("directive", s.directive))
}

func (s *loggingResultSink) Failed(message string) {
	s.logger.Warn("directive failed", zap.String("directive", s.directive), zap.String("message", message))
}

func (s *loggingResultSink) Canceled() {
	s.logger.Info("directive canceled", zap.String("directive", s.directive))
}
