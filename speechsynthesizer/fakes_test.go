package speechsynthesizer

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/aurora-voice/avs-core/avsinterfaces"
)

// fakeMediaPlayer hands out incrementing source ids and never fires
// observer callbacks on its own: tests drive OnPlaybackStarted/
// Finished/Error explicitly, giving full control over interleaving.
type fakeMediaPlayer struct {
	mu         sync.Mutex
	observer   avsinterfaces.MediaPlayerObserver
	nextID     uint64
	playCalled chan uint64
	stopCalled chan uint64
}

func newFakeMediaPlayer() *fakeMediaPlayer {
	return &fakeMediaPlayer{
		playCalled: make(chan uint64, 8),
		stopCalled: make(chan uint64, 8),
	}
}

func (p *fakeMediaPlayer) SetObserver(o avsinterfaces.MediaPlayerObserver) { p.observer = o }

func (p *fakeMediaPlayer) SetSource(io.Reader) (uint64, avsinterfaces.PlayerStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	return p.nextID, avsinterfaces.PlayerStatusSuccess
}

func (p *fakeMediaPlayer) Play(sourceID uint64) avsinterfaces.PlayerStatus {
	p.playCalled <- sourceID
	return avsinterfaces.PlayerStatusSuccess
}

func (p *fakeMediaPlayer) Stop(sourceID uint64) avsinterfaces.PlayerStatus {
	p.stopCalled <- sourceID
	return avsinterfaces.PlayerStatusSuccess
}

func (p *fakeMediaPlayer) OffsetMillis(uint64) (int64, error) { return 1500, nil }

// fakeMessageSender captures every outbound event.
type fakeMessageSender struct {
	events chan avsinterfaces.Message
}

func newFakeMessageSender() *fakeMessageSender {
	return &fakeMessageSender{events: make(chan avsinterfaces.Message, 16)}
}

func (s *fakeMessageSender) SendMessage(_ context.Context, msg avsinterfaces.Message) error {
	s.events <- msg
	return nil
}

// capturedState is one SetState call recorded by fakeContextManager.
type capturedState struct {
	id           avsinterfaces.NamespaceAndName
	json         string
	requestToken uint
}

type fakeContextManager struct {
	mu     sync.Mutex
	states []capturedState
}

func newFakeContextManager() *fakeContextManager { return &fakeContextManager{} }

func (c *fakeContextManager) SetState(id avsinterfaces.NamespaceAndName, jsonState string, _ avsinterfaces.StateRefreshPolicy, token uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, capturedState{id: id, json: jsonState, requestToken: token})
	return nil
}

func (c *fakeContextManager) GetContext(avsinterfaces.ContextRequester) {}

func (c *fakeContextManager) snapshot() []capturedState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]capturedState, len(c.states))
	copy(out, c.states)
	return out
}

// fakeAttachmentManager resolves any attachment id to a fixed body.
type fakeAttachmentManager struct{}

func (fakeAttachmentManager) CreateReader(id string, _ avsinterfaces.AttachmentReaderPolicy) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("audio-bytes-" + id)), nil
}

// fakeExceptionSender records every ExceptionEncountered call.
type fakeExceptionSender struct {
	mu   sync.Mutex
	sent []string
}

func (e *fakeExceptionSender) SendExceptionEncountered(_ string, _ avsinterfaces.ExceptionErrorType, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, message)
}

// fakeResultSink records the terminal outcome reported for a directive.
type fakeResultSink struct {
	mu        sync.Mutex
	completed bool
	cancelled bool
	failedMsg string
	done      chan struct{}
}

func newFakeResultSink() *fakeResultSink {
	return &fakeResultSink{done: make(chan struct{}, 1)}
}

func (r *fakeResultSink) Completed() {
	r.mu.Lock()
	r.completed = true
	r.mu.Unlock()
	r.signal()
}

func (r *fakeResultSink) Failed(message string) {
	r.mu.Lock()
	r.failedMsg = message
	r.mu.Unlock()
	r.signal()
}

func (r *fakeResultSink) Canceled() {
	r.mu.Lock()
	r.cancelled = true
	r.mu.Unlock()
	r.signal()
}

func (r *fakeResultSink) signal() {
	select {
	case r.done <- struct{}{}:
	default:
	}
}
