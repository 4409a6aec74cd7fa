package speechsynthesizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aurora-voice/avs-core/capabilityagent"
	"github.com/aurora-voice/avs-core/focus"
)

type testFixture struct {
	agent   *Agent
	player  *fakeMediaPlayer
	sender  *fakeMessageSender
	ctxMgr  *fakeContextManager
	excSend *fakeExceptionSender
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	player := newFakeMediaPlayer()
	sender := newFakeMessageSender()
	ctxMgr := newFakeContextManager()
	excSend := &fakeExceptionSender{}

	fm := focus.NewManager(focus.Config{})
	t.Cleanup(fm.Close)

	a, err := NewAgent(Config{
		MediaPlayer:        player,
		MessageSender:      sender,
		FocusManager:       fm,
		ContextManager:     ctxMgr,
		AttachmentManager:  fakeAttachmentManager{},
		ExceptionSender:    excSend,
		StateChangeTimeout: 300 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return &testFixture{agent: a, player: player, sender: sender, ctxMgr: ctxMgr, excSend: excSend}
}

func speakDirective(messageID, token string) capabilityagent.Directive {
	payload, _ := json.Marshal(map[string]string{
		"token":  token,
		"format": "AUDIO_MPEG",
		"url":    "cid:blob-" + messageID,
	})
	return capabilityagent.Directive{
		Namespace: "SpeechSynthesizer",
		Name:      "Speak",
		MessageID: messageID,
		Payload:   payload,
		Unparsed:  string(payload),
	}
}

func waitForPlay(t *testing.T, p *fakeMediaPlayer) uint64 {
	t.Helper()
	select {
	case id := <-p.playCalled:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Play")
		return 0
	}
}

func waitForStop(t *testing.T, p *fakeMediaPlayer) uint64 {
	t.Helper()
	select {
	case id := <-p.stopCalled:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Stop")
		return 0
	}
}

func waitForEvent(t *testing.T, s *fakeMessageSender, name string) eventPayload {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-s.events:
			if msg.Name != name {
				continue
			}
			var p eventPayload
			require.NoError(t, json.Unmarshal(msg.Payload, &p))
			return p
		case <-deadline:
			t.Fatalf("timed out waiting for event %s", name)
			return eventPayload{}
		}
	}
}

func waitForResult(t *testing.T, r *fakeResultSink) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for directive result")
	}
}

// S5 — Speak happy path.
func TestScenario_SpeakHappyPath(t *testing.T) {
	f := newTestFixture(t)

	result := newFakeResultSink()
	directive := speakDirective("m1", "t1")
	info := &capabilityagent.DirectiveInfo{Directive: directive, Result: result}

	require.NoError(t, f.agent.HandleDirective(info))

	sourceID := waitForPlay(t, f.player)
	f.agent.OnPlaybackStarted(sourceID)

	started := waitForEvent(t, f.sender, "SpeechStarted")
	require.Equal(t, "t1", started.Token)

	f.agent.OnPlaybackFinished(sourceID)

	finished := waitForEvent(t, f.sender, "SpeechFinished")
	require.Equal(t, "t1", finished.Token)

	waitForResult(t, result)
	require.True(t, result.completed)
	require.False(t, result.cancelled)
	require.Empty(t, result.failedMsg)

	// Invariant 7: context published on entering Playing/Finished
	// carries the matching playerActivity value.
	states := f.ctxMgr.snapshot()
	require.GreaterOrEqual(t, len(states), 2)

	var playing, finishedState stateJSON
	require.NoError(t, json.Unmarshal([]byte(states[len(states)-2].json), &playing))
	require.Equal(t, "PLAYING", playing.PlayerActivity)

	require.NoError(t, json.Unmarshal([]byte(states[len(states)-1].json), &finishedState))
	require.Equal(t, "FINISHED", finishedState.PlayerActivity)
}

// S6 — Speak preempted by an external acquirer of the same channel.
func TestScenario_SpeakPreempted(t *testing.T) {
	f := newTestFixture(t)

	result := newFakeResultSink()
	directive := speakDirective("m1", "t1")
	info := &capabilityagent.DirectiveInfo{Directive: directive, Result: result}

	require.NoError(t, f.agent.HandleDirective(info))

	sourceID := waitForPlay(t, f.player)
	f.agent.OnPlaybackStarted(sourceID)
	waitForEvent(t, f.sender, "SpeechStarted")

	// An external observer acquires the same channel, displacing the
	// agent's observer with focus None.
	rival := focus.ChannelObserverFunc(func(focus.FocusState) {})
	require.True(t, f.agent.focusManager.AcquireChannel(focus.DialogChannelName, rival, "rival-activity"))

	stoppedSourceID := waitForStop(t, f.player)
	require.Equal(t, sourceID, stoppedSourceID)

	// The player confirms the stop asynchronously via the same
	// finished callback a natural completion would use.
	f.agent.OnPlaybackFinished(sourceID)

	finished := waitForEvent(t, f.sender, "SpeechFinished")
	require.Equal(t, "t1", finished.Token)

	waitForResult(t, result)
	require.True(t, result.completed)
}

// Invariant 6: cancelling a directive that has already reached Playing
// still yields exactly one SpeechFinished, via the same stopPlaying ->
// OnPlaybackFinished path preemption uses, and reports the directive
// Canceled rather than Completed.
func TestScenario_CancelWhilePlaying(t *testing.T) {
	f := newTestFixture(t)

	result := newFakeResultSink()
	directive := speakDirective("m1", "t1")
	info := &capabilityagent.DirectiveInfo{Directive: directive, Result: result}

	require.NoError(t, f.agent.HandleDirective(info))

	sourceID := waitForPlay(t, f.player)
	f.agent.OnPlaybackStarted(sourceID)
	waitForEvent(t, f.sender, "SpeechStarted")

	f.agent.CancelDirective(info)

	stoppedSourceID := waitForStop(t, f.player)
	require.Equal(t, sourceID, stoppedSourceID)

	// The player confirms the stop asynchronously via the same
	// finished callback a natural completion would use.
	f.agent.OnPlaybackFinished(sourceID)

	finished := waitForEvent(t, f.sender, "SpeechFinished")
	require.Equal(t, "t1", finished.Token)

	waitForResult(t, result)
	require.True(t, result.cancelled)
	require.False(t, result.completed)
}

// Invariant 6: for every SpeechStarted, exactly one SpeechFinished (or
// failure) is emitted before any subsequent SpeechStarted.
func TestInvariant_SpeechStartedFinishedPairing(t *testing.T) {
	f := newTestFixture(t)

	for i, token := range []string{"t1", "t2"} {
		messageID := "m" + string(rune('1'+i))
		result := newFakeResultSink()
		info := &capabilityagent.DirectiveInfo{Directive: speakDirective(messageID, token), Result: result}

		require.NoError(t, f.agent.HandleDirective(info))
		sourceID := waitForPlay(t, f.player)
		f.agent.OnPlaybackStarted(sourceID)

		started := waitForEvent(t, f.sender, "SpeechStarted")
		require.Equal(t, token, started.Token)

		f.agent.OnPlaybackFinished(sourceID)

		finished := waitForEvent(t, f.sender, "SpeechFinished")
		require.Equal(t, token, finished.Token)

		waitForResult(t, result)
	}
}

// Malformed payloads never acquire focus and report an exception.
func TestSpeak_MalformedPayloadReportsExceptionAndFails(t *testing.T) {
	f := newTestFixture(t)

	result := newFakeResultSink()
	directive := capabilityagent.Directive{
		Namespace: "SpeechSynthesizer",
		Name:      "Speak",
		MessageID: "bad1",
		Payload:   []byte(`{"format":"AUDIO_MPEG","url":"cid:x"}`), // missing token
		Unparsed:  `{"format":"AUDIO_MPEG","url":"cid:x"}`,
	}
	info := &capabilityagent.DirectiveInfo{Directive: directive, Result: result}

	require.NoError(t, f.agent.HandleDirective(info))
	waitForResult(t, result)

	require.NotEmpty(t, result.failedMsg)
	f.excSend.mu.Lock()
	require.Len(t, f.excSend.sent, 1)
	f.excSend.mu.Unlock()

	select {
	case <-f.player.playCalled:
		t.Fatal("player should never have been asked to play")
	case <-time.After(50 * time.Millisecond):
	}
}
