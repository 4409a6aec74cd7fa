package speechsynthesizer

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/aurora-voice/avs-core/avsinterfaces"
)

// speechStateName is the namespace/name AVS uses to address the
// SpeechSynthesizer's published context state.
var speechStateName = avsinterfaces.NamespaceAndName{Namespace: "SpeechSynthesizer", Name: "SpeechState"}

type stateJSON struct {
	Token                string `json:"token"`
	OffsetInMilliseconds int64  `json:"offsetInMilliseconds"`
	PlayerActivity       string `json:"playerActivity"`
}

func buildState(token string, offsetMillis int64, playerActivity string) string {
	b, _ := json.Marshal(stateJSON{
		Token:                token,
		OffsetInMilliseconds: offsetMillis,
		PlayerActivity:       playerActivity,
	})
	return string(b)
}

// currentOffsetMillis reads the media player's offset for the active
// source, defaulting to 0 if there is none or the player errors.
func (a *Agent) currentOffsetMillis() int64 {
	if a.sourceID == 0 {
		return 0
	}
	offset, err := a.player.OffsetMillis(a.sourceID)
	if err != nil {
		return 0
	}
	return offset
}

// updateContextAndEmit publishes the current playback state and, if
// eventName is non-empty, emits the corresponding event. It is the
// proactive path described for entering Playing and Finished: no
// request token is associated with this publish.
func (a *Agent) updateContextAndEmit(state State, token string, eventName string) {
	stateStr := buildState(token, a.currentOffsetMillis(), state.String())
	if err := a.contextManager.SetState(speechStateName, stateStr, avsinterfaces.StateRefreshNever, 0); err != nil {
		a.logger.Warn("failed to publish speech state", zap.Error(err))
	}
	if eventName != "" {
		a.emitEvent(eventName, token)
	}
}

// ProvideState answers a context manager's request for the
// SpeechSynthesizer's current state, tagging the reply with
// stateRequestToken so the context manager can match it to the
// pending GetContext call it belongs to.
func (a *Agent) ProvideState(id avsinterfaces.NamespaceAndName, stateRequestToken uint) {
	_ = a.executor.Submit(context.Background(), func() {
		a.executeProvideState(stateRequestToken)
	})
}

func (a *Agent) executeProvideState(stateRequestToken uint) {
	token := ""
	if a.currentInfo != nil {
		token = a.currentInfo.token
	}

	a.mu.Lock()
	state := a.currentState
	a.mu.Unlock()

	stateStr := buildState(token, a.currentOffsetMillis(), state.String())
	if err := a.contextManager.SetState(speechStateName, stateStr, avsinterfaces.StateRefreshNever, stateRequestToken); err != nil {
		a.logger.Warn("failed to answer provideState", zap.Error(err))
	}
}

// OnContextAvailable and OnContextFailure satisfy
// avsinterfaces.ContextRequester for any GetContext call the agent
// might issue. The Speak flow's own events carry only a token and
// never need a full context bundle, so these simply log; they exist
// so the agent can serve as a ContextRequester if a future directive
// needs one.
func (a *Agent) OnContextAvailable(jsonContext string) {
	a.logger.Debug("context available", zap.Int("bytes", len(jsonContext)))
}

func (a *Agent) OnContextFailure(err error) {
	a.logger.Warn("context request failed", zap.Error(err))
}
