package speechsynthesizer

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/aurora-voice/avs-core/avsinterfaces"
)

type eventPayload struct {
	Token string `json:"token"`
}

func buildPayload(token string) []byte {
	// eventPayload never fails to marshal; a string field cannot
	// produce an encoding error.
	b, _ := json.Marshal(eventPayload{Token: token})
	return b
}

// emitEvent sends a SpeechStarted/SpeechFinished event with token as
// its only payload field.
func (a *Agent) emitEvent(name, token string) {
	msg := avsinterfaces.Message{Name: name, Payload: buildPayload(token)}
	if err := a.messageSender.SendMessage(context.Background(), msg); err != nil {
		a.logger.Warn("failed to send event", zap.String("event", name), zap.Error(err))
	}
}
