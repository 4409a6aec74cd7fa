package speechsynthesizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aurora-voice/avs-core/avsinterfaces"
	"github.com/aurora-voice/avs-core/capabilityagent"
)

// supportedFormats lists the codec names a Speak payload's format
// field may name. The playback engine is out of this package's
// scope, so this is a whitelist of names it is assumed to accept.
var supportedFormats = map[string]bool{
	"AUDIO_MPEG": true,
}

var (
	errMissingToken   = errors.New("speechsynthesizer: missing token")
	errMissingFormat  = errors.New("speechsynthesizer: missing format")
	errMissingURL     = errors.New("speechsynthesizer: missing url")
	errUnsupportedFmt = errors.New("speechsynthesizer: unsupported format")
	errUnresolvedURL  = errors.New("speechsynthesizer: url does not resolve to an attachment")
)

type speakPayload struct {
	Token  string `json:"token"`
	Format string `json:"format"`
	URL    string `json:"url"`
}

// validatedSpeak is the parsed, resource-resolved result of
// validating a Speak directive's payload.
type validatedSpeak struct {
	token  string
	reader io.ReadCloser
}

// validateInfo parses and validates a Speak directive's payload,
// resolving its attachment reference into a readable stream.
// checkResult additionally requires a non-nil result sink, mirroring
// the AVS SDK's validateInfo(checkResult) parameter: the
// handleDirectiveImmediately fast path never has a result sink to
// check.
func (a *Agent) validateInfo(directive capabilityagent.Directive, result capabilityagent.ResultSink, checkResult bool) (*validatedSpeak, error) {
	if checkResult && result == nil {
		return nil, fmt.Errorf("speechsynthesizer: directive %s has no result sink", directive.MessageID)
	}

	var payload speakPayload
	if err := json.Unmarshal(directive.Payload, &payload); err != nil {
		return nil, fmt.Errorf("speechsynthesizer: malformed payload: %w", err)
	}

	if payload.Token == "" {
		return nil, errMissingToken
	}
	if payload.Format == "" {
		return nil, errMissingFormat
	}
	if !supportedFormats[payload.Format] {
		return nil, fmt.Errorf("%w: %s", errUnsupportedFmt, payload.Format)
	}
	if payload.URL == "" {
		return nil, errMissingURL
	}

	const cidPrefix = "cid:"
	if !strings.HasPrefix(payload.URL, cidPrefix) {
		return nil, fmt.Errorf("%w: %s", errUnresolvedURL, payload.URL)
	}
	attachmentID := strings.TrimPrefix(payload.URL, cidPrefix)

	reader, err := a.attachmentManager.CreateReader(attachmentID, avsinterfaces.AttachmentReaderBlocking)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnresolvedURL, err)
	}

	return &validatedSpeak{token: payload.Token, reader: reader}, nil
}
