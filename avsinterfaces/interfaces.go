// Package avsinterfaces defines the collaborator contracts a
// capability agent needs from its host: sending events, contributing
// to the shared context, reading directive attachments, reporting
// exceptions, and driving a media player. A capability agent depends
// only on these interfaces, never on a concrete transport or player.
package avsinterfaces

import (
	"context"
	"io"
)

// Message is an outbound event ready to be sent to the cloud. Payload
// is the already-serialized event body (JSON per the AVS message
// envelope); attachments are optional binary streams referenced from
// the payload.
type Message struct {
	Name        string
	Payload     []byte
	Attachments []io.Reader
}

// MessageSender delivers outbound events.
type MessageSender interface {
	SendMessage(ctx context.Context, msg Message) error
}

// StateRefreshPolicy tells the context manager how eagerly a piece of
// state must be refreshed before it is included in an outgoing context.
type StateRefreshPolicy int

const (
	// StateRefreshNever means the last value SetState provided is
	// always acceptable; the context manager never blocks waiting for
	// a fresher one.
	StateRefreshNever StateRefreshPolicy = iota
	// StateRefreshSometimes means the state provider may be asked to
	// refresh its value before a context is assembled.
	StateRefreshSometimes
	// StateRefreshAlways means the state provider must supply a fresh
	// value every time a context is assembled.
	StateRefreshAlways
)

// NamespaceAndName identifies a piece of state or a directive/event
// within a namespace, mirroring the AVS interface/name addressing
// scheme.
type NamespaceAndName struct {
	Namespace string
	Name      string
}

// ContextRequester is notified of the outcome of an asynchronous
// GetContext call.
type ContextRequester interface {
	OnContextAvailable(jsonContext string)
	OnContextFailure(err error)
}

// ContextManager aggregates per-namespace state from every registered
// capability agent into a single JSON context blob attached to
// outgoing events.
type ContextManager interface {
	// SetState publishes the current value of a namespaced piece of
	// state. jsonState is pre-serialized JSON. stateRequestToken should
	// be 0 for a proactive publish, or the token a prior ProvideState
	// call was asked to satisfy.
	SetState(id NamespaceAndName, jsonState string, policy StateRefreshPolicy, stateRequestToken uint) error

	// GetContext asynchronously assembles the full context and
	// reports it to requester.
	GetContext(requester ContextRequester)
}

// StateProvider is implemented by a capability agent that publishes
// state into the context. The context manager invokes ProvideState
// when it needs a fresh value for id; the provider must eventually
// reply via a matching ContextManager.SetState call carrying the same
// stateRequestToken.
type StateProvider interface {
	ProvideState(id NamespaceAndName, stateRequestToken uint)
}

// AttachmentReaderPolicy controls how CreateReader behaves when the
// requested attachment has not yet fully arrived.
type AttachmentReaderPolicy int

const (
	// AttachmentReaderBlocking waits for data to become available.
	AttachmentReaderBlocking AttachmentReaderPolicy = iota
	// AttachmentReaderNonBlocking returns immediately with whatever
	// data is currently buffered.
	AttachmentReaderNonBlocking
)

// AttachmentManager resolves attachment identifiers referenced by a
// directive payload into readable streams.
type AttachmentManager interface {
	CreateReader(attachmentID string, policy AttachmentReaderPolicy) (io.ReadCloser, error)
}

// ExceptionErrorType classifies why a directive could not be handled,
// per the AVS ExceptionEncountered event schema.
type ExceptionErrorType int

const (
	ExceptionUnsupportedOperation ExceptionErrorType = iota
	ExceptionUnexpectedInformationState
	ExceptionInternalError
)

// String implements fmt.Stringer using the wire names AVS expects.
func (e ExceptionErrorType) String() string {
	switch e {
	case ExceptionUnsupportedOperation:
		return "UNSUPPORTED_OPERATION"
	case ExceptionUnexpectedInformationState:
		return "UNEXPECTED_INFORMATION_RECEIVED"
	case ExceptionInternalError:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// ExceptionSender reports a directive that could not be handled.
type ExceptionSender interface {
	SendExceptionEncountered(unparsedDirective string, errType ExceptionErrorType, message string)
}

// PlayerStatus reports the outcome of a media player operation.
type PlayerStatus int

const (
	PlayerStatusSuccess PlayerStatus = iota
	PlayerStatusPending
	PlayerStatusFailure
)

// MediaPlayerObserver receives playback lifecycle callbacks. A
// MediaPlayer implementation must invoke exactly one of Finished or
// Error for every source that reaches Play, whether it ran to
// completion or was cut short by Stop.
type MediaPlayerObserver interface {
	OnPlaybackStarted(sourceID uint64)
	OnPlaybackFinished(sourceID uint64)
	OnPlaybackError(sourceID uint64, message string)
}

// MediaPlayer plays a single audio stream at a time. SetSource
// attaches a new stream and returns an opaque source id used to
// correlate later observer callbacks and to disambiguate a Stop call
// racing with a stream that already finished on its own.
type MediaPlayer interface {
	SetSource(reader io.Reader) (sourceID uint64, status PlayerStatus)
	Play(sourceID uint64) PlayerStatus
	Stop(sourceID uint64) PlayerStatus
	OffsetMillis(sourceID uint64) (int64, error)
	SetObserver(observer MediaPlayerObserver)
}
