// Package capabilityagent defines the shared directive-handling
// contract every capability agent implements: a directive arrives
// tagged with a namespace and name, is optionally preprocessed, is
// handled once its dependencies (focus, attachments) are satisfied,
// and can be canceled at any point before it completes. This mirrors
// the AVS device SDK's DirectiveHandlerInterface / DirectiveInfo
// split, adapted so Go callers pass values instead of managing
// shared-pointer lifetimes.
package capabilityagent

import "github.com/aurora-voice/avs-core/avsinterfaces"

// BlockingMedium names a resource a directive occupies for the
// duration of its handling, used to serialize directives that must
// not overlap (for example, two Speak directives).
type BlockingMedium int

const (
	BlockingMediumNone BlockingMedium = iota
	BlockingMediumAudio
	BlockingMediumVisual
)

// BlockingPolicy declares which mediums a directive occupies while
// being handled.
type BlockingPolicy struct {
	Medium     BlockingMedium
	IsBlocking bool
}

// Directive is an inbound instruction from the cloud.
type Directive struct {
	Namespace string
	Name      string
	MessageID string
	DialogID  string
	Payload   []byte
	Unparsed  string
}

// NamespaceAndName returns the directive's routing key.
func (d Directive) NamespaceAndName() avsinterfaces.NamespaceAndName {
	return avsinterfaces.NamespaceAndName{Namespace: d.Namespace, Name: d.Name}
}

// ResultSink lets a handler report the outcome of a directive back to
// its dispatcher, which in turn is responsible for surfacing it to
// the cloud (an ExceptionEncountered event on Failed, nothing
// observable on Completed or Canceled).
type ResultSink interface {
	Completed()
	Failed(message string)
	Canceled()
}

// DirectiveInfo bundles a Directive with the sink used to report its
// outcome. Handlers that need to track per-directive state embed this
// alongside their own fields, mirroring the SDK's
// DirectiveInfo/SpeakDirectiveInfo split.
type DirectiveInfo struct {
	Directive Directive
	Result    ResultSink
	Cancelled bool
}

// DirectiveHandler processes directives for one or more namespaces.
// HandleDirectiveImmediately is for directives delivered without a
// preHandle step or a result sink; PreHandleDirective/HandleDirective/
// CancelDirective are for directives whose outcome is reported back
// through DirectiveInfo.Result.
type DirectiveHandler interface {
	HandleDirectiveImmediately(directive Directive)
	PreHandleDirective(info *DirectiveInfo)
	HandleDirective(info *DirectiveInfo) error
	CancelDirective(info *DirectiveInfo)
	OnDeregistered()
}
