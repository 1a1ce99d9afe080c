package model

import "context"

// InteractionKind classifies an inbound [InteractionEvent].
type InteractionKind int

const (
	SlashInteraction InteractionKind = iota
	ContextInteraction
	ComponentInteraction
	ModalInteraction
	AutocompleteInteraction
)

// InteractionEvent is the framework's view of one inbound interaction. The
// wire transport (HTTP + gateway) is out of the core's scope per spec.md §1;
// Raw carries whatever platform-specific payload the transport received, and
// the core never inspects it beyond what's copied into this struct.
type InteractionEvent struct {
	Kind InteractionKind
	ID   string

	// Path is the slash/context command path ([]string{"admin", "kick"}), or
	// nil for component/modal interactions.
	Path []string

	// CustomID is the component/modal custom identifier, empty for
	// slash/context interactions.
	CustomID string

	// Raw is the opaque platform-specific interaction payload (spec.md §1:
	// "Concrete platform DTOs ... treated as opaque payloads passed
	// through").
	Raw any
}

// Context is passed to every precondition, converter, lifecycle hook, and
// handler callback. It carries the inbound event, a cancellable
// context.Context for suspension points (spec.md §5), and the resolved
// command/handler metadata once lookup succeeds.
type Context struct {
	context.Context

	Event *InteractionEvent

	// Command is whichever leaf metadata was resolved: *SlashCommand,
	// *ContextCommand, *ComponentHandler, or *ModalHandler. Nil before
	// lookup succeeds.
	Command any

	// Captures holds named regex captures from a wildcard match, in the
	// order they appeared in the pattern (spec.md §4.2, §4.4).
	Captures []Capture
}

// Capture is one named wildcard capture from a component/modal custom id.
type Capture struct {
	Name  string
	Value string
}

// WithContext returns a shallow copy of c using the given context.Context for
// cancellation, preserving Event/Command/Captures.
func (c *Context) WithContext(ctx context.Context) *Context {
	cp := *c
	cp.Context = ctx
	return &cp
}
