package model

import "reflect"

// ModuleSource yields already-reflected module descriptors. Concrete command
// attribute discovery — walking annotated types and methods — is out of the
// core's scope (spec.md §1); the core only ever consumes the descriptors a
// ModuleSource produces. github.com/mrwong99/interactink/internal/reflectsource
// provides one concrete implementation driven by Go struct tags;
// host code may supply any other ModuleSource (YAML-declared modules,
// hand-built descriptor literals, a different reflection scheme).
type ModuleSource interface {
	Modules() ([]*ModuleDescriptor, error)
}

// ModuleDescriptor is the pre-reflected shape of one [Module], consumed by
// the builder. Every slice is in declared/source order — the builder
// preserves that order into the built tree and, transitively, into
// published payload option order (spec.md §8).
type ModuleDescriptor struct {
	Name              string
	GroupName         string
	Description       string
	DefaultPermission bool
	DontAutoRegister  bool

	Children             []*ModuleDescriptor
	SlashCommands        []*SlashCommandDescriptor
	ContextCommands      []*ContextCommandDescriptor
	ComponentHandlers    []*ComponentHandlerDescriptor
	ModalHandlers        []*ModalHandlerDescriptor
	AutocompleteHandlers []*AutocompleteHandlerDescriptor

	Attributes    []any
	Preconditions []Precondition
	Lifecycle     ModuleLifecycle
}

// SlashCommandDescriptor is the pre-reflected shape of one [SlashCommand].
type SlashCommandDescriptor struct {
	Name              string
	Description       string
	DefaultPermission bool
	IgnoreGroupNames  bool
	Parameters        []*ParameterDescriptor
	Handler           HandlerCallback
	Attributes        []any
	Preconditions     []Precondition
}

// ParameterDescriptor is the pre-reflected shape of one [Parameter]. A
// descriptor whose Type is a struct and IsComplex is true is flattened by
// the builder into one Parameter per public field (spec.md §4.1).
type ParameterDescriptor struct {
	Name                   string
	Type                   reflect.Type
	IsRequired             bool
	DefaultValue           any
	Description            string
	Min, Max               *float64
	ChannelTypes           []int
	Choices                []Choice
	AutocompleteHandlerRef string
	IsComplex              bool
	TypeConverterRef       string
	Attributes             []any
	Preconditions          []Precondition
}

// ContextCommandDescriptor is the pre-reflected shape of one [ContextCommand].
type ContextCommandDescriptor struct {
	Name              string
	CommandType       CommandType
	DefaultPermission bool
	Handler           HandlerCallback
	Attributes        []any
	Preconditions     []Precondition
}

// ComponentHandlerDescriptor is the pre-reflected shape of one [ComponentHandler].
type ComponentHandlerDescriptor struct {
	Name          string
	Handler       HandlerCallback
	Attributes    []any
	Preconditions []Precondition
}

// ModalHandlerDescriptor is the pre-reflected shape of one [ModalHandler].
type ModalHandlerDescriptor struct {
	Name          string
	ModalType     reflect.Type
	Fields        []ModalField
	Handler       HandlerCallback
	Attributes    []any
	Preconditions []Precondition
}

// AutocompleteHandlerDescriptor is the pre-reflected shape of one
// [AutocompleteHandler].
type AutocompleteHandlerDescriptor struct {
	ID            string
	CommandPath   []string
	ParameterName string
	Handler       func(ctx *Context, partial string) ([]Choice, error)
}
