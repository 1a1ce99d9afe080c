// Package model defines the in-memory command tree: modules, slash
// commands, context commands, component/modal handlers, autocomplete
// handlers, and their parameters. The tree is built once by
// [github.com/mrwong99/interactink/pkg/interactink/builder] and is
// immutable thereafter — mutation happens by building a new tree and
// swapping it in, never by editing a live node.
package model

import "reflect"

// CommandType distinguishes a [ContextCommand]'s target.
type CommandType int

const (
	// UserCommand targets a single guild member.
	UserCommand CommandType = iota
	// MessageCommand targets a single message.
	MessageCommand
)

// String renders the command type's platform-facing name.
func (t CommandType) String() string {
	switch t {
	case UserCommand:
		return "User"
	case MessageCommand:
		return "Message"
	default:
		return "Unknown"
	}
}

// Precondition is a predicate evaluated before a handler runs. ok reports
// whether it is satisfied; reason explains a rejection and may be empty.
type Precondition func(ctx *Context) (ok bool, reason string)

// HandlerCallback is the synthesized invocation target for a resolved
// command, context command, component handler, or modal handler. args holds
// the type-converted parameters in the command's declared order; services
// resolves host dependencies (the ServiceLocator contract, spec §1).
type HandlerCallback func(ctx *Context, args []any, services ServiceLocator) (any, error)

// ServiceLocator resolves host-registered dependencies by type, the
// out-of-core DI container contract referenced by spec.md §1.
type ServiceLocator interface {
	Resolve(t reflect.Type) (any, bool)
}

// ModuleLifecycle is an optional capability a [ModuleDescriptor] may supply
// through its Lifecycle field (spec.md §9 design note) to hook the three
// points in a module's life the original framework exposed via base-class
// virtuals.
type ModuleLifecycle interface {
	// OnModuleBuilding runs once at build time, after children are attached
	// and before the module's own commands and handlers are built and
	// validated, so attributes and preconditions it sets on m reach them.
	OnModuleBuilding(m *Module) error
	// BeforeExecute runs immediately before argument synthesis for any
	// command owned by this module (or a descendant, via inheritance).
	BeforeExecute(ctx *Context) error
	// AfterExecute runs immediately after result reporting.
	AfterExecute(ctx *Context, result *ExecuteResult)
}

// Module is a named group of handlers. See spec.md §3 for field semantics.
type Module struct {
	Name              string
	GroupName         string
	Description       string
	DefaultPermission bool
	DontAutoRegister  bool

	Children              []*Module
	SlashCommands         []*SlashCommand
	ContextCommands       []*ContextCommand
	ComponentHandlers     []*ComponentHandler
	ModalHandlers         []*ModalHandler
	AutocompleteHandlers  []*AutocompleteHandler

	Attributes    []any
	Preconditions []Precondition
	Lifecycle     ModuleLifecycle

	Parent *Module // weak back-link; nil for a root module
}

// IsSlashGroup reports whether m publishes a platform-visible command group.
func (m *Module) IsSlashGroup() bool { return m.GroupName != "" }

// Depth returns the number of slash-group ancestors including m itself, used
// by the builder to enforce the depth-≤2 invariant (spec.md §3).
func (m *Module) Depth() int {
	depth := 0
	for cur := m; cur != nil; cur = cur.Parent {
		if cur.IsSlashGroup() {
			depth++
		}
	}
	return depth
}

// FullPath returns the group names of m's slash-group ancestors plus m's own,
// root first, used for SlashMap keys and uniqueness checks.
func (m *Module) FullPath() []string {
	var parts []string
	for cur := m; cur != nil; cur = cur.Parent {
		if cur.IsSlashGroup() {
			parts = append([]string{cur.GroupName}, parts...)
		}
	}
	return parts
}

// SlashCommand is a leaf platform command or subcommand. See spec.md §3.
type SlashCommand struct {
	Name               string
	Description        string
	DefaultPermission  bool
	IgnoreGroupNames   bool
	Parameters         []*Parameter
	Handler            HandlerCallback
	Attributes         []any
	Preconditions      []Precondition

	Module *Module // owning module, set by the builder
}

// FullPath returns the command's whole slash-map key: the owning module's
// group chain followed by the command's own name, unless IgnoreGroupNames is
// set, in which case the command escapes to the root.
func (c *SlashCommand) FullPath() []string {
	if c.IgnoreGroupNames || c.Module == nil {
		return []string{c.Name}
	}
	return append(c.Module.FullPath(), c.Name)
}

// SupportsWildcards implements cmdmap.Leaf. Slash command paths never use
// wildcard syntax.
func (c *SlashCommand) SupportsWildcards() bool { return false }

// Parameter describes one slash-command argument or one flattened field of a
// complex parameter. See spec.md §3.
type Parameter struct {
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
}

// Choice is one static option offered for a [Parameter]. Value is a string,
// int64, or float64 per spec.md §3.
type Choice struct {
	Name  string
	Value any
}

// ContextCommand targets a user or a message. See spec.md §3.
type ContextCommand struct {
	Name              string
	CommandType       CommandType
	DefaultPermission bool
	Handler           HandlerCallback
	Attributes        []any
	Preconditions     []Precondition

	Module *Module
}

// ComponentHandler matches a message-component interaction's custom id
// against a wildcard pattern. See spec.md §3, §4.2, §6 (wildcard grammar).
type ComponentHandler struct {
	Name          string // the raw pattern, e.g. "vote:{id:int}"
	Handler       HandlerCallback
	Attributes    []any
	Preconditions []Precondition
	Wildcards     bool

	Module *Module
}

// SupportsWildcards implements cmdmap.Leaf.
func (c *ComponentHandler) SupportsWildcards() bool { return c.Wildcards }

// ModalField binds one modal struct field to the text-input custom id it
// submits under.
type ModalField struct {
	FieldName string
	CustomID  string
	FieldType reflect.Type
}

// ModalHandler matches a modal-submit interaction's custom id, and describes
// how to populate the modal struct from submitted field values.
type ModalHandler struct {
	Name          string
	ModalType     reflect.Type
	Fields        []ModalField
	Handler       HandlerCallback
	Attributes    []any
	Preconditions []Precondition
	Wildcards     bool

	Module *Module
}

// SupportsWildcards implements cmdmap.Leaf.
func (h *ModalHandler) SupportsWildcards() bool { return h.Wildcards }

// AutocompleteHandler produces suggestions for one parameter of an
// in-progress slash command, or stands alone keyed by id.
type AutocompleteHandler struct {
	ID            string
	CommandPath   []string
	ParameterName string
	Handler       func(ctx *Context, partial string) ([]Choice, error)

	Module *Module
}
