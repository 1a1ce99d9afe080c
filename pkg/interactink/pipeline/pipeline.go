// Package pipeline implements the four-stage execution pipeline spec.md
// §4.4 describes: argument synthesis, precondition evaluation, dispatch,
// and result reporting, for each of the four interaction kinds.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mrwong99/interactink/pkg/interactink/cmdmap"
	"github.com/mrwong99/interactink/pkg/interactink/convert"
	"github.com/mrwong99/interactink/pkg/interactink/events"
	"github.com/mrwong99/interactink/pkg/interactink/ikerr"
	"github.com/mrwong99/interactink/pkg/interactink/model"
)

// Options configures pipeline behavior (spec.md §6 "Configuration options").
type Options struct {
	RunAsync                bool
	ThrowOnError            bool
	DeleteUnknownCommandAck bool
	CustomIDDelimiters      string
	WildcardOpen            string
	WildcardClose           string
}

// DefaultOptions matches the wildcard defaults spec.md §6 names.
func DefaultOptions() Options {
	return Options{
		CustomIDDelimiters: ":",
		WildcardOpen:       "{",
		WildcardClose:      "}",
	}
}

// AckDeleter deletes an interaction's original acknowledgement, invoked on a
// lookup miss when Options.DeleteUnknownCommandAck is set. A concrete
// transport adapter (pkg/interactink/discord) implements this against its
// own session.
type AckDeleter interface {
	DeleteOriginalAck(ctx context.Context, interactionID string) error
}

// Executed is published on the matching *Executed event after every run,
// successful or not (spec.md §6, §7).
type Executed struct {
	Command any // *model.SlashCommand, *model.ContextCommand, *model.ComponentHandler, or *model.ModalHandler; nil on lookup miss
	Ctx     *model.Context
	Result  *model.ExecuteResult
}

// Pipeline executes resolved interactions against the current Snapshot. A
// Pipeline is safe for concurrent use; Snapshot swaps happen via SetSnapshot
// without blocking in-flight executions (spec.md §5).
type Pipeline struct {
	snapshot atomic.Pointer[Snapshot]
	registry *convert.Registry
	opts     Options
	logger   *slog.Logger
	acks     AckDeleter

	SlashExecuted        *events.Bus[Executed]
	ContextExecuted      *events.Bus[Executed]
	ComponentExecuted    *events.Bus[Executed]
	ModalExecuted        *events.Bus[Executed]
	AutocompleteExecuted *events.Bus[Executed]
	Log                  *events.Bus[string]
}

// New builds a Pipeline with no snapshot installed; callers must call
// SetSnapshot before executing interactions.
func New(registry *convert.Registry, opts Options, logger *slog.Logger, acks AckDeleter) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		registry:             registry,
		opts:                 opts,
		logger:               logger,
		acks:                 acks,
		SlashExecuted:        events.NewBus[Executed](),
		ContextExecuted:      events.NewBus[Executed](),
		ComponentExecuted:    events.NewBus[Executed](),
		ModalExecuted:        events.NewBus[Executed](),
		AutocompleteExecuted: events.NewBus[Executed](),
		Log:                  events.NewBus[string](),
	}
}

// SetSnapshot atomically installs s as the snapshot future executions
// resolve against. In-flight executions keep using whatever snapshot they
// already loaded.
func (p *Pipeline) SetSnapshot(s *Snapshot) { p.snapshot.Store(s) }

func (p *Pipeline) currentSnapshot() *Snapshot {
	s := p.snapshot.Load()
	if s == nil {
		return emptySnapshot
	}
	return s
}

var emptySnapshot = &Snapshot{
	SlashMap:            cmdmap.New[*model.SlashCommand](),
	ComponentMap:        cmdmap.New[*model.ComponentHandler](),
	ModalMap:            cmdmap.New[*model.ModalHandler](),
	contextCommands:     map[string]*model.ContextCommand{},
	autocompleteByID:    map[string]*model.AutocompleteHandler{},
	autocompleteByParam: map[string]*model.AutocompleteHandler{},
}

// ExecuteSlash resolves and runs a slash command (spec.md §4.4
// executeSlash). path is the fully-flattened command/subcommand-group/
// subcommand path; options is keyed by declared option name,
// case-insensitively.
func (p *Pipeline) ExecuteSlash(ctx context.Context, event *model.InteractionEvent, options map[string]any, services model.ServiceLocator) (*model.ExecuteResult, error) {
	snap := p.currentSnapshot()
	cmd, _, err := lookupSlash(snap, event.Path)
	if err != nil {
		return p.handleLookupMiss(ctx, event, err)
	}

	ictx := &model.Context{Context: ctx, Event: event, Command: cmd}
	if result := p.beforeExecute(cmd, ictx); result != nil {
		return p.finish(p.SlashExecuted, cmd, ictx, result)
	}
	args, result := p.synthesizeArgs(ictx, cmd.Parameters, options)
	if result != nil {
		return p.finish(p.SlashExecuted, cmd, ictx, result)
	}
	if result := evaluatePreconditions(ictx, cmd.Preconditions); result != nil {
		return p.finish(p.SlashExecuted, cmd, ictx, result)
	}
	return p.dispatch(p.SlashExecuted, cmd, ictx, cmd.Handler, args, services)
}

// ExecuteContext resolves and runs a context command (user/message target).
func (p *Pipeline) ExecuteContext(ctx context.Context, event *model.InteractionEvent, commandType model.CommandType, name string, target any, services model.ServiceLocator) (*model.ExecuteResult, error) {
	snap := p.currentSnapshot()
	cmd, ok := snap.ContextCommand(commandType, name)
	if !ok {
		return p.handleLookupMiss(ctx, event, ikerr.New(ikerr.UnknownCommand, "pipeline: unknown context command "+name))
	}

	ictx := &model.Context{Context: ctx, Event: event, Command: cmd}
	if result := p.beforeExecute(cmd, ictx); result != nil {
		return p.finish(p.ContextExecuted, cmd, ictx, result)
	}
	if result := evaluatePreconditions(ictx, cmd.Preconditions); result != nil {
		return p.finish(p.ContextExecuted, cmd, ictx, result)
	}
	return p.dispatch(p.ContextExecuted, cmd, ictx, cmd.Handler, []any{target}, services)
}

// ExecuteComponent resolves and runs a message-component interaction
// (spec.md §4.4 executeComponent). selected carries select-menu values, nil
// for non-select components.
func (p *Pipeline) ExecuteComponent(ctx context.Context, event *model.InteractionEvent, selected []string, services model.ServiceLocator) (*model.ExecuteResult, error) {
	snap := p.currentSnapshot()
	path := splitCustomID(event.CustomID, p.opts.CustomIDDelimiters)
	handler, caps, err := lookupComponent(snap, path)
	if err != nil {
		return p.handleLookupMiss(ctx, event, err)
	}

	ictx := &model.Context{Context: ctx, Event: event, Command: handler, Captures: capturesOf(caps)}
	if result := p.beforeExecute(handler, ictx); result != nil {
		return p.finish(p.ComponentExecuted, handler, ictx, result)
	}
	args := capturesToArgs(caps)
	if selected != nil {
		args = append(args, selected)
	}
	if result := evaluatePreconditions(ictx, handler.Preconditions); result != nil {
		return p.finish(p.ComponentExecuted, handler, ictx, result)
	}
	return p.dispatch(p.ComponentExecuted, handler, ictx, handler.Handler, args, services)
}

// ExecuteModal resolves and runs a modal submission (spec.md §4.4
// executeModal). fields is keyed by submitted text-input custom id.
func (p *Pipeline) ExecuteModal(ctx context.Context, event *model.InteractionEvent, fields map[string]any, services model.ServiceLocator) (*model.ExecuteResult, error) {
	snap := p.currentSnapshot()
	path := splitCustomID(event.CustomID, p.opts.CustomIDDelimiters)
	handler, caps, err := lookupModal(snap, path)
	if err != nil {
		return p.handleLookupMiss(ctx, event, err)
	}

	ictx := &model.Context{Context: ctx, Event: event, Command: handler, Captures: capturesOf(caps)}
	if result := p.beforeExecute(handler, ictx); result != nil {
		return p.finish(p.ModalExecuted, handler, ictx, result)
	}
	instance, ferr := p.buildModalInstance(ctx, handler, fields)
	if ferr != nil {
		result := model.Failure(ferr, ferr.Error())
		return p.finish(p.ModalExecuted, handler, ictx, result)
	}
	if result := evaluatePreconditions(ictx, handler.Preconditions); result != nil {
		return p.finish(p.ModalExecuted, handler, ictx, result)
	}
	args := append([]any{instance}, capturesToArgs(caps)...)
	return p.dispatch(p.ModalExecuted, handler, ictx, handler.Handler, args, services)
}

// ExecuteAutocomplete resolves the SlashCommand named by path, then the
// named parameter's autocomplete handler, and runs it (spec.md §4.4
// executeAutocomplete).
func (p *Pipeline) ExecuteAutocomplete(ctx context.Context, path []string, paramName, partial string) ([]model.Choice, error) {
	snap := p.currentSnapshot()
	cmd, _, err := lookupSlash(snap, path)
	if err != nil {
		return nil, err
	}
	var ref string
	for _, param := range cmd.Parameters {
		if strings.EqualFold(param.Name, paramName) {
			ref = param.AutocompleteHandlerRef
			break
		}
	}
	handler, ok := snap.AutocompleteHandler(ref, path, paramName)
	if !ok {
		return nil, ikerr.New(ikerr.UnknownCommand, "pipeline: no autocomplete handler for "+paramName)
	}
	ictx := &model.Context{Context: ctx, Command: cmd}
	choices, err := handler.Handler(ictx, partial)
	result := &Executed{Command: handler, Ctx: ictx}
	if err != nil {
		result.Result = model.Failure(ikerr.Wrap(ikerr.Exception, "autocomplete handler failed", err), err.Error())
	} else {
		result.Result = model.Success(choices)
	}
	p.AutocompleteExecuted.Publish(*result)
	return choices, err
}

// moduleOf extracts the owning *model.Module from any of the four command
// leaf types, or nil for a lookup-miss pseudo-command.
func moduleOf(cmd any) *model.Module {
	switch c := cmd.(type) {
	case *model.SlashCommand:
		return c.Module
	case *model.ContextCommand:
		return c.Module
	case *model.ComponentHandler:
		return c.Module
	case *model.ModalHandler:
		return c.Module
	default:
		return nil
	}
}

// lifecyclesOf walks m up through its ancestors and returns every
// module.ModuleLifecycle found, root-first, mirroring how a module's
// preconditions apply to its descendants' commands too (spec.md §4.1).
func lifecyclesOf(m *model.Module) []model.ModuleLifecycle {
	var chain []*model.Module
	for cur := m; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	lifecycles := make([]model.ModuleLifecycle, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Lifecycle != nil {
			lifecycles = append(lifecycles, chain[i].Lifecycle)
		}
	}
	return lifecycles
}

// beforeExecute runs every owning module's BeforeExecute hook, root-first,
// immediately before argument synthesis. The first hook to return an error
// short-circuits the remaining ones and the interaction fails with that
// error (spec.md §9's BeforeExecute design note).
func (p *Pipeline) beforeExecute(cmd any, ctx *model.Context) *model.ExecuteResult {
	for _, lc := range lifecyclesOf(moduleOf(cmd)) {
		if err := lc.BeforeExecute(ctx); err != nil {
			return model.Failure(ikerr.Wrap(ikerr.Exception, "BeforeExecute hook failed", err), err.Error())
		}
	}
	return nil
}

// afterExecute runs every owning module's AfterExecute hook, root-first,
// once a result has been published.
func (p *Pipeline) afterExecute(cmd any, ctx *model.Context, result *model.ExecuteResult) {
	for _, lc := range lifecyclesOf(moduleOf(cmd)) {
		lc.AfterExecute(ctx, result)
	}
}

func lookupSlash(s *Snapshot, path []string) (*model.SlashCommand, []cmdmap.Capture, error) {
	return cmdmap.Lookup[*model.SlashCommand](s.SlashMap, path)
}

func lookupComponent(s *Snapshot, path []string) (*model.ComponentHandler, []cmdmap.Capture, error) {
	return cmdmap.Lookup[*model.ComponentHandler](s.ComponentMap, path)
}

func lookupModal(s *Snapshot, path []string) (*model.ModalHandler, []cmdmap.Capture, error) {
	return cmdmap.Lookup[*model.ModalHandler](s.ModalMap, path)
}

// synthesizeArgs implements spec.md §4.4 step 1: iterate parameters in
// declared order, case-insensitive option-name lookup, required/optional
// defaulting, type conversion, and the "too many parameters" check.
func (p *Pipeline) synthesizeArgs(ctx *model.Context, params []*model.Parameter, options map[string]any) ([]any, *model.ExecuteResult) {
	consumed := make(map[string]bool, len(options))
	args := make([]any, 0, len(params))
	for _, param := range params {
		raw, key, found := lookupOptionCaseInsensitive(options, param.Name)
		if !found {
			if param.IsRequired {
				return nil, model.Failure(ikerr.New(ikerr.BadArgs, "too few parameters"), "missing required parameter "+param.Name)
			}
			args = append(args, param.DefaultValue)
			continue
		}
		consumed[key] = true

		converter, err := p.registry.Resolve(param.Type)
		if err != nil {
			return nil, model.Failure(ikerr.Wrap(ikerr.ConvertFailed, "no converter for parameter "+param.Name, err), err.Error())
		}
		value, err := converter.Read(ctx, raw)
		if err != nil {
			wrapped := ikerr.Wrap(ikerr.ConvertFailed, "converting parameter "+param.Name, err)
			return nil, model.Failure(wrapped, err.Error())
		}
		args = append(args, value)
	}

	for key := range options {
		if !consumed[strings.ToLower(key)] {
			return nil, model.Failure(ikerr.New(ikerr.BadArgs, "too many parameters"), "unexpected option "+key)
		}
	}
	return args, nil
}

func lookupOptionCaseInsensitive(options map[string]any, name string) (any, string, bool) {
	lower := strings.ToLower(name)
	if v, ok := options[lower]; ok {
		return v, lower, true
	}
	for k, v := range options {
		if strings.EqualFold(k, name) {
			return v, strings.ToLower(k), true
		}
	}
	return nil, "", false
}

// evaluatePreconditions implements spec.md §4.4 step 2. preconditions is
// already module-then-command ordered by the builder (spec.md §4.1:
// inherited preconditions are prepended).
func evaluatePreconditions(ctx *model.Context, preconditions []model.Precondition) *model.ExecuteResult {
	for _, pre := range preconditions {
		ok, reason := pre(ctx)
		if !ok {
			return model.Failure(ikerr.New(ikerr.UnmetPrecondition, reason), reason)
		}
	}
	return nil
}

// dispatch implements spec.md §4.4 step 3 and publishes step 4's result. The
// returned error is non-nil only when Options.ThrowOnError is set and the
// failure originated from the handler itself (an Exception kind), matching
// spec.md §7's "rethrow only if throwOnError" policy restricted to handler
// exceptions.
func (p *Pipeline) dispatch(bus *events.Bus[Executed], cmd any, ctx *model.Context, handler model.HandlerCallback, args []any, services model.ServiceLocator) (*model.ExecuteResult, error) {
	if p.opts.RunAsync {
		dispatchID := uuid.NewString()
		p.logger.Debug("dispatching detached", "dispatch_id", dispatchID)
		go func() {
			result := p.invoke(handler, ctx, args, services)
			if !result.IsSuccess {
				p.logger.Debug("detached interaction failed", "dispatch_id", dispatchID, "reason", result.ErrorReason)
			}
			bus.Publish(Executed{Command: cmd, Ctx: ctx, Result: result})
			p.afterExecute(cmd, ctx, result)
		}()
		return model.Success(nil), nil
	}

	result := p.invoke(handler, ctx, args, services)
	return p.finish(bus, cmd, ctx, result)
}

// invoke runs handler, recovering a panic into an Exception-kind result
// (spec.md §7: "Handler exceptions → captured, unwrapped, logged at ERROR").
func (p *Pipeline) invoke(handler model.HandlerCallback, ctx *model.Context, args []any, services model.ServiceLocator) (result *model.ExecuteResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			result = model.Failure(ikerr.Wrap(ikerr.Exception, "handler panicked", err), err.Error())
		}
	}()

	value, err := handler(ctx, args, services)
	if err != nil {
		return model.Failure(ikerr.Wrap(ikerr.Unsuccessful, "handler returned an error", err), err.Error())
	}
	return model.Success(value)
}

func (p *Pipeline) finish(bus *events.Bus[Executed], cmd any, ctx *model.Context, result *model.ExecuteResult) (*model.ExecuteResult, error) {
	if !result.IsSuccess {
		p.logger.Debug("interaction failed", "reason", result.ErrorReason)
		p.Log.Publish(fmt.Sprintf("interaction failed: %s", result.ErrorReason))
		if ikerr.Is(result.Error, ikerr.Exception) {
			p.logger.Error("handler exception", "error", result.Error)
			p.Log.Publish(fmt.Sprintf("handler exception: %v", result.Error))
		}
	}
	bus.Publish(Executed{Command: cmd, Ctx: ctx, Result: result})
	p.afterExecute(cmd, ctx, result)

	if p.opts.ThrowOnError && ikerr.Is(result.Error, ikerr.Exception) {
		return result, result.Error
	}
	return result, nil
}

// handleLookupMiss implements the unknown-command policy: optional ack
// cleanup, always surfaced as UnknownCommand, never fatal (spec.md §4.4,
// §7).
func (p *Pipeline) handleLookupMiss(ctx context.Context, event *model.InteractionEvent, lookupErr error) (*model.ExecuteResult, error) {
	p.logger.Debug("lookup miss", "error", lookupErr)
	p.Log.Publish(fmt.Sprintf("lookup miss: %v", lookupErr))
	if p.opts.DeleteUnknownCommandAck && p.acks != nil {
		if err := p.acks.DeleteOriginalAck(ctx, event.ID); err != nil {
			p.logger.Debug("delete unknown command ack failed", "error", err)
		}
	}
	result := model.Failure(lookupErr, "unknown command")

	var bus *events.Bus[Executed]
	switch event.Kind {
	case model.SlashInteraction:
		bus = p.SlashExecuted
	case model.ContextInteraction:
		bus = p.ContextExecuted
	case model.ComponentInteraction:
		bus = p.ComponentExecuted
	case model.ModalInteraction:
		bus = p.ModalExecuted
	default:
		bus = p.AutocompleteExecuted
	}
	bus.Publish(Executed{Command: nil, Ctx: &model.Context{Context: ctx, Event: event}, Result: result})
	return result, nil
}

// buildModalInstance constructs a fresh ModalType value and assigns each
// submitted field, matching fields by custom id (spec.md §4.4 executeModal).
func (p *Pipeline) buildModalInstance(ctx context.Context, handler *model.ModalHandler, fields map[string]any) (any, error) {
	instance := newModalInstance(handler.ModalType)
	for _, f := range handler.Fields {
		raw, ok := fields[f.CustomID]
		if !ok {
			continue
		}
		converter, err := p.registry.Resolve(f.FieldType)
		if err != nil {
			return nil, ikerr.Wrap(ikerr.ConvertFailed, "no converter for modal field "+f.FieldName, err)
		}
		value, err := converter.Read(ctx, raw)
		if err != nil {
			return nil, ikerr.Wrap(ikerr.ConvertFailed, "converting modal field "+f.FieldName, err)
		}
		if err := setModalField(instance, f.FieldName, value); err != nil {
			return nil, ikerr.Wrap(ikerr.ConvertFailed, "assigning modal field "+f.FieldName, err)
		}
	}
	return instance, nil
}
