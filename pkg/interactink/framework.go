// Package interactink is the public facade: a generic, platform-agnostic
// interaction-command framework (spec.md §1, §6). It owns the module tree,
// the type-converter registry, and the execution pipeline, and exposes the
// registration, execution, and sync surfaces a transport adapter wires
// against its concrete platform (pkg/interactink/discord for discordgo).
package interactink

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/mrwong99/interactink/pkg/interactink/builder"
	"github.com/mrwong99/interactink/pkg/interactink/convert"
	"github.com/mrwong99/interactink/pkg/interactink/ikerr"
	"github.com/mrwong99/interactink/pkg/interactink/model"
	"github.com/mrwong99/interactink/pkg/interactink/pipeline"
	"github.com/mrwong99/interactink/pkg/interactink/syncengine"
)

// ModuleInfo summarizes one registered module, returned by AddModules.
type ModuleInfo struct {
	Name          string
	GroupName     string
	SlashCommands int
}

// Framework is the facade's top-level type. The zero value is not usable;
// construct with New.
type Framework struct {
	// writeMu serialises every mutation of the module tree, matching
	// spec.md §5: "write-through a single framework-wide mutex guarding
	// AddModules, RemoveModule, AddModule<T>". Roots (and so StatsSnapshot
	// and the sync helpers) takes it briefly to copy the root slice; the
	// pipeline's lookups never take it.
	writeMu sync.Mutex
	roots   []*model.Module

	registry *convert.Registry
	pipeline *pipeline.Pipeline
	client   syncengine.RegistryClient
	opts     Options
	logger   *slog.Logger
}

// Options configures a Framework (spec.md §6 "Configuration options").
type Options struct {
	LogLevel                slog.Level
	RunAsync                bool
	ThrowOnError            bool
	DeleteUnknownCommandAck bool
	CustomIDDelimiters      string
	WildcardOpen            string
	WildcardClose           string
}

// DefaultOptions returns the framework's documented defaults.
func DefaultOptions() Options {
	d := pipeline.DefaultOptions()
	return Options{
		CustomIDDelimiters: d.CustomIDDelimiters,
		WildcardOpen:       d.WildcardOpen,
		WildcardClose:      d.WildcardClose,
	}
}

// Option configures a Framework at construction time, matching the
// functional-options pattern the teacher codebase uses throughout.
type Option func(*frameworkConfig)

type frameworkConfig struct {
	opts     Options
	registry *convert.Registry
	client   syncengine.RegistryClient
	acks     pipeline.AckDeleter
	logger   *slog.Logger
}

// WithOptions overrides the default Options.
func WithOptions(o Options) Option { return func(c *frameworkConfig) { c.opts = o } }

// WithConverterRegistry supplies a pre-populated converter registry instead
// of convert.NewDefaultRegistry().
func WithConverterRegistry(r *convert.Registry) Option {
	return func(c *frameworkConfig) { c.registry = r }
}

// WithRegistryClient wires the transport's CommandRegistryClient, required
// before SyncCommands/AddCommandsToGuild/AddModulesToGuild can be called.
func WithRegistryClient(client syncengine.RegistryClient) Option {
	return func(c *frameworkConfig) { c.client = client }
}

// WithAckDeleter wires the transport's ack-cleanup hook for the
// DeleteUnknownCommandAck option.
func WithAckDeleter(acks pipeline.AckDeleter) Option {
	return func(c *frameworkConfig) { c.acks = acks }
}

// WithLogger overrides the framework's slog.Logger.
func WithLogger(l *slog.Logger) Option { return func(c *frameworkConfig) { c.logger = l } }

// New constructs a Framework with no modules registered.
func New(opts ...Option) *Framework {
	cfg := &frameworkConfig{opts: DefaultOptions()}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.registry == nil {
		cfg.registry = convert.NewDefaultRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.opts.LogLevel}))
	}

	f := &Framework{
		registry: cfg.registry,
		client:   cfg.client,
		opts:     cfg.opts,
		logger:   cfg.logger,
	}
	f.pipeline = pipeline.New(cfg.registry, pipeline.Options{
		RunAsync:                cfg.opts.RunAsync,
		ThrowOnError:            cfg.opts.ThrowOnError,
		DeleteUnknownCommandAck: cfg.opts.DeleteUnknownCommandAck,
		CustomIDDelimiters:      cfg.opts.CustomIDDelimiters,
		WildcardOpen:            cfg.opts.WildcardOpen,
		WildcardClose:           cfg.opts.WildcardClose,
	}, cfg.logger, cfg.acks)
	f.rebuildSnapshot()
	return f
}

// Pipeline exposes the facade's underlying execution pipeline, whose
// ExecuteSlash/ExecuteContext/ExecuteComponent/ExecuteModal/
// ExecuteAutocomplete methods and *Executed event buses are the runtime
// entry points a transport adapter drives (spec.md §6).
func (f *Framework) Pipeline() *pipeline.Pipeline { return f.pipeline }

// ConverterRegistry exposes the registry for host code that wants to Add or
// AddGeneric its own converters (spec.md §4.3).
func (f *Framework) ConverterRegistry() *convert.Registry { return f.registry }

// Options returns the Options this Framework was constructed with, so a
// transport adapter can tailor its own behavior to e.g. RunAsync without
// duplicating the setting.
func (f *Framework) Options() Options { return f.opts }

// AddModules builds src's descriptors and merges the resulting roots into
// the tree, returning one ModuleInfo per new root (spec.md §6 AddModules).
func (f *Framework) AddModules(src model.ModuleSource) ([]ModuleInfo, error) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	newRoots, err := builder.Build(src)
	if err != nil {
		return nil, err
	}

	merged := append(append([]*model.Module{}, f.roots...), newRoots...)
	snap, err := f.buildSnapshot(merged)
	if err != nil {
		return nil, err
	}
	f.roots = merged
	f.pipeline.SetSnapshot(snap)

	infos := make([]ModuleInfo, len(newRoots))
	for i, m := range newRoots {
		infos[i] = ModuleInfo{Name: m.Name, GroupName: m.GroupName, SlashCommands: countSlashCommands(m)}
	}
	return infos, nil
}

// AddModule is a convenience wrapper for a single descriptor, matching
// spec.md §6's AddModule<T>() indicative name.
func (f *Framework) AddModule(d *model.ModuleDescriptor) (ModuleInfo, error) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	m, err := builder.BuildOne(d)
	if err != nil {
		return ModuleInfo{}, err
	}
	merged := append(append([]*model.Module{}, f.roots...), m)
	snap, err := f.buildSnapshot(merged)
	if err != nil {
		return ModuleInfo{}, err
	}
	f.roots = merged
	f.pipeline.SetSnapshot(snap)
	return ModuleInfo{Name: m.Name, GroupName: m.GroupName, SlashCommands: countSlashCommands(m)}, nil
}

// RemoveModule removes the first registered root module named name,
// reporting whether one was found (spec.md §6 RemoveModule).
func (f *Framework) RemoveModule(name string) bool {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	for i, m := range f.roots {
		if m.Name == name {
			merged := append(append([]*model.Module{}, f.roots[:i]...), f.roots[i+1:]...)
			snap, err := f.buildSnapshot(merged)
			if err != nil {
				f.logger.Error("rebuild snapshot after RemoveModule failed", "error", err)
				return false
			}
			f.roots = merged
			f.pipeline.SetSnapshot(snap)
			return true
		}
	}
	return false
}

// Roots returns the currently registered root modules. The slice and its
// contents are immutable; callers must not mutate them.
func (f *Framework) Roots() []*model.Module {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return append([]*model.Module{}, f.roots...)
}

// Stats summarizes the currently registered module tree, for a host to
// render into its own dashboard (spec.md §9's dashboard design note,
// data only — no embed construction belongs in the core).
type Stats struct {
	Modules       int
	SlashCommands int
}

// StatsSnapshot reports the current module/command counts.
func (f *Framework) StatsSnapshot() Stats {
	roots := f.Roots()
	stats := Stats{}
	var count func(m *model.Module)
	count = func(m *model.Module) {
		stats.Modules++
		stats.SlashCommands += len(m.SlashCommands)
		for _, child := range m.Children {
			count(child)
		}
	}
	for _, m := range roots {
		count(m)
	}
	return stats
}

// buildSnapshot builds a Snapshot over roots and returns any BuildSnapshot
// error. A duplicate-command collision (spec.md §5's invariant) is the
// expected one; every leaf in roots already passed the builder's own checks,
// so any other error is also logged, as it points at the framework itself
// rather than bad input.
func (f *Framework) buildSnapshot(roots []*model.Module) (*pipeline.Snapshot, error) {
	snap, err := pipeline.BuildSnapshot(roots, f.opts.CustomIDDelimiters, f.opts.WildcardOpen, f.opts.WildcardClose)
	if err != nil {
		if ikerr.Is(err, ikerr.DuplicateCommand) {
			return nil, err
		}
		f.logger.Error("build snapshot failed", "error", err)
		return nil, err
	}
	return snap, nil
}

func (f *Framework) rebuildSnapshot() {
	snap, err := f.buildSnapshot(f.roots)
	if err != nil {
		return
	}
	f.pipeline.SetSnapshot(snap)
}

func countSlashCommands(m *model.Module) int {
	n := len(m.SlashCommands)
	for _, c := range m.Children {
		n += countSlashCommands(c)
	}
	return n
}

// SyncCommands reconciles the declared module tree against guildID's scope
// (empty guildID means global), per spec.md §4.5 syncAll.
func (f *Framework) SyncCommands(ctx context.Context, guildID string, deleteMissing bool) error {
	payloads := syncengine.BuildPayloads(f.Roots(), f.registry)
	return syncengine.SyncAll(ctx, f.client, guildID, payloads, deleteMissing)
}

// AddCommandsToGuild creates each payload individually with no overwrite
// (spec.md §4.5 addCommandsToGuild).
func (f *Framework) AddCommandsToGuild(ctx context.Context, guildID string, payloads []syncengine.CommandPayload) error {
	return syncengine.AddCommandsToGuild(ctx, f.client, guildID, payloads)
}

// AddModulesToGuild builds payloads from the registered tree and creates
// each individually (spec.md §4.5 addModulesToGuild).
func (f *Framework) AddModulesToGuild(ctx context.Context, guildID string) error {
	return syncengine.AddModulesToGuild(ctx, f.client, guildID, f.Roots(), f.registry)
}
