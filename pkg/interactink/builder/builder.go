// Package builder converts [model.ModuleDescriptor] trees produced by a
// model.ModuleSource into the immutable [model.Module] tree the rest of the
// framework operates on, enforcing the naming, description, nesting-depth,
// and parameter-count invariants from spec.md §4.1.
package builder

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/mrwong99/interactink/pkg/interactink/ikerr"
	"github.com/mrwong99/interactink/pkg/interactink/model"
)

var nameRe = regexp.MustCompile(`^[-_\p{L}\p{N}]{1,32}$`)

const (
	maxNameLen        = 32
	maxDescriptionLen = 100
	maxParameters     = 25
	maxChoices        = 25
	maxGroupDepth     = 2
)

// Build converts every descriptor yielded by src into a built *model.Module
// tree, returning one root *model.Module per top-level descriptor. It fails
// fast with a joined *ikerr.Error on the first set of invariant violations
// found (spec.md §4.1, §7: "Build-time invariant violations ... never
// surfaced as a runtime result").
func Build(src model.ModuleSource) ([]*model.Module, error) {
	descs, err := src.Modules()
	if err != nil {
		return nil, fmt.Errorf("builder: module source: %w", err)
	}

	b := &builder{}
	roots := make([]*model.Module, 0, len(descs))
	for _, d := range descs {
		m := b.buildModule(d, nil, nil, nil)
		roots = append(roots, m)
	}
	if len(b.errs) > 0 {
		return nil, joinParseErrors(b.errs)
	}
	if err := checkUniquePaths(roots); err != nil {
		return nil, err
	}
	return roots, nil
}

// BuildOne is a convenience wrapper for a single root descriptor, used by
// AddModule[T]-style single-type registration in the facade.
func BuildOne(d *model.ModuleDescriptor) (*model.Module, error) {
	b := &builder{}
	m := b.buildModule(d, nil, nil, nil)
	if len(b.errs) > 0 {
		return nil, joinParseErrors(b.errs)
	}
	return m, nil
}

type builder struct {
	errs []error
}

func (b *builder) fail(kind ikerr.Kind, format string, args ...any) {
	b.errs = append(b.errs, ikerr.New(kind, fmt.Sprintf(format, args...)))
}

// buildModule builds one Module, inheriting defaultPermission,
// dontAutoRegister, and attributes from parent by concatenation (spec.md
// §4.1: "child attributes appended after parent").
func (b *builder) buildModule(d *model.ModuleDescriptor, parent *model.Module, inheritedAttrs []any, inheritedPre []model.Precondition) *model.Module {
	m := &model.Module{
		Name:              d.Name,
		GroupName:         d.GroupName,
		Description:       d.Description,
		DefaultPermission: d.DefaultPermission || (parent != nil && parent.DefaultPermission),
		DontAutoRegister:  d.DontAutoRegister || (parent != nil && parent.DontAutoRegister),
		Attributes:        append(append([]any{}, inheritedAttrs...), d.Attributes...),
		Preconditions:     append(append([]model.Precondition{}, inheritedPre...), d.Preconditions...),
		Lifecycle:         d.Lifecycle,
		Parent:            parent,
	}

	if m.IsSlashGroup() {
		if len(m.GroupName) < 1 || len(m.GroupName) > maxNameLen || !nameRe.MatchString(m.GroupName) || !isLower(m.GroupName) {
			b.fail(ikerr.ParseFailed, "module %q: groupName %q must be 1-32 chars, lowercase, matching %s", d.Name, m.GroupName, nameRe)
		}
		if m.Description != "" && (len(m.Description) < 1 || len(m.Description) > maxDescriptionLen) {
			b.fail(ikerr.ParseFailed, "module %q: description must be 1-100 characters", d.Name)
		}
		if m.Depth() > maxGroupDepth {
			b.fail(ikerr.ParseFailed, "module %q: slash-group nesting depth %d exceeds maximum %d", d.Name, m.Depth(), maxGroupDepth)
		}
	}

	for _, cd := range d.Children {
		m.Children = append(m.Children, b.buildModule(cd, m, m.Attributes, m.Preconditions))
	}

	if m.Lifecycle != nil {
		if err := m.Lifecycle.OnModuleBuilding(m); err != nil {
			b.fail(ikerr.ParseFailed, "module %q: OnModuleBuilding: %v", d.Name, err)
		}
	}

	for _, sd := range d.SlashCommands {
		m.SlashCommands = append(m.SlashCommands, b.buildSlashCommand(sd, m))
	}
	for _, cd := range d.ContextCommands {
		m.ContextCommands = append(m.ContextCommands, b.buildContextCommand(cd, m))
	}
	for _, ch := range d.ComponentHandlers {
		m.ComponentHandlers = append(m.ComponentHandlers, b.buildComponentHandler(ch, m))
	}
	for _, mh := range d.ModalHandlers {
		m.ModalHandlers = append(m.ModalHandlers, b.buildModalHandler(mh, m))
	}
	for _, ah := range d.AutocompleteHandlers {
		m.AutocompleteHandlers = append(m.AutocompleteHandlers, b.buildAutocompleteHandler(ah, m))
	}

	return m
}

func (b *builder) buildSlashCommand(d *model.SlashCommandDescriptor, m *model.Module) *model.SlashCommand {
	c := &model.SlashCommand{
		Name:              d.Name,
		Description:       d.Description,
		DefaultPermission: d.DefaultPermission,
		IgnoreGroupNames:  d.IgnoreGroupNames,
		Handler:           d.Handler,
		Attributes:        append(append([]any{}, m.Attributes...), d.Attributes...),
		Preconditions:     append(append([]model.Precondition{}, m.Preconditions...), d.Preconditions...),
		Module:            m,
	}

	if !nameRe.MatchString(d.Name) || !isLower(d.Name) {
		b.fail(ikerr.ParseFailed, "slash command %q: name must be 1-32 chars, lowercase, matching %s", d.Name, nameRe)
	}
	if len(d.Description) < 1 || len(d.Description) > maxDescriptionLen {
		b.fail(ikerr.ParseFailed, "slash command %q: description must be 1-100 characters", d.Name)
	}

	c.Parameters = b.flattenParameters(d.Parameters, d.Name, nil)
	if len(c.Parameters) > maxParameters {
		b.fail(ikerr.ParseFailed, "slash command %q: %d parameters exceeds maximum %d", d.Name, len(c.Parameters), maxParameters)
	}
	b.checkParameterOrder(d.Name, c.Parameters)

	return c
}

// flattenParameters recurses into IsComplex parameters, flattening their
// public fields into individual options named fieldName (spec.md §4.1).
// typeStack performs cycle detection by type-set on the recursion stack.
func (b *builder) flattenParameters(descs []*model.ParameterDescriptor, cmdName string, typeStack []string) []*model.Parameter {
	out := make([]*model.Parameter, 0, len(descs))
	for _, pd := range descs {
		if pd.IsComplex {
			typeName := ""
			if pd.Type != nil {
				typeName = pd.Type.String()
			}
			if containsString(typeStack, typeName) {
				b.fail(ikerr.ComplexParameterCycle, "slash command %q: parameter %q: complex parameter cycle on type %s", cmdName, pd.Name, typeName)
				continue
			}
			out = append(out, b.flattenParameters(fieldsAsParameterDescriptors(pd), cmdName, append(typeStack, typeName))...)
			continue
		}
		out = append(out, &model.Parameter{
			Name:                   pd.Name,
			Type:                   pd.Type,
			IsRequired:             pd.IsRequired,
			DefaultValue:           pd.DefaultValue,
			Description:            pd.Description,
			Min:                    pd.Min,
			Max:                    pd.Max,
			ChannelTypes:           pd.ChannelTypes,
			Choices:                pd.Choices,
			AutocompleteHandlerRef: pd.AutocompleteHandlerRef,
			TypeConverterRef:       pd.TypeConverterRef,
		})
		if len(pd.Choices) > maxChoices {
			b.fail(ikerr.ParseFailed, "slash command %q: parameter %q: %d choices exceeds maximum %d", cmdName, pd.Name, len(pd.Choices), maxChoices)
		}
		for _, ch := range pd.Choices {
			if len(ch.Name) < 1 || len(ch.Name) > maxDescriptionLen {
				b.fail(ikerr.ParseFailed, "slash command %q: parameter %q: choice name %q must be 1-100 characters", cmdName, pd.Name, ch.Name)
			}
		}
	}
	return out
}

// fieldsAsParameterDescriptors is the seam a caller's reflection-based
// ModuleSource implementation fills in: the model package stores only the
// already-discovered fields on a ParameterDescriptor's Attributes when
// IsComplex is set. Here the builder expects the descriptor's sub-fields to
// have been supplied as a slice stashed under a well-known attribute key, so
// the core never needs to reflect on pd.Type itself.
func fieldsAsParameterDescriptors(pd *model.ParameterDescriptor) []*model.ParameterDescriptor {
	for _, a := range pd.Attributes {
		if fields, ok := a.([]*model.ParameterDescriptor); ok {
			return fields
		}
	}
	return nil
}

func (b *builder) checkParameterOrder(cmdName string, params []*model.Parameter) {
	seenOptional := false
	for _, p := range params {
		if !p.IsRequired {
			seenOptional = true
			continue
		}
		if seenOptional {
			b.fail(ikerr.ParseFailed, "slash command %q: required parameter %q follows an optional parameter", cmdName, p.Name)
		}
	}
}

func (b *builder) buildContextCommand(d *model.ContextCommandDescriptor, m *model.Module) *model.ContextCommand {
	if !nameRe.MatchString(d.Name) {
		b.fail(ikerr.ParseFailed, "context command %q: name must be 1-32 chars matching %s", d.Name, nameRe)
	}
	return &model.ContextCommand{
		Name:              d.Name,
		CommandType:       d.CommandType,
		DefaultPermission: d.DefaultPermission,
		Handler:           d.Handler,
		Attributes:        append(append([]any{}, m.Attributes...), d.Attributes...),
		Preconditions:     append(append([]model.Precondition{}, m.Preconditions...), d.Preconditions...),
		Module:            m,
	}
}

func (b *builder) buildComponentHandler(d *model.ComponentHandlerDescriptor, m *model.Module) *model.ComponentHandler {
	return &model.ComponentHandler{
		Name:              d.Name,
		Handler:           d.Handler,
		Attributes:        append(append([]any{}, m.Attributes...), d.Attributes...),
		Preconditions:     append(append([]model.Precondition{}, m.Preconditions...), d.Preconditions...),
		Wildcards:         true,
		Module:            m,
	}
}

func (b *builder) buildModalHandler(d *model.ModalHandlerDescriptor, m *model.Module) *model.ModalHandler {
	return &model.ModalHandler{
		Name:              d.Name,
		ModalType:         d.ModalType,
		Fields:            d.Fields,
		Handler:           d.Handler,
		Attributes:        append(append([]any{}, m.Attributes...), d.Attributes...),
		Preconditions:     append(append([]model.Precondition{}, m.Preconditions...), d.Preconditions...),
		Wildcards:         true,
		Module:            m,
	}
}

func (b *builder) buildAutocompleteHandler(d *model.AutocompleteHandlerDescriptor, m *model.Module) *model.AutocompleteHandler {
	return &model.AutocompleteHandler{
		ID:            d.ID,
		CommandPath:   d.CommandPath,
		ParameterName: d.ParameterName,
		Handler:       d.Handler,
		Module:        m,
	}
}

// checkUniquePaths enforces that every SlashCommand's full path is unique
// across all built roots (spec.md §3 invariant).
func checkUniquePaths(roots []*model.Module) error {
	seen := map[string]bool{}
	var errs []error
	var walk func(m *model.Module)
	walk = func(m *model.Module) {
		for _, c := range m.SlashCommands {
			key := fmt.Sprint(c.FullPath())
			if seen[key] {
				errs = append(errs, ikerr.New(ikerr.ParseFailed, fmt.Sprintf("duplicate slash command path %v", c.FullPath())))
				continue
			}
			seen[key] = true
		}
		for _, child := range m.Children {
			walk(child)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	if len(errs) == 0 {
		return nil
	}
	return joinParseErrors(errs)
}

func isLower(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
