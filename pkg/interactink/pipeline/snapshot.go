package pipeline

import (
	"strings"

	"github.com/mrwong99/interactink/pkg/interactink/cmdmap"
	"github.com/mrwong99/interactink/pkg/interactink/model"
)

// Snapshot is the fully-resolved, immutable command tree the pipeline
// executes against: the slash/component/modal tries plus the flat
// context-command and autocomplete-handler tables (spec.md §5: "each
// successful write atomically swaps a new snapshot pointer"). A Snapshot is
// never mutated after BuildSnapshot returns it.
type Snapshot struct {
	Roots []*model.Module

	SlashMap     *cmdmap.Map[*model.SlashCommand]
	ComponentMap *cmdmap.Map[*model.ComponentHandler]
	ModalMap     *cmdmap.Map[*model.ModalHandler]

	contextCommands map[string]*model.ContextCommand
	autocompleteByID map[string]*model.AutocompleteHandler
	autocompleteByParam map[string]*model.AutocompleteHandler
}

// contextKey builds the lookup key for a context command: its type
// (user/message) and name are independent namespaces on most platforms.
func contextKey(t model.CommandType, name string) string {
	return t.String() + ":" + strings.ToLower(name)
}

func autocompleteParamKey(path []string, paramName string) string {
	return strings.Join(path, "\x1f") + "\x1f" + strings.ToLower(paramName)
}

// BuildSnapshot walks a builder.Build() result and inserts every leaf into
// the matching trie or table, splitting component/modal custom-id patterns
// on delim the same way ExecuteComponent/ExecuteModal split inbound custom
// ids (spec.md §6: "interactionCustomIdDelimiters").
func BuildSnapshot(roots []*model.Module, delim, wildcardOpen, wildcardClose string) (*Snapshot, error) {
	s := &Snapshot{
		Roots:               roots,
		SlashMap:            cmdmap.New[*model.SlashCommand](),
		ComponentMap:        cmdmap.New[*model.ComponentHandler](),
		ModalMap:            cmdmap.New[*model.ModalHandler](),
		contextCommands:     map[string]*model.ContextCommand{},
		autocompleteByID:    map[string]*model.AutocompleteHandler{},
		autocompleteByParam: map[string]*model.AutocompleteHandler{},
	}

	var walk func(m *model.Module) error
	walk = func(m *model.Module) error {
		for _, c := range m.SlashCommands {
			if err := cmdmap.Insert(s.SlashMap, c.FullPath(), c, "", ""); err != nil {
				return err
			}
		}
		for _, cc := range m.ContextCommands {
			s.contextCommands[contextKey(cc.CommandType, cc.Name)] = cc
		}
		for _, ch := range m.ComponentHandlers {
			path := wildcardSafeSplit(ch.Name, delim, wildcardOpen, wildcardClose)
			if err := cmdmap.Insert(s.ComponentMap, path, ch, wildcardOpen, wildcardClose); err != nil {
				return err
			}
		}
		for _, mh := range m.ModalHandlers {
			path := wildcardSafeSplit(mh.Name, delim, wildcardOpen, wildcardClose)
			if err := cmdmap.Insert(s.ModalMap, path, mh, wildcardOpen, wildcardClose); err != nil {
				return err
			}
		}
		for _, ah := range m.AutocompleteHandlers {
			if ah.ID != "" {
				s.autocompleteByID[ah.ID] = ah
			}
			if len(ah.CommandPath) > 0 && ah.ParameterName != "" {
				s.autocompleteByParam[autocompleteParamKey(ah.CommandPath, ah.ParameterName)] = ah
			}
		}
		for _, child := range m.Children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range roots {
		if err := walk(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// splitCustomID splits an inbound custom id on delim, with no brace
// awareness needed since inbound ids never contain wildcard syntax.
func splitCustomID(s, delim string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return strings.ContainsRune(delim, r) })
}

// wildcardSafeSplit splits a declared pattern like "vote:{id:int}" on delim
// runes outside of open/close pairs, so the constraint-kind separator inside
// a brace is never mistaken for a path delimiter.
func wildcardSafeSplit(s, delim, open, close string) []string {
	var segs []string
	var cur strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case strings.ContainsRune(open, r):
			depth++
			cur.WriteRune(r)
		case strings.ContainsRune(close, r):
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case depth == 0 && strings.ContainsRune(delim, r):
			if cur.Len() > 0 {
				segs = append(segs, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		segs = append(segs, cur.String())
	}
	return segs
}

// ContextCommand looks up a registered context command by type and name.
func (s *Snapshot) ContextCommand(t model.CommandType, name string) (*model.ContextCommand, bool) {
	cc, ok := s.contextCommands[contextKey(t, name)]
	return cc, ok
}

// AutocompleteHandler resolves a parameter's autocomplete handler: first by
// explicit ref (AutocompleteHandlerRef), then by (path, parameter name).
func (s *Snapshot) AutocompleteHandler(ref string, path []string, paramName string) (*model.AutocompleteHandler, bool) {
	if ref != "" {
		if h, ok := s.autocompleteByID[ref]; ok {
			return h, ok
		}
	}
	h, ok := s.autocompleteByParam[autocompleteParamKey(path, paramName)]
	return h, ok
}
