// Package cmdmap implements the two concurrent tries the framework resolves
// interactions against: a slash-command path trie and a custom-id trie, each
// with exact and regex-wildcard leaves (spec.md §4.2).
package cmdmap

import (
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mrwong99/interactink/pkg/interactink/ikerr"
)

// Leaf is anything a Map can store: a command, context command, component
// handler, or modal handler. SupportsWildcards gates whether the final path
// segment may compile to a regex leaf instead of an exact one.
type Leaf interface {
	SupportsWildcards() bool
}

// node is one level of the trie. children/exact/regex are stored behind
// atomic.Pointer swaps (spec.md §4.2, §5): a children or exact writer builds
// a new map, copies the old entries plus its own change, and swaps the
// pointer in with a CAS loop, so path descent and exact lookups never block.
// Wildcard writers and a lookup's wildcard fallback take mu instead.
type node struct {
	name     string
	children atomic.Pointer[map[string]*node]
	exact    atomic.Pointer[map[string]any]
	regex    atomic.Pointer[map[string]regexLeaf]
	// regexOrder preserves insertion order within the wildcard bucket
	// (spec.md §4.2 tie-break rule); protected by mu since it's a plain
	// slice, not a CAS'd map.
	mu         sync.Mutex
	regexOrder []string
}

type regexLeaf struct {
	re     *regexp.Regexp
	names  []string
	leaf   any
}

func newNode(name string) *node {
	n := &node{name: name}
	empty := map[string]*node{}
	n.children.Store(&empty)
	emptyExact := map[string]any{}
	n.exact.Store(&emptyExact)
	emptyRegex := map[string]regexLeaf{}
	n.regex.Store(&emptyRegex)
	return n
}

// Map is one of SlashMap/InteractionMap: a word/segment-keyed trie storing
// leaves of type T.
type Map[T Leaf] struct {
	root *node
}

// New creates an empty Map.
func New[T Leaf]() *Map[T] {
	return &Map[T]{root: newNode("")}
}

// Capture is one named regex capture returned by Lookup.
type Capture struct {
	Name  string
	Value string
}

// Insert walks/creates nodes along path[0..n-1], then inserts info at the
// leaf. If info.SupportsWildcards() and the last path segment contains
// wildcard syntax, it compiles to an anchored regex and is inserted into the
// node's regex bucket; otherwise it's inserted into the exact bucket.
// Duplicate key (exact match, or wildcard normalized-pattern equality)
// returns ikerr.DuplicateCommand.
func Insert[T Leaf](m *Map[T], path []string, info T, open, close string) error {
	if len(path) == 0 {
		return ikerr.New(ikerr.ParseFailed, "cmdmap: empty path")
	}
	cur := m.root
	for _, seg := range path[:len(path)-1] {
		cur = descendOrCreate(cur, seg)
	}
	last := path[len(path)-1]

	if info.SupportsWildcards() && isWildcard(last, open, close) {
		return insertWildcard(cur, last, info, open, close)
	}
	return insertExact(cur, last, info)
}

func descendOrCreate(cur *node, seg string) *node {
	for {
		p := cur.children.Load()
		children := *p
		if child, ok := children[seg]; ok {
			return child
		}
		next := make(map[string]*node, len(children)+1)
		for k, v := range children {
			next[k] = v
		}
		child := newNode(seg)
		next[seg] = child
		if cur.children.CompareAndSwap(p, &next) {
			return child
		}
		// lost the race; retry by reloading
	}
}

func insertExact[T any](cur *node, key string, info T) error {
	for {
		p := cur.exact.Load()
		m := *p
		if _, ok := m[key]; ok {
			return ikerr.New(ikerr.DuplicateCommand, "cmdmap: duplicate key "+key)
		}
		next := make(map[string]any, len(m)+1)
		for k, v := range m {
			next[k] = v
		}
		next[key] = info
		if cur.exact.CompareAndSwap(p, &next) {
			return nil
		}
	}
}

func insertWildcard[T any](cur *node, pattern string, info T, open, close string) error {
	re, names, normalized, err := compilePattern(pattern, open, close)
	if err != nil {
		return err
	}

	cur.mu.Lock()
	defer cur.mu.Unlock()

	m := *cur.regex.Load()
	if _, ok := m[normalized]; ok {
		return ikerr.New(ikerr.DuplicateCommand, "cmdmap: duplicate wildcard pattern "+normalized)
	}
	next := make(map[string]regexLeaf, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	next[normalized] = regexLeaf{re: re, names: names, leaf: info}
	cur.regex.Store(&next)
	cur.regexOrder = append(cur.regexOrder, normalized)
	return nil
}

// Lookup descends along path's children; at the final segment it prefers an
// exact match, falling back to the first (by insertion order) regex entry
// whose match spans the whole segment. A miss returns ikerr.UnknownCommand.
func Lookup[T Leaf](m *Map[T], path []string) (T, []Capture, error) {
	var zero T
	if len(path) == 0 {
		return zero, nil, ikerr.New(ikerr.UnknownCommand, "cmdmap: empty path")
	}
	cur := m.root
	for _, seg := range path[:len(path)-1] {
		children := *cur.children.Load()
		next, ok := children[seg]
		if !ok {
			return zero, nil, ikerr.New(ikerr.UnknownCommand, "cmdmap: unknown path segment "+seg)
		}
		cur = next
	}
	last := path[len(path)-1]

	exact := *cur.exact.Load()
	if leaf, ok := exact[last]; ok {
		return leaf.(T), nil, nil
	}

	cur.mu.Lock()
	order := append([]string(nil), cur.regexOrder...)
	cur.mu.Unlock()
	regexMap := *cur.regex.Load()
	for _, key := range order {
		rl, ok := regexMap[key]
		if !ok {
			continue
		}
		if match := rl.re.FindStringSubmatch(last); match != nil {
			caps := make([]Capture, 0, len(rl.names))
			for i, name := range rl.names {
				if name == "" {
					continue
				}
				caps = append(caps, Capture{Name: name, Value: match[i+1]})
			}
			return rl.leaf.(T), caps, nil
		}
	}

	return zero, nil, ikerr.New(ikerr.UnknownCommand, "cmdmap: unknown key "+last)
}

// Remove deletes the exact or wildcard entry keyed by path's last segment at
// the node addressed by path. Wildcard entries are keyed by their normalized
// pattern (capture names erased, e.g. "{}" for "{id}"), so removing one takes
// that normalized form as the last segment. It never reclaims now-empty
// intermediate nodes (spec.md §4.2: "acceptable: bounded by the total
// command count ever registered").
func Remove[T Leaf](m *Map[T], path []string) bool {
	if len(path) == 0 {
		return false
	}
	cur := m.root
	for _, seg := range path[:len(path)-1] {
		children := *cur.children.Load()
		next, ok := children[seg]
		if !ok {
			return false
		}
		cur = next
	}
	last := path[len(path)-1]

	removed := false
	for {
		p := cur.exact.Load()
		m := *p
		if _, ok := m[last]; !ok {
			break
		}
		next := make(map[string]any, len(m))
		for k, v := range m {
			if k != last {
				next[k] = v
			}
		}
		if cur.exact.CompareAndSwap(p, &next) {
			removed = true
			break
		}
	}

	cur.mu.Lock()
	defer cur.mu.Unlock()
	regexMap := *cur.regex.Load()
	if _, ok := regexMap[last]; ok {
		next := make(map[string]regexLeaf, len(regexMap))
		for k, v := range regexMap {
			if k != last {
				next[k] = v
			}
		}
		cur.regex.Store(&next)
		for i, name := range cur.regexOrder {
			if name == last {
				cur.regexOrder = append(cur.regexOrder[:i], cur.regexOrder[i+1:]...)
				break
			}
		}
		removed = true
	}

	return removed
}

func isWildcard(seg, open, close string) bool {
	return strings.Contains(seg, open) && strings.Contains(seg, close) || strings.Contains(seg, "*")
}
