// Package convert implements the type-converter registry: the mapping from
// a declared parameter's reflect.Type to the [Converter] that reads a raw
// platform option value into that native type (spec.md §4.3).
package convert

import (
	"context"
	"reflect"
	"sync"

	"github.com/mrwong99/interactink/pkg/interactink/ikerr"
)

// OptionType is the platform's option-type enum value a converter maps to
// (spec.md §4.3: "discordOptionType()"). Its values are the Option*
// constants in this package, which carry discordgo's
// ApplicationCommandOptionType numbers without importing discordgo.
type OptionType int

// Converter reads a raw platform option value into a native Go value.
type Converter interface {
	// DiscordOptionType reports the option-type enum this converter maps to.
	DiscordOptionType() OptionType
	// Read converts raw into a native value, or returns an error wrapped by
	// the pipeline into ikerr.ConvertFailed.
	Read(ctx context.Context, raw any) (any, error)
	// CanConvertTo reports whether this converter, registered for some
	// other type, can additionally serve type t (spec.md §4.3 step 2).
	CanConvertTo(t reflect.Type) bool
}

// GenericConverterFactory instantiates a [Converter] for a concrete type,
// the Go analogue of the original's generic type-reader instantiation
// (spec.md §9 design note). Registered keyed by the type the factory
// declares it can build converters *for* — an interface or a concrete type
// that concrete declared parameter types are assignable to.
type GenericConverterFactory interface {
	// Key is the type this factory is registered under, used only to rank
	// competing factories by specificity once both already accept t.
	Key() reflect.Type
	// Accepts reports whether this factory can build a Converter for t.
	Accepts(t reflect.Type) bool
	// Make instantiates a Converter specialised for t, where Accepts(t) is true.
	Make(t reflect.Type) (Converter, error)
}

// Registry holds the exact and generic converter tables (spec.md §4.3).
// mu guards both: Add/AddGeneric/Remove take the write lock, Resolve takes
// the read lock while it searches and the write lock to cache an
// instantiated generic converter.
type Registry struct {
	mu       sync.RWMutex
	exact    map[reflect.Type]Converter
	generics []GenericConverterFactory
}

// NewRegistry creates an empty Registry. Use [NewDefaultRegistry] to get one
// pre-populated with the built-in converters (spec.md §4.3).
func NewRegistry() *Registry {
	return &Registry{exact: make(map[reflect.Type]Converter)}
}

// Add registers an exact converter for type t, replacing any existing entry.
func (r *Registry) Add(t reflect.Type, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[t] = c
}

// AddGeneric registers a generic converter factory.
func (r *Registry) AddGeneric(f GenericConverterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generics = append(r.generics, f)
}

// Remove deletes the exact converter registered for t, if any.
func (r *Registry) Remove(t reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.exact, t)
}

// Resolve implements the four-step resolution in spec.md §4.3:
//  1. exact hit
//  2. any exact entry whose converter reports CanConvertTo(t)
//  3. the most-specific qualifying generic factory, instantiated and cached
//  4. ikerr.NoConverter
func (r *Registry) Resolve(t reflect.Type) (Converter, error) {
	r.mu.RLock()
	if c, ok := r.exact[t]; ok {
		r.mu.RUnlock()
		return c, nil
	}
	for _, c := range r.exact {
		if c.CanConvertTo(t) {
			r.mu.RUnlock()
			return c, nil
		}
	}

	var qualifying []GenericConverterFactory
	for _, f := range r.generics {
		if f.Accepts(t) {
			qualifying = append(qualifying, f)
		}
	}
	r.mu.RUnlock()

	if len(qualifying) == 0 {
		return nil, ikerr.New(ikerr.NoConverter, "convert: no converter for type "+t.String())
	}

	chosen := mostSpecific(qualifying)
	c, err := chosen.Make(t)
	if err != nil {
		return nil, ikerr.Wrap(ikerr.NoConverter, "convert: generic factory failed for type "+t.String(), err)
	}

	r.mu.Lock()
	r.exact[t] = c
	r.mu.Unlock()

	return c, nil
}

// mostSpecific picks the factory whose key is assignable from the fewest
// other qualifying keys — the topologically deepest one (spec.md §4.3 step
// 3). Ties (mutually incomparable factories) resolve to the first in
// registration order, matching the package-wide "first registered wins"
// tie-break cmdmap uses for wildcard leaves.
func mostSpecific(factories []GenericConverterFactory) GenericConverterFactory {
	scores := make([]int, len(factories))
	for i, a := range factories {
		for j, b := range factories {
			if i == j {
				continue
			}
			if b.Key().AssignableTo(a.Key()) {
				scores[i]++
			}
		}
	}
	best := 0
	for i := 1; i < len(factories); i++ {
		if scores[i] < scores[best] {
			best = i
		}
	}
	return factories[best]
}
