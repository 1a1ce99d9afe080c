package model

import "strings"

// AllOf composes preconditions into one that requires every one of them to
// pass, short-circuiting on the first rejection and surfacing its reason
// (spec.md §9's single-predicate style, generalised to compose).
func AllOf(preconditions ...Precondition) Precondition {
	return func(ctx *Context) (bool, string) {
		for _, p := range preconditions {
			if ok, reason := p(ctx); !ok {
				return false, reason
			}
		}
		return true, ""
	}
}

// AnyOf composes preconditions into one that requires at least one of them
// to pass. On total rejection its reason joins every rejected precondition's
// reason, so the caller sees why each alternative failed.
func AnyOf(preconditions ...Precondition) Precondition {
	return func(ctx *Context) (bool, string) {
		if len(preconditions) == 0 {
			return true, ""
		}
		reasons := make([]string, 0, len(preconditions))
		for _, p := range preconditions {
			if ok, reason := p(ctx); ok {
				return true, ""
			} else if reason != "" {
				reasons = append(reasons, reason)
			}
		}
		return false, strings.Join(reasons, "; ")
	}
}
