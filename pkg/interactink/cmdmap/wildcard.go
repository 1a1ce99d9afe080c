package cmdmap

import (
	"fmt"
	"regexp"
	"strings"
)

// constraintRegex maps a `{name:constraint}` constraint keyword to the regex
// fragment it compiles to (spec.md §4.2, §6 wildcard grammar).
var constraintRegex = map[string]string{
	"alpha":    `\w+`,
	"int":      `-?\d+`,
	"bool":     `(?:true|false)`,
	"datetime": `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:Z|[+-]\d{2}:\d{2})?`,
	"float":    `-?\d+(?:\.\d+)?`,
	"decimal":  `-?\d+(?:\.\d+)?`,
	"guid":     `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
}

// compilePattern turns a handler name pattern containing "{name}",
// "{name:constraint}", and bare "*" wildcards into an anchored, case-
// sensitive regex \A...\z. It returns the compiled regex, the ordered list
// of capture names (empty string for an unnamed "*" capture), and a
// normalized form of the pattern used for duplicate-insertion detection —
// two patterns that compile to textually distinct regexes but are the same
// shape modulo capture names collide here (spec.md §8 scenario 4: "a:{x}"
// then "a:{y}" is a DuplicateCommand).
func compilePattern(pattern, open, close string) (*regexp.Regexp, []string, string, error) {
	if open == "" {
		open = "{"
	}
	if close == "" {
		close = "}"
	}

	var out strings.Builder
	var normalized strings.Builder
	var names []string

	i := 0
	seen := map[string]bool{}
	for i < len(pattern) {
		switch {
		case strings.HasPrefix(pattern[i:], open):
			end := strings.Index(pattern[i:], close)
			if end < 0 {
				return nil, nil, "", fmt.Errorf("cmdmap: unterminated wildcard in pattern %q", pattern)
			}
			token := pattern[i+len(open) : i+end]
			i += end + len(close)

			name, constraint, hasConstraint := strings.Cut(token, ":")
			if name == "" {
				return nil, nil, "", fmt.Errorf("cmdmap: empty wildcard name in pattern %q", pattern)
			}
			if seen[name] {
				return nil, nil, "", fmt.Errorf("cmdmap: duplicate wildcard name %q in pattern %q", name, pattern)
			}
			seen[name] = true

			frag := `\w+`
			if hasConstraint {
				r, ok := constraintRegex[constraint]
				if !ok {
					return nil, nil, "", fmt.Errorf("cmdmap: unknown wildcard constraint %q in pattern %q", constraint, pattern)
				}
				frag = r
			}
			out.WriteString("(" + frag + ")")
			names = append(names, name)
			normalized.WriteString(open + close) // capture name erased from the normalized form
		case pattern[i] == '*':
			out.WriteString(`(\S+)`)
			names = append(names, "")
			normalized.WriteString("*")
			i++
		default:
			out.WriteString(regexp.QuoteMeta(string(pattern[i])))
			normalized.WriteByte(pattern[i])
			i++
		}
	}

	re, err := regexp.Compile(`\A` + out.String() + `\z`)
	if err != nil {
		return nil, nil, "", fmt.Errorf("cmdmap: compile pattern %q: %w", pattern, err)
	}
	return re, names, normalized.String(), nil
}
