package convert

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeSpanUnitAliases maps a lower-cased unit word (singular, e.g. "round")
// to the duration one unit represents. Loaded from YAML by
// LoadTimeSpanUnitAliases/DecodeTimeSpanUnitAliases and wired into a
// Registry via WithTimeSpanUnitAliases.
type TimeSpanUnitAliases map[string]time.Duration

// LoadTimeSpanUnitAliases reads a YAML unit-alias file at path, mapping unit
// name to a Go duration string (e.g. "round: 6s"). See DecodeTimeSpanUnitAliases.
func LoadTimeSpanUnitAliases(path string) (TimeSpanUnitAliases, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("convert: open timespan aliases %q: %w", path, err)
	}
	defer f.Close()
	return DecodeTimeSpanUnitAliases(f)
}

// DecodeTimeSpanUnitAliases decodes a YAML unit-alias mapping from r.
func DecodeTimeSpanUnitAliases(r io.Reader) (TimeSpanUnitAliases, error) {
	var raw map[string]string
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("convert: decode timespan aliases: %w", err)
	}
	aliases := make(TimeSpanUnitAliases, len(raw))
	for unit, durStr := range raw {
		d, err := time.ParseDuration(durStr)
		if err != nil {
			return nil, fmt.Errorf("convert: timespan alias %q: %w", unit, err)
		}
		aliases[strings.ToLower(unit)] = d
	}
	return aliases, nil
}

var timeSpanAliasPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*([a-zA-Z]+)\s*$`)

// match parses "<amount> <unit>" (plural units accepted: "3 rounds" matches
// the "round" alias) against the table. Reports false if a has no entries
// or s does not match a known unit.
func (a TimeSpanUnitAliases) match(s string) (time.Duration, bool) {
	if len(a) == 0 {
		return 0, false
	}
	m := timeSpanAliasPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	unit := strings.ToLower(m[2])
	per, ok := a[unit]
	if !ok {
		per, ok = a[strings.TrimSuffix(unit, "s")]
		if !ok {
			return 0, false
		}
	}
	return time.Duration(amount * float64(per)), true
}
