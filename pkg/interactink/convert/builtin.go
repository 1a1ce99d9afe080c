package convert

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Discord-shaped option types, mirrored 1:1 from discordgo's
// ApplicationCommandOptionType so the built-in converters need no import of
// pkg/interactink/discord (spec.md §1: the core never depends on a concrete
// transport).
const (
	OptionString      OptionType = 3
	OptionInteger     OptionType = 4
	OptionBoolean     OptionType = 5
	OptionUser        OptionType = 6
	OptionChannel     OptionType = 7
	OptionRole        OptionType = 8
	OptionMentionable OptionType = 9
	OptionNumber      OptionType = 10
)

// Channel, Role, User, and Mentionable are the marker interfaces the
// channel/role/user/mentionable generic converters key on (spec.md §4.3). A
// host's domain types (its own Channel/Role/User structs) implement these so
// a declared parameter of that type resolves through the matching generic.
// Mentionable is its own method set: a Role or User type resolves through
// the mentionable generic only if it also implements MentionID.
type Channel interface{ ChannelID() string }
type Role interface{ RoleID() string }
type User interface{ UserID() string }
type Mentionable interface{ MentionID() string }

// funcConverter adapts a plain read function into a Converter.
type funcConverter struct {
	optType OptionType
	read    func(ctx context.Context, raw any) (any, error)
}

func (f funcConverter) DiscordOptionType() OptionType                 { return f.optType }
func (f funcConverter) Read(ctx context.Context, raw any) (any, error) { return f.read(ctx, raw) }
func (f funcConverter) CanConvertTo(reflect.Type) bool                 { return false }

// RegistryOption configures NewDefaultRegistry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	timeSpanAliases TimeSpanUnitAliases
}

// WithTimeSpanUnitAliases supplies a table of human-readable duration unit
// words (e.g. "round" -> 6s, "turn" -> 6s) so the TimeSpan converter accepts
// "3 rounds" alongside Go's native "1h30m" syntax. See LoadTimeSpanUnitAliases.
func WithTimeSpanUnitAliases(aliases TimeSpanUnitAliases) RegistryOption {
	return func(c *registryConfig) { c.timeSpanAliases = aliases }
}

// NewDefaultRegistry builds a Registry pre-populated with the built-in
// converters spec.md §4.3 names: convertible primitives, channel/role/
// user/mentionable generics, enums, and the TimeSpan exact converter.
func NewDefaultRegistry(opts ...RegistryOption) *Registry {
	cfg := &registryConfig{}
	for _, o := range opts {
		o(cfg)
	}

	r := NewRegistry()

	r.Add(reflect.TypeOf(""), funcConverter{OptionString, readString})
	r.Add(reflect.TypeOf(int64(0)), funcConverter{OptionInteger, readInt64})
	r.Add(reflect.TypeOf(false), funcConverter{OptionBoolean, readBool})
	r.Add(reflect.TypeOf(float64(0)), funcConverter{OptionNumber, readFloat64})
	r.Add(reflect.TypeOf(time.Duration(0)), timeSpanConverter{aliases: cfg.timeSpanAliases})

	r.AddGeneric(integerGenericFactory{})
	r.AddGeneric(floatGenericFactory{})
	r.AddGeneric(boolGenericFactory{})
	r.AddGeneric(stringGenericFactory{})
	r.AddGeneric(enumGenericFactory{})
	r.AddGeneric(platformGenericFactory{OptionChannel, reflect.TypeFor[Channel]()})
	r.AddGeneric(platformGenericFactory{OptionRole, reflect.TypeFor[Role]()})
	r.AddGeneric(platformGenericFactory{OptionUser, reflect.TypeFor[User]()})
	r.AddGeneric(platformGenericFactory{OptionMentionable, reflect.TypeFor[Mentionable]()})

	return r
}

func readString(_ context.Context, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("convert: expected string option, got %T", raw)
	}
	return s, nil
}

func readInt64(_ context.Context, raw any) (any, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return nil, fmt.Errorf("convert: expected integer option, got %T", raw)
	}
}

func readBool(_ context.Context, raw any) (any, error) {
	b, ok := raw.(bool)
	if !ok {
		return nil, fmt.Errorf("convert: expected boolean option, got %T", raw)
	}
	return b, nil
}

func readFloat64(_ context.Context, raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("convert: expected number option, got %T", raw)
	}
}

// timeSpanConverter is spec.md §4.3's one built-in exact converter: it reads
// a string option as a Go duration ("1h30m"), failing that as a number
// followed by a configured unit alias ("3 rounds"); an integer option is
// read as a count of seconds.
type timeSpanConverter struct {
	aliases TimeSpanUnitAliases
}

func (timeSpanConverter) DiscordOptionType() OptionType { return OptionString }

func (t timeSpanConverter) Read(_ context.Context, raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d, nil
		}
		if d, ok := t.aliases.match(v); ok {
			return d, nil
		}
		return nil, fmt.Errorf("convert: parse TimeSpan %q", v)
	case int64:
		return time.Duration(v) * time.Second, nil
	default:
		return nil, fmt.Errorf("convert: expected string or integer option for TimeSpan, got %T", raw)
	}
}

func (timeSpanConverter) CanConvertTo(t reflect.Type) bool {
	return t == reflect.TypeOf(time.Duration(0))
}

// integerGenericFactory covers every other signed/unsigned integer kind by
// converting through int64 and checking for overflow.
type integerGenericFactory struct{}

func (integerGenericFactory) Key() reflect.Type { return reflect.TypeOf(int64(0)) }

func (integerGenericFactory) Accepts(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func (integerGenericFactory) Make(t reflect.Type) (Converter, error) {
	return funcConverter{OptionInteger, func(_ context.Context, raw any) (any, error) {
		var i64 int64
		switch v := raw.(type) {
		case int64:
			i64 = v
		case float64:
			i64 = int64(v)
		default:
			return nil, fmt.Errorf("convert: expected integer option, got %T", raw)
		}
		out := reflect.New(t).Elem()
		switch t.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if i64 < 0 || out.OverflowUint(uint64(i64)) {
				return nil, fmt.Errorf("convert: %d overflows %s", i64, t)
			}
			out.SetUint(uint64(i64))
		default:
			if out.OverflowInt(i64) {
				return nil, fmt.Errorf("convert: %d overflows %s", i64, t)
			}
			out.SetInt(i64)
		}
		return out.Interface(), nil
	}}, nil
}

// floatGenericFactory covers named floating-point types.
type floatGenericFactory struct{}

func (floatGenericFactory) Key() reflect.Type { return reflect.TypeOf(float64(0)) }

func (floatGenericFactory) Accepts(t reflect.Type) bool {
	return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
}

func (floatGenericFactory) Make(t reflect.Type) (Converter, error) {
	return funcConverter{OptionNumber, func(_ context.Context, raw any) (any, error) {
		f, ok := raw.(float64)
		if !ok {
			return nil, fmt.Errorf("convert: expected number option, got %T", raw)
		}
		out := reflect.New(t).Elem()
		out.SetFloat(f)
		return out.Interface(), nil
	}}, nil
}

// boolGenericFactory covers named bool types.
type boolGenericFactory struct{}

func (boolGenericFactory) Key() reflect.Type      { return reflect.TypeOf(false) }
func (boolGenericFactory) Accepts(t reflect.Type) bool { return t.Kind() == reflect.Bool }

func (boolGenericFactory) Make(t reflect.Type) (Converter, error) {
	return funcConverter{OptionBoolean, func(_ context.Context, raw any) (any, error) {
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("convert: expected boolean option, got %T", raw)
		}
		out := reflect.New(t).Elem()
		out.SetBool(b)
		return out.Interface(), nil
	}}, nil
}

// stringGenericFactory only covers the literal builtin string type — it
// exists so Resolve still succeeds for "string" even if the exact entry
// registered in NewDefaultRegistry is ever Removed. Every other
// string-kind type belongs to enumGenericFactory, so the two never
// compete and no tie-break between them is needed.
type stringGenericFactory struct{}

func (stringGenericFactory) Key() reflect.Type           { return reflect.TypeOf("") }
func (stringGenericFactory) Accepts(t reflect.Type) bool { return t == reflect.TypeOf("") }

func (stringGenericFactory) Make(t reflect.Type) (Converter, error) {
	return funcConverter{OptionString, func(_ context.Context, raw any) (any, error) {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("convert: expected string option, got %T", raw)
		}
		out := reflect.New(t).Elem()
		out.SetString(s)
		return out.Interface(), nil
	}}, nil
}

// enumGenericFactory converts a string option into any named (non-builtin)
// string-kind type — the framework's stand-in for the source's enum
// type-reader. It owns every string-kind type except the literal builtin
// "string" (stringGenericFactory's exclusive territory), so the two never
// qualify for the same type and Resolve never needs to tie-break between
// them.
type enumGenericFactory struct{}

type namedString string

func (enumGenericFactory) Key() reflect.Type          { return reflect.TypeOf(namedString("")) }
func (enumGenericFactory) Accepts(t reflect.Type) bool { return t.Kind() == reflect.String && t != reflect.TypeOf("") }

func (enumGenericFactory) Make(t reflect.Type) (Converter, error) {
	return funcConverter{OptionString, func(_ context.Context, raw any) (any, error) {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("convert: expected string option, got %T", raw)
		}
		out := reflect.New(t).Elem()
		out.SetString(s)
		return out.Interface(), nil
	}}, nil
}

// platformGenericFactory backs the channel/role/user/mentionable generics:
// any declared parameter type implementing the given marker interface
// resolves to a pass-through converter whose Read expects the raw option
// value to already be that concrete type (the discord adapter resolves
// snowflakes to domain types before invoking the pipeline).
type platformGenericFactory struct {
	optType OptionType
	iface   reflect.Type
}

func (p platformGenericFactory) Key() reflect.Type { return p.iface }

func (p platformGenericFactory) Accepts(t reflect.Type) bool {
	return t.Implements(p.iface)
}

func (p platformGenericFactory) Make(t reflect.Type) (Converter, error) {
	return funcConverter{p.optType, func(_ context.Context, raw any) (any, error) {
		v := reflect.ValueOf(raw)
		if !v.IsValid() || !v.Type().AssignableTo(t) {
			return nil, fmt.Errorf("convert: expected %s option, got %T", t, raw)
		}
		return raw, nil
	}}, nil
}
