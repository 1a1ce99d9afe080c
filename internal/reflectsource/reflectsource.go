// Package reflectsource implements a model.ModuleSource that discovers
// modules, commands, and handlers from Go struct tags — the idiomatic-Go
// analogue of the original framework's attribute-driven reflection
// (spec.md §9 design note).
//
// A registered value is a pointer to a struct. A field named Module of type
// struct{} carries the module's own metadata via an `interactink` tag
// ("group=admin,description=...,default_permission"). Every other field
// whose type is model.HandlerCallback is turned into a SlashCommand,
// ContextCommand, ComponentHandler, or ModalHandler depending on its tag's
// leading key (slash=, user=, message=, component=, modal=). A field whose
// type is a pointer to another tagged struct, tagged `interactink:"child"`,
// becomes a nested child module.
package reflectsource

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrwong99/interactink/pkg/interactink/model"
)

// Source collects module-defining struct values to reflect on demand.
type Source struct {
	modules []any
}

// New creates an empty Source.
func New() *Source { return &Source{} }

// Register adds a module-defining struct pointer to be reflected when
// Modules is called. Returns s for chained registration.
func (s *Source) Register(module any) *Source {
	s.modules = append(s.modules, module)
	return s
}

// concurrentModuleThreshold is the point past which Modules walks its
// registered struct values on separate goroutines instead of in declaration
// order: below it, the goroutine/errgroup overhead outweighs the reflection
// work it would overlap.
const concurrentModuleThreshold = 4

// Modules implements model.ModuleSource. Each registered struct value is
// reflected independently of the others, so past concurrentModuleThreshold
// entries it fans out one goroutine per value, matching
// pkg/interactink/syncengine.BuildPayloads's per-root errgroup walk.
func (s *Source) Modules() ([]*model.ModuleDescriptor, error) {
	if len(s.modules) <= concurrentModuleThreshold {
		descriptors := make([]*model.ModuleDescriptor, 0, len(s.modules))
		for _, m := range s.modules {
			d, err := describeModule(m)
			if err != nil {
				return nil, fmt.Errorf("reflectsource: %w", err)
			}
			descriptors = append(descriptors, d)
		}
		return descriptors, nil
	}

	descriptors := make([]*model.ModuleDescriptor, len(s.modules))
	var g errgroup.Group
	for i, m := range s.modules {
		g.Go(func() error {
			d, err := describeModule(m)
			if err != nil {
				return err
			}
			descriptors[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reflectsource: %w", err)
	}
	return descriptors, nil
}

var handlerType = reflect.TypeFor[model.HandlerCallback]()

func describeModule(module any) (*model.ModuleDescriptor, error) {
	v := reflect.ValueOf(module)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("module %T: must be a non-nil pointer to a struct", module)
	}
	v = v.Elem()
	t := v.Type()

	desc := &model.ModuleDescriptor{Name: t.Name()}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup("interactink")
		if !ok {
			continue
		}
		attrs := parseTag(tag)

		if field.Name == "Module" {
			desc.GroupName = attrs["group"]
			desc.Description = attrs["description"]
			_, desc.DefaultPermission = attrs["default_permission"]
			continue
		}

		switch {
		case attrs.has("slash"):
			cmd, err := describeSlash(v.Field(i), field, attrs)
			if err != nil {
				return nil, err
			}
			desc.SlashCommands = append(desc.SlashCommands, cmd)

		case attrs.has("user"), attrs.has("message"):
			cmd, err := describeContext(v.Field(i), field, attrs)
			if err != nil {
				return nil, err
			}
			desc.ContextCommands = append(desc.ContextCommands, cmd)

		case attrs.has("component"):
			h, err := describeComponent(v.Field(i), field, attrs["component"])
			if err != nil {
				return nil, err
			}
			desc.ComponentHandlers = append(desc.ComponentHandlers, h)

		case attrs.has("modal"):
			h, err := describeModal(v.Field(i), field, attrs["modal"])
			if err != nil {
				return nil, err
			}
			desc.ModalHandlers = append(desc.ModalHandlers, h)

		case attrs.has("child"):
			if v.Field(i).Kind() != reflect.Pointer || v.Field(i).IsNil() {
				return nil, fmt.Errorf("field %s: child module must be a non-nil pointer", field.Name)
			}
			child, err := describeModule(v.Field(i).Interface())
			if err != nil {
				return nil, err
			}
			desc.Children = append(desc.Children, child)
		}
	}

	return desc, nil
}

func describeSlash(fv reflect.Value, field reflect.StructField, attrs tagAttrs) (*model.SlashCommandDescriptor, error) {
	handler, err := asHandler(fv, field)
	if err != nil {
		return nil, err
	}
	params, err := parseParams(attrs["params"])
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field.Name, err)
	}
	_, ignoreGroup := attrs["ignore_group_names"]
	return &model.SlashCommandDescriptor{
		Name:             attrs["slash"],
		Description:      attrs["description"],
		IgnoreGroupNames: ignoreGroup,
		Parameters:       params,
		Handler:          handler,
	}, nil
}

func describeContext(fv reflect.Value, field reflect.StructField, attrs tagAttrs) (*model.ContextCommandDescriptor, error) {
	handler, err := asHandler(fv, field)
	if err != nil {
		return nil, err
	}
	commandType := model.UserCommand
	name := attrs["user"]
	if attrs.has("message") {
		commandType = model.MessageCommand
		name = attrs["message"]
	}
	return &model.ContextCommandDescriptor{
		Name:        name,
		CommandType: commandType,
		Handler:     handler,
	}, nil
}

func describeComponent(fv reflect.Value, field reflect.StructField, pattern string) (*model.ComponentHandlerDescriptor, error) {
	handler, err := asHandler(fv, field)
	if err != nil {
		return nil, err
	}
	return &model.ComponentHandlerDescriptor{Name: pattern, Handler: handler}, nil
}

func describeModal(fv reflect.Value, field reflect.StructField, pattern string) (*model.ModalHandlerDescriptor, error) {
	handler, err := asHandler(fv, field)
	if err != nil {
		return nil, err
	}
	return &model.ModalHandlerDescriptor{Name: pattern, Handler: handler}, nil
}

func asHandler(fv reflect.Value, field reflect.StructField) (model.HandlerCallback, error) {
	if field.Type != handlerType {
		return nil, fmt.Errorf("field %s: must be model.HandlerCallback, got %s", field.Name, field.Type)
	}
	if fv.IsNil() {
		return nil, fmt.Errorf("field %s: handler is nil", field.Name)
	}
	return fv.Interface().(model.HandlerCallback), nil
}

// tagAttrs is the parsed form of one `interactink:"..."` tag: comma-separated
// key=value pairs, or bare keys for boolean flags. A comma-separated piece
// that does not start with a key (lowercase letters and "_") continues the
// previous value, so values such as choices=a:1,b:2 keep their commas.
type tagAttrs map[string]string

func (a tagAttrs) has(key string) bool {
	_, ok := a[key]
	return ok
}

func parseTag(tag string) tagAttrs {
	attrs := make(tagAttrs)
	valued := ""
	for _, raw := range strings.Split(tag, ",") {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if valued != "" && strings.Trim(k, "abcdefghijklmnopqrstuvwxyz_") != "" {
			attrs[valued] += "," + raw
			continue
		}
		if ok {
			attrs[k] = v
			valued = k
		} else {
			attrs[part] = ""
			valued = ""
		}
	}
	return attrs
}

// parseParams reads a "name:type!|attr=val|attr=val;name2:type2" mini-DSL
// into parameter descriptors: entries are ";"-separated, a trailing "!" on
// the type marks the parameter required, and any further "|"-separated
// attributes extend it:
//
//	min=N                numeric lower bound
//	max=N                numeric upper bound
//	default=V            default value, parsed per the parameter's own type
//	choices=label:val,... static choices, each value parsed per the
//	                       parameter's own type
//	channels=N,...        allowed Discord channel types
//
// Supported types: string, int64, bool, float64, duration.
func parseParams(spec string) ([]*model.ParameterDescriptor, error) {
	if spec == "" {
		return nil, nil
	}
	var params []*model.ParameterDescriptor
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		segments := strings.Split(entry, "|")
		name, typeSpec, ok := strings.Cut(segments[0], ":")
		if !ok {
			return nil, fmt.Errorf("invalid param spec %q: want name:type", entry)
		}
		required := strings.HasSuffix(typeSpec, "!")
		typeSpec = strings.TrimSuffix(typeSpec, "!")
		t, err := paramType(typeSpec)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", name, err)
		}
		pd := &model.ParameterDescriptor{
			Name:       strings.TrimSpace(name),
			Type:       t,
			IsRequired: required,
		}
		for _, attr := range segments[1:] {
			if err := applyParamAttr(pd, strings.TrimSpace(attr)); err != nil {
				return nil, fmt.Errorf("param %q: %w", pd.Name, err)
			}
		}
		params = append(params, pd)
	}
	return params, nil
}

// applyParamAttr parses one "key=value" segment of a parseParams entry and
// applies it to pd.
func applyParamAttr(pd *model.ParameterDescriptor, attr string) error {
	key, val, ok := strings.Cut(attr, "=")
	if !ok {
		return fmt.Errorf("invalid attribute %q: want key=value", attr)
	}
	switch key {
	case "min":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("min: %w", err)
		}
		pd.Min = &f

	case "max":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("max: %w", err)
		}
		pd.Max = &f

	case "default":
		v, err := parseChoiceValue(pd.Type, val)
		if err != nil {
			return fmt.Errorf("default: %w", err)
		}
		pd.DefaultValue = v

	case "channels":
		for _, raw := range strings.Split(val, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("channels: %w", err)
			}
			pd.ChannelTypes = append(pd.ChannelTypes, n)
		}

	case "choices":
		for _, raw := range strings.Split(val, ",") {
			label, value, ok := strings.Cut(raw, ":")
			if !ok {
				return fmt.Errorf("choices: invalid entry %q: want label:value", raw)
			}
			v, err := parseChoiceValue(pd.Type, value)
			if err != nil {
				return fmt.Errorf("choices: %w", err)
			}
			pd.Choices = append(pd.Choices, model.Choice{Name: label, Value: v})
		}

	default:
		return fmt.Errorf("unknown attribute %q", key)
	}
	return nil
}

// parseChoiceValue parses raw per t's kind, matching spec.md §3's "Choice.
// Value is a string, int64, or float64": everything that isn't one of the
// numeric parameter kinds is taken as a literal string.
func parseChoiceValue(t reflect.Type, raw string) (any, error) {
	if t == nil {
		return raw, nil
	}
	switch t.Kind() {
	case reflect.Int64:
		return strconv.ParseInt(raw, 10, 64)
	case reflect.Float64:
		return strconv.ParseFloat(raw, 64)
	default:
		return raw, nil
	}
}

func paramType(name string) (reflect.Type, error) {
	switch name {
	case "string":
		return reflect.TypeOf(""), nil
	case "int64":
		return reflect.TypeOf(int64(0)), nil
	case "bool":
		return reflect.TypeOf(false), nil
	case "float64":
		return reflect.TypeOf(float64(0)), nil
	case "duration":
		return reflect.TypeOf(time.Duration(0)), nil
	default:
		return nil, fmt.Errorf("unknown parameter type %q", name)
	}
}
