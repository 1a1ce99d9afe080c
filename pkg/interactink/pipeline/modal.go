package pipeline

import (
	"fmt"
	"reflect"

	"github.com/mrwong99/interactink/pkg/interactink/cmdmap"
	"github.com/mrwong99/interactink/pkg/interactink/model"
)

func capturesOf(caps []cmdmap.Capture) []model.Capture {
	out := make([]model.Capture, len(caps))
	for i, c := range caps {
		out[i] = model.Capture{Name: c.Name, Value: c.Value}
	}
	return out
}

func capturesToArgs(caps []cmdmap.Capture) []any {
	args := make([]any, len(caps))
	for i, c := range caps {
		args[i] = c.Value
	}
	return args
}

// newModalInstance allocates a new addressable value of t (a struct type)
// and returns it as a pointer, matching how the modal struct instance is
// handed to the handler as the first argument.
func newModalInstance(t reflect.Type) any {
	return reflect.New(t).Interface()
}

// setModalField assigns value to the named public field of a pointer
// produced by newModalInstance.
func setModalField(instance any, fieldName string, value any) error {
	v := reflect.ValueOf(instance).Elem()
	field := v.FieldByName(fieldName)
	if !field.IsValid() {
		return fmt.Errorf("modal: no field %q", fieldName)
	}
	if !field.CanSet() {
		return fmt.Errorf("modal: field %q is not settable", fieldName)
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return nil
	}
	if !rv.Type().AssignableTo(field.Type()) {
		if rv.Type().ConvertibleTo(field.Type()) {
			rv = rv.Convert(field.Type())
		} else {
			return fmt.Errorf("modal: field %q: value of type %s not assignable to %s", fieldName, rv.Type(), field.Type())
		}
	}
	field.Set(rv)
	return nil
}
