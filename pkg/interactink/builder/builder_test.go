package builder_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mrwong99/interactink/pkg/interactink/builder"
	"github.com/mrwong99/interactink/pkg/interactink/ikerr"
	"github.com/mrwong99/interactink/pkg/interactink/model"
)

type staticSource struct {
	mods []*model.ModuleDescriptor
	err  error
}

func (s staticSource) Modules() ([]*model.ModuleDescriptor, error) { return s.mods, s.err }

func simpleSlash(name, desc string) *model.SlashCommandDescriptor {
	return &model.SlashCommandDescriptor{
		Name:        name,
		Description: desc,
		Handler: func(ctx *model.Context, args []any, svc model.ServiceLocator) (any, error) {
			return "pong", nil
		},
	}
}

func TestBuild_SimpleSlash(t *testing.T) {
	t.Parallel()

	src := staticSource{mods: []*model.ModuleDescriptor{
		{Name: "root", SlashCommands: []*model.SlashCommandDescriptor{simpleSlash("ping", "pong latency")}},
	}}

	roots, err := builder.Build(src)
	if err != nil {
		t.Fatalf("Build: unexpected error: %v", err)
	}
	if len(roots) != 1 || len(roots[0].SlashCommands) != 1 {
		t.Fatalf("Build: expected one root with one slash command, got %+v", roots)
	}
	if got := roots[0].SlashCommands[0].FullPath(); !reflect.DeepEqual(got, []string{"ping"}) {
		t.Fatalf("FullPath: got %v, want [ping]", got)
	}
}

func TestBuild_NameBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmdName string
		wantErr bool
	}{
		{"empty name rejected", "", true},
		{"33 chars rejected", strings.Repeat("a", 33), true},
		{"1 char accepted", "a", false},
		{"32 chars accepted", strings.Repeat("a", 32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := staticSource{mods: []*model.ModuleDescriptor{
				{Name: "root", SlashCommands: []*model.SlashCommandDescriptor{simpleSlash(tt.cmdName, "a valid description")}},
			}}
			_, err := builder.Build(src)
			if tt.wantErr && err == nil {
				t.Fatalf("Build(%q): expected error, got nil", tt.cmdName)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Build(%q): unexpected error: %v", tt.cmdName, err)
			}
			if tt.wantErr && !ikerr.Is(firstJoined(err), ikerr.ParseFailed) {
				t.Fatalf("Build(%q): expected ParseFailed, got %v", tt.cmdName, err)
			}
		})
	}
}

func TestBuild_ChoiceBoundaries(t *testing.T) {
	t.Parallel()

	mkChoices := func(n int) []model.Choice {
		cs := make([]model.Choice, n)
		for i := range cs {
			cs[i] = model.Choice{Name: "opt", Value: i}
		}
		return cs
	}

	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{"25 accepted", 25, false},
		{"26 rejected", 26, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd := simpleSlash("pick", "pick one")
			cmd.Parameters = []*model.ParameterDescriptor{{
				Name: "option", Type: reflect.TypeOf(""), IsRequired: true, Choices: mkChoices(tt.count),
			}}
			src := staticSource{mods: []*model.ModuleDescriptor{{Name: "root", SlashCommands: []*model.SlashCommandDescriptor{cmd}}}}
			_, err := builder.Build(src)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error for %d choices", tt.count)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error for %d choices: %v", tt.count, err)
			}
		})
	}
}

func TestBuild_GroupDepth(t *testing.T) {
	t.Parallel()

	t.Run("depth 2 accepted", func(t *testing.T) {
		t.Parallel()
		src := staticSource{mods: []*model.ModuleDescriptor{
			{
				Name: "admin", GroupName: "admin", Description: "admin commands",
				Children: []*model.ModuleDescriptor{
					{
						Name: "users", GroupName: "users", Description: "user management",
						SlashCommands: []*model.SlashCommandDescriptor{simpleSlash("kick", "kick a user")},
					},
				},
			},
		}}
		if _, err := builder.Build(src); err != nil {
			t.Fatalf("Build: unexpected error at depth 2: %v", err)
		}
	})

	t.Run("depth 3 rejected", func(t *testing.T) {
		t.Parallel()
		src := staticSource{mods: []*model.ModuleDescriptor{
			{
				Name: "a", GroupName: "a", Description: "a",
				Children: []*model.ModuleDescriptor{
					{
						Name: "b", GroupName: "b", Description: "b",
						Children: []*model.ModuleDescriptor{
							{
								Name: "c", GroupName: "c", Description: "c",
								SlashCommands: []*model.SlashCommandDescriptor{simpleSlash("cmd", "a command")},
							},
						},
					},
				},
			},
		}}
		_, err := builder.Build(src)
		if err == nil {
			t.Fatal("Build: expected error at depth 3, got nil")
		}
		if !ikerr.Is(firstJoined(err), ikerr.ParseFailed) {
			t.Fatalf("Build: expected ParseFailed, got %v", err)
		}
	})
}

func TestBuild_RequiredAfterOptional(t *testing.T) {
	t.Parallel()

	cmd := simpleSlash("kick", "kick a user")
	cmd.Parameters = []*model.ParameterDescriptor{
		{Name: "reason", Type: reflect.TypeOf(""), IsRequired: false, DefaultValue: "none"},
		{Name: "user", Type: reflect.TypeOf(""), IsRequired: true},
	}
	src := staticSource{mods: []*model.ModuleDescriptor{{Name: "root", SlashCommands: []*model.SlashCommandDescriptor{cmd}}}}

	_, err := builder.Build(src)
	if err == nil {
		t.Fatal("Build: expected error for required-after-optional, got nil")
	}
}

func TestBuild_ComplexParameterCycle(t *testing.T) {
	t.Parallel()

	selfType := reflect.TypeOf(struct{ Inner any }{})
	var inner []*model.ParameterDescriptor
	complexParam := &model.ParameterDescriptor{
		Name: "target", Type: selfType, IsComplex: true,
	}
	inner = []*model.ParameterDescriptor{complexParam}
	complexParam.Attributes = []any{inner} // self-referential: cycle

	cmd := simpleSlash("nest", "nested complex parameter")
	cmd.Parameters = []*model.ParameterDescriptor{complexParam}
	src := staticSource{mods: []*model.ModuleDescriptor{{Name: "root", SlashCommands: []*model.SlashCommandDescriptor{cmd}}}}

	_, err := builder.Build(src)
	if err == nil {
		t.Fatal("Build: expected ComplexParameterCycle error, got nil")
	}
	if !ikerr.Is(firstJoined(err), ikerr.ComplexParameterCycle) {
		t.Fatalf("Build: expected ComplexParameterCycle, got %v", err)
	}
}

func TestBuild_DuplicatePath(t *testing.T) {
	t.Parallel()

	src := staticSource{mods: []*model.ModuleDescriptor{
		{Name: "root1", SlashCommands: []*model.SlashCommandDescriptor{simpleSlash("ping", "pong")}},
		{Name: "root2", SlashCommands: []*model.SlashCommandDescriptor{simpleSlash("ping", "pong again")}},
	}}

	_, err := builder.Build(src)
	if err == nil {
		t.Fatal("Build: expected duplicate path error, got nil")
	}
}

func TestBuild_AttributeInheritance(t *testing.T) {
	t.Parallel()

	parentAttr := "parent-attr"
	childAttr := "child-attr"
	cmd := simpleSlash("ping", "pong latency")
	cmd.Attributes = []any{childAttr}

	src := staticSource{mods: []*model.ModuleDescriptor{
		{
			Name: "root", Attributes: []any{parentAttr},
			SlashCommands: []*model.SlashCommandDescriptor{cmd},
		},
	}}

	roots, err := builder.Build(src)
	if err != nil {
		t.Fatalf("Build: unexpected error: %v", err)
	}
	got := roots[0].SlashCommands[0].Attributes
	want := []any{parentAttr, childAttr}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Attributes: got %v, want %v (parent must precede child)", got, want)
	}
}

// firstJoined unwraps the first error out of an errors.Join aggregate so
// tests can assert on its ikerr.Kind.
func firstJoined(err error) error {
	type unwrapper interface{ Unwrap() []error }
	if u, ok := err.(unwrapper); ok {
		errs := u.Unwrap()
		if len(errs) > 0 {
			return errs[0]
		}
	}
	return err
}
