package reflectsource_test

import (
	"testing"

	"github.com/mrwong99/interactink/internal/reflectsource"
	"github.com/mrwong99/interactink/pkg/interactink/model"
)

func noopHandler(ctx *model.Context, args []any, svc model.ServiceLocator) (any, error) {
	return "ok", nil
}

type pingModule struct {
	Module struct{}      `interactink:"group=util,description=utility commands"`
	Ping   model.HandlerCallback `interactink:"slash=ping,description=pong latency"`
}

func TestSource_DescribesFlatModule(t *testing.T) {
	t.Parallel()

	m := &pingModule{Ping: noopHandler}
	src := reflectsource.New().Register(m)

	descs, err := src.Modules()
	if err != nil {
		t.Fatalf("Modules: unexpected error: %v", err)
	}
	if len(descs) != 1 {
		t.Fatalf("Modules: got %d descriptors, want 1", len(descs))
	}
	d := descs[0]
	if d.GroupName != "util" || d.Description != "utility commands" {
		t.Fatalf("module metadata = %+v, want group=util description=%q", d, "utility commands")
	}
	if len(d.SlashCommands) != 1 || d.SlashCommands[0].Name != "ping" {
		t.Fatalf("SlashCommands = %+v, want one named ping", d.SlashCommands)
	}
	if d.SlashCommands[0].Handler == nil {
		t.Fatal("slash command handler not wired")
	}
}

type adminModule struct {
	Module struct{} `interactink:"group=admin,description=admin commands"`
	Kick   model.HandlerCallback `interactink:"slash=kick,description=kick a member,params=user:int64!;reason:string"`
	Warn   model.HandlerCallback `interactink:"user=warn"`
}

func TestSource_DescribesParamsAndContextCommand(t *testing.T) {
	t.Parallel()

	m := &adminModule{Kick: noopHandler, Warn: noopHandler}
	descs, err := reflectsource.New().Register(m).Modules()
	if err != nil {
		t.Fatalf("Modules: unexpected error: %v", err)
	}
	d := descs[0]

	if len(d.SlashCommands) != 1 {
		t.Fatalf("SlashCommands = %+v, want one", d.SlashCommands)
	}
	params := d.SlashCommands[0].Parameters
	if len(params) != 2 {
		t.Fatalf("Parameters = %+v, want 2", params)
	}
	if params[0].Name != "user" || !params[0].IsRequired {
		t.Fatalf("params[0] = %+v, want required user", params[0])
	}
	if params[1].Name != "reason" || params[1].IsRequired {
		t.Fatalf("params[1] = %+v, want optional reason", params[1])
	}

	if len(d.ContextCommands) != 1 || d.ContextCommands[0].Name != "warn" {
		t.Fatalf("ContextCommands = %+v, want one named warn", d.ContextCommands)
	}
	if d.ContextCommands[0].CommandType != model.UserCommand {
		t.Fatalf("CommandType = %v, want UserCommand", d.ContextCommands[0].CommandType)
	}
}

type childModule struct {
	Module struct{} `interactink:"group=users,description=user management"`
	Kick   model.HandlerCallback `interactink:"slash=kick,description=kick a user"`
}

type parentModule struct {
	Module struct{}   `interactink:"group=admin,description=admin commands"`
	Users  *childModule `interactink:"child"`
}

func TestSource_DescribesNestedChild(t *testing.T) {
	t.Parallel()

	m := &parentModule{Users: &childModule{Kick: noopHandler}}
	descs, err := reflectsource.New().Register(m).Modules()
	if err != nil {
		t.Fatalf("Modules: unexpected error: %v", err)
	}
	d := descs[0]
	if len(d.Children) != 1 || d.Children[0].GroupName != "users" {
		t.Fatalf("Children = %+v, want one named users", d.Children)
	}
	if len(d.Children[0].SlashCommands) != 1 {
		t.Fatalf("child SlashCommands = %+v, want one", d.Children[0].SlashCommands)
	}
}

func TestSource_RejectsNonStructPointer(t *testing.T) {
	t.Parallel()

	_, err := reflectsource.New().Register("not a struct pointer").Modules()
	if err == nil {
		t.Fatal("Modules: expected error for non-struct-pointer module")
	}
}

func TestSource_RejectsNilHandler(t *testing.T) {
	t.Parallel()

	m := &pingModule{}
	_, err := reflectsource.New().Register(m).Modules()
	if err == nil {
		t.Fatal("Modules: expected error for nil handler field")
	}
}

type choiceModule struct {
	Module struct{}      `interactink:"group=shop,description=shop commands"`
	Buy    model.HandlerCallback `interactink:"slash=buy,description=buy an item,params=item:string!|choices=Sword:sword,Shield:shield;qty:int64|min=1|max=10|default=1"`
}

func TestSource_DescribesParamAttributes(t *testing.T) {
	t.Parallel()

	m := &choiceModule{Buy: noopHandler}
	descs, err := reflectsource.New().Register(m).Modules()
	if err != nil {
		t.Fatalf("Modules: unexpected error: %v", err)
	}
	params := descs[0].SlashCommands[0].Parameters
	if len(params) != 2 {
		t.Fatalf("Parameters = %+v, want 2", params)
	}

	item := params[0]
	if !item.IsRequired || len(item.Choices) != 2 {
		t.Fatalf("item param = %+v, want required with 2 choices", item)
	}
	if item.Choices[0].Name != "Sword" || item.Choices[0].Value != "sword" {
		t.Fatalf("item.Choices[0] = %+v, want Sword:sword", item.Choices[0])
	}

	qty := params[1]
	if qty.Min == nil || *qty.Min != 1 || qty.Max == nil || *qty.Max != 10 {
		t.Fatalf("qty bounds = %+v, want min=1 max=10", qty)
	}
	if qty.DefaultValue != int64(1) {
		t.Fatalf("qty.DefaultValue = %v (%T), want int64(1)", qty.DefaultValue, qty.DefaultValue)
	}
}

func TestSource_RejectsUnknownParamAttribute(t *testing.T) {
	t.Parallel()

	type badModule struct {
		Module struct{}      `interactink:"group=x,description=x"`
		Do     model.HandlerCallback `interactink:"slash=do,description=do it,params=x:string|bogus=1"`
	}
	m := &badModule{Do: noopHandler}
	_, err := reflectsource.New().Register(m).Modules()
	if err == nil {
		t.Fatal("Modules: expected error for unknown param attribute")
	}
}

func TestSource_ModulesConcurrentPastThreshold(t *testing.T) {
	t.Parallel()

	src := reflectsource.New()
	for i := 0; i < 10; i++ {
		src.Register(&pingModule{Ping: noopHandler})
	}
	descs, err := src.Modules()
	if err != nil {
		t.Fatalf("Modules: unexpected error: %v", err)
	}
	if len(descs) != 10 {
		t.Fatalf("Modules: got %d descriptors, want 10", len(descs))
	}
	for idx, d := range descs {
		if d.GroupName != "util" {
			t.Fatalf("descs[%d].GroupName = %q, want util (order must be preserved despite concurrency)", idx, d.GroupName)
		}
	}
}
