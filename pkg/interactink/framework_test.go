package interactink_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/mrwong99/interactink/pkg/interactink"
	"github.com/mrwong99/interactink/pkg/interactink/ikerr"
	"github.com/mrwong99/interactink/pkg/interactink/model"
	"github.com/mrwong99/interactink/pkg/interactink/syncengine"
)

type staticSource struct {
	mods []*model.ModuleDescriptor
}

func (s staticSource) Modules() ([]*model.ModuleDescriptor, error) { return s.mods, nil }

func simpleSlash(name string) *model.SlashCommandDescriptor {
	return &model.SlashCommandDescriptor{
		Name:        name,
		Description: "a command",
		Handler: func(ctx *model.Context, args []any, svc model.ServiceLocator) (any, error) {
			return "ok", nil
		},
	}
}

func TestFramework_AddModulesRegistersCommands(t *testing.T) {
	t.Parallel()

	f := interactink.New()
	src := staticSource{mods: []*model.ModuleDescriptor{
		{Name: "root", SlashCommands: []*model.SlashCommandDescriptor{simpleSlash("ping")}},
	}}

	infos, err := f.AddModules(src)
	if err != nil {
		t.Fatalf("AddModules: unexpected error: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "root" || infos[0].SlashCommands != 1 {
		t.Fatalf("infos = %+v, want one root with 1 slash command", infos)
	}

	result, err := f.Pipeline().ExecuteSlash(context.Background(), &model.InteractionEvent{
		ID:   "i1",
		Path: []string{"ping"},
	}, nil, stubServices{})
	if err != nil {
		t.Fatalf("ExecuteSlash: unexpected error: %v", err)
	}
	if !result.IsSuccess {
		t.Fatalf("result = %+v, want IsSuccess", result)
	}
}

func TestFramework_AddModulesRejectsDuplicatePath(t *testing.T) {
	t.Parallel()

	f := interactink.New()
	src := staticSource{mods: []*model.ModuleDescriptor{
		{Name: "root", SlashCommands: []*model.SlashCommandDescriptor{simpleSlash("ping")}},
	}}
	if _, err := f.AddModules(src); err != nil {
		t.Fatalf("first AddModules: unexpected error: %v", err)
	}
	if _, err := f.AddModules(src); err == nil {
		t.Fatalf("second AddModules: expected duplicate command error, got nil")
	}
}

func TestFramework_RemoveModule(t *testing.T) {
	t.Parallel()

	f := interactink.New()
	src := staticSource{mods: []*model.ModuleDescriptor{
		{Name: "root", SlashCommands: []*model.SlashCommandDescriptor{simpleSlash("ping")}},
	}}
	if _, err := f.AddModules(src); err != nil {
		t.Fatalf("AddModules: unexpected error: %v", err)
	}

	if !f.RemoveModule("root") {
		t.Fatalf("RemoveModule(root) = false, want true")
	}
	if f.RemoveModule("root") {
		t.Fatalf("second RemoveModule(root) = true, want false (already removed)")
	}

	result, err := f.Pipeline().ExecuteSlash(context.Background(), &model.InteractionEvent{
		ID:   "i1",
		Path: []string{"ping"},
	}, nil, stubServices{})
	if err != nil {
		t.Fatalf("ExecuteSlash after RemoveModule: unexpected error: %v", err)
	}
	if result.IsSuccess || !ikerr.Is(result.Error, ikerr.UnknownCommand) {
		t.Fatalf("ExecuteSlash after RemoveModule: result = %+v, want UnknownCommand failure", result)
	}
}

type fakeRegistryClient struct {
	overwritten []syncengine.CommandPayload
}

func (c *fakeRegistryClient) GetGlobal(context.Context) ([]syncengine.CommandPayload, error) {
	return nil, nil
}
func (c *fakeRegistryClient) GetGuild(context.Context, string) ([]syncengine.CommandPayload, error) {
	return nil, nil
}
func (c *fakeRegistryClient) BulkOverwriteGlobal(_ context.Context, payloads []syncengine.CommandPayload) error {
	c.overwritten = payloads
	return nil
}
func (c *fakeRegistryClient) BulkOverwriteGuild(_ context.Context, _ string, payloads []syncengine.CommandPayload) error {
	c.overwritten = payloads
	return nil
}
func (c *fakeRegistryClient) CreateGuild(context.Context, string, syncengine.CommandPayload) error {
	return nil
}
func (c *fakeRegistryClient) Delete(context.Context, string) error { return nil }

func TestFramework_SyncCommands(t *testing.T) {
	t.Parallel()

	client := &fakeRegistryClient{}
	f := interactink.New(interactink.WithRegistryClient(client))
	src := staticSource{mods: []*model.ModuleDescriptor{
		{Name: "root", SlashCommands: []*model.SlashCommandDescriptor{simpleSlash("ping")}},
	}}
	if _, err := f.AddModules(src); err != nil {
		t.Fatalf("AddModules: unexpected error: %v", err)
	}

	if err := f.SyncCommands(context.Background(), "", true); err != nil {
		t.Fatalf("SyncCommands: unexpected error: %v", err)
	}
	if len(client.overwritten) != 1 || client.overwritten[0].Name != "ping" {
		t.Fatalf("overwritten = %+v, want [ping]", client.overwritten)
	}
}

type stubServices struct{}

func (stubServices) Resolve(t reflect.Type) (any, bool) { return nil, false }
