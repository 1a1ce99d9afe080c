package syncengine_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/mrwong99/interactink/pkg/interactink/convert"
	"github.com/mrwong99/interactink/pkg/interactink/model"
	"github.com/mrwong99/interactink/pkg/interactink/syncengine"
)

func TestBuildPayloads_FlatModule(t *testing.T) {
	t.Parallel()

	registry := convert.NewDefaultRegistry()
	cmd := &model.SlashCommand{Name: "ping", Description: "pong latency"}
	m := &model.Module{Name: "root"}
	cmd.Module = m
	m.SlashCommands = []*model.SlashCommand{cmd}

	payloads := syncengine.BuildPayloads([]*model.Module{m}, registry)
	if len(payloads) != 1 || payloads[0].Name != "ping" || payloads[0].Type != syncengine.SlashCommandPayload {
		t.Fatalf("payloads = %+v, want one ping SlashCommandPayload", payloads)
	}
}

func TestBuildPayloads_SlashGroupCollapsesToSubCommands(t *testing.T) {
	t.Parallel()

	registry := convert.NewDefaultRegistry()
	group := &model.Module{Name: "admin", GroupName: "admin"}
	kick := &model.SlashCommand{
		Name:        "kick",
		Description: "kick a member",
		Module:      group,
		Parameters: []*model.Parameter{
			{Name: "user", Type: reflect.TypeOf(""), IsRequired: true},
		},
	}
	group.SlashCommands = []*model.SlashCommand{kick}

	payloads := syncengine.BuildPayloads([]*model.Module{group}, registry)
	if len(payloads) != 1 {
		t.Fatalf("payloads = %+v, want 1 group payload", payloads)
	}
	p := payloads[0]
	if p.Name != "admin" || len(p.Options) != 1 || p.Options[0].Name != "kick" {
		t.Fatalf("group payload = %+v, want admin with kick subcommand", p)
	}
	if len(p.Options[0].Options) != 1 || p.Options[0].Options[0].Name != "user" {
		t.Fatalf("kick options = %+v, want [user]", p.Options[0].Options)
	}
}

func TestBuildPayloads_IgnoreGroupNamesEscapesToTopLevel(t *testing.T) {
	t.Parallel()

	registry := convert.NewDefaultRegistry()
	group := &model.Module{Name: "admin", GroupName: "admin"}
	escaped := &model.SlashCommand{Name: "help", Description: "show help", Module: group, IgnoreGroupNames: true}
	group.SlashCommands = []*model.SlashCommand{escaped}

	payloads := syncengine.BuildPayloads([]*model.Module{group}, registry)
	if len(payloads) != 2 {
		t.Fatalf("payloads = %+v, want 2 (escaped help + empty admin group)", payloads)
	}
	var sawHelp bool
	for _, p := range payloads {
		if p.Name == "help" {
			sawHelp = true
		}
	}
	if !sawHelp {
		t.Fatalf("payloads = %+v, want a top-level help payload", payloads)
	}
}

type fakeClient struct {
	existing []syncengine.CommandPayload
	overwritten []syncengine.CommandPayload
}

func (c *fakeClient) GetGlobal(context.Context) ([]syncengine.CommandPayload, error) { return c.existing, nil }
func (c *fakeClient) GetGuild(context.Context, string) ([]syncengine.CommandPayload, error) {
	return c.existing, nil
}
func (c *fakeClient) BulkOverwriteGlobal(_ context.Context, payloads []syncengine.CommandPayload) error {
	c.overwritten = payloads
	return nil
}
func (c *fakeClient) BulkOverwriteGuild(_ context.Context, _ string, payloads []syncengine.CommandPayload) error {
	c.overwritten = payloads
	return nil
}
func (c *fakeClient) CreateGuild(context.Context, string, syncengine.CommandPayload) error { return nil }
func (c *fakeClient) Delete(context.Context, string) error                                { return nil }

func TestSyncAll_DeleteMissing(t *testing.T) {
	t.Parallel()

	client := &fakeClient{existing: []syncengine.CommandPayload{
		{Name: "a"}, {Name: "b"}, {Name: "c"},
	}}
	declared := []syncengine.CommandPayload{{Name: "b"}, {Name: "d"}}

	if err := syncengine.SyncAll(context.Background(), client, "", declared, true); err != nil {
		t.Fatalf("SyncAll: unexpected error: %v", err)
	}

	names := map[string]bool{}
	for _, p := range client.overwritten {
		names[p.Name] = true
	}
	if len(names) != 2 || !names["b"] || !names["d"] {
		t.Fatalf("overwritten = %+v, want exactly [b d]", client.overwritten)
	}
}

func TestSyncAll_PreservesMissingWhenNotDeleting(t *testing.T) {
	t.Parallel()

	client := &fakeClient{existing: []syncengine.CommandPayload{{Name: "a"}, {Name: "b"}}}
	declared := []syncengine.CommandPayload{{Name: "b"}}

	if err := syncengine.SyncAll(context.Background(), client, "guild-1", declared, false); err != nil {
		t.Fatalf("SyncAll: unexpected error: %v", err)
	}

	names := map[string]bool{}
	for _, p := range client.overwritten {
		names[p.Name] = true
	}
	if len(names) != 2 || !names["a"] || !names["b"] {
		t.Fatalf("overwritten = %+v, want [a b] (a preserved verbatim)", client.overwritten)
	}
}
