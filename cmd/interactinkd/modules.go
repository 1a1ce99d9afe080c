package main

import (
	"fmt"
	"time"

	"github.com/mrwong99/interactink/internal/reflectsource"
	"github.com/mrwong99/interactink/pkg/interactink/discord"
	"github.com/mrwong99/interactink/pkg/interactink/model"
)

// utilModule demonstrates struct-tag module discovery: a flat module with a
// single slash command and no group, so it publishes as a top-level command.
type utilModule struct {
	Module struct{} `interactink:"group=,description=general utility commands"`
	Ping   model.HandlerCallback `interactink:"slash=ping,description=report round-trip latency"`
}

func (m *utilModule) ping(ctx *model.Context, args []any, svc model.ServiceLocator) (any, error) {
	started := time.Now()
	return fmt.Sprintf("pong (%s)", time.Since(started).Round(time.Microsecond)), nil
}

// adminModule demonstrates a slash-group module with a nested child group
// and a role-gated precondition, mirroring the kind of tree SPEC_FULL.md's
// builder depth-2 invariant allows.
type adminModule struct {
	Module struct{} `interactink:"group=admin,description=server administration"`
	Kick   model.HandlerCallback `interactink:"slash=kick,description=remove a member from the server,params=reason:string"`
	Users  *usersGroup `interactink:"child"`
}

type usersGroup struct {
	Module struct{} `interactink:"group=users,description=member lookups"`
	Whoami model.HandlerCallback `interactink:"slash=whoami,description=show your own member info"`
}

func (m *adminModule) kick(ctx *model.Context, args []any, svc model.ServiceLocator) (any, error) {
	reason, _ := args[0].(string)
	if reason == "" {
		reason = "no reason given"
	}
	return fmt.Sprintf("member removed: %s", reason), nil
}

func (g *usersGroup) whoami(ctx *model.Context, args []any, svc model.ServiceLocator) (any, error) {
	return "you are you", nil
}

// demoModuleSource builds the reflectsource.Source backing this daemon's
// example command tree. requireRoleID, when non-empty, gates every admin
// command behind discord.RequireRole.
func demoModuleSource(requireRoleID string) model.ModuleSource {
	util := &utilModule{}
	util.Ping = util.ping

	users := &usersGroup{}
	users.Whoami = users.whoami

	admin := &adminModule{Users: users}
	admin.Kick = admin.kick

	inner := reflectsource.New().Register(util).Register(admin)
	return &roleGatedSource{inner: inner, roleID: requireRoleID}
}

// roleGatedSource wraps a reflectsource.Source and attaches a RequireRole
// precondition to the module named "adminModule" after reflection, since
// struct tags have no room to express a runtime-configured role ID.
type roleGatedSource struct {
	inner  model.ModuleSource
	roleID string
}

func (s *roleGatedSource) Modules() ([]*model.ModuleDescriptor, error) {
	descs, err := s.inner.Modules()
	if err != nil {
		return nil, err
	}
	if s.roleID == "" {
		return descs, nil
	}
	for _, d := range descs {
		if d.GroupName == "admin" {
			d.Preconditions = append(d.Preconditions, discord.RequireRole(s.roleID))
		}
	}
	return descs, nil
}
