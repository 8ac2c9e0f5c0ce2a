package hub

import (
	"testing"

	"github.com/stretchr/testify/require"

	"agent-hub/domain"
	"agent-hub/domain/event"
	apperrors "agent-hub/errors"
)

func TestCreateChannel_Derives_ID_And_Enrolls_Creator(t *testing.T) {
	req := require.New(t)
	h := newTestHub()
	seedWorkspace(t, h, "acme")

	var events []event.DomainEvent
	h.OnEvent(func(e event.DomainEvent) { events = append(events, e) })

	channel, err := h.CreateChannel(CreateChannelSpec{
		WorkspaceID: "acme", Name: "general", Type: domain.ChannelGeneral, CreatedBy: "alice",
	})
	req.NoError(err)

	req.Equal(domain.ChannelID("general:general:acme"), channel.ID)
	req.True(channel.IsMember("alice"))
	req.Equal(domain.RoleAgent, channel.Members["alice"].Role)
	req.Equal(channel.CreatedAt, channel.UpdatedAt)

	req.Len(events, 1)
	req.Equal(event.KindChannelCreated, events[0].Kind())
}

func TestCreateChannel_Rejects_Duplicate_ID(t *testing.T) {
	req := require.New(t)
	h := newTestHub()
	seedWorkspace(t, h, "acme")

	_, err := h.CreateChannel(CreateChannelSpec{
		WorkspaceID: "acme", Name: "general", Type: domain.ChannelGeneral, CreatedBy: "alice",
	})
	req.NoError(err)

	_, err = h.CreateChannel(CreateChannelSpec{
		WorkspaceID: "acme", Name: "general", Type: domain.ChannelGeneral, CreatedBy: "bob",
	})
	req.ErrorContains(err, "already exists")
}

func TestCreateChannel_Scoped_Types_Require_Scope(t *testing.T) {
	req := require.New(t)
	h := newTestHub()
	seedWorkspace(t, h, "acme")

	_, err := h.CreateChannel(CreateChannelSpec{
		WorkspaceID: "acme", Name: "backend", Type: domain.ChannelTeam, CreatedBy: "alice",
	})
	req.ErrorContains(err, "requires a team")

	_, err = h.CreateChannel(CreateChannelSpec{
		WorkspaceID: "acme", Name: "eng", Type: domain.ChannelDepartment, CreatedBy: "alice",
	})
	req.ErrorContains(err, "requires a department")
}

func TestCreateChannel_Requires_Registered_Creator(t *testing.T) {
	req := require.New(t)
	h := newTestHub()
	seedWorkspace(t, h, "acme")

	_, err := h.CreateChannel(CreateChannelSpec{
		WorkspaceID: "acme", Name: "general", Type: domain.ChannelGeneral, CreatedBy: "ghost",
	})
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func TestJoinChannel_Team_Scoping(t *testing.T) {
	req := require.New(t)
	h := newTestHub()
	seedWorkspace(t, h, "acme")

	channel, err := h.CreateChannel(CreateChannelSpec{
		WorkspaceID: "acme", Name: "backend", Type: domain.ChannelTeam, CreatedBy: "alice", Team: "backend",
	})
	req.NoError(err)

	// Teammate carol joins
	member, updatedAt, err := h.JoinChannel("acme", channel.ID, "carol")
	req.NoError(err)
	req.Equal(domain.AgentID("carol"), member.AgentID)
	req.False(updatedAt.Before(channel.UpdatedAt))

	// Outsider bob is denied
	_, _, err = h.JoinChannel("acme", channel.ID, "bob")
	req.ErrorIs(err, apperrors.ErrAccessDenied)

	// Admin root bypasses the scoping
	_, _, err = h.JoinChannel("acme", channel.ID, "root")
	req.NoError(err)
}

func TestJoinChannel_Unknown_Targets(t *testing.T) {
	req := require.New(t)
	h := newTestHub()
	seedWorkspace(t, h, "acme")

	_, _, err := h.JoinChannel("acme", "nope", "alice")
	req.ErrorIs(err, apperrors.ErrNotFound)

	_, _, err = h.JoinChannel("nowhere", "nope", "alice")
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func TestUpdateChannel_Creator_Or_Elevated_Only(t *testing.T) {
	req := require.New(t)
	h := newTestHub()
	seedWorkspace(t, h, "acme")

	channel, err := h.CreateChannel(CreateChannelSpec{
		WorkspaceID: "acme", Name: "general", Type: domain.ChannelGeneral, CreatedBy: "alice",
	})
	req.NoError(err)

	name := "announcements"
	_, err = h.UpdateChannel(UpdateChannelSpec{
		WorkspaceID: "acme", ChannelID: channel.ID, RequestedBy: "bob", Name: &name,
	})
	req.ErrorIs(err, apperrors.ErrAccessDenied)

	updated, err := h.UpdateChannel(UpdateChannelSpec{
		WorkspaceID: "acme", ChannelID: channel.ID, RequestedBy: "alice", Name: &name,
	})
	req.NoError(err)
	req.Equal("announcements", updated.Name)
	// Untouched fields survive a nil pointer
	req.Equal(domain.ChannelGeneral, updated.Type)
}

func TestDeleteChannel_Removes_Messages(t *testing.T) {
	req := require.New(t)
	h := newTestHub()
	seedWorkspace(t, h, "acme")

	channel, err := h.CreateChannel(CreateChannelSpec{
		WorkspaceID: "acme", Name: "general", Type: domain.ChannelGeneral, CreatedBy: "alice",
	})
	req.NoError(err)
	_, err = h.PostMessage(PostMessageSpec{
		WorkspaceID: "acme", ChannelID: channel.ID, SenderID: "alice", Text: "hello",
	})
	req.NoError(err)

	req.ErrorIs(h.DeleteChannel("acme", channel.ID, "bob"), apperrors.ErrAccessDenied)
	req.NoError(h.DeleteChannel("acme", channel.ID, "root"))

	req.Equal(0, h.Stats().Channels)
	req.Equal(0, h.Stats().Messages)
}
