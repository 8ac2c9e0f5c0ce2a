package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"agent-hub/domain"
	"agent-hub/domain/event"
	apperrors "agent-hub/errors"
	"agent-hub/eventlog"
)

type unknownEvent struct{}

func (unknownEvent) EventKind() eventlog.Kind { return "mystery" }

func TestApplyEvent_Rebuilds_State_Without_Emitting(t *testing.T) {
	req := require.New(t)
	h := newTestHub()

	var events []event.DomainEvent
	h.OnEvent(func(e event.DomainEvent) { events = append(events, e) })

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	channel := domain.Channel{
		ID: "general:general:acme", WorkspaceID: "acme", Name: "general",
		Type: domain.ChannelGeneral, CreatedBy: "alice",
		Members:   map[domain.AgentID]domain.Member{"alice": {AgentID: "alice", Role: domain.RoleAgent, JoinedAt: at}},
		CreatedAt: at, UpdatedAt: at,
	}
	message := domain.Message{
		ID: "m1", ChannelID: channel.ID, SenderID: "alice", Text: "hello", CreatedAt: at.Add(time.Minute),
	}

	req.NoError(h.ApplyEvent(eventlog.NewRegisterAgent("acme", domain.Identity{ID: "alice", Role: domain.RoleAgent})))
	req.NoError(h.ApplyEvent(eventlog.NewCreateChannel("acme", channel)))
	req.NoError(h.ApplyEvent(eventlog.NewPostMessage("acme", channel.ID, message, message.CreatedAt)))
	req.NoError(h.ApplyEvent(eventlog.NewAddReaction("acme", channel.ID, message.ID, "alice", "👍", at.Add(2*time.Minute))))

	// Replay must not re-publish domain events
	req.Empty(events)

	messages, err := h.ListMessages("acme", channel.ID, ListOptions{})
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal([]domain.AgentID{"alice"}, messages[0].Reactions["👍"])
	req.Equal(message.CreatedAt, messages[0].CreatedAt)
}

func TestApplyEvent_PostMessage_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	h := newTestHub()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	channel := domain.Channel{
		ID: "c1", WorkspaceID: "acme", Name: "c1", Type: domain.ChannelGeneral, CreatedBy: "alice",
		Members: map[domain.AgentID]domain.Member{}, CreatedAt: at, UpdatedAt: at,
	}
	message := domain.Message{ID: "m1", ChannelID: "c1", SenderID: "alice", Text: "hello", CreatedAt: at}

	req.NoError(h.ApplyEvent(eventlog.NewCreateChannel("acme", channel)))
	req.NoError(h.ApplyEvent(eventlog.NewPostMessage("acme", "c1", message, at)))
	req.NoError(h.ApplyEvent(eventlog.NewPostMessage("acme", "c1", message, at)))

	req.Equal(1, h.Stats().Messages)
}

func TestApplyEvent_Dangling_References_Fail(t *testing.T) {
	req := require.New(t)
	h := newTestHub()

	err := h.ApplyEvent(eventlog.NewJoinChannel("acme", "missing", domain.Member{AgentID: "alice"}, time.Now().UTC()))
	req.ErrorIs(err, apperrors.ErrNotFound)

	err = h.ApplyEvent(eventlog.NewAddReaction("acme", "missing", "m1", "alice", "👍", time.Now().UTC()))
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func TestApplyEvent_Unknown_Kind(t *testing.T) {
	req := require.New(t)
	h := newTestHub()

	req.ErrorIs(h.ApplyEvent(unknownEvent{}), apperrors.ErrUnknownEvent)
}
