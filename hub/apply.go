package hub

import (
	"fmt"

	"agent-hub/domain"
	apperrors "agent-hub/errors"
	"agent-hub/eventlog"
)

// ApplyEvent replays one logged mutation against the in-memory model.
// The switch is exhaustive over the log's closed event set; an unknown
// variant is an error, not a silent no-op. Replay applies recorded
// state verbatim (ids, timestamps, membership), emits no domain events,
// and fails loudly on dangling channel or message references so the
// log's replay layer can count the record as failed. Re-applying a
// record the state already contains is safe.
func (h *Hub) ApplyEvent(evt eventlog.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch e := evt.(type) {
	case eventlog.RegisterAgent:
		workspace, _ := h.ensureWorkspaceLocked(e.WorkspaceID)
		workspace.Agents[e.Agent.ID] = e.Agent
		return nil

	case eventlog.CreateChannel:
		workspace, _ := h.ensureWorkspaceLocked(e.WorkspaceID)
		channel := e.Channel
		if channel.Members == nil {
			channel.Members = make(map[domain.AgentID]domain.Member)
		}
		workspace.Channels[channel.ID] = &channel
		return nil

	case eventlog.JoinChannel:
		_, channel, err := h.channelLocked(e.WorkspaceID, e.ChannelID)
		if err != nil {
			return err
		}
		channel.Members[e.Member.AgentID] = e.Member
		channel.UpdatedAt = e.ChannelUpdatedAt
		return nil

	case eventlog.PostMessage:
		workspace, channel, err := h.channelLocked(e.WorkspaceID, e.ChannelID)
		if err != nil {
			return err
		}
		if _, exists := workspace.FindMessage(e.ChannelID, e.Message.ID); exists {
			return nil
		}
		message := e.Message
		workspace.Messages[e.ChannelID] = append(workspace.Messages[e.ChannelID], &message)
		channel.UpdatedAt = e.ChannelUpdatedAt
		return nil

	case eventlog.AddReaction:
		workspace, channel, err := h.channelLocked(e.WorkspaceID, e.ChannelID)
		if err != nil {
			return err
		}
		message, ok := workspace.FindMessage(e.ChannelID, e.MessageID)
		if !ok {
			return fmt.Errorf("message %q in channel %q: %w", e.MessageID, e.ChannelID, apperrors.ErrNotFound)
		}
		message.React(e.Emoji, e.AgentID)
		channel.UpdatedAt = e.At
		return nil

	default:
		return fmt.Errorf("%T: %w", evt, apperrors.ErrUnknownEvent)
	}
}
