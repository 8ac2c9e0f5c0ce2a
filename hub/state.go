package hub

import (
	"maps"
	"slices"

	"agent-hub/domain"
)

// State is the full serialized form of every workspace the hub owns.
// It is what the snapshot store persists and restores.
type State struct {
	Workspaces map[domain.WorkspaceID]*domain.Workspace `json:"workspaces"`
}

// ExportState deep-copies the live domain model so the snapshot layer
// can serialize it without racing later mutations.
func (h *Hub) ExportState() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	state := State{Workspaces: make(map[domain.WorkspaceID]*domain.Workspace, len(h.workspaces))}
	for id, workspace := range h.workspaces {
		state.Workspaces[id] = copyWorkspace(workspace)
	}
	return state
}

// Restore replaces the hub's entire domain model with the given state.
// The incoming state is deep-copied, so the caller keeps ownership.
func (h *Hub) Restore(state State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.workspaces = make(map[domain.WorkspaceID]*domain.Workspace, len(state.Workspaces))
	for id, workspace := range state.Workspaces {
		h.workspaces[id] = copyWorkspace(workspace)
	}
}

func copyWorkspace(workspace *domain.Workspace) *domain.Workspace {
	clone := &domain.Workspace{
		ID:       workspace.ID,
		Agents:   maps.Clone(workspace.Agents),
		Channels: make(map[domain.ChannelID]*domain.Channel, len(workspace.Channels)),
		Messages: make(map[domain.ChannelID][]*domain.Message, len(workspace.Messages)),
	}
	if clone.Agents == nil {
		clone.Agents = make(map[domain.AgentID]domain.Identity)
	}
	for id, channel := range workspace.Channels {
		channelClone := *channel
		channelClone.Members = maps.Clone(channel.Members)
		if channelClone.Members == nil {
			channelClone.Members = make(map[domain.AgentID]domain.Member)
		}
		clone.Channels[id] = &channelClone
	}
	for id, messages := range workspace.Messages {
		cloned := make([]*domain.Message, 0, len(messages))
		for _, message := range messages {
			messageClone := *message
			if message.Reactions != nil {
				messageClone.Reactions = make(map[string][]domain.AgentID, len(message.Reactions))
				for emoji, agents := range message.Reactions {
					messageClone.Reactions[emoji] = slices.Clone(agents)
				}
			}
			cloned = append(cloned, &messageClone)
		}
		clone.Messages[id] = cloned
	}
	return clone
}
