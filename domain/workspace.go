package domain

// Workspace is the top-level isolation boundary: it owns its agent
// registry, channel set, and per-channel message store. Messages are
// kept in insertion order per channel.
type Workspace struct {
	ID       WorkspaceID              `json:"id"`
	Agents   map[AgentID]Identity     `json:"agents"`
	Channels map[ChannelID]*Channel   `json:"channels"`
	Messages map[ChannelID][]*Message `json:"messages"`
}

func NewWorkspace(id WorkspaceID) *Workspace {
	return &Workspace{
		ID:       id,
		Agents:   make(map[AgentID]Identity),
		Channels: make(map[ChannelID]*Channel),
		Messages: make(map[ChannelID][]*Message),
	}
}

// FindMessage scans one channel's store for a message id.
func (w *Workspace) FindMessage(channel ChannelID, id MessageID) (*Message, bool) {
	for _, message := range w.Messages[channel] {
		if message.ID == id {
			return message, true
		}
	}
	return nil, false
}

// AgentsOnTeam returns every registered agent whose team matches.
func (w *Workspace) AgentsOnTeam(team string) []AgentID {
	var agents []AgentID
	for id, identity := range w.Agents {
		if identity.Team == team {
			agents = append(agents, id)
		}
	}
	return agents
}
