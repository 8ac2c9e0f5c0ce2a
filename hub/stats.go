package hub

// Stats is a point-in-time count of everything the hub owns.
type Stats struct {
	Workspaces int `json:"workspaces"`
	Agents     int `json:"agents"`
	Channels   int `json:"channels"`
	Messages   int `json:"messages"`
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := Stats{Workspaces: len(h.workspaces)}
	for _, workspace := range h.workspaces {
		stats.Agents += len(workspace.Agents)
		stats.Channels += len(workspace.Channels)
		for _, messages := range workspace.Messages {
			stats.Messages += len(messages)
		}
	}
	return stats
}
