// Package domain contains core concepts of the communication hub.
// This file defines Message entities and reaction rules.
// Messages are immutable once posted, except for their reaction map.
package domain

import (
	"slices"
	"time"
)

type MessageID string

// Message represents one posted chat entry. A message without a
// ThreadRootID is a thread root; replies reference a root in the same
// channel.
type Message struct {
	ID           MessageID            `json:"id"`
	ChannelID    ChannelID            `json:"channelId"`
	SenderID     AgentID              `json:"senderId"`
	Text         string               `json:"text"`
	ThreadRootID MessageID            `json:"threadRootId,omitempty"`
	Reactions    map[string][]AgentID `json:"reactions,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
}

func (m *Message) IsThreadRoot() bool {
	return m.ThreadRootID == ""
}

// React adds the agent to the emoji's reacting set. Reacting twice with
// the same emoji is a no-op; the return value reports whether the set
// changed.
func (m *Message) React(emoji string, agent AgentID) bool {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]AgentID)
	}
	if slices.Contains(m.Reactions[emoji], agent) {
		return false
	}
	m.Reactions[emoji] = append(m.Reactions[emoji], agent)
	return true
}
