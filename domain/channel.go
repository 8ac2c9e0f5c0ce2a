package domain

import (
	"fmt"
	"time"
)

type ChannelID string

type ChannelType string

const (
	ChannelGeneral    ChannelType = "general"
	ChannelTeam       ChannelType = "team"
	ChannelDepartment ChannelType = "department"
	ChannelDirect     ChannelType = "direct"
	ChannelGroup      ChannelType = "group"
)

// Member records one agent's membership in a channel.
type Member struct {
	AgentID  AgentID   `json:"agentId"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Channel is a named message container with a type-driven access policy.
// Team and Department scope admission for the matching channel types.
type Channel struct {
	ID          ChannelID          `json:"id"`
	WorkspaceID WorkspaceID        `json:"workspaceId"`
	Name        string             `json:"name"`
	Type        ChannelType        `json:"type"`
	CreatedBy   AgentID            `json:"createdBy"`
	Team        string             `json:"team,omitempty"`
	Department  string             `json:"department,omitempty"`
	Members     map[AgentID]Member `json:"members"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// DeriveChannelID builds the deterministic id used when the caller
// supplies none, e.g. "general:general:acme".
func DeriveChannelID(channelType ChannelType, name string, workspace WorkspaceID) ChannelID {
	return ChannelID(fmt.Sprintf("%s:%s:%s", channelType, name, workspace))
}

// Admits applies the admission rule: team channels require a matching
// team, department channels a matching department. Owners and admins
// always pass.
func (c *Channel) Admits(agent Identity) bool {
	if agent.Role.Elevated() {
		return true
	}
	switch c.Type {
	case ChannelTeam:
		return agent.Team == c.Team
	case ChannelDepartment:
		return agent.Department == c.Department
	default:
		return true
	}
}

func (c *Channel) IsMember(id AgentID) bool {
	_, ok := c.Members[id]
	return ok
}

// CanManage reports whether the agent may update or delete the channel.
func (c *Channel) CanManage(agent Identity) bool {
	return agent.ID == c.CreatedBy || agent.Role.Elevated()
}

// Clone returns a deep copy whose member map is detached from the live
// channel, safe to hand to callers and event logs.
func (c *Channel) Clone() Channel {
	clone := *c
	clone.Members = make(map[AgentID]Member, len(c.Members))
	for id, member := range c.Members {
		clone.Members[id] = member
	}
	return clone
}

// AddMember inserts or refreshes a membership and advances UpdatedAt.
func (c *Channel) AddMember(agent Identity, at time.Time) Member {
	member := Member{AgentID: agent.ID, Role: agent.Role, JoinedAt: at}
	c.Members[agent.ID] = member
	c.UpdatedAt = at
	return member
}
