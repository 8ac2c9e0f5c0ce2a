// Package domain contains core concepts of the communication hub.
// This file defines agent identities and workspace-level roles.
// No runtime, network, or persistence logic should be added here.
package domain

type WorkspaceID string

type AgentID string

type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleTeamLead Role = "team_lead"
	RoleAgent    Role = "agent"
)

// Elevated reports whether the role bypasses channel admission scoping.
func (r Role) Elevated() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Identity describes one registered agent inside a workspace.
// Re-registering the same ID overwrites every other attribute.
type Identity struct {
	ID          AgentID `json:"id" validate:"required"`
	DisplayName string  `json:"displayName"`
	Role        Role    `json:"role" validate:"required,oneof=owner admin team_lead agent"`
	Team        string  `json:"team,omitempty"`
	Department  string  `json:"department,omitempty"`
}
