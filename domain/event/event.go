// Package event defines the closed set of domain events emitted by the
// hub after each committed mutation. Adding a variant is a compile-time
// extension: every consumer switches exhaustively on the concrete type.
package event

import (
	"time"

	"agent-hub/domain"
)

type Kind string

const (
	KindWorkspaceReady Kind = "workspace_ready"
	KindChannelCreated Kind = "channel_created"
	KindChannelUpdated Kind = "channel_updated"
	KindChannelDeleted Kind = "channel_deleted"
	KindChannelJoined  Kind = "channel_joined"
	KindMessagePosted  Kind = "message_posted"
	KindReactionAdded  Kind = "reaction_added"
)

// DomainEvent is one committed hub mutation.
type DomainEvent interface {
	Kind() Kind
	Workspace() domain.WorkspaceID
	OccurredAt() time.Time
}

// ChannelScoped is implemented by every event bound to one channel.
// workspace_ready is the only variant that is not.
type ChannelScoped interface {
	DomainEvent
	Channel() domain.ChannelID
}

type WorkspaceReady struct {
	WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	At          time.Time          `json:"at"`
}

func (e WorkspaceReady) Kind() Kind                    { return KindWorkspaceReady }
func (e WorkspaceReady) Workspace() domain.WorkspaceID { return e.WorkspaceID }
func (e WorkspaceReady) OccurredAt() time.Time         { return e.At }

type ChannelCreated struct {
	WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	ChannelID   domain.ChannelID   `json:"channelId"`
	Name        string             `json:"name"`
	Type        domain.ChannelType `json:"type"`
	CreatedBy   domain.AgentID     `json:"createdBy"`
	At          time.Time          `json:"at"`
}

func (e ChannelCreated) Kind() Kind                    { return KindChannelCreated }
func (e ChannelCreated) Workspace() domain.WorkspaceID { return e.WorkspaceID }
func (e ChannelCreated) Channel() domain.ChannelID     { return e.ChannelID }
func (e ChannelCreated) OccurredAt() time.Time         { return e.At }

type ChannelUpdated struct {
	WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	ChannelID   domain.ChannelID   `json:"channelId"`
	UpdatedBy   domain.AgentID     `json:"updatedBy"`
	At          time.Time          `json:"at"`
}

func (e ChannelUpdated) Kind() Kind                    { return KindChannelUpdated }
func (e ChannelUpdated) Workspace() domain.WorkspaceID { return e.WorkspaceID }
func (e ChannelUpdated) Channel() domain.ChannelID     { return e.ChannelID }
func (e ChannelUpdated) OccurredAt() time.Time         { return e.At }

type ChannelDeleted struct {
	WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	ChannelID   domain.ChannelID   `json:"channelId"`
	DeletedBy   domain.AgentID     `json:"deletedBy"`
	At          time.Time          `json:"at"`
}

func (e ChannelDeleted) Kind() Kind                    { return KindChannelDeleted }
func (e ChannelDeleted) Workspace() domain.WorkspaceID { return e.WorkspaceID }
func (e ChannelDeleted) Channel() domain.ChannelID     { return e.ChannelID }
func (e ChannelDeleted) OccurredAt() time.Time         { return e.At }

type ChannelJoined struct {
	WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	ChannelID   domain.ChannelID   `json:"channelId"`
	AgentID     domain.AgentID     `json:"agentId"`
	At          time.Time          `json:"at"`
}

func (e ChannelJoined) Kind() Kind                    { return KindChannelJoined }
func (e ChannelJoined) Workspace() domain.WorkspaceID { return e.WorkspaceID }
func (e ChannelJoined) Channel() domain.ChannelID     { return e.ChannelID }
func (e ChannelJoined) OccurredAt() time.Time         { return e.At }

type MessagePosted struct {
	WorkspaceID  domain.WorkspaceID `json:"workspaceId"`
	ChannelID    domain.ChannelID   `json:"channelId"`
	MessageID    domain.MessageID   `json:"messageId"`
	SenderID     domain.AgentID     `json:"senderId"`
	Text         string             `json:"text"`
	ThreadRootID domain.MessageID   `json:"threadRootId,omitempty"`
	Recipients   []domain.AgentID   `json:"recipients"`
	At           time.Time          `json:"at"`
}

func (e MessagePosted) Kind() Kind                    { return KindMessagePosted }
func (e MessagePosted) Workspace() domain.WorkspaceID { return e.WorkspaceID }
func (e MessagePosted) Channel() domain.ChannelID     { return e.ChannelID }
func (e MessagePosted) OccurredAt() time.Time         { return e.At }

type ReactionAdded struct {
	WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	ChannelID   domain.ChannelID   `json:"channelId"`
	MessageID   domain.MessageID   `json:"messageId"`
	AgentID     domain.AgentID     `json:"agentId"`
	Emoji       string             `json:"emoji"`
	At          time.Time          `json:"at"`
}

func (e ReactionAdded) Kind() Kind                    { return KindReactionAdded }
func (e ReactionAdded) Workspace() domain.WorkspaceID { return e.WorkspaceID }
func (e ReactionAdded) Channel() domain.ChannelID     { return e.ChannelID }
func (e ReactionAdded) OccurredAt() time.Time         { return e.At }
