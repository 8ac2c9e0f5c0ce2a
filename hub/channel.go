package hub

import (
	"fmt"
	"time"

	"agent-hub/domain"
	"agent-hub/domain/event"
	apperrors "agent-hub/errors"
)

// CreateChannelSpec describes a channel to create. ID is optional; when
// empty the deterministic "type:name:workspace" id is derived. At is
// optional and defaults to the current time.
type CreateChannelSpec struct {
	ID          domain.ChannelID
	WorkspaceID domain.WorkspaceID `validate:"required"`
	Name        string             `validate:"required"`
	Type        domain.ChannelType `validate:"required,oneof=general team department direct group"`
	CreatedBy   domain.AgentID     `validate:"required"`
	Team        string
	Department  string
	At          time.Time
}

// CreateChannel creates the channel and enrolls the creator as its
// first member, carrying the creator's workspace role.
func (h *Hub) CreateChannel(spec CreateChannelSpec) (*domain.Channel, error) {
	if err := h.validate.Struct(spec); err != nil {
		return nil, fmt.Errorf("invalid channel spec: %w", err)
	}
	if spec.Type == domain.ChannelTeam && spec.Team == "" {
		return nil, fmt.Errorf("team channel %q requires a team", spec.Name)
	}
	if spec.Type == domain.ChannelDepartment && spec.Department == "" {
		return nil, fmt.Errorf("department channel %q requires a department", spec.Name)
	}
	if spec.At.IsZero() {
		spec.At = time.Now().UTC()
	}
	if spec.ID == "" {
		spec.ID = domain.DeriveChannelID(spec.Type, spec.Name, spec.WorkspaceID)
	}

	h.mu.Lock()
	workspace, err := h.workspaceLocked(spec.WorkspaceID)
	if err != nil {
		h.mu.Unlock()
		return nil, err
	}
	creator, ok := workspace.Agents[spec.CreatedBy]
	if !ok {
		h.mu.Unlock()
		return nil, fmt.Errorf("creator %q: %w", spec.CreatedBy, apperrors.ErrNotFound)
	}
	if _, exists := workspace.Channels[spec.ID]; exists {
		h.mu.Unlock()
		return nil, fmt.Errorf("channel %q already exists in workspace %q", spec.ID, spec.WorkspaceID)
	}

	channel := &domain.Channel{
		ID:          spec.ID,
		WorkspaceID: spec.WorkspaceID,
		Name:        spec.Name,
		Type:        spec.Type,
		CreatedBy:   spec.CreatedBy,
		Team:        spec.Team,
		Department:  spec.Department,
		Members:     make(map[domain.AgentID]domain.Member),
		CreatedAt:   spec.At,
		UpdatedAt:   spec.At,
	}
	channel.AddMember(creator, spec.At)
	workspace.Channels[channel.ID] = channel
	snapshot := channel.Clone()
	h.mu.Unlock()

	h.emit(event.ChannelCreated{
		WorkspaceID: spec.WorkspaceID,
		ChannelID:   channel.ID,
		Name:        channel.Name,
		Type:        channel.Type,
		CreatedBy:   channel.CreatedBy,
		At:          spec.At,
	})
	return &snapshot, nil
}

// JoinChannel admits the agent under the channel's scoping rule and
// returns the created membership plus the channel's new UpdatedAt.
func (h *Hub) JoinChannel(workspaceID domain.WorkspaceID, channelID domain.ChannelID, agentID domain.AgentID) (domain.Member, time.Time, error) {
	at := time.Now().UTC()

	h.mu.Lock()
	workspace, channel, err := h.channelLocked(workspaceID, channelID)
	if err != nil {
		h.mu.Unlock()
		return domain.Member{}, time.Time{}, err
	}
	agent, ok := workspace.Agents[agentID]
	if !ok {
		h.mu.Unlock()
		return domain.Member{}, time.Time{}, fmt.Errorf("agent %q: %w", agentID, apperrors.ErrNotFound)
	}
	if !channel.Admits(agent) {
		h.mu.Unlock()
		return domain.Member{}, time.Time{}, fmt.Errorf(
			"agent %q cannot join %s channel %q: %w",
			agentID, channel.Type, channelID, apperrors.ErrAccessDenied,
		)
	}
	member := channel.AddMember(agent, at)
	updatedAt := channel.UpdatedAt
	h.mu.Unlock()

	h.emit(event.ChannelJoined{
		WorkspaceID: workspaceID,
		ChannelID:   channelID,
		AgentID:     agentID,
		At:          at,
	})
	return member, updatedAt, nil
}

// UpdateChannelSpec carries the mutable channel fields; nil pointers
// leave the current value untouched.
type UpdateChannelSpec struct {
	WorkspaceID domain.WorkspaceID
	ChannelID   domain.ChannelID
	RequestedBy domain.AgentID
	Name        *string
	Team        *string
	Department  *string
}

// UpdateChannel applies the non-nil fields. Only the channel creator or
// an elevated role may update.
func (h *Hub) UpdateChannel(spec UpdateChannelSpec) (*domain.Channel, error) {
	at := time.Now().UTC()

	h.mu.Lock()
	workspace, channel, err := h.channelLocked(spec.WorkspaceID, spec.ChannelID)
	if err != nil {
		h.mu.Unlock()
		return nil, err
	}
	requester, ok := workspace.Agents[spec.RequestedBy]
	if !ok {
		h.mu.Unlock()
		return nil, fmt.Errorf("agent %q: %w", spec.RequestedBy, apperrors.ErrNotFound)
	}
	if !channel.CanManage(requester) {
		h.mu.Unlock()
		return nil, fmt.Errorf("agent %q cannot update channel %q: %w", spec.RequestedBy, spec.ChannelID, apperrors.ErrAccessDenied)
	}
	if spec.Name != nil {
		channel.Name = *spec.Name
	}
	if spec.Team != nil {
		channel.Team = *spec.Team
	}
	if spec.Department != nil {
		channel.Department = *spec.Department
	}
	channel.UpdatedAt = at
	snapshot := channel.Clone()
	h.mu.Unlock()

	h.emit(event.ChannelUpdated{
		WorkspaceID: spec.WorkspaceID,
		ChannelID:   spec.ChannelID,
		UpdatedBy:   spec.RequestedBy,
		At:          at,
	})
	return &snapshot, nil
}

// DeleteChannel removes the channel and its messages. Same
// authorization rule as UpdateChannel.
func (h *Hub) DeleteChannel(workspaceID domain.WorkspaceID, channelID domain.ChannelID, requestedBy domain.AgentID) error {
	at := time.Now().UTC()

	h.mu.Lock()
	workspace, channel, err := h.channelLocked(workspaceID, channelID)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	requester, ok := workspace.Agents[requestedBy]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("agent %q: %w", requestedBy, apperrors.ErrNotFound)
	}
	if !channel.CanManage(requester) {
		h.mu.Unlock()
		return fmt.Errorf("agent %q cannot delete channel %q: %w", requestedBy, channelID, apperrors.ErrAccessDenied)
	}
	delete(workspace.Channels, channelID)
	delete(workspace.Messages, channelID)
	h.mu.Unlock()

	h.emit(event.ChannelDeleted{
		WorkspaceID: workspaceID,
		ChannelID:   channelID,
		DeletedBy:   requestedBy,
		At:          at,
	})
	return nil
}
