package hub

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"agent-hub/domain"
	"agent-hub/domain/event"
	apperrors "agent-hub/errors"
)

// PostMessageSpec describes a message to post. ID and At are optional
// and default to a fresh uuid and the current time; replay supplies the
// recorded values so reconstruction is deterministic.
type PostMessageSpec struct {
	WorkspaceID  domain.WorkspaceID `validate:"required"`
	ChannelID    domain.ChannelID   `validate:"required"`
	SenderID     domain.AgentID     `validate:"required"`
	Text         string             `validate:"required"`
	ThreadRootID domain.MessageID
	ID           domain.MessageID
	At           time.Time
}

// PostResult is what a successful post returns: the stored message, the
// resolved delivery recipients, and the channel's new UpdatedAt.
type PostResult struct {
	Message          *domain.Message
	Recipients       []domain.AgentID
	ChannelUpdatedAt time.Time
}

// PostMessage validates membership and thread integrity, stores the
// message, and resolves delivery recipients: every channel member plus
// every agent named by an "@agent" or "@team:name" mention.
func (h *Hub) PostMessage(spec PostMessageSpec) (PostResult, error) {
	if err := h.validate.Struct(spec); err != nil {
		return PostResult{}, fmt.Errorf("invalid message spec: %w", err)
	}
	if spec.ID == "" {
		spec.ID = domain.MessageID(uuid.NewString())
	}
	if spec.At.IsZero() {
		spec.At = time.Now().UTC()
	}

	h.mu.Lock()
	workspace, channel, err := h.channelLocked(spec.WorkspaceID, spec.ChannelID)
	if err != nil {
		h.mu.Unlock()
		return PostResult{}, err
	}
	if !channel.IsMember(spec.SenderID) {
		h.mu.Unlock()
		return PostResult{}, fmt.Errorf("sender %q is not a member of channel %q: %w", spec.SenderID, spec.ChannelID, apperrors.ErrAccessDenied)
	}
	if spec.ThreadRootID != "" {
		root, ok := workspace.FindMessage(spec.ChannelID, spec.ThreadRootID)
		if !ok || !root.IsThreadRoot() {
			h.mu.Unlock()
			return PostResult{}, fmt.Errorf("thread root %q in channel %q: %w", spec.ThreadRootID, spec.ChannelID, apperrors.ErrInvalidThread)
		}
	}

	message := &domain.Message{
		ID:           spec.ID,
		ChannelID:    spec.ChannelID,
		SenderID:     spec.SenderID,
		Text:         spec.Text,
		ThreadRootID: spec.ThreadRootID,
		CreatedAt:    spec.At,
	}
	workspace.Messages[spec.ChannelID] = append(workspace.Messages[spec.ChannelID], message)
	channel.UpdatedAt = spec.At

	recipients := resolveRecipients(workspace, channel, spec.Text)
	updatedAt := channel.UpdatedAt
	stored := *message
	h.mu.Unlock()

	h.emit(event.MessagePosted{
		WorkspaceID:  spec.WorkspaceID,
		ChannelID:    spec.ChannelID,
		MessageID:    message.ID,
		SenderID:     spec.SenderID,
		Text:         spec.Text,
		ThreadRootID: spec.ThreadRootID,
		Recipients:   recipients,
		At:           spec.At,
	})
	return PostResult{Message: &stored, Recipients: recipients, ChannelUpdatedAt: updatedAt}, nil
}

// resolveRecipients merges channel membership with mention targets.
// Team mentions resolve against the whole workspace registry, so a
// "@team:x" post reaches teammates even outside the channel.
func resolveRecipients(workspace *domain.Workspace, channel *domain.Channel, text string) []domain.AgentID {
	recipients := lo.Keys(channel.Members)

	mentions := domain.ParseMentions(text)
	for _, agentID := range mentions.Agents {
		if _, ok := workspace.Agents[agentID]; ok {
			recipients = append(recipients, agentID)
		}
	}
	for _, team := range mentions.Teams {
		recipients = append(recipients, workspace.AgentsOnTeam(team)...)
	}

	recipients = lo.Uniq(recipients)
	slices.Sort(recipients)
	return recipients
}

// ListOptions narrows ListMessages to one thread when ThreadRootID is
// set: the root followed by its replies, in post order.
type ListOptions struct {
	ThreadRootID domain.MessageID
}

func (h *Hub) ListMessages(workspaceID domain.WorkspaceID, channelID domain.ChannelID, opts ListOptions) ([]domain.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspace, _, err := h.channelLocked(workspaceID, channelID)
	if err != nil {
		return nil, err
	}

	stored := workspace.Messages[channelID]
	if opts.ThreadRootID == "" {
		messages := make([]domain.Message, 0, len(stored))
		for _, message := range stored {
			messages = append(messages, *message)
		}
		return messages, nil
	}

	if _, ok := workspace.FindMessage(channelID, opts.ThreadRootID); !ok {
		return nil, fmt.Errorf("thread root %q: %w", opts.ThreadRootID, apperrors.ErrNotFound)
	}
	var thread []domain.Message
	for _, message := range stored {
		if message.ID == opts.ThreadRootID || message.ThreadRootID == opts.ThreadRootID {
			thread = append(thread, *message)
		}
	}
	return thread, nil
}

// AddReaction inserts the agent into the emoji's reacting set. The
// insert is idempotent; the channel's UpdatedAt advances either way so
// callers can surface activity.
func (h *Hub) AddReaction(workspaceID domain.WorkspaceID, channelID domain.ChannelID, messageID domain.MessageID, agentID domain.AgentID, emoji string) (time.Time, error) {
	at := time.Now().UTC()

	h.mu.Lock()
	workspace, channel, err := h.channelLocked(workspaceID, channelID)
	if err != nil {
		h.mu.Unlock()
		return time.Time{}, err
	}
	if _, ok := workspace.Agents[agentID]; !ok {
		h.mu.Unlock()
		return time.Time{}, fmt.Errorf("agent %q: %w", agentID, apperrors.ErrNotFound)
	}
	message, ok := workspace.FindMessage(channelID, messageID)
	if !ok {
		h.mu.Unlock()
		return time.Time{}, fmt.Errorf("message %q in channel %q: %w", messageID, channelID, apperrors.ErrNotFound)
	}
	message.React(emoji, agentID)
	channel.UpdatedAt = at
	updatedAt := channel.UpdatedAt
	h.mu.Unlock()

	h.emit(event.ReactionAdded{
		WorkspaceID: workspaceID,
		ChannelID:   channelID,
		MessageID:   messageID,
		AgentID:     agentID,
		Emoji:       emoji,
		At:          at,
	})
	return updatedAt, nil
}
