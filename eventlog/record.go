// Package eventlog persists every mutation the hub accepted as one
// newline-delimited JSON record, keyed by a strictly increasing
// sequence number. The log plus a snapshot is enough to rebuild a hub.
package eventlog

import (
	"encoding/json"
	"fmt"
	"time"

	"agent-hub/domain"
	apperrors "agent-hub/errors"
)

type Kind string

const (
	KindRegisterAgent Kind = "register_agent"
	KindCreateChannel Kind = "create_channel"
	KindJoinChannel   Kind = "join_channel"
	KindPostMessage   Kind = "post_message"
	KindAddReaction   Kind = "add_reaction"
)

// Event is one loggable mutation. The concrete types below form a
// closed set; decoding an unknown kind fails so replay never silently
// drops a mutation it does not understand.
type Event interface {
	EventKind() Kind
}

type RegisterAgent struct {
	Kind        Kind               `json:"kind"`
	WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	Agent       domain.Identity    `json:"agent"`
}

func NewRegisterAgent(workspace domain.WorkspaceID, agent domain.Identity) RegisterAgent {
	return RegisterAgent{Kind: KindRegisterAgent, WorkspaceID: workspace, Agent: agent}
}

func (e RegisterAgent) EventKind() Kind { return KindRegisterAgent }

type CreateChannel struct {
	Kind        Kind               `json:"kind"`
	WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	Channel     domain.Channel     `json:"channel"`
}

func NewCreateChannel(workspace domain.WorkspaceID, channel domain.Channel) CreateChannel {
	return CreateChannel{Kind: KindCreateChannel, WorkspaceID: workspace, Channel: channel}
}

func (e CreateChannel) EventKind() Kind { return KindCreateChannel }

type JoinChannel struct {
	Kind             Kind               `json:"kind"`
	WorkspaceID      domain.WorkspaceID `json:"workspaceId"`
	ChannelID        domain.ChannelID   `json:"channelId"`
	Member           domain.Member      `json:"member"`
	ChannelUpdatedAt time.Time          `json:"channelUpdatedAt"`
}

func NewJoinChannel(workspace domain.WorkspaceID, channel domain.ChannelID, member domain.Member, updatedAt time.Time) JoinChannel {
	return JoinChannel{
		Kind:             KindJoinChannel,
		WorkspaceID:      workspace,
		ChannelID:        channel,
		Member:           member,
		ChannelUpdatedAt: updatedAt,
	}
}

func (e JoinChannel) EventKind() Kind { return KindJoinChannel }

type PostMessage struct {
	Kind             Kind               `json:"kind"`
	WorkspaceID      domain.WorkspaceID `json:"workspaceId"`
	ChannelID        domain.ChannelID   `json:"channelId"`
	Message          domain.Message     `json:"message"`
	ChannelUpdatedAt time.Time          `json:"channelUpdatedAt"`
}

func NewPostMessage(workspace domain.WorkspaceID, channel domain.ChannelID, message domain.Message, updatedAt time.Time) PostMessage {
	return PostMessage{
		Kind:             KindPostMessage,
		WorkspaceID:      workspace,
		ChannelID:        channel,
		Message:          message,
		ChannelUpdatedAt: updatedAt,
	}
}

func (e PostMessage) EventKind() Kind { return KindPostMessage }

type AddReaction struct {
	Kind        Kind               `json:"kind"`
	WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	ChannelID   domain.ChannelID   `json:"channelId"`
	MessageID   domain.MessageID   `json:"messageId"`
	AgentID     domain.AgentID     `json:"agentId"`
	Emoji       string             `json:"emoji"`
	At          time.Time          `json:"at"`
}

func NewAddReaction(workspace domain.WorkspaceID, channel domain.ChannelID, message domain.MessageID, agent domain.AgentID, emoji string, at time.Time) AddReaction {
	return AddReaction{
		Kind:        KindAddReaction,
		WorkspaceID: workspace,
		ChannelID:   channel,
		MessageID:   message,
		AgentID:     agent,
		Emoji:       emoji,
		At:          at,
	}
}

func (e AddReaction) EventKind() Kind { return KindAddReaction }

// Record is the durable envelope around one event. RecordedAt travels
// as epoch milliseconds on the wire.
type Record struct {
	Seq        uint64
	RecordedAt time.Time
	Event      Event
}

type recordWire struct {
	Seq        uint64          `json:"seq"`
	RecordedAt int64           `json:"recordedAt"`
	Event      json.RawMessage `json:"event"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(r.Event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(recordWire{
		Seq:        r.Seq,
		RecordedAt: r.RecordedAt.UnixMilli(),
		Event:      payload,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var wire recordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Seq == 0 {
		return fmt.Errorf("record without sequence number")
	}
	evt, err := decodeEvent(wire.Event)
	if err != nil {
		return err
	}
	r.Seq = wire.Seq
	r.RecordedAt = time.UnixMilli(wire.RecordedAt).UTC()
	r.Event = evt
	return nil
}

func decodeEvent(raw json.RawMessage) (Event, error) {
	var head struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	var evt Event
	var err error
	switch head.Kind {
	case KindRegisterAgent:
		var payload RegisterAgent
		err = json.Unmarshal(raw, &payload)
		evt = payload
	case KindCreateChannel:
		var payload CreateChannel
		err = json.Unmarshal(raw, &payload)
		evt = payload
	case KindJoinChannel:
		var payload JoinChannel
		err = json.Unmarshal(raw, &payload)
		evt = payload
	case KindPostMessage:
		var payload PostMessage
		err = json.Unmarshal(raw, &payload)
		evt = payload
	case KindAddReaction:
		var payload AddReaction
		err = json.Unmarshal(raw, &payload)
		evt = payload
	default:
		return nil, fmt.Errorf("kind %q: %w", head.Kind, apperrors.ErrUnknownEvent)
	}
	if err != nil {
		return nil, err
	}
	return evt, nil
}
