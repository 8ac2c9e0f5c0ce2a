// Package session is the layer callers embed: it runs hub operations,
// appends the matching record to the event log after each successful
// mutation, checkpoints a snapshot every few events, and drives the
// snapshot-plus-replay recovery on start.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"agent-hub/domain"
	"agent-hub/eventlog"
	"agent-hub/hub"
	"agent-hub/moderation"
	"agent-hub/snapshot"
)

type Recorder struct {
	hub       *hub.Hub
	events    *eventlog.Log
	snapshots *snapshot.Store
	moderator *moderation.Moderator
	log       *slog.Logger

	snapshotEvery int

	mu            sync.Mutex
	lastSeq       uint64
	sinceSnapshot int
}

// NewRecorder wires the persistence pair around the hub. snapshotEvery
// is the number of appended events between checkpoints; zero disables
// automatic snapshots.
func NewRecorder(h *hub.Hub, events *eventlog.Log, snapshots *snapshot.Store, snapshotEvery int, log *slog.Logger) *Recorder {
	return &Recorder{
		hub:           h,
		events:        events,
		snapshots:     snapshots,
		snapshotEvery: snapshotEvery,
		log:           log,
	}
}

// WithModerator enables censored-word masking on message text before
// it reaches the hub.
func (r *Recorder) WithModerator(m *moderation.Moderator) *Recorder {
	r.moderator = m
	return r
}

func (r *Recorder) Hub() *hub.Hub { return r.hub }

// Recover rebuilds the hub: restore the last snapshot, then replay
// every log record past its sequence number. Failed records are
// counted and logged, not fatal.
func (r *Recorder) Recover() (eventlog.ReplayReport, error) {
	seq, err := r.snapshots.LoadInto(r.hub)
	if err != nil {
		return eventlog.ReplayReport{}, fmt.Errorf("loading snapshot: %w", err)
	}
	report, err := r.events.ReplayInto(r.hub, eventlog.ReplayOptions{
		FromSeqExclusive: seq,
		ContinueOnError:  true,
	})
	if err != nil {
		return report, fmt.Errorf("replaying event log: %w", err)
	}

	r.mu.Lock()
	r.lastSeq = max(seq, report.LastSeq)
	r.sinceSnapshot = 0
	r.mu.Unlock()

	if report.Failed > 0 {
		r.log.Warn("recovery finished with failed records", "applied", report.Applied, "failed", report.Failed)
	} else {
		r.log.Info("recovery finished", "snapshotSeq", seq, "applied", report.Applied, "lastSeq", report.LastSeq)
	}
	return report, nil
}

func (r *Recorder) RegisterAgent(workspaceID domain.WorkspaceID, identity domain.Identity) error {
	if err := r.hub.RegisterAgent(workspaceID, identity); err != nil {
		return err
	}
	return r.append(eventlog.NewRegisterAgent(workspaceID, identity))
}

func (r *Recorder) CreateChannel(spec hub.CreateChannelSpec) (*domain.Channel, error) {
	channel, err := r.hub.CreateChannel(spec)
	if err != nil {
		return nil, err
	}
	if err := r.append(eventlog.NewCreateChannel(spec.WorkspaceID, *channel)); err != nil {
		return nil, err
	}
	return channel, nil
}

func (r *Recorder) JoinChannel(workspaceID domain.WorkspaceID, channelID domain.ChannelID, agentID domain.AgentID) (domain.Member, time.Time, error) {
	member, updatedAt, err := r.hub.JoinChannel(workspaceID, channelID, agentID)
	if err != nil {
		return domain.Member{}, time.Time{}, err
	}
	if err := r.append(eventlog.NewJoinChannel(workspaceID, channelID, member, updatedAt)); err != nil {
		return domain.Member{}, time.Time{}, err
	}
	return member, updatedAt, nil
}

func (r *Recorder) PostMessage(spec hub.PostMessageSpec) (hub.PostResult, error) {
	if r.moderator != nil {
		spec.Text = r.moderator.Censor(spec.Text)
	}
	result, err := r.hub.PostMessage(spec)
	if err != nil {
		return hub.PostResult{}, err
	}
	if err := r.append(eventlog.NewPostMessage(spec.WorkspaceID, spec.ChannelID, *result.Message, result.ChannelUpdatedAt)); err != nil {
		return hub.PostResult{}, err
	}
	return result, nil
}

func (r *Recorder) AddReaction(workspaceID domain.WorkspaceID, channelID domain.ChannelID, messageID domain.MessageID, agentID domain.AgentID, emoji string) (time.Time, error) {
	updatedAt, err := r.hub.AddReaction(workspaceID, channelID, messageID, agentID, emoji)
	if err != nil {
		return time.Time{}, err
	}
	if err := r.append(eventlog.NewAddReaction(workspaceID, channelID, messageID, agentID, emoji, updatedAt)); err != nil {
		return time.Time{}, err
	}
	return updatedAt, nil
}

// Snapshot forces a checkpoint at the current sequence number.
func (r *Recorder) Snapshot() error {
	r.mu.Lock()
	seq := r.lastSeq
	r.sinceSnapshot = 0
	r.mu.Unlock()
	return r.snapshots.SaveFrom(r.hub, seq)
}

// append records the accepted mutation. The hub state is already
// mutated at this point: an append failure is a durability error the
// caller must surface, not roll back.
func (r *Recorder) append(evt eventlog.Event) error {
	record, err := r.events.Append(evt)
	if err != nil {
		return fmt.Errorf("appending %s: %w", evt.EventKind(), err)
	}

	r.mu.Lock()
	r.lastSeq = record.Seq
	r.sinceSnapshot++
	due := r.snapshotEvery > 0 && r.sinceSnapshot >= r.snapshotEvery
	if due {
		r.sinceSnapshot = 0
	}
	r.mu.Unlock()

	if due {
		if err := r.snapshots.SaveFrom(r.hub, record.Seq); err != nil {
			r.log.Error("periodic snapshot failed", "seq", record.Seq, "error", err)
		}
	}
	return nil
}
