// Package snapshot checkpoints the hub's full state to a single JSON
// document tagged with the event-log sequence number it incorporates,
// so recovery is snapshot + replay-from-seq instead of a full replay.
package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"agent-hub/domain"
	"agent-hub/hub"
)

// StateCarrier is the hub-side contract the store drives.
type StateCarrier interface {
	ExportState() hub.State
	Restore(hub.State)
}

type Store struct {
	path string
	log  *slog.Logger
}

func NewStore(path string, log *slog.Logger) *Store {
	return &Store{path: path, log: log}
}

type document struct {
	Workspaces   map[domain.WorkspaceID]*domain.Workspace `json:"workspaces"`
	LastEventSeq uint64                                   `json:"lastEventSeq"`
}

// SaveFrom serializes the carrier's exported state. lastEventSeq must
// be the seq of the last log record the state incorporates, so a later
// replay from that point reconstructs exactly the post-snapshot state.
func (s *Store) SaveFrom(carrier StateCarrier, lastEventSeq uint64) error {
	state := carrier.ExportState()
	doc := document{Workspaces: state.Workspaces, LastEventSeq: lastEventSeq}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializing snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	s.log.Debug("snapshot saved", "path", s.path, "lastEventSeq", lastEventSeq)
	return nil
}

// LoadInto restores the carrier from the snapshot file and returns the
// lastEventSeq to resume log replay from. A missing snapshot is not an
// error: the carrier is restored to an empty state at seq 0.
func (s *Store) LoadInto(carrier StateCarrier) (uint64, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		carrier.Restore(hub.State{})
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("parsing snapshot %s: %w", s.path, err)
	}
	carrier.Restore(hub.State{Workspaces: doc.Workspaces})
	return doc.LastEventSeq, nil
}
