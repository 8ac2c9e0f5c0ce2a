package eventlog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"agent-hub/domain"
	apperrors "agent-hub/errors"
)

func TestRecord_Wire_Format(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	record := Record{Seq: 7, RecordedAt: at, Event: NewAddReaction("acme", "c1", "m1", "alice", "👍", at)}

	line, err := json.Marshal(record)
	req.NoError(err)

	// The envelope carries the seq, epoch-ms timestamp and a kind-tagged event
	var wire map[string]json.RawMessage
	req.NoError(json.Unmarshal(line, &wire))
	req.JSONEq(`7`, string(wire["seq"]))
	req.JSONEq(`1772359200000`, string(wire["recordedAt"]))
	req.Contains(string(wire["event"]), `"kind":"add_reaction"`)

	var decoded Record
	req.NoError(json.Unmarshal(line, &decoded))
	req.Equal(record.Seq, decoded.Seq)
	req.True(record.RecordedAt.Equal(decoded.RecordedAt))

	reaction, ok := decoded.Event.(AddReaction)
	req.True(ok)
	req.Equal(domain.AgentID("alice"), reaction.AgentID)
	req.Equal("👍", reaction.Emoji)
}

func TestRecord_Decode_Rejects_Zero_Seq(t *testing.T) {
	req := require.New(t)

	var record Record
	err := json.Unmarshal([]byte(`{"recordedAt":1,"event":{"kind":"register_agent"}}`), &record)
	req.ErrorContains(err, "without sequence number")
}

func TestRecord_Decode_Rejects_Unknown_Kind(t *testing.T) {
	req := require.New(t)

	var record Record
	err := json.Unmarshal([]byte(`{"seq":1,"recordedAt":1,"event":{"kind":"mystery"}}`), &record)
	req.ErrorIs(err, apperrors.ErrUnknownEvent)
}
