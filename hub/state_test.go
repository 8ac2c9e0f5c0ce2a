package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"agent-hub/domain"
)

func TestExportState_Is_Detached_From_Live_Model(t *testing.T) {
	req := require.New(t)
	h := newTestHub()
	channelID := generalChannel(t, h)

	result, err := h.PostMessage(PostMessageSpec{
		WorkspaceID: "acme", ChannelID: channelID, SenderID: "alice", Text: "hello",
	})
	req.NoError(err)

	state := h.ExportState()

	// Mutating the hub after export must not leak into the state
	_, err = h.AddReaction("acme", channelID, result.Message.ID, "bob", "👍")
	req.NoError(err)

	exported := state.Workspaces["acme"].Messages[channelID][0]
	req.Empty(exported.Reactions)
}

func TestRestore_Replaces_The_Model(t *testing.T) {
	req := require.New(t)
	source := newTestHub()
	channelID := generalChannel(t, source)

	_, err := source.PostMessage(PostMessageSpec{
		WorkspaceID: "acme", ChannelID: channelID, SenderID: "alice", Text: "hello",
	})
	req.NoError(err)

	target := newTestHub()
	target.EnsureWorkspace("stale")
	target.Restore(source.ExportState())

	// The restored hub mirrors the source exactly, stale state is gone
	sourceJSON, err := json.Marshal(source.ExportState())
	req.NoError(err)
	targetJSON, err := json.Marshal(target.ExportState())
	req.NoError(err)
	req.JSONEq(string(sourceJSON), string(targetJSON))

	req.NotContains(target.ExportState().Workspaces, domain.WorkspaceID("stale"))
}
