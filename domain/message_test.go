package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage_React_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	message := Message{ID: "m1"}

	// When the same agent reacts twice with the same emoji
	req.True(message.React("👍", "alice"))
	req.False(message.React("👍", "alice"))

	// Then the reacting set holds the agent once
	req.Equal([]AgentID{"alice"}, message.Reactions["👍"])
}

func TestMessage_React_Distinct_Emojis(t *testing.T) {
	req := require.New(t)
	message := Message{ID: "m1"}

	req.True(message.React("👍", "alice"))
	req.True(message.React("🎉", "alice"))
	req.True(message.React("👍", "bob"))

	req.Equal([]AgentID{"alice", "bob"}, message.Reactions["👍"])
	req.Equal([]AgentID{"alice"}, message.Reactions["🎉"])
}

func TestMessage_IsThreadRoot(t *testing.T) {
	req := require.New(t)

	root := Message{ID: "m1"}
	reply := Message{ID: "m2", ThreadRootID: "m1"}

	req.True(root.IsThreadRoot())
	req.False(reply.IsThreadRoot())
}
