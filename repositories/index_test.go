package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"

	"agent-hub/domain"
)

func openTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	req := require.New(t)
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewSearchIndex(writer, testLogger())
}

func TestSearchIndex_Scopes_Hits_To_Workspace(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	req.NoError(index.Index(archived("m1", "general", "deploy finished", at)))
	req.NoError(index.Index(ArchivedMessage{
		ID: "m2", WorkspaceID: "globex", ChannelID: "general",
		SenderID: "bob", Text: "deploy finished", At: at,
	}))

	hits, err := index.Search(context.Background(), "acme", "deploy", 10)
	req.NoError(err)

	req.Len(hits, 1)
	req.Equal(domain.MessageID("m1"), hits[0].MessageID)
	req.Equal(domain.WorkspaceID("acme"), hits[0].WorkspaceID)
	req.Equal("deploy finished", hits[0].Text)
	req.Positive(hits[0].Score)
}

func TestSearchIndex_Update_Replaces_Document(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	req.NoError(index.Index(archived("m1", "general", "old text", at)))
	req.NoError(index.Index(archived("m1", "general", "new text", at)))

	hits, err := index.Search(context.Background(), "acme", "text", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("new text", hits[0].Text)
}

func TestSearchIndex_No_Match(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	req.NoError(index.Index(archived("m1", "general", "hello world", at)))

	hits, err := index.Search(context.Background(), "acme", "unrelated", 10)
	req.NoError(err)
	req.Empty(hits)
}
