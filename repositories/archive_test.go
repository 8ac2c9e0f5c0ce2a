package repositories

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"agent-hub/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func archived(id domain.MessageID, channel domain.ChannelID, text string, at time.Time) ArchivedMessage {
	return ArchivedMessage{
		ID: id, WorkspaceID: "acme", ChannelID: channel,
		SenderID: "alice", Text: text, At: at,
	}
}

func TestArchiveRepository_Store_And_Get(t *testing.T) {
	req := require.New(t)
	repo := NewArchiveRepository(openTestDB(t), testLogger())

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	req.NoError(repo.StoreMessage(archived("m1", "general", "first", at)))
	req.NoError(repo.StoreMessage(archived("m2", "general", "second", at.Add(time.Minute))))
	req.NoError(repo.StoreMessage(archived("m3", "random", "elsewhere", at)))

	messages, err := repo.GetMessages("acme", "general", 0)
	req.NoError(err)

	// The padded-timestamp key keeps the channel scan in time order
	req.Len(messages, 2)
	req.Equal(domain.MessageID("m1"), messages[0].ID)
	req.Equal(domain.MessageID("m2"), messages[1].ID)
}

func TestArchiveRepository_Get_Respects_Limit(t *testing.T) {
	req := require.New(t)
	repo := NewArchiveRepository(openTestDB(t), testLogger())

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []domain.MessageID{"m1", "m2", "m3"} {
		req.NoError(repo.StoreMessage(archived(id, "general", "text", at.Add(time.Duration(i)*time.Second))))
	}

	messages, err := repo.GetMessages("acme", "general", 2)
	req.NoError(err)
	req.Len(messages, 2)
}

func TestArchiveRepository_Get_Unknown_Channel(t *testing.T) {
	req := require.New(t)
	repo := NewArchiveRepository(openTestDB(t), testLogger())

	messages, err := repo.GetMessages("acme", "nope", 0)
	req.NoError(err)
	req.Empty(messages)
}
