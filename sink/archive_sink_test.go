package sink

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"agent-hub/domain"
	"agent-hub/domain/event"
	"agent-hub/repositories"
)

// memoryRepository records stored messages in memory.
type memoryRepository struct {
	stored []repositories.ArchivedMessage
}

func (m *memoryRepository) StoreMessage(message repositories.ArchivedMessage) error {
	m.stored = append(m.stored, message)
	return nil
}

func (m *memoryRepository) GetMessages(domain.WorkspaceID, domain.ChannelID, int) ([]repositories.ArchivedMessage, error) {
	return m.stored, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchiveSink_Archives_Posted_Messages(t *testing.T) {
	req := require.New(t)
	repo := &memoryRepository{}
	sink := NewArchiveSink(repo, nil, testLogger())

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sink.Consume(event.MessagePosted{
		WorkspaceID: "acme", ChannelID: "general", MessageID: "m1",
		SenderID: "alice", Text: "bonjour tout le monde, comment allez-vous", At: at,
	})

	req.Len(repo.stored, 1)
	archived := repo.stored[0]
	req.Equal(domain.MessageID("m1"), archived.ID)
	req.Equal("fra", archived.Language)
	req.Equal(at, archived.At)
}

func TestArchiveSink_Ignores_Other_Event_Kinds(t *testing.T) {
	req := require.New(t)
	repo := &memoryRepository{}
	sink := NewArchiveSink(repo, nil, testLogger())

	sink.Consume(event.WorkspaceReady{WorkspaceID: "acme", At: time.Now().UTC()})
	sink.Consume(event.ChannelJoined{WorkspaceID: "acme", ChannelID: "general", AgentID: "bob", At: time.Now().UTC()})

	req.Empty(repo.stored)
}
