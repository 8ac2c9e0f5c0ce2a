//go:generate go run go.uber.org/mock/mockgen -source=archive.go -destination=../mocks/mock_archive_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"agent-hub/domain"
)

// ArchivedMessage is the durable copy of one posted message, enriched
// with the detected language of its text.
type ArchivedMessage struct {
	ID           domain.MessageID   `json:"id"`
	WorkspaceID  domain.WorkspaceID `json:"workspaceId"`
	ChannelID    domain.ChannelID   `json:"channelId"`
	SenderID     domain.AgentID     `json:"senderId"`
	Text         string             `json:"text"`
	ThreadRootID domain.MessageID   `json:"threadRootId,omitempty"`
	Language     string             `json:"language,omitempty"`
	At           time.Time          `json:"at"`
}

type IArchiveRepository interface {
	StoreMessage(message ArchivedMessage) error
	GetMessages(workspace domain.WorkspaceID, channel domain.ChannelID, limit int) ([]ArchivedMessage, error)
}

type ArchiveRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewArchiveRepository(db *badger.DB, log *slog.Logger) ArchiveRepository {
	return ArchiveRepository{db: db, log: log}
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{workspace}:{channel}:{timestamp_padded}:{id}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Keep the message id as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (a ArchiveRepository) StoreMessage(message ArchivedMessage) error {
	key := fmt.Sprintf("msg:%s:%s:%019d:%s",
		message.WorkspaceID,
		message.ChannelID,
		message.At.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages retrieves archived messages for one channel using a
// prefix scan. The padded timestamp in the key keeps them naturally
// sorted by time; limit <= 0 returns everything.
func (a ArchiveRepository) GetMessages(workspace domain.WorkspaceID, channel domain.ChannelID, limit int) ([]ArchivedMessage, error) {
	var messages []ArchivedMessage
	prefix := []byte(fmt.Sprintf("msg:%s:%s:", workspace, channel))

	err := a.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(messages) == limit {
				a.log.Debug("archive scan reached limit", "limit", limit)
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var message ArchivedMessage
				if err := json.Unmarshal(value, &message); err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
