// Package sink contains event consumers attached to the hub's live
// stream for side effects outside the domain model.
package sink

import (
	"log/slog"

	"github.com/abadojack/whatlanggo"

	"agent-hub/domain/event"
	"agent-hub/repositories"
)

// ArchiveSink copies every posted message into the durable archive and
// the full-text index. Failures are logged, never propagated: archival
// is a side effect and must not break the posting path.
type ArchiveSink struct {
	repository repositories.IArchiveRepository
	index      *repositories.SearchIndex
	log        *slog.Logger
}

func NewArchiveSink(repository repositories.IArchiveRepository, index *repositories.SearchIndex, log *slog.Logger) ArchiveSink {
	return ArchiveSink{repository: repository, index: index, log: log}
}

func (s ArchiveSink) Consume(e event.DomainEvent) {
	posted, ok := e.(event.MessagePosted)
	if !ok {
		return
	}

	archived := toArchivedMessage(posted)
	if err := s.repository.StoreMessage(archived); err != nil {
		s.log.Error("archiving message failed", "message", posted.MessageID, "error", err)
		return
	}
	if s.index == nil {
		return
	}
	if err := s.index.Index(archived); err != nil {
		s.log.Error("indexing message failed", "message", posted.MessageID, "error", err)
	}
}

func toArchivedMessage(e event.MessagePosted) repositories.ArchivedMessage {
	info := whatlanggo.Detect(e.Text)
	return repositories.ArchivedMessage{
		ID:           e.MessageID,
		WorkspaceID:  e.WorkspaceID,
		ChannelID:    e.ChannelID,
		SenderID:     e.SenderID,
		Text:         e.Text,
		ThreadRootID: e.ThreadRootID,
		Language:     info.Lang.Iso6393(),
		At:           e.At,
	}
}
