package repositories

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"

	"agent-hub/domain"
)

// SearchIndex maintains a Bluge full-text index over the archived
// messages, for offline search across everything the hub ever accepted
// (the hub's own SearchMessages only sees live in-memory state).
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// IndexedHit is one archive search result.
type IndexedHit struct {
	MessageID   domain.MessageID
	WorkspaceID domain.WorkspaceID
	ChannelID   domain.ChannelID
	Text        string
	Score       float64
}

// Index upserts one archived message into the full-text index.
func (s *SearchIndex) Index(message ArchivedMessage) error {
	doc := bluge.NewDocument(string(message.ID)).
		AddField(bluge.NewTextField("text", message.Text).StoreValue()).
		AddField(bluge.NewKeywordField("workspace", string(message.WorkspaceID)).StoreValue()).
		AddField(bluge.NewKeywordField("channel", string(message.ChannelID)).StoreValue()).
		AddField(bluge.NewKeywordField("sender", string(message.SenderID)).StoreValue()).
		AddField(bluge.NewDateTimeField("at", message.At).StoreValue())
	return s.writer.Update(doc.ID(), doc)
}

// Search runs a relevance-ranked match query scoped to one workspace.
func (s *SearchIndex) Search(ctx context.Context, workspace domain.WorkspaceID, query string, limit int) ([]IndexedHit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("closing index reader", "error", err)
		}
	}()

	boolean := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query).SetField("text")).
		AddMust(bluge.NewTermQuery(string(workspace)).SetField("workspace"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, boolean))
	if err != nil {
		return nil, err
	}

	var hits []IndexedHit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		hit := IndexedHit{Score: match.Score}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = domain.MessageID(value)
			case "workspace":
				hit.WorkspaceID = domain.WorkspaceID(value)
			case "channel":
				hit.ChannelID = domain.ChannelID(value)
			case "text":
				hit.Text = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
