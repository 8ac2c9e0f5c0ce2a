package hub

import (
	"fmt"
	"sort"
	"strings"

	"agent-hub/domain"
	apperrors "agent-hub/errors"
)

// SearchOptions narrows SearchMessages to one channel and caps the
// result count. Limit <= 0 means no cap.
type SearchOptions struct {
	ChannelID domain.ChannelID
	Limit     int
}

// SearchResult pairs a matching message with its relevance score.
type SearchResult struct {
	Message domain.Message
	Score   int
}

// SearchMessages runs a case-insensitive term match over message text.
// Results are ordered by descending score; ties go to the older
// message, which keeps a thread root ahead of its replies.
func (h *Hub) SearchMessages(workspaceID domain.WorkspaceID, query string, opts SearchOptions) ([]SearchResult, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	workspace, err := h.workspaceLocked(workspaceID)
	if err != nil {
		return nil, err
	}
	if opts.ChannelID != "" {
		if _, ok := workspace.Channels[opts.ChannelID]; !ok {
			return nil, fmt.Errorf("channel %q: %w", opts.ChannelID, apperrors.ErrNotFound)
		}
	}

	var results []SearchResult
	for channelID, messages := range workspace.Messages {
		if opts.ChannelID != "" && channelID != opts.ChannelID {
			continue
		}
		for _, message := range messages {
			if score := scoreText(message.Text, terms); score > 0 {
				results = append(results, SearchResult{Message: *message, Score: score})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].Message.CreatedAt.Equal(results[j].Message.CreatedAt) {
			return results[i].Message.CreatedAt.Before(results[j].Message.CreatedAt)
		}
		return results[i].Message.IsThreadRoot() && !results[j].Message.IsThreadRoot()
	})

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// scoreText counts term occurrences in the lowered text. A message
// matches only when every term appears at least once.
func scoreText(text string, terms []string) int {
	lowered := strings.ToLower(text)
	score := 0
	for _, term := range terms {
		occurrences := strings.Count(lowered, term)
		if occurrences == 0 {
			return 0
		}
		score += occurrences
	}
	return score
}
