package domain

import (
	"regexp"

	"github.com/samber/lo"
)

// mentionPattern captures both mention forms found in message text:
// "@team:<name>" for a whole team and "@<agentId>" for a single agent.
var mentionPattern = regexp.MustCompile(`@(team:)?([A-Za-z0-9._-]+)`)

// Mentions is the result of scanning a message body for mention tokens.
type Mentions struct {
	Agents []AgentID
	Teams  []string
}

// ParseMentions extracts every mention token from the text. Duplicate
// tokens are collapsed; resolution against the agent registry happens
// in the hub.
func ParseMentions(text string) Mentions {
	var mentions Mentions
	for _, match := range mentionPattern.FindAllStringSubmatch(text, -1) {
		if match[1] != "" {
			mentions.Teams = append(mentions.Teams, match[2])
			continue
		}
		mentions.Agents = append(mentions.Agents, AgentID(match[2]))
	}
	mentions.Agents = lo.Uniq(mentions.Agents)
	mentions.Teams = lo.Uniq(mentions.Teams)
	return mentions
}
