package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	EventLogFilepath string `env:"EVENT_LOG_FILEPATH,required=true"`
	SnapshotFilepath string `env:"SNAPSHOT_FILEPATH,required=true"`
	BadgerFilepath   string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath    string `env:"BLUGE_FILEPATH,required=true"`

	Host     string `env:"HOST,default=127.0.0.1"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	SnapshotEvery   int           `env:"SNAPSHOT_EVERY,default=50"`
	RetentionDays   int           `env:"RETENTION_DAYS,default=30"`
	MaxLogEntries   int           `env:"MAX_LOG_ENTRIES,default=100000"`
	CompactInterval time.Duration `env:"COMPACT_INTERVAL,default=6h"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`

	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	CensoredWords   string `env:"CENSORED_WORDS"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`
}

// CensoredWordList splits the comma-separated CENSORED_WORDS value.
func (c Config) CensoredWordList() []string {
	if strings.TrimSpace(c.CensoredWords) == "" {
		return nil
	}
	var words []string
	for _, word := range strings.Split(c.CensoredWords, ",") {
		if trimmed := strings.TrimSpace(word); trimmed != "" {
			words = append(words, trimmed)
		}
	}
	return words
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
