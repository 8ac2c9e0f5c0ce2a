package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"

	"agent-hub/eventlog"
	"agent-hub/repositories"
)

// Config keeps the cosmetic knobs out of the flag set.
type Config struct {
	// INSPECT_COLOURS enables colorized section headers for readability
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
}

func main() {
	logPath := flag.String("log", "data/events.jsonl", "Path to the event log")
	snapshotPath := flag.String("snapshot", "data/snapshot.json", "Path to the snapshot file")
	dbPath := flag.String("db", "data/badger", "Path to the badger archive")
	prefix := flag.String("prefix", "msg:", "Archive key prefix to scan")
	mode := flag.String("mode", "events", "What to inspect: events, snapshot or archive")
	flag.Parse()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("Error while reading config: ", err)
	}

	var err error
	switch *mode {
	case "events":
		err = inspectEvents(*logPath, cfg)
	case "snapshot":
		err = inspectSnapshot(*snapshotPath, cfg)
	case "archive":
		err = inspectArchive(*dbPath, *prefix, cfg)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func header(cfg Config, text string) {
	if cfg.Colours {
		text = color.New(color.BgBlack, color.FgGreen).Render(text)
	}
	fmt.Println(text)
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func inspectEvents(path string, cfg Config) error {
	events := eventlog.Open(path, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	records, err := events.ReadAll()
	if err != nil {
		return err
	}

	header(cfg, fmt.Sprintf(" Event log: %s (%d records) ", path, len(records)))
	table := newTable([]string{"Seq", "Recorded", "Kind", "Detail"})
	for _, record := range records {
		table.Append([]string{
			fmt.Sprintf("%d", record.Seq),
			record.RecordedAt.Format(time.RFC3339),
			string(record.Event.EventKind()),
			describe(record.Event),
		})
	}
	table.Render()
	return nil
}

func describe(evt eventlog.Event) string {
	switch e := evt.(type) {
	case eventlog.RegisterAgent:
		return fmt.Sprintf("ws=%s agent=%s role=%s", e.WorkspaceID, e.Agent.ID, e.Agent.Role)
	case eventlog.CreateChannel:
		return fmt.Sprintf("ws=%s channel=%s type=%s", e.WorkspaceID, e.Channel.ID, e.Channel.Type)
	case eventlog.JoinChannel:
		return fmt.Sprintf("ws=%s channel=%s agent=%s", e.WorkspaceID, e.ChannelID, e.Member.AgentID)
	case eventlog.PostMessage:
		return fmt.Sprintf("ws=%s channel=%s message=%s", e.WorkspaceID, e.ChannelID, e.Message.ID)
	case eventlog.AddReaction:
		return fmt.Sprintf("ws=%s message=%s emoji=%s by=%s", e.WorkspaceID, e.MessageID, e.Emoji, e.AgentID)
	default:
		return ""
	}
}

func inspectSnapshot(path string, cfg Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc struct {
		Workspaces   map[string]json.RawMessage `json:"workspaces"`
		LastEventSeq uint64                     `json:"lastEventSeq"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	header(cfg, fmt.Sprintf(" Snapshot: %s (lastEventSeq=%d) ", path, doc.LastEventSeq))
	table := newTable([]string{"Workspace", "Agents", "Channels", "Messages"})
	for id, rawWorkspace := range doc.Workspaces {
		var workspace struct {
			Agents   map[string]json.RawMessage   `json:"agents"`
			Channels map[string]json.RawMessage   `json:"channels"`
			Messages map[string][]json.RawMessage `json:"messages"`
		}
		if err := json.Unmarshal(rawWorkspace, &workspace); err != nil {
			fmt.Printf("Error unmarshaling workspace %s: %v\n", id, err)
			continue
		}
		messages := 0
		for _, channelMessages := range workspace.Messages {
			messages += len(channelMessages)
		}
		table.Append([]string{
			id,
			fmt.Sprintf("%d", len(workspace.Agents)),
			fmt.Sprintf("%d", len(workspace.Channels)),
			fmt.Sprintf("%d", messages),
		})
	}
	table.Render()
	return nil
}

func inspectArchive(path, prefix string, cfg Config) error {
	db, err := openDB(path)
	if err != nil {
		return fmt.Errorf("error while opening badger: %w", err)
	}
	defer db.Close()

	header(cfg, fmt.Sprintf(" Archive: %s (prefix %q) ", path, prefix))
	table := newTable([]string{"Key", "Timestamp", "Sender", "Language", "Text"})

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var archived repositories.ArchivedMessage
				if err := json.Unmarshal(v, &archived); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				text := archived.Text
				if len(text) > 60 {
					text = text[:60] + "…"
				}

				table.Append([]string{
					string(item.Key()),
					archived.At.Format("15:04:05"),
					string(archived.SenderID),
					archived.Language,
					text,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	table.Render()
	return nil
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
