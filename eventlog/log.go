package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Applier is the hub-side contract replay drives. It must fail loudly
// when a record references state that does not exist, so the failure
// can be counted.
type Applier interface {
	ApplyEvent(Event) error
}

// Log is an append-only JSONL event log. The sequence cursor is
// resolved lazily from the file's tail on the first append, then
// advanced in memory; Append and Compact share one mutex so a rewrite
// never races a write.
type Log struct {
	path string
	log  *slog.Logger

	mu       sync.Mutex
	nextSeq  uint64
	seqKnown bool
}

func Open(path string, log *slog.Logger) *Log {
	return &Log{path: path, log: log}
}

// Append assigns the next sequence number and writes one fsync'd
// record. Sequence numbers survive restarts: the cursor is derived from
// the highest seq already on disk.
func (l *Log) Append(evt Event) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.seqKnown {
		records, err := l.readAllLocked()
		if err != nil {
			return Record{}, fmt.Errorf("resolving sequence cursor: %w", err)
		}
		l.nextSeq = 1
		if len(records) > 0 {
			l.nextSeq = records[len(records)-1].Seq + 1
		}
		l.seqKnown = true
	}

	record := Record{Seq: l.nextSeq, RecordedAt: time.Now().UTC(), Event: evt}
	line, err := json.Marshal(record)
	if err != nil {
		return Record{}, err
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return Record{}, err
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return Record{}, err
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return Record{}, err
	}
	if err := file.Sync(); err != nil {
		return Record{}, err
	}

	l.nextSeq++
	return record, nil
}

// ReadAll parses every record, sorted by seq. Malformed lines are
// skipped so a writer crash mid-record never makes the log unreadable.
func (l *Log) ReadAll() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAllLocked()
}

func (l *Log) readAllLocked() ([]Record, error) {
	file, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []Record
	dropped := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			dropped++
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if dropped > 0 {
		l.log.Warn("skipped malformed log records", "path", l.path, "count", dropped)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return records, nil
}

// ReplayOptions controls ReplayInto. FromSeqExclusive is typically the
// snapshot's lastEventSeq.
type ReplayOptions struct {
	FromSeqExclusive uint64
	ContinueOnError  bool
}

// ReplayReport aggregates one replay pass.
type ReplayReport struct {
	Applied int
	Failed  int
	LastSeq uint64
}

// ReplayInto applies every record with seq > FromSeqExclusive, in
// ascending order. A failing record is counted; with ContinueOnError
// false the error is returned and replay stops.
func (l *Log) ReplayInto(applier Applier, opts ReplayOptions) (ReplayReport, error) {
	records, err := l.ReadAll()
	if err != nil {
		return ReplayReport{}, err
	}

	var report ReplayReport
	for _, record := range records {
		if record.Seq <= opts.FromSeqExclusive {
			continue
		}
		report.LastSeq = record.Seq
		if err := applier.ApplyEvent(record.Event); err != nil {
			report.Failed++
			if !opts.ContinueOnError {
				return report, fmt.Errorf("replaying seq %d: %w", record.Seq, err)
			}
			l.log.Warn("replay record failed", "seq", record.Seq, "error", err)
			continue
		}
		report.Applied++
	}
	return report, nil
}

// CompactOptions bounds the log: first by a retention window, then by a
// maximum record count. Zero values disable the respective bound.
type CompactOptions struct {
	Now           time.Time
	RetentionDays int
	MaxEntries    int
}

// CompactReport carries the record counts around one compaction.
type CompactReport struct {
	Before int
	After  int
}

// Compact rewrites the log keeping only records inside the retention
// window, then trims to the most recent MaxEntries. The rewrite goes
// through a temp file and a rename so a crash leaves either the old or
// the new log, never a torn one.
func (l *Log) Compact(opts CompactOptions) (CompactReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readAllLocked()
	if err != nil {
		return CompactReport{}, err
	}
	report := CompactReport{Before: len(records)}
	if len(records) == 0 {
		report.After = 0
		return report, nil
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	kept := records
	if opts.RetentionDays > 0 {
		cutoff := now.Add(-time.Duration(opts.RetentionDays) * 24 * time.Hour)
		filtered := kept[:0]
		for _, record := range kept {
			if !record.RecordedAt.Before(cutoff) {
				filtered = append(filtered, record)
			}
		}
		kept = filtered
	}
	if opts.MaxEntries > 0 && len(kept) > opts.MaxEntries {
		kept = kept[len(kept)-opts.MaxEntries:]
	}

	tmp := l.path + ".compact"
	file, err := os.Create(tmp)
	if err != nil {
		return CompactReport{}, err
	}
	writer := bufio.NewWriter(file)
	for _, record := range kept {
		line, err := json.Marshal(record)
		if err != nil {
			file.Close()
			return CompactReport{}, err
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			file.Close()
			return CompactReport{}, err
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return CompactReport{}, err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return CompactReport{}, err
	}
	if err := file.Close(); err != nil {
		return CompactReport{}, err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return CompactReport{}, err
	}

	report.After = len(kept)
	l.log.Info("log compacted", "path", l.path, "before", report.Before, "after", report.After)
	return report, nil
}

// ExportJSONL copies the raw log verbatim to the given path, or writes
// an empty file when no log exists yet.
func (l *Log) ExportJSONL(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	source, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return os.WriteFile(path, nil, 0o644)
	}
	if err != nil {
		return err
	}
	defer source.Close()

	target, err := os.Create(path)
	if err != nil {
		return err
	}
	defer target.Close()

	if _, err := io.Copy(target, source); err != nil {
		return err
	}
	return target.Sync()
}
