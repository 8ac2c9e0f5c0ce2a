package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"agent-hub/eventlog"
	"agent-hub/gateway"
	"agent-hub/hub"
	"agent-hub/internal"
	"agent-hub/moderation"
	"agent-hub/observability"
	"agent-hub/repositories"
	"agent-hub/session"
	"agent-hub/sink"
	"agent-hub/snapshot"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hubd terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because it ensures all
// 'defer' statements (like database cleanup) run before the program exits, and it keeps the
// initialization logic testable outside the process entry point.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := internal.NewLogger(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Archive storage (BadgerDB) & full-text index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Hub, persistence pair, recovery
	h := hub.New(logger)
	events := eventlog.Open(config.EventLogFilepath, logger)
	snapshots := snapshot.NewStore(config.SnapshotFilepath, logger)
	recorder := session.NewRecorder(h, events, snapshots, config.SnapshotEvery, logger)

	if words := config.CensoredWordList(); len(words) > 0 {
		replacement, err := internal.CharacterRune(config.CharReplacement)
		if err != nil {
			return exitConfig, err
		}
		moderator, err := moderation.NewModerator(words, replacement)
		if err != nil {
			return exitConfig, fmt.Errorf("building moderator: %w", err)
		}
		recorder.WithModerator(moderator)
	}

	report, err := recorder.Recover()
	if err != nil {
		return exitRuntime, fmt.Errorf("recovery failed: %w", err)
	}
	logger.Info("hub recovered", "applied", report.Applied, "failed", report.Failed, "lastSeq", report.LastSeq)

	// 4. Archive sink & realtime gateway, attached after recovery so
	// replayed history is not re-archived or re-published.
	archive := repositories.NewArchiveRepository(db, logger)
	index := repositories.NewSearchIndex(blugeWriter, logger)
	archiveSink := sink.NewArchiveSink(archive, index, logger)
	unsubscribeSink := h.OnEvent(archiveSink.Consume)
	defer unsubscribeSink()

	gw := gateway.New(logger)
	gw.BindHub(h)
	defer gw.Close()

	// 5. Background maintenance: telemetry + log compaction
	reporter, err := observability.NewReporter(h, config.MetricInterval, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("starting telemetry: %w", err)
	}
	go reporter.Run(ctx)
	go compactLoop(ctx, events, config, logger)

	// 6. HTTP server (SSE gateway, stats, archive search)
	api := newAPI(recorder, gw, index, reporter, []byte(config.AuthSecret), config.AuthTokenDuration, logger)
	router := mux.NewRouter()
	api.register(router)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: router,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitRuntime, fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	// 7. Graceful shutdown: stop accepting, checkpoint, release
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if err := recorder.Snapshot(); err != nil {
		logger.Error("final snapshot failed", "error", err)
	}
	logger.Info("hubd stopped")
	return exitOK, nil
}

func compactLoop(ctx context.Context, events *eventlog.Log, config internal.Config, logger *slog.Logger) {
	ticker := time.NewTicker(config.CompactInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := events.Compact(eventlog.CompactOptions{
				Now:           time.Now().UTC(),
				RetentionDays: config.RetentionDays,
				MaxEntries:    config.MaxLogEntries,
			})
			if err != nil {
				logger.Error("log compaction failed", "error", err)
			}
		}
	}
}
