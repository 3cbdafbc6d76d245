package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/whitstable-shop/site/internal/model"
	"github.com/whitstable-shop/site/internal/store"
)

func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "whitshop-logging-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}

	return db, cleanup
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listAll(t *testing.T, db *sql.DB) []store.AuditEvent {
	t.Helper()
	q := store.New(db)
	events, err := q.ListAuditEvents(context.Background(), store.ListAuditEventsParams{
		Limit:  10,
		Offset: 0,
	})
	if err != nil {
		t.Fatalf("ListAuditEvents: %v", err)
	}
	return events
}

func TestAuditLogHandler_ErrorLevel(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewAuditLogHandler(discardHandler{}, db))
	logger.Error("database connection failed", "host", "localhost", "port", 5432)

	time.Sleep(50 * time.Millisecond)

	events := listAll(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Level != model.EventLevelError {
		t.Errorf("Level = %q, want %q", events[0].Level, model.EventLevelError)
	}
	if events[0].Message != "database connection failed" {
		t.Errorf("Message = %q, want %q", events[0].Message, "database connection failed")
	}
}

func TestAuditLogHandler_WarnLevel(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewAuditLogHandler(discardHandler{}, db))
	logger.Warn("slow query detected", "duration_ms", 5000)

	time.Sleep(50 * time.Millisecond)

	events := listAll(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Level != model.EventLevelWarning {
		t.Errorf("Level = %q, want %q", events[0].Level, model.EventLevelWarning)
	}
}

func TestAuditLogHandler_InfoNotCaptured(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewAuditLogHandler(discardHandler{}, db))
	logger.Info("server started", "port", 8080)

	time.Sleep(50 * time.Millisecond)

	if events := listAll(t, db); len(events) != 0 {
		t.Errorf("expected 0 events for INFO level, got %d", len(events))
	}
}

func TestAuditLogHandler_CustomLevel(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewAuditLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))
	logger.Info("server started", "port", 8080)

	time.Sleep(50 * time.Millisecond)

	if events := listAll(t, db); len(events) != 1 {
		t.Errorf("expected 1 event with custom INFO level, got %d", len(events))
	}
}

func TestAuditLogHandler_CategoryInference(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewAuditLogHandler(discardHandler{}, db))

	testCases := []struct {
		message          string
		expectedCategory string
	}{
		{"login attempt blocked", model.EventCategoryAuth},
		{"account locked due to failed attempts", model.EventCategoryAuth},
		{"shop photo upload failed", model.EventCategoryDirectory},
		{"review rejected by moderator", model.EventCategoryModeration},
		{"user deactivated", model.EventCategoryUser},
		{"config validation failed", model.EventCategoryConfig},
		{"unknown failure occurred", model.EventCategorySystem},
	}

	for _, tc := range testCases {
		_, _ = db.Exec("DELETE FROM audit_events")

		logger.Error(tc.message)
		time.Sleep(50 * time.Millisecond)

		events := listAll(t, db)
		if len(events) != 1 {
			t.Errorf("message %q: expected 1 event, got %d", tc.message, len(events))
			continue
		}
		if events[0].Category != tc.expectedCategory {
			t.Errorf("message %q: Category = %q, want %q", tc.message, events[0].Category, tc.expectedCategory)
		}
	}
}

func TestAuditLogHandler_ExplicitCategory(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewAuditLogHandler(discardHandler{}, db))
	logger.Error("something happened", "category", model.EventCategoryUser)

	time.Sleep(50 * time.Millisecond)

	events := listAll(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Category != model.EventCategoryUser {
		t.Errorf("Category = %q, want %q (explicit category should win)", events[0].Category, model.EventCategoryUser)
	}
}

func TestAuditLogHandler_MetadataExtraction(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewAuditLogHandler(discardHandler{}, db))
	logger.Error("request failed",
		"status_code", 500,
		"path", "/shops/oyster-stores",
		"duration_ms", 1234,
	)

	time.Sleep(50 * time.Millisecond)

	events := listAll(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	metadata := events[0].Metadata
	if metadata == "{}" {
		t.Error("Metadata should not be empty")
	}
	for _, key := range []string{"status_code", "path", "duration_ms"} {
		if !strings.Contains(metadata, key) {
			t.Errorf("Metadata should contain %q: %s", key, metadata)
		}
	}
}

func TestAuditLogHandler_MultipleEvents(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewAuditLogHandler(discardHandler{}, db))

	logger.Error("error 1")
	logger.Warn("warning 1")
	logger.Error("error 2")
	logger.Warn("warning 2")
	logger.Info("info 1") // Should not be captured

	time.Sleep(100 * time.Millisecond)

	q := store.New(db)
	count, err := q.CountAuditEvents(context.Background(), "", "")
	if err != nil {
		t.Fatalf("CountAuditEvents: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4 events (2 errors + 2 warnings), got %d", count)
	}
}

func TestEscapeJSON(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{`hello`, `hello`},
		{`hello "world"`, `hello \"world\"`},
		{`path\to\file`, `path\\to\\file`},
		{"line1\nline2", `line1\nline2`},
		{"col1\tcol2", `col1\tcol2`},
		{"return\rhere", `return\rhere`},
	}

	for _, tc := range testCases {
		if result := escapeJSON(tc.input); result != tc.expected {
			t.Errorf("escapeJSON(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}

func TestSlogLevelToAuditLevel(t *testing.T) {
	h := &AuditLogHandler{}

	testCases := []struct {
		level    slog.Level
		expected string
	}{
		{slog.LevelDebug, model.EventLevelInfo},
		{slog.LevelInfo, model.EventLevelInfo},
		{slog.LevelWarn, model.EventLevelWarning},
		{slog.LevelError, model.EventLevelError},
		{slog.LevelError + 4, model.EventLevelError},
	}

	for _, tc := range testCases {
		if result := h.slogLevelToAuditLevel(tc.level); result != tc.expected {
			t.Errorf("slogLevelToAuditLevel(%v) = %q, want %q", tc.level, result, tc.expected)
		}
	}
}
