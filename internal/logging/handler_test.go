package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func TestEventLogHandler_Handle_ErrorLevel(t *testing.T) {
	st := testutil.NewMemStore()
	logger := slog.New(NewEventLogHandler(discardHandler{}, st))

	logger.Error("database connection failed", "host", "localhost", "port", 5432)

	if len(st.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(st.Events))
	}
	e := st.Events[0]
	if e.Level != model.EventLevelError {
		t.Errorf("Level = %q, want %q", e.Level, model.EventLevelError)
	}
	if e.Category != model.EventCategorySystem {
		t.Errorf("Category = %q, want %q", e.Category, model.EventCategorySystem)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}

	var meta map[string]any
	if err := json.Unmarshal([]byte(e.Metadata), &meta); err != nil {
		t.Fatalf("Metadata %q is not JSON: %v", e.Metadata, err)
	}
	if meta["host"] != "localhost" || meta["port"] != float64(5432) {
		t.Errorf("Metadata = %v", meta)
	}
}

func TestEventLogHandler_BelowThresholdNotStored(t *testing.T) {
	st := testutil.NewMemStore()
	logger := slog.New(NewEventLogHandler(discardHandler{}, st))

	logger.Info("pipeline run finished", "post_id", 1)
	logger.Debug("post translation written")

	if len(st.Events) != 0 {
		t.Errorf("events = %d, want 0", len(st.Events))
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	st := testutil.NewMemStore()
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, st, slog.LevelInfo))

	logger.Info("pipeline run finished")
	if len(st.Events) != 1 || st.Events[0].Level != model.EventLevelInfo {
		t.Errorf("events = %+v, want one info event", st.Events)
	}
}

func TestEventLogHandler_CategoryAttr(t *testing.T) {
	st := testutil.NewMemStore()
	logger := slog.New(NewEventLogHandler(discardHandler{}, st))

	logger.Warn("locale translation failed", "category", model.EventCategoryTranslation, "locale", "ja")
	logger.With("category", model.EventCategoryEmbedding).Warn("something odd")

	if len(st.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(st.Events))
	}
	if got := st.Events[0].Category; got != model.EventCategoryTranslation {
		t.Errorf("Category = %q, want %q", got, model.EventCategoryTranslation)
	}
	if st.Events[0].Metadata != `{"locale":"ja"}` {
		t.Errorf("Metadata = %q, want category omitted", st.Events[0].Metadata)
	}
	if got := st.Events[1].Category; got != model.EventCategoryEmbedding {
		t.Errorf("preset Category = %q, want %q", got, model.EventCategoryEmbedding)
	}
}

func TestExtractCategory_Inferred(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"translation request failed", model.EventCategoryTranslation},
		{"embedding failed", model.EventCategoryEmbedding},
		{"cover image upload failed", model.EventCategoryImage},
		{"search query failed", model.EventCategorySearch},
		{"pipeline run aborted", model.EventCategoryPipeline},
		{"server shutting down", model.EventCategorySystem},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := extractCategory(tt.msg, nil); got != tt.want {
				t.Errorf("extractCategory(%q) = %q, want %q", tt.msg, got, tt.want)
			}
		})
	}
}

func TestExtractMetadata_Empty(t *testing.T) {
	if got := extractMetadata(nil); got != "{}" {
		t.Errorf("extractMetadata(nil) = %q, want {}", got)
	}
}

// stalledWriter blocks until the context it is given expires.
type stalledWriter struct {
	deadline time.Time
	hadDL    bool
}

func (w *stalledWriter) CreateEvent(ctx context.Context, _, _, _, _ string, _ time.Time) error {
	w.deadline, w.hadDL = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestEventLogHandler_StalledWriterBounded(t *testing.T) {
	w := &stalledWriter{}
	logger := slog.New(NewEventLogHandler(discardHandler{}, w))

	start := time.Now()
	logger.Error("store unavailable")

	if !w.hadDL {
		t.Fatal("CreateEvent called without a deadline")
	}
	if got := w.deadline.Sub(start); got > eventWriteTimeout+time.Second {
		t.Errorf("deadline %v after the call, want at most %v", got, eventWriteTimeout)
	}
	if elapsed := time.Since(start); elapsed > eventWriteTimeout+time.Second {
		t.Errorf("log call blocked for %v", elapsed)
	}
}
