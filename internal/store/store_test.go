package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/neurosense/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "neurosense.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestInsertAndGetSession(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	rec := NewRecord(model.SourceAPI, 5, 800, model.TypingMetrics{
		Speed:       75,
		Consistency: 100,
		Pattern:     []string{"long-pause", "repeated-key"},
	}, time.Unix(1700000000, 0))
	if err := st.InsertSession(ctx, rec); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	got, err := st.GetSession(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Speed != 75 || got.Consistency != 100 || got.EventCount != 5 || got.DurationMs != 800 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if len(got.Pattern) != 2 || got.Pattern[0] != "long-pause" || got.Pattern[1] != "repeated-key" {
		t.Fatalf("unexpected pattern: %v", got.Pattern)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", rec.CreatedAt, got.CreatedAt)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	st := openTestStore(t)
	_, err := st.GetSession(context.Background(), "missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSessionsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sources := []string{model.SourceAPI, model.SourceCapture, model.SourceAPI, model.SourceCLI}
	var ids []string
	for i, src := range sources {
		rec := NewRecord(src, 10, 1000, model.TypingMetrics{Speed: float64(40 + i), Pattern: []string{}}, base.Add(time.Duration(i)*24*time.Hour))
		if err := st.InsertSession(ctx, rec); err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	all, err := st.ListSessions(ctx, model.HistoryQuery{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != 4 || all[0].ID != ids[0] || all[3].ID != ids[3] {
		t.Fatalf("unexpected order: %+v", all)
	}
	if all[0].Pattern == nil {
		t.Fatalf("expected non-nil pattern slice")
	}

	api, err := st.ListSessions(ctx, model.HistoryQuery{Source: model.SourceAPI})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(api) != 2 {
		t.Fatalf("expected 2 api sessions, got %d", len(api))
	}

	since := base.Add(36 * time.Hour)
	recent, err := st.ListSessions(ctx, model.HistoryQuery{Since: &since})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != ids[2] {
		t.Fatalf("unexpected since result: %+v", recent)
	}

	last, err := st.ListSessions(ctx, model.HistoryQuery{Last: 1})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(last) != 1 || last[0].ID != ids[3] {
		t.Fatalf("unexpected last result: %+v", last)
	}
}

func TestInsertSessionRequiresID(t *testing.T) {
	st := openTestStore(t)
	if err := st.InsertSession(context.Background(), model.SessionRecord{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestListSessionsLargeHistory(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	const total = 33000
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for i := 0; i < total; i++ {
		id := fmt.Sprintf("session-%05d", i)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, created_at, source, event_count, duration_ms, speed, consistency)
			 VALUES (?, ?, ?, 10, 1000, ?, 90)`,
			id, base.Add(time.Duration(i)*time.Second).Format(timeLayout), model.SourceAPI, float64(i%100),
		); err != nil {
			t.Fatalf("insert session %d: %v", i, err)
		}
		if i%2 == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_patterns (session_id, position, label) VALUES (?, 0, 'long-pause'), (?, 1, 'burst-typing')`,
				id, id,
			); err != nil {
				t.Fatalf("insert patterns %d: %v", i, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	all, err := st.ListSessions(ctx, model.HistoryQuery{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != total {
		t.Fatalf("expected %d sessions, got %d", total, len(all))
	}
	if all[0].ID != "session-00000" || all[total-1].ID != fmt.Sprintf("session-%05d", total-1) {
		t.Fatalf("unexpected order: first %s last %s", all[0].ID, all[total-1].ID)
	}
	if len(all[0].Pattern) != 2 || all[0].Pattern[0] != "long-pause" || all[0].Pattern[1] != "burst-typing" {
		t.Fatalf("unexpected pattern for first session: %v", all[0].Pattern)
	}
	if all[1].Pattern == nil || len(all[1].Pattern) != 0 {
		t.Fatalf("expected empty pattern for second session, got %v", all[1].Pattern)
	}

	last, err := st.ListSessions(ctx, model.HistoryQuery{Last: 3})
	if err != nil {
		t.Fatalf("list last sessions: %v", err)
	}
	if len(last) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(last))
	}
	for i, rec := range last {
		want := fmt.Sprintf("session-%05d", total-3+i)
		if rec.ID != want {
			t.Fatalf("last[%d]: expected %s, got %s", i, want, rec.ID)
		}
	}
	if len(last[1].Pattern) != 2 || len(last[0].Pattern) != 0 {
		t.Fatalf("unexpected patterns on last sessions: %v %v", last[0].Pattern, last[1].Pattern)
	}
}
