package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"ruleworks/arbiter/pkg/engine"
	"ruleworks/arbiter/pkg/rules"
)

func testRecord(id string, startedAt time.Time) *Record {
	return &Record{
		ID:           id,
		SessionID:    "session-" + id,
		RuleSet:      "discounts",
		Strategy:     string(rules.AllMatches),
		FactCount:    2,
		ResultCount:  1,
		MatchedRules: []string{"vip"},
		RuleErrors:   []string{},
		Duration:     150 * time.Microsecond,
		StartedAt:    startedAt,
	}
}

func TestMemoryStorage_RoundTrip(t *testing.T) {
	storage := NewMemoryStorage()
	defer storage.Close()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		record := testRecord(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Second))
		if err := storage.Write(ctx, record); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}

	recent, err := storage.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(Recent()) = %d, want 2", len(recent))
	}
	if recent[0].ID != "r2" || recent[1].ID != "r1" {
		t.Errorf("Recent() order = [%s, %s], want newest first [r2, r1]", recent[0].ID, recent[1].ID)
	}
}

func TestMemoryStorage_DeleteBefore(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		record := testRecord(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Hour))
		if err := storage.Write(ctx, record); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}

	deleted, err := storage.DeleteBefore(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("DeleteBefore() = %d, want 2", deleted)
	}
	if storage.Len() != 3 {
		t.Errorf("Len() = %d, want 3", storage.Len())
	}
}

func TestSQLiteStorage_RoundTrip(t *testing.T) {
	storage, err := NewSQLiteStorage(&SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "audit.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	defer storage.Close()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	want := testRecord("abc-123", base)
	if err := storage.Write(ctx, want); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	recent, err := storage.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("len(Recent()) = %d, want 1", len(recent))
	}

	got := recent[0]
	if got.ID != want.ID {
		t.Errorf("ID = %q, want %q", got.ID, want.ID)
	}
	if got.RuleSet != want.RuleSet || got.Strategy != want.Strategy {
		t.Errorf("RuleSet/Strategy = %q/%q, want %q/%q", got.RuleSet, got.Strategy, want.RuleSet, want.Strategy)
	}
	if got.FactCount != 2 || got.ResultCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", got.FactCount, got.ResultCount)
	}
	if len(got.MatchedRules) != 1 || got.MatchedRules[0] != "vip" {
		t.Errorf("MatchedRules = %v, want [vip]", got.MatchedRules)
	}
	if got.Duration != want.Duration {
		t.Errorf("Duration = %v, want %v", got.Duration, want.Duration)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, want.StartedAt)
	}
}

func TestSQLiteStorage_DeleteBefore(t *testing.T) {
	storage, err := NewSQLiteStorage(&SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "audit.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	defer storage.Close()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 4; i++ {
		record := testRecord(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Hour))
		if err := storage.Write(ctx, record); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}

	deleted, err := storage.DeleteBefore(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("DeleteBefore() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("DeleteBefore() = %d, want 2", deleted)
	}
}

func TestRecorder_ObserveAndDrain(t *testing.T) {
	storage := NewMemoryStorage()
	recorder := NewRecorder(storage, nil, nil)

	exec := engine.Execution{
		SessionID:    "s1",
		RuleSet:      "discounts",
		Strategy:     rules.FirstMatch,
		FactCount:    3,
		ResultCount:  2,
		MatchedRules: []string{"vip", "bulk"},
		Duration:     time.Millisecond,
		StartedAt:    time.Now(),
	}
	recorder.ObserveExecution(context.Background(), exec)
	recorder.ObserveExecution(context.Background(), exec)

	// Close drains the queue before returning.
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if storage.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after drain", storage.Len())
	}

	recent, err := storage.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	record := recent[0]
	if record.ID == "" {
		t.Error("record ID is empty, want a generated UUID")
	}
	if record.RuleSet != "discounts" || record.Strategy != string(rules.FirstMatch) {
		t.Errorf("record = %+v, want discounts/FIRST_MATCH", record)
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	// blockingStorage holds the worker on the first write, so subsequent
	// records pile up in the 1-slot queue and overflow.
	release := make(chan struct{})
	storage := &blockingStorage{release: release}
	recorder := NewRecorder(storage, &RecorderConfig{BufferSize: 1}, nil)

	exec := engine.Execution{RuleSet: "x", StartedAt: time.Now()}
	for i := 0; i < 10; i++ {
		recorder.ObserveExecution(context.Background(), exec)
	}
	close(release)
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if recorder.Dropped() == 0 {
		t.Error("Dropped() = 0, want records dropped on a full queue")
	}
	if recorder.Dropped()+int64(storage.writes) != 10 {
		t.Errorf("dropped (%d) + written (%d) != 10", recorder.Dropped(), storage.writes)
	}
}

type blockingStorage struct {
	release chan struct{}
	writes  int
}

func (b *blockingStorage) Write(ctx context.Context, record *Record) error {
	<-b.release
	b.writes++
	return nil
}

func (b *blockingStorage) Recent(ctx context.Context, limit int) ([]*Record, error) {
	return nil, nil
}

func (b *blockingStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (b *blockingStorage) Close() error { return nil }

func TestPruner_Prune(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	old := testRecord("old", time.Now().Add(-48*time.Hour))
	fresh := testRecord("fresh", time.Now())
	if err := storage.Write(ctx, old); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := storage.Write(ctx, fresh); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	pruner := NewPruner(storage, 24*time.Hour, nil)
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() = %d, want 1", deleted)
	}
	if storage.Len() != 1 {
		t.Errorf("Len() = %d, want 1", storage.Len())
	}
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	pruner := NewPruner(NewMemoryStorage(), time.Hour, nil)
	if _, err := NewScheduler(pruner, &RetentionConfig{Schedule: "not a cron expr"}, nil); err == nil {
		t.Error("NewScheduler(bad schedule) succeeded, want error")
	}
}

func TestNewScheduler_StartStop(t *testing.T) {
	pruner := NewPruner(NewMemoryStorage(), time.Hour, nil)
	scheduler, err := NewScheduler(pruner, nil, nil)
	if err != nil {
		t.Fatalf("NewScheduler() failed: %v", err)
	}
	scheduler.Start()
	scheduler.Stop()
}
