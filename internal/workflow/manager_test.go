package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/notifications"
	"podcaster/internal/podcast"
	"podcaster/internal/queue"
	"podcaster/internal/services"
	"podcaster/internal/stage"
	"podcaster/internal/testsupport"
	"podcaster/internal/workflow"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type stubStage struct {
	name    string
	rec     *recorder
	execErr error
	execute func(*queue.Item)
}

func (s *stubStage) Prepare(context.Context, *queue.Item) error { return nil }

func (s *stubStage) Execute(_ context.Context, item *queue.Item) error {
	s.rec.add(s.name)
	if s.execErr != nil {
		return s.execErr
	}
	if s.execute != nil {
		s.execute(item)
	}
	return nil
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *recordingNotifier) has(event notifications.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func noSleep(context.Context, time.Duration) error { return nil }

func newManager(t *testing.T, tweaks ...func(*config.Config)) (*workflow.Manager, *queue.Store, *recordingNotifier) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	for _, tweak := range tweaks {
		tweak(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, nil, notifier, workflow.WithRetryBackoff(time.Millisecond, noSleep))
	return mgr, store, notifier
}

func TestConfigureStagesSkipsDisabledStages(t *testing.T) {
	mgr, store, notifier := newManager(t)
	rec := &recorder{}
	mgr.ConfigureStages(workflow.StageSet{
		Analysis: &stubStage{name: "analysis", rec: rec},
		Render:   &stubStage{name: "render", rec: rec},
		Announce: &stubStage{name: "announce", rec: rec},
	})

	if got := strings.Join(mgr.StageNames(), ","); got != "analysis,render,announce" {
		t.Fatalf("unexpected stage chain %q", got)
	}

	item := testsupport.NewItem(t, store, testsupport.Thought)
	if err := mgr.RunOnce(context.Background(), item); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if got := strings.Join(rec.snapshot(), ","); got != "analysis,render,announce" {
		t.Fatalf("unexpected execution order %q", got)
	}

	stored, err := store.GetByID(context.Background(), item.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	if !notifier.has(notifications.EventPipelineCompleted) {
		t.Fatal("expected pipeline completion notification")
	}
}

func TestLastStageCompletesItem(t *testing.T) {
	mgr, store, _ := newManager(t)
	rec := &recorder{}
	mgr.ConfigureStages(workflow.StageSet{
		Analysis:  &stubStage{name: "analysis", rec: rec},
		Narration: &stubStage{name: "narration", rec: rec},
	})

	item := testsupport.NewItem(t, store, testsupport.Thought)
	if err := mgr.RunOnce(context.Background(), item); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if item.Status != queue.StatusCompleted {
		t.Fatalf("expected narration to complete the item, got %s", item.Status)
	}
}

func TestRunOnceResumesFromItemStatus(t *testing.T) {
	mgr, store, _ := newManager(t)
	cfg := testsupport.NewConfig(t)
	rec := &recorder{}
	mgr.ConfigureStages(workflow.StageSet{
		Analysis:  &stubStage{name: "analysis", rec: rec},
		Narration: &stubStage{name: "narration", rec: rec},
		Artwork:   &stubStage{name: "artwork", rec: rec},
	})

	item := testsupport.SeedAnalyzedItem(t, store, cfg.Paths.OutputDir)
	if err := mgr.RunOnce(context.Background(), item); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if got := strings.Join(rec.snapshot(), ","); got != "narration,artwork" {
		t.Fatalf("expected analysis to be skipped, got %q", got)
	}

	logData, err := os.ReadFile(filepath.Join(item.FolderPath, podcast.LogFile))
	if err != nil {
		t.Fatalf("read podcast log: %v", err)
	}
	if !strings.Contains(string(logData), "narration") || !strings.Contains(string(logData), "artwork") {
		t.Fatalf("expected stage entries in podcast log, got %s", logData)
	}
}

func TestStageFailureStopsChain(t *testing.T) {
	mgr, store, notifier := newManager(t)
	rec := &recorder{}
	mgr.ConfigureStages(workflow.StageSet{
		Analysis: &stubStage{
			name:    "analysis",
			rec:     rec,
			execErr: services.Wrap(services.ErrValidation, "analysis", "validate", "Thought is too short", nil),
		},
		Narration: &stubStage{name: "narration", rec: rec},
	})

	item := testsupport.NewItem(t, store, testsupport.Thought)
	err := mgr.RunOnce(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := strings.Join(rec.snapshot(), ","); got != "analysis" {
		t.Fatalf("expected chain to stop after analysis, got %q", got)
	}

	stored, err := store.GetByID(context.Background(), item.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", stored.Status)
	}
	if !strings.Contains(stored.ErrorMessage, "too short") {
		t.Fatalf("unexpected error message %q", stored.ErrorMessage)
	}
	if !notifier.has(notifications.EventStageFailed) {
		t.Fatal("expected stage failure notification")
	}
	if notifier.has(notifications.EventPipelineCompleted) {
		t.Fatal("unexpected completion notification")
	}

	if err := mgr.RunOnce(context.Background(), stored); err == nil || !strings.Contains(err.Error(), "retry") {
		t.Fatalf("expected failed item to be rejected, got %v", err)
	}
}

func TestRunOnceRequiresStages(t *testing.T) {
	mgr, store, _ := newManager(t)
	item := testsupport.NewItem(t, store, testsupport.Thought)
	if err := mgr.RunOnce(context.Background(), item); err == nil {
		t.Fatal("expected error without configured stages")
	}
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail without configured stages")
	}
}

func TestStartProcessesPendingItems(t *testing.T) {
	mgr, store, _ := newManager(t)
	rec := &recorder{}
	mgr.ConfigureStages(workflow.StageSet{
		Analysis: &stubStage{name: "analysis", rec: rec},
		Render:   &stubStage{name: "render", rec: rec},
	})

	first := testsupport.NewItem(t, store, testsupport.Thought)
	second := testsupport.NewItem(t, store, testsupport.RussianThought)

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail while running")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		done := 0
		for _, id := range []int64{first.ID, second.ID} {
			stored, err := store.GetByID(context.Background(), id)
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if stored != nil && stored.Status == queue.StatusCompleted {
				done++
			}
		}
		if done == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("items not completed in time; calls=%v", rec.snapshot())
		}
		time.Sleep(20 * time.Millisecond)
	}

	status := mgr.Status(context.Background())
	if !status.Running {
		t.Fatal("expected running status")
	}
	if status.QueueStats[queue.StatusCompleted] != 2 {
		t.Fatalf("unexpected queue stats %v", status.QueueStats)
	}
	if health := status.StageHealth["render"]; !health.Ready {
		t.Fatalf("expected render health ready, got %+v", health)
	}

	mgr.Stop()
	if mgr.Status(context.Background()).Running {
		t.Fatal("expected manager stopped")
	}
}

// withoutNarration configures analysis, artwork and render only.
func withoutNarration(rec *recorder) workflow.StageSet {
	return workflow.StageSet{
		Analysis: &stubStage{name: "analysis", rec: rec},
		Artwork:  &stubStage{name: "artwork", rec: rec},
		Render:   &stubStage{name: "render", rec: rec},
	}
}

func TestRollbackFollowsConfiguredChain(t *testing.T) {
	mgr, _, _ := newManager(t)
	mgr.ConfigureStages(withoutNarration(&recorder{}))

	rb := mgr.Rollback()
	want := map[queue.Status]queue.Status{
		queue.StatusAnalyzing:    queue.StatusPending,
		queue.StatusNarrating:    queue.StatusAnalyzed,
		queue.StatusIllustrating: queue.StatusAnalyzed,
		queue.StatusRendering:    queue.StatusIllustrated,
		queue.StatusUploading:    queue.StatusCompleted,
		queue.StatusAnnouncing:   queue.StatusCompleted,
	}
	for from, to := range want {
		if got := rb.Target(from); got != to {
			t.Errorf("%s rolls back to %s, want %s", from, got, to)
		}
	}
}

func TestRollbackForConfigMatchesManager(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStages(false, true, true))
	rb := workflow.RollbackForConfig(cfg)
	if got := rb.Target(queue.StatusIllustrating); got != queue.StatusAnalyzed {
		t.Fatalf("illustrating rolls back to %s, want analyzed", got)
	}

	cfg.Pipeline = config.Pipeline{}
	if rb := workflow.RollbackForConfig(cfg); rb != nil {
		t.Fatalf("expected nil rollback with every stage disabled, got %v", rb)
	}
}

func TestResetItemResumesWithDisabledMiddleStage(t *testing.T) {
	mgr, store, _ := newManager(t)
	rec := &recorder{}
	mgr.ConfigureStages(withoutNarration(rec))
	ctx := context.Background()

	item := testsupport.NewItem(t, store, testsupport.Thought)
	item.Status = queue.StatusIllustrating
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := store.ResetStuckProcessing(ctx, mgr.Rollback()); err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}

	stored, _ := store.GetByID(ctx, item.ID)
	if stored.Status != queue.StatusAnalyzed {
		t.Fatalf("expected analyzed after reset, got %s", stored.Status)
	}
	if err := mgr.RunOnce(ctx, stored); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if got := strings.Join(rec.snapshot(), ","); got != "artwork,render" {
		t.Fatalf("unexpected execution order %q", got)
	}
	if stored.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
}

func TestWorkerReclaimsExpiredHeartbeat(t *testing.T) {
	mgr, store, _ := newManager(t, func(cfg *config.Config) {
		cfg.Workflow.HeartbeatInterval = 1
		cfg.Workflow.HeartbeatTimeout = 1
	})
	rec := &recorder{}
	mgr.ConfigureStages(withoutNarration(rec))
	ctx := context.Background()

	// Parked as failed so no worker claims it before it is marked abandoned.
	item := testsupport.NewItem(t, store, testsupport.Thought)
	item.SetFailed("parked")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	// Abandoned by a crashed worker after Start's own reset already ran.
	stale := time.Now().Add(-time.Hour)
	item.ErrorMessage = ""
	item.Status = queue.StatusIllustrating
	item.LastHeartbeat = &stale
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		stored, err := store.GetByID(ctx, item.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if stored.Status == queue.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("stale item not reclaimed; status=%s calls=%v", stored.Status, rec.snapshot())
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := strings.Join(rec.snapshot(), ","); got != "artwork,render" {
		t.Fatalf("unexpected execution order %q", got)
	}
}
