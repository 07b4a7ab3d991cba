package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"podcaster/internal/podcast"
	"podcaster/internal/queue"
	"podcaster/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	for _, name := range secretEnv {
		t.Setenv(name, "")
	}
	base := t.TempDir()
	t.Setenv("HOME", base)
	target := filepath.Join(base, "conf", "config.toml")

	out, _, err := runCLI(t, nil, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, _, err := runCLI(t, nil, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
	if _, _, err := runCLI(t, nil, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, nil, "", "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, target)
}

func TestConfigShowMasksSecrets(t *testing.T) {
	env := setupCLIEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-verysecretvalue")

	out, _, err := runCLI(t, env, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "verysecretvalue") {
		t.Fatalf("secret leaked in output:\n%s", out)
	}
	requireContains(t, out, "sk-v****")
	requireContains(t, out, "[pipeline]")
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"short":           "****",
		"  abcdefghijk  ": "abcd****",
	}
	for input, want := range tests {
		if got := maskSecret(input); got != want {
			t.Fatalf("maskSecret(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestAddAndQueueCommands(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, env, "", "add", testsupport.Thought)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Queued thought #1")

	out, _, err = runCLI(t, env, testsupport.Thought, "add")
	if err != nil {
		t.Fatalf("add duplicate: %v", err)
	}
	requireContains(t, out, "already queued as #1 (pending)")

	if _, _, err := runCLI(t, env, "", "add", "too short"); err == nil {
		t.Fatal("expected short thought to be rejected")
	}

	thoughtFile := filepath.Join(testsupport.BaseDir(env.cfg), "thought.txt")
	if err := os.WriteFile(thoughtFile, []byte(testsupport.RussianThought), 0o644); err != nil {
		t.Fatalf("write thought: %v", err)
	}
	out, _, err = runCLI(t, env, "", "add", "-f", thoughtFile)
	if err != nil {
		t.Fatalf("add -f: %v", err)
	}
	requireContains(t, out, "Queued thought #2")

	out, _, err = runCLI(t, env, "", "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "file")

	out, _, err = runCLI(t, env, "", "queue", "show", "2")
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "thought.txt")
	requireContains(t, out, "Иерихон")

	if _, _, err := runCLI(t, env, "", "queue", "show", "42"); err == nil {
		t.Fatal("expected missing item error")
	}
	if _, _, err := runCLI(t, env, "", "queue", "list", "-s", "bogus"); err == nil {
		t.Fatal("expected unknown status error")
	}

	out, _, err = runCLI(t, env, "", "queue", "remove", "2")
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Removed item 2")
	if _, _, err := runCLI(t, env, "", "queue", "remove", "2"); err == nil {
		t.Fatal("expected remove of missing item to fail")
	}

	out, _, err = runCLI(t, env, "", "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 queue items")

	out, _, err = runCLI(t, env, "", "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueRetryFailed(t *testing.T) {
	env := setupCLIEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	item := testsupport.NewItem(t, store, testsupport.Thought)
	item.SetFailed("llm unavailable")
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("update: %v", err)
	}

	out, _, err := runCLI(t, env, "", "queue", "list", "--status", "failed")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "failed")

	out, _, err = runCLI(t, env, "", "queue", "retry", strconv.FormatInt(item.ID, 10))
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Retried 1 failed items")

	stored, err := store.GetByID(context.Background(), item.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %s", stored.Status)
	}
}

func TestAnalyzeCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":` + strconv.Quote(testsupport.AnalysisJSON) + `}}]}`))
	}))
	defer srv.Close()

	env := setupCLIEnv(t, testsupport.WithLLM(srv.URL, "test-key"))
	t.Setenv("OPENAI_API_KEY", "test-key")

	out, _, err := runCLI(t, env, "", "analyze", testsupport.Thought)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "Topic: Walls of Jericho")
	requireContains(t, out, "Joshua 6:1-20")
	requireContains(t, out, "Output folder:")

	store := testsupport.MustOpenStore(t, env.cfg)
	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Status != queue.StatusAnalyzed {
		t.Fatalf("expected one analyzed item, got %+v", items)
	}
	if _, err := podcast.LoadAnalysis(items[0].FolderPath); err != nil {
		t.Fatalf("expected analysis in folder: %v", err)
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLIEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.NewItem(t, store, testsupport.Thought)

	out, _, err := runCLI(t, env, "", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")
	requireContains(t, out, "API key missing")
	requireContains(t, out, "pending")
}

func TestTestNotifyRequiresTopic(t *testing.T) {
	env := setupCLIEnv(t)
	_, _, err := runCLI(t, env, "", "test-notify")
	if err == nil || !strings.Contains(err.Error(), "ntfy topic not configured") {
		t.Fatalf("expected missing topic error, got %v", err)
	}
}

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("Daemon", statusOK, "Running", false)
	if !strings.Contains(plain, "Daemon:") || !strings.Contains(plain, "[OK] Running") {
		t.Fatalf("unexpected line %q", plain)
	}
	colored := renderStatusLine("Daemon", statusError, "down", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected colored line, got %q", colored)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", " 7 "})
	if err != nil || len(ids) != 2 || ids[1] != 7 {
		t.Fatalf("unexpected ids %v err %v", ids, err)
	}
	for _, bad := range []string{"0", "-3", "abc"} {
		if _, err := parseIDs([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestLogsCommandShowsItemLog(t *testing.T) {
	env := setupCLIEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	item := testsupport.SeedAnalyzedItem(t, store, env.cfg.Paths.OutputDir)
	logPath := filepath.Join(item.FolderPath, podcast.LogFile)
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, env, "", "logs", "--id", strconv.FormatInt(item.ID, 10), "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "first") || !strings.Contains(out, "second\nthird") {
		t.Fatalf("unexpected log output:\n%s", out)
	}

	if _, _, err := runCLI(t, env, "", "logs", "--id", "999"); err == nil {
		t.Fatal("expected missing item error")
	}
}

func TestCleanupOrphans(t *testing.T) {
	env := setupCLIEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	item := testsupport.SeedAnalyzedItem(t, store, env.cfg.Paths.OutputDir)
	orphan := filepath.Join(env.cfg.Paths.OutputDir, "20200101_0000_Removed")
	if err := os.MkdirAll(orphan, 0o755); err != nil {
		t.Fatalf("mkdir orphan: %v", err)
	}

	out, _, err := runCLI(t, env, "", "cleanup", "--orphans", "--dry-run")
	if err != nil {
		t.Fatalf("cleanup dry run: %v", err)
	}
	requireContains(t, out, "Would remove "+orphan)
	if _, err := os.Stat(orphan); err != nil {
		t.Fatalf("dry run removed folder: %v", err)
	}

	out, _, err = runCLI(t, env, "", "cleanup", "--orphans")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	requireContains(t, out, "Removed "+orphan)
	if _, err := os.Stat(item.FolderPath); err != nil {
		t.Fatalf("active folder removed: %v", err)
	}
}

func TestRunRefusesWhileDaemonHoldsLock(t *testing.T) {
	env := setupCLIEnv(t)
	holdLock(t, env.cfg)

	_, _, err := runCLI(t, env, "", "run", testsupport.Thought)
	if err == nil || !strings.Contains(err.Error(), "daemon is running") {
		t.Fatalf("expected daemon lock refusal, got %v", err)
	}
	store := testsupport.MustOpenStore(t, env.cfg)
	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected nothing queued, got %d items", len(items))
	}
}

func TestQueueResetStuckRefusesWhileDaemonHoldsLock(t *testing.T) {
	env := setupCLIEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	item := testsupport.SeedAnalyzedItem(t, store, env.cfg.Paths.OutputDir)
	item.Status = queue.StatusNarrating
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}
	holdLock(t, env.cfg)

	if _, _, err := runCLI(t, env, "", "queue", "reset-stuck"); err == nil || !strings.Contains(err.Error(), "daemon is running") {
		t.Fatalf("expected refusal, got %v", err)
	}
	got, _ := store.GetByID(context.Background(), item.ID)
	if got.Status != queue.StatusNarrating {
		t.Fatalf("item changed while daemon held the lock: %s", got.Status)
	}
}

func TestQueueResetStuckFollowsEnabledStages(t *testing.T) {
	env := setupCLIEnv(t, testsupport.WithStages(false, true, true))
	store := testsupport.MustOpenStore(t, env.cfg)
	item := testsupport.SeedAnalyzedItem(t, store, env.cfg.Paths.OutputDir)
	item.Status = queue.StatusIllustrating
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, _, err := runCLI(t, env, "", "queue", "reset-stuck")
	if err != nil {
		t.Fatalf("reset-stuck: %v", err)
	}
	requireContains(t, out, "Reset 1 items")
	got, _ := store.GetByID(context.Background(), item.ID)
	if got.Status != queue.StatusAnalyzed {
		t.Fatalf("expected analyzed with narration disabled, got %s", got.Status)
	}
}
