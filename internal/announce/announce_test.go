package announce

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"podcaster/internal/podcast"
	"podcaster/internal/services"
	"podcaster/internal/testsupport"
)

type fakeTarget struct {
	name  string
	err   error
	mu    sync.Mutex
	posts []Post
}

func (f *fakeTarget) Name() string { return f.name }

func (f *fakeTarget) Publish(ctx context.Context, post Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, post)
	return f.err
}

func TestPostLayout(t *testing.T) {
	post := Post{Heading: "New episode", Title: "Walls of Faith", Summary: "  ", VideoURL: "https://youtu.be/x"}
	if got := post.TelegramText(); got != "New episode\nhttps://youtu.be/x\nWalls of Faith" {
		t.Fatalf("telegram text = %q", got)
	}
	if got := post.VKText(); got != "New episode\nWalls of Faith" {
		t.Fatalf("vk text = %q", got)
	}
	long := Post{Summary: strings.Repeat("я", 5000)}
	if n := len([]rune(long.TelegramText())); n != telegramMaxRunes {
		t.Fatalf("telegram text has %d runes", n)
	}
}

func TestTargetsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if got := TargetsFromConfig(cfg); len(got) != 0 {
		t.Fatalf("expected no targets, got %d", len(got))
	}
	cfg.Announce.TelegramToken = "tok"
	cfg.Announce.TelegramChannel = "@podcasts"
	cfg.Announce.VKToken = "vk"
	if got := TargetsFromConfig(cfg); len(got) != 1 || got[0].Name() != "telegram" {
		t.Fatalf("vk without group id must be skipped, got %v", got)
	}
	cfg.Announce.VKGroupID = 42
	if got := TargetsFromConfig(cfg); len(got) != 2 {
		t.Fatalf("expected two targets, got %d", len(got))
	}
}

func TestAnnouncerPostsToAllTargets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Announce.PostTitle = "Новый выпуск"
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.SeedAnalyzedItem(t, store, cfg.Paths.OutputDir)
	item.YouTubeURL = "https://youtu.be/abc"

	tg := &fakeTarget{name: "telegram"}
	vk := &fakeTarget{name: "vk"}
	a := NewAnnouncerWithTargets(cfg, store, nil, tg, vk)
	ctx := context.Background()
	if err := a.Prepare(ctx, item); err != nil {
		t.Fatal(err)
	}
	if err := a.Execute(ctx, item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !item.Announced {
		t.Fatal("item should be marked announced")
	}
	if len(tg.posts) != 1 || len(vk.posts) != 1 {
		t.Fatalf("posts: telegram=%d vk=%d", len(tg.posts), len(vk.posts))
	}
	post := tg.posts[0]
	if post.Heading != "Новый выпуск" || post.VideoURL != item.YouTubeURL || post.Summary == "" {
		t.Fatalf("unexpected post %+v", post)
	}
	d, err := podcast.ReadDescription(item.FolderPath)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Announced {
		t.Fatal("description should record the announcement")
	}
}

func TestAnnouncerRetrySkipsPostedTargets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.SeedAnalyzedItem(t, store, cfg.Paths.OutputDir)

	tg := &fakeTarget{name: "telegram"}
	vk := &fakeTarget{name: "vk", err: errors.New("vk down")}
	a := NewAnnouncerWithTargets(cfg, store, nil, tg, vk)

	err := a.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if item.Announced {
		t.Fatal("partial failure must not mark the item announced")
	}

	vk.err = nil
	if err := a.Execute(context.Background(), item); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(tg.posts) != 1 {
		t.Fatalf("telegram posted %d times, want 1", len(tg.posts))
	}
	if len(vk.posts) != 2 {
		t.Fatalf("vk attempted %d times, want 2", len(vk.posts))
	}
}

func TestAnnouncerWithoutTargets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	item := testsupport.SeedAnalyzedItem(t, testsupport.MustOpenStore(t, cfg), cfg.Paths.OutputDir)
	a := NewAnnouncerWithTargets(cfg, nil, nil)
	if err := a.Execute(context.Background(), item); err != nil {
		t.Fatal(err)
	}
	if item.Announced {
		t.Fatal("nothing was posted")
	}
	if a.HealthCheck(context.Background()).Ready {
		t.Fatal("health should report missing targets")
	}
}

func TestTelegramPublish(t *testing.T) {
	var mu sync.Mutex
	var sent url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"podcaster","username":"podcaster_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			mu.Lock()
			sent = r.PostForm
			mu.Unlock()
			_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-1001,"type":"channel"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tg := NewTelegram("123:abc", "@podcasts", srv.URL+"/bot%s/%s", srv.Client())
	err := tg.Publish(context.Background(), Post{Title: "Walls of Faith", VideoURL: "https://youtu.be/abc"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if sent.Get("chat_id") != "@podcasts" {
		t.Fatalf("chat_id = %q", sent.Get("chat_id"))
	}
	if !strings.Contains(sent.Get("text"), "https://youtu.be/abc") {
		t.Fatalf("text = %q", sent.Get("text"))
	}
}

func TestVKPublish(t *testing.T) {
	var mu sync.Mutex
	var form url.Values
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		path = r.URL.Path
		form = r.Form
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"response":{"post_id":42}}`)
	}))
	defer srv.Close()

	vk := NewVK("token", 1234, srv.URL+"/method/", srv.Client())
	if err := vk.Publish(context.Background(), Post{Title: "Walls of Faith", VideoURL: "https://youtu.be/abc"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if path != "/method/wall.post" {
		t.Fatalf("path = %q", path)
	}
	if form.Get("owner_id") != "-1234" || form.Get("attachments") != "https://youtu.be/abc" {
		t.Fatalf("unexpected form %v", form)
	}
}

func TestVKRequiresGroup(t *testing.T) {
	if err := NewVK("token", 0, "", nil).Publish(context.Background(), Post{}); err == nil {
		t.Fatal("expected error without group id")
	}
}
