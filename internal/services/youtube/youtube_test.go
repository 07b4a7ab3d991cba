package youtube

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"
)

func TestBuildVideoAppliesLimits(t *testing.T) {
	v := BuildVideo(Video{
		Title:       strings.Repeat("Вера <и> дела ", 20),
		Description: strings.Repeat("ж", 4000),
		Tags:        []string{"faith", "Faith", " ", "works"},
		Language:    "ru",
	})
	if n := utf8.RuneCountInString(v.Snippet.Title); n > maxTitleRunes {
		t.Fatalf("title has %d runes", n)
	}
	if strings.ContainsAny(v.Snippet.Title, "<>") {
		t.Fatalf("title kept angle brackets: %q", v.Snippet.Title)
	}
	if len(v.Snippet.Description) > maxDescriptionBytes || !utf8.ValidString(v.Snippet.Description) {
		t.Fatalf("description not truncated cleanly: %d bytes", len(v.Snippet.Description))
	}
	if got := strings.Join(v.Snippet.Tags, ","); got != "faith,works" {
		t.Fatalf("tags = %q", got)
	}
	if v.Status.PrivacyStatus != "private" || v.Snippet.CategoryId != "22" {
		t.Fatalf("defaults not applied: %+v %+v", v.Status, v.Snippet)
	}
	if v.Snippet.DefaultLanguage != "ru" {
		t.Fatalf("language = %q", v.Snippet.DefaultLanguage)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if _, err := LoadToken(path); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	want := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour).UTC()}
	if err := SaveToken(path, want); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("token mode = %v", info.Mode().Perm())
	}
	got, err := LoadToken(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != "at" || got.RefreshToken != "rt" {
		t.Fatalf("unexpected token %+v", got)
	}
}

func TestLoadOAuthConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_secret.json")
	secrets := `{"installed":{"client_id":"cid","client_secret":"sec","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	if err := os.WriteFile(path, []byte(secrets), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadOAuthConfig(path)
	if err != nil {
		t.Fatalf("LoadOAuthConfig: %v", err)
	}
	if cfg.ClientID != "cid" || len(cfg.Scopes) != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := LoadOAuthConfig(""); err == nil {
		t.Fatal("expected error without secrets path")
	}
}

func TestAuthorizeExchangesLoopbackCode(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "abc" {
			http.Error(w, "bad code", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	cfg := &oauth2.Config{
		ClientID: "cid",
		Endpoint: oauth2.Endpoint{AuthURL: tokenSrv.URL + "/auth", TokenURL: tokenSrv.URL + "/token"},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tok, err := Authorize(ctx, cfg, func(authURL string) {
		u, err := url.Parse(authURL)
		if err != nil {
			t.Errorf("parse auth url: %v", err)
			return
		}
		q := u.Query()
		callback := q.Get("redirect_uri") + "?code=abc&state=" + url.QueryEscape(q.Get("state"))
		go func() {
			resp, err := http.Get(callback)
			if err == nil {
				resp.Body.Close()
			}
		}()
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if tok.AccessToken != "at" || tok.RefreshToken != "rt" {
		t.Fatalf("unexpected token %+v", tok)
	}
}

func TestUploadSendsMetadataAndMedia(t *testing.T) {
	var gotPath, gotParts, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotParts = r.URL.Query().Get("part")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"vid123"}`)
	}))
	defer srv.Close()

	videoPath := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(videoPath, []byte("fake-video-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	client, err := NewClient(context.Background(), Config{Endpoint: srv.URL, HTTPClient: srv.Client()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	id, err := client.Upload(context.Background(), Video{Path: videoPath, Title: "Faith and Works", Tags: []string{"faith"}})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "vid123" {
		t.Fatalf("id = %q", id)
	}
	if !strings.HasSuffix(gotPath, "/upload/youtube/v3/videos") {
		t.Fatalf("path = %q", gotPath)
	}
	if !strings.Contains(gotParts, "snippet") || !strings.Contains(gotParts, "status") {
		t.Fatalf("part = %q", gotParts)
	}
	if !strings.Contains(gotBody, "Faith and Works") || !strings.Contains(gotBody, "fake-video-bytes") {
		t.Fatalf("multipart body missing metadata or media: %q", gotBody)
	}
	if WatchURL(id) != "https://youtu.be/vid123" {
		t.Fatalf("WatchURL = %q", WatchURL(id))
	}
}

func TestUploadReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"quotaExceeded"}}`)
	}))
	defer srv.Close()

	videoPath := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(videoPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	client, err := NewClient(context.Background(), Config{Endpoint: srv.URL, HTTPClient: srv.Client()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Upload(context.Background(), Video{Path: videoPath, Title: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if StatusCode(err) != http.StatusForbidden {
		t.Fatalf("StatusCode = %d (%v)", StatusCode(err), err)
	}
}
