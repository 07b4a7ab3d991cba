// Package youtube uploads rendered podcasts through the YouTube Data API
// using an installed-app OAuth2 token stored on disk.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	yt "google.golang.org/api/youtube/v3"

	"podcaster/internal/fileutil"
)

// ErrNoToken reports that no stored token exists yet; run the auth command.
var ErrNoToken = errors.New("youtube: no stored token; run `podcaster youtube auth`")

// LoadOAuthConfig reads a client secrets JSON downloaded from the Google
// Cloud console.
func LoadOAuthConfig(secretsPath string) (*oauth2.Config, error) {
	secretsPath = strings.TrimSpace(secretsPath)
	if secretsPath == "" {
		return nil, errors.New("youtube: client_secrets not configured")
	}
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("youtube: read client secrets: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, yt.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("youtube: parse client secrets: %w", err)
	}
	return cfg, nil
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("youtube: read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("youtube: decode token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return &tok, nil
}

// SaveToken writes tok readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("youtube: nil token")
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("youtube: encode token: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o600)
}

// persistingSource writes refreshed tokens back to disk.
type persistingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveToken(s.path, tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// TokenSource returns a source that refreshes the stored token and persists
// each new access token at path.
func TokenSource(ctx context.Context, cfg *oauth2.Config, path string) (oauth2.TokenSource, error) {
	tok, err := LoadToken(path)
	if err != nil {
		return nil, err
	}
	return oauth2.ReuseTokenSource(tok, &persistingSource{
		base: cfg.TokenSource(ctx, tok),
		path: path,
		last: tok.AccessToken,
	}), nil
}

// Authorize runs the loopback installed-app flow: it listens on a local port,
// hands the consent URL to prompt and exchanges the returned code.
func Authorize(ctx context.Context, cfg *oauth2.Config, prompt func(authURL string)) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("youtube: listen for oauth callback: %w", err)
	}
	defer listener.Close()

	flow := *cfg
	flow.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr().String())
	state := uuid.NewString()

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res result
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("youtube: authorization denied: %s", q.Get("error"))
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		default:
			res.code = q.Get("code")
		}
		if res.err != nil {
			http.Error(w, "Authorization failed; you can close this window.", http.StatusForbidden)
		} else {
			_, _ = fmt.Fprintln(w, "Authorization complete; you can close this window.")
		}
		select {
		case results <- res:
		default:
		}
	})}
	go func() { _ = srv.Serve(listener) }()
	defer srv.Close()

	if prompt != nil {
		prompt(flow.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := flow.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("youtube: exchange code: %w", err)
		}
		return tok, nil
	}
}
