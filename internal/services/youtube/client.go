package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"podcaster/internal/logging"
	"podcaster/internal/textutil"
)

const (
	maxTitleRunes        = 100
	maxDescriptionBytes  = 5000
	maxTagsTotalRunes    = 450
	uploadChunkSize      = 8 * 1024 * 1024
	defaultPrivacyStatus = "private"
	defaultCategoryID    = "22"
)

// Video is the metadata of one upload.
type Video struct {
	Path          string
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus string
	Language      string
}

// Config holds the client settings.
type Config struct {
	ClientSecrets string
	TokenPath     string
	// Endpoint overrides the API base URL.
	Endpoint string
	// HTTPClient replaces the OAuth2 client built from ClientSecrets and
	// TokenPath.
	HTTPClient *http.Client
}

// Client uploads videos.
type Client struct {
	svc    *yt.Service
	logger *slog.Logger
}

// NewClient builds an authorized client.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		oauthCfg, err := LoadOAuthConfig(cfg.ClientSecrets)
		if err != nil {
			return nil, err
		}
		src, err := TokenSource(ctx, oauthCfg, cfg.TokenPath)
		if err != nil {
			return nil, err
		}
		httpClient = oauth2.NewClient(ctx, src)
	}
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(endpoint, "/")+"/"))
	}
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return &Client{svc: svc, logger: logger}, nil
}

// Upload sends the video file and returns the new video ID.
func (c *Client) Upload(ctx context.Context, video Video) (string, error) {
	file, err := os.Open(video.Path)
	if err != nil {
		return "", fmt.Errorf("youtube: open video: %w", err)
	}
	defer file.Close()

	started := time.Now()
	call := c.svc.Videos.Insert([]string{"snippet", "status"}, BuildVideo(video)).
		Media(file, googleapi.ChunkSize(uploadChunkSize)).
		NotifySubscribers(false).
		Context(ctx)
	result, err := call.Do()
	status := http.StatusOK
	if err != nil {
		status = StatusCode(err)
	}
	logging.LogAPICall(c.logger, "youtube", "videos.insert", status, time.Since(started),
		logging.String("video_path", video.Path))
	if err != nil {
		return "", fmt.Errorf("youtube: upload: %w", err)
	}
	if result == nil || result.Id == "" {
		return "", errors.New("youtube: upload returned no video id")
	}
	return result.Id, nil
}

// StatusCode extracts the HTTP status of an API error, or 0.
func StatusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// WatchURL is the short link for a video ID.
func WatchURL(id string) string {
	return "https://youtu.be/" + id
}

// BuildVideo applies the API field limits to the upload metadata.
func BuildVideo(v Video) *yt.Video {
	privacy := strings.TrimSpace(v.PrivacyStatus)
	if privacy == "" {
		privacy = defaultPrivacyStatus
	}
	category := strings.TrimSpace(v.CategoryID)
	if category == "" {
		category = defaultCategoryID
	}
	title := textutil.TruncateRunes(stripAngles(textutil.Collapse(v.Title)), maxTitleRunes, "…")
	if title == "" {
		title = "Bible Podcaster"
	}
	return &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:                title,
			Description:          textutil.TruncateBytes(stripAngles(strings.TrimSpace(v.Description)), maxDescriptionBytes),
			Tags:                 limitTags(v.Tags),
			CategoryId:           category,
			DefaultLanguage:      v.Language,
			DefaultAudioLanguage: v.Language,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}
}

// stripAngles removes the characters the API rejects in titles and
// descriptions.
func stripAngles(s string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}

func limitTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	total := 0
	for _, tag := range tags {
		tag = stripAngles(textutil.Collapse(tag))
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		n := utf8.RuneCountInString(tag)
		if total+n > maxTagsTotalRunes {
			break
		}
		seen[key] = true
		total += n
		out = append(out, tag)
	}
	return out
}
