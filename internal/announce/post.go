package announce

import (
	"fmt"
	"strings"

	"podcaster/internal/textutil"
)

const (
	telegramMaxRunes = 4096
	vkMaxRunes       = 15000
)

// Post is the content announced for one podcast.
type Post struct {
	Heading  string
	Title    string
	Summary  string
	VideoURL string
}

// TelegramText lays out the channel message: heading, link, title, summary.
func (p Post) TelegramText() string {
	text := joinLines(p.Heading, p.VideoURL, p.Title, p.Summary)
	return textutil.TruncateRunes(text, telegramMaxRunes, "…")
}

// VKText lays out the wall post body; the link travels as an attachment.
func (p Post) VKText() string {
	return textutil.TruncateRunes(joinLines(p.Heading, p.Title, p.Summary), vkMaxRunes, "…")
}

func joinLines(parts ...string) string {
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			lines = append(lines, part)
		}
	}
	return strings.Join(lines, "\n")
}

func (p Post) String() string {
	return fmt.Sprintf("%s (%s)", p.Title, p.VideoURL)
}
