package podcast

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"podcaster/internal/fileutil"
)

const frontMatterDelimiter = "---"

// Description is the front matter of description.md. The body holds the
// summary.
type Description struct {
	Title      string    `yaml:"title"`
	Topic      string    `yaml:"topic"`
	Language   string    `yaml:"language"`
	Created    time.Time `yaml:"created"`
	References []string  `yaml:"references,omitempty"`
	Keywords   []string  `yaml:"keywords,omitempty"`
	Themes     []string  `yaml:"themes,omitempty"`
	Source     string    `yaml:"source,omitempty"`
	YouTubeID  string    `yaml:"youtube_id,omitempty"`
	YouTubeURL string    `yaml:"youtube_url,omitempty"`
	Announced  bool      `yaml:"announced,omitempty"`

	Body string `yaml:"-"`
}

// NewDescription derives the description document from an analysis.
func NewDescription(analysis *Analysis, source string, created time.Time) Description {
	return Description{
		Title:      analysis.DisplayTitle(),
		Topic:      analysis.Topic,
		Language:   analysis.Language,
		Created:    created.UTC().Truncate(time.Second),
		References: analysis.ReferenceList(),
		Keywords:   analysis.Keywords,
		Themes:     analysis.Themes,
		Source:     source,
		Body:       analysis.Summary,
	}
}

// Marshal renders the document as YAML front matter followed by the body.
func (d Description) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	buf.WriteString(frontMatterDelimiter + "\n")
	if body := strings.TrimSpace(d.Body); body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// ParseDescription splits description.md into front matter and body.
func ParseDescription(content []byte) (Description, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if !strings.HasPrefix(text, frontMatterDelimiter+"\n") {
		return Description{}, errors.New("description: missing front matter")
	}
	rest := text[len(frontMatterDelimiter)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelimiter)
	if end < 0 {
		return Description{}, errors.New("description: unterminated front matter")
	}
	var d Description
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &d); err != nil {
		return Description{}, fmt.Errorf("description: %w", err)
	}
	body := rest[end+1+len(frontMatterDelimiter):]
	d.Body = strings.TrimSpace(body)
	return d, nil
}

// WriteDescription stores description.md in folder.
func WriteDescription(folder string, d Description) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(filepath.Join(folder, DescriptionFile), data, 0o644)
}

// ReadDescription loads description.md from folder.
func ReadDescription(folder string) (Description, error) {
	data, err := os.ReadFile(filepath.Join(folder, DescriptionFile))
	if err != nil {
		return Description{}, err
	}
	return ParseDescription(data)
}

// UpdateDescription applies mutate to the stored document and writes it back.
func UpdateDescription(folder string, mutate func(*Description)) error {
	d, err := ReadDescription(folder)
	if err != nil {
		return err
	}
	mutate(&d)
	return WriteDescription(folder, d)
}
