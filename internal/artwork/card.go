package artwork

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"podcaster/internal/textutil"
)

// Card layout.
const (
	DefaultTitle = "Bible Podcaster"

	titleSize      = 72
	subtitleSize   = 36
	margin         = 80
	subtitleOffset = 120
	lineSpacing    = 8
	maxSubtitle    = 220
	subtitleSuffix = "..."
	fontDPI        = 72
)

var (
	background    = color.RGBA{R: 18, G: 18, B: 18, A: 255}
	titleColor    = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	subtitleColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// Card describes the text placed on a cover.
type Card struct {
	Width    int
	Height   int
	Title    string
	Subtitle string
}

// LoadFont parses the TTF/OTF at path, or the embedded Go Regular face when
// path is empty.
func LoadFont(path string) (*opentype.Font, error) {
	data := goregular.TTF
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		data = raw
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
}

// Render draws the card with fnt.
func Render(card Card, fnt *opentype.Font) (*image.RGBA, error) {
	if card.Width <= 0 || card.Height <= 0 {
		return nil, fmt.Errorf("invalid card size %dx%d", card.Width, card.Height)
	}
	titleFace, err := newFace(fnt, titleSize)
	if err != nil {
		return nil, err
	}
	defer titleFace.Close()
	subtitleFace, err := newFace(fnt, subtitleSize)
	if err != nil {
		return nil, err
	}
	defer subtitleFace.Close()

	img := image.NewRGBA(image.Rect(0, 0, card.Width, card.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	title := strings.TrimSpace(card.Title)
	if title == "" {
		title = DefaultTitle
	}
	y := margin
	drawLine(img, titleFace, titleColor, margin, y, title)
	y += subtitleOffset

	lineHeight := subtitleFace.Metrics().Height.Ceil() + lineSpacing
	for _, line := range Wrap(SubtitleText(card.Subtitle), subtitleFace, card.Width-2*margin) {
		drawLine(img, subtitleFace, subtitleColor, margin, y, line)
		y += lineHeight
	}
	return img, nil
}

// SubtitleText collapses whitespace and shortens text over 220 characters to
// 217 characters plus an ellipsis.
func SubtitleText(text string) string {
	text = textutil.Collapse(text)
	runes := []rune(text)
	if len(runes) > maxSubtitle {
		return string(runes[:maxSubtitle-len(subtitleSuffix)]) + subtitleSuffix
	}
	return text
}

// Wrap greedily breaks text into lines no wider than maxWidth pixels. A word
// wider than maxWidth gets a line of its own.
func Wrap(text string, face font.Face, maxWidth int) []string {
	var lines []string
	var current []string
	for _, word := range strings.Fields(text) {
		tentative := strings.Join(append(current, word), " ")
		if font.MeasureString(face, tentative).Ceil() <= maxWidth {
			current = append(current, word)
			continue
		}
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
		}
		current = []string{word}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

func newFace(fnt *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{Size: size, DPI: fontDPI, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("create %vpt face: %w", size, err)
	}
	return face, nil
}

// drawLine places text with its top edge at y.
func drawLine(dst draw.Image, face font.Face, c color.Color, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}
