package textutil

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    *Fingerprint
		wantMin float64
		wantMax float64
	}{
		{"nil", nil, NewFingerprint("hello world"), 0, 0},
		{"identical", NewFingerprint("The quick brown fox"), NewFingerprint("the QUICK brown fox!"), 0.9999, 1.0001},
		{"disjoint", NewFingerprint("apple banana cherry"), NewFingerprint("dog elephant frog"), 0, 0},
		{"partial", NewFingerprint("the quick brown fox"), NewFingerprint("the slow brown cat"), 0.01, 0.99},
		{"cyrillic", NewFingerprint("В начале сотворил Бог небо и землю"), NewFingerprint("в начале сотворил бог небо"), 0.5, 0.99},
		{"zero norm", &Fingerprint{tokens: map[string]float64{}}, NewFingerprint("hello world"), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if got < tt.wantMin || got > tt.wantMax {
				t.Fatalf("CosineSimilarity = %v, want [%v, %v]", got, tt.wantMin, tt.wantMax)
			}
			if back := CosineSimilarity(tt.b, tt.a); math.Abs(back-got) > 1e-9 {
				t.Fatalf("not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestNewFingerprint(t *testing.T) {
	if NewFingerprint("") != nil || NewFingerprint("a an it to") != nil {
		t.Fatal("expected nil fingerprint without usable tokens")
	}
	fp := NewFingerprint("hello hello world")
	if fp.TokenCount() != 2 {
		t.Fatalf("TokenCount = %d, want 2", fp.TokenCount())
	}
	if math.Abs(fp.norm-math.Sqrt(5)) > 1e-9 {
		t.Fatalf("norm = %v, want sqrt(5)", fp.norm)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Hello, World! How are you?", []string{"hello", "world", "how", "are", "you"}},
		{"a to the quick fox", []string{"the", "quick", "fox"}},
		{"Иисус Навин обошёл Иерихон", []string{"иисус", "навин", "обошёл", "иерихон"}},
		{"test123 456test", []string{"test123", "456test"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.input)
		if len(got) != len(tt.want) {
			t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("Tokenize(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in     string
		limit  int
		suffix string
		want   string
	}{
		{"short", 10, "...", "short"},
		{"abcdefghij", 5, "...", "ab..."},
		{"Благодать", 6, "...", "Бла..."},
		{"word word", 6, "...", "wor..."},
		{"anything", 0, "...", ""},
	}
	for _, tt := range tests {
		if got := TruncateRunes(tt.in, tt.limit, tt.suffix); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateBytesKeepsRunesWhole(t *testing.T) {
	got := TruncateBytes("Бог", 3)
	if got != "Б" {
		t.Fatalf("TruncateBytes = %q, want %q", got, "Б")
	}
	if TruncateBytes("abc", 10) != "abc" {
		t.Fatal("expected untouched short string")
	}
}

func TestHashtag(t *testing.T) {
	tests := map[string]string{
		"faith":            "#Faith",
		"six days":         "#SixDays",
		"вера и надежда":   "#ВераИНадежда",
		"  --  ":           "",
		"Jericho's walls!": "#JerichoSWalls",
	}
	for in, want := range tests {
		if got := Hashtag(in); got != want {
			t.Errorf("Hashtag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(` a/b:c?"d" `); got != "a-b-cd" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
}
