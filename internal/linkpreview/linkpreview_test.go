package linkpreview

import (
	"strings"
	"testing"
)

func TestExtractURL(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain url", "check out https://example.com/project", "https://example.com/project"},
		{"http url", "see http://example.com", "http://example.com"},
		{"no url", "nothing to see here", ""},
		{"first of two", "https://a.example https://b.example", "https://a.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractURL(tt.text); got != tt.want {
				t.Errorf("ExtractURL(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseOpenGraph(t *testing.T) {
	html := `<html><head>
		<title>Fallback Title</title>
		<meta property="og:title" content="OG Title" />
		<meta property="og:image" content="https://example.com/img.png" />
	</head><body></body></html>`

	p, err := Parse(strings.NewReader(html), "https://example.com")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Title != "OG Title" {
		t.Errorf("title = %q, want %q", p.Title, "OG Title")
	}
	if p.ImageURL == nil || *p.ImageURL != "https://example.com/img.png" {
		t.Errorf("image = %v, want og:image", p.ImageURL)
	}
}

func TestParseTitleFallback(t *testing.T) {
	html := `<html><head><title>  Plain Title  </title></head><body></body></html>`

	p, err := Parse(strings.NewReader(html), "https://example.com")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Title != "Plain Title" {
		t.Errorf("title = %q, want %q", p.Title, "Plain Title")
	}
	if p.ImageURL != nil {
		t.Errorf("image = %v, want nil", p.ImageURL)
	}
}

func TestParseNoTitle(t *testing.T) {
	if _, err := Parse(strings.NewReader("<html><body>hi</body></html>"), "https://example.com"); err == nil {
		t.Error("expected error for page without title")
	}
}
