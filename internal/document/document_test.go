package document_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"whisperstudio/internal/document"
)

func TestComposeSplitsParagraphsOnBlankLines(t *testing.T) {
	text := "first line\ncontinues here\n\n\n  second paragraph  \n\nthird"
	layout := document.Compose(text, 100)
	if len(layout.Paragraphs) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d: %#v", len(layout.Paragraphs), layout.Paragraphs)
	}
	if got := layout.Paragraphs[0].Lines; !reflect.DeepEqual(got, []string{"first line continues here"}) {
		t.Fatalf("unexpected first paragraph %q", got)
	}
	if got := layout.Paragraphs[1].Lines; !reflect.DeepEqual(got, []string{"second paragraph"}) {
		t.Fatalf("unexpected second paragraph %q", got)
	}
}

func TestComposeWrapsToWidth(t *testing.T) {
	text := strings.Repeat("word ", 50)
	layout := document.Compose(text, 20)
	if layout.LineCount() < 2 {
		t.Fatalf("expected wrapped lines, got %d", layout.LineCount())
	}
	for _, line := range layout.Paragraphs[0].Lines {
		if len(line) > 20 {
			t.Fatalf("line %q exceeds width", line)
		}
		if line != strings.TrimSpace(line) {
			t.Fatalf("line %q has surrounding whitespace", line)
		}
	}
}

func TestComposeBreaksLongWords(t *testing.T) {
	url := "https://example.com/" + strings.Repeat("x", 60)
	layout := document.Compose("see "+url+" now", 20)
	for _, line := range layout.Paragraphs[0].Lines {
		if len(line) > 20 {
			t.Fatalf("line %q exceeds width", line)
		}
	}
	joined := strings.ReplaceAll(layout.Text(), "\n", "")
	joined = strings.ReplaceAll(joined, " ", "")
	if joined != "see"+url+"now" {
		t.Fatalf("content lost while wrapping: %q", joined)
	}
}

func TestComposeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"short",
		strings.Repeat("alpha beta gamma-delta ", 40),
		"a " + strings.Repeat("z", 130) + " b c d\n\nnext paragraph with several words in it",
		"accents éèà ü ñ and wide 日本語のテキスト repeated 日本語のテキスト",
	}
	for _, width := range []int{20, 37, 100} {
		for _, input := range inputs {
			first := document.Compose(input, width)
			second := document.Compose(first.Text(), width)
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("width %d: compose not idempotent\nfirst:  %#v\nsecond: %#v", width, first, second)
			}
		}
	}
}

func TestComposeEmptyText(t *testing.T) {
	if layout := document.Compose(" \n\n \n", 100); len(layout.Paragraphs) != 0 {
		t.Fatalf("expected no paragraphs, got %#v", layout.Paragraphs)
	}
}

func TestRenderWithoutAssetsFallsBack(t *testing.T) {
	dir := t.TempDir()
	r := &document.Renderer{WrapWidth: 100}
	result, err := r.Render("Bonjour à tous.\n\nSecond paragraphe.", dir)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if result.Path != filepath.Join(dir, document.FileName) {
		t.Fatalf("unexpected path %q", result.Path)
	}
	info, err := os.Stat(result.Path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty document: %v", err)
	}
	if result.Pages != 1 {
		t.Fatalf("expected 1 page, got %d", result.Pages)
	}
	if len(result.Fallbacks) != 2 {
		t.Fatalf("expected font and logo fallbacks, got %q", result.Fallbacks)
	}
}

func TestRenderSkipsBrokenAssets(t *testing.T) {
	dir := t.TempDir()
	badFont := filepath.Join(dir, "broken.ttf")
	if err := os.WriteFile(badFont, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := &document.Renderer{
		Title:       "Meeting",
		FontRegular: badFont,
		FontBold:    badFont,
		LogoPath:    filepath.Join(dir, "missing.png"),
	}
	result, err := r.Render(strings.Repeat("long body text ", 2000), dir)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if result.Pages < 2 {
		t.Fatalf("expected pagination, got %d pages", result.Pages)
	}
	var sawFont, sawLogo bool
	for _, note := range result.Fallbacks {
		sawFont = sawFont || strings.HasPrefix(note, "font_regular")
		sawLogo = sawLogo || strings.HasPrefix(note, "logo")
	}
	if !sawFont || !sawLogo {
		t.Fatalf("expected font and logo fallbacks, got %q", result.Fallbacks)
	}
}

func TestRenderPlacesLogo(t *testing.T) {
	dir := t.TempDir()
	logo := filepath.Join(dir, "logo.png")
	writePNG(t, logo)

	r := &document.Renderer{LogoPath: logo}
	result, err := r.Render("text", dir)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	for _, note := range result.Fallbacks {
		if strings.HasPrefix(note, "logo") {
			t.Fatalf("logo unexpectedly skipped: %s", note)
		}
	}
}

func TestRenderFailsWhenDirectoryMissing(t *testing.T) {
	r := &document.Renderer{}
	if _, err := r.Render("text", filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected render failure for missing directory")
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatal(err)
	}
}
