package document

import (
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// DefaultWrapWidth is the approximate number of characters per line.
const DefaultWrapWidth = 100

// Paragraph is one block of wrapped lines.
type Paragraph struct {
	Lines []string
}

// Layout is the text body of a document split into paragraphs.
type Layout struct {
	Paragraphs []Paragraph
}

// Text renders the layout back to plain text: lines joined by newlines and
// paragraphs separated by one blank line.
func (l Layout) Text() string {
	blocks := make([]string, 0, len(l.Paragraphs))
	for _, p := range l.Paragraphs {
		blocks = append(blocks, strings.Join(p.Lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// LineCount returns the total number of wrapped lines.
func (l Layout) LineCount() int {
	n := 0
	for _, p := range l.Paragraphs {
		n += len(p.Lines)
	}
	return n
}

// Compose splits text into paragraphs on blank lines and word-wraps each one
// to width. Words longer than width are broken into width-sized pieces.
// Composing the Text of a layout yields the same layout.
func Compose(text string, width int) Layout {
	if width <= 0 {
		width = DefaultWrapWidth
	}
	var layout Layout
	for _, block := range splitParagraphs(text) {
		lines := wrapParagraph(block, width)
		if len(lines) == 0 {
			continue
		}
		layout.Paragraphs = append(layout.Paragraphs, Paragraph{Lines: lines})
	}
	return layout
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var (
		blocks  []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, " "))
			current = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

func wrapParagraph(block string, width int) []string {
	words := make([]string, 0, 32)
	for _, word := range strings.Fields(block) {
		if ansi.PrintableRuneWidth(word) <= width {
			words = append(words, word)
			continue
		}
		for _, piece := range strings.Split(wrap.String(word, width), "\n") {
			if piece != "" {
				words = append(words, piece)
			}
		}
	}
	if len(words) == 0 {
		return nil
	}

	w := wordwrap.NewWriter(width)
	w.Breakpoints = nil
	_, _ = w.Write([]byte(strings.Join(words, " ")))
	_ = w.Close()

	var lines []string
	for _, line := range strings.Split(w.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
