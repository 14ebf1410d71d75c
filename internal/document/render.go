package document

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"whisperstudio/internal/logging"
	"whisperstudio/internal/services"
)

// FileName is the name of the exported document inside a run directory.
const FileName = "transcript.pdf"

// DefaultTitle heads the document when no title is configured.
const DefaultTitle = "Whisper Transcription"

const (
	unicodeFamily  = "Roboto"
	fallbackFamily = "Helvetica"
	marginLeft     = 15.0
	marginTop      = 20.0
	marginRight    = 15.0
	pageBreak      = 20.0
	logoX          = 15.0
	logoY          = 15.0
	logoWidth      = 30.0
	titleSize      = 14.0
	titleHeight    = 10.0
	bodySize       = 11.0
	lineHeight     = 6.0
	paragraphGap   = 4.0
)

// Renderer exports transcripts as PDF documents. The logo and typefaces are
// optional; each one that cannot be loaded is skipped and reported in
// RenderResult.Fallbacks.
type Renderer struct {
	Title       string
	LogoPath    string
	FontRegular string
	FontBold    string
	WrapWidth   int
	Logger      *slog.Logger
}

// RenderResult describes an exported document.
type RenderResult struct {
	Path      string
	Pages     int
	Fallbacks []string
}

// Layout composes text with the renderer's wrap width.
func (r *Renderer) Layout(text string) Layout {
	return Compose(text, r.WrapWidth)
}

// Render writes transcript.pdf into workDir.
func (r *Renderer) Render(text, workDir string) (RenderResult, error) {
	logger := logging.NewComponentLogger(r.Logger, "document")
	result := RenderResult{Path: filepath.Join(workDir, FileName)}

	pdf := fpdf.New("P", "mm", "A4", "")
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = DefaultTitle
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("whisperstudio", true)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, pageBreak)

	fallback := func(asset string, err error) {
		note := fmt.Sprintf("%s: %v", asset, err)
		result.Fallbacks = append(result.Fallbacks, note)
		logging.WarnWithContext(logger, "document asset unavailable", "document_asset_fallback",
			logging.String("asset", asset),
			logging.Error(err),
			logging.String(logging.FieldImpact, "document rendered with built-in defaults"),
		)
	}

	regular, bold := false, false
	if data, err := loadFont(r.FontRegular); err != nil {
		fallback("font_regular", err)
	} else {
		pdf.AddUTF8FontFromBytes(unicodeFamily, "", data)
		regular = true
	}
	if regular {
		if data, err := loadFont(r.FontBold); err != nil {
			fallback("font_bold", err)
		} else {
			pdf.AddUTF8FontFromBytes(unicodeFamily, "B", data)
			bold = true
		}
	}

	logoName, logoOpts, err := loadLogo(pdf, r.LogoPath)
	if err != nil {
		fallback("logo", err)
	}

	pdf.AddPage()
	if logoName != "" {
		pdf.ImageOptions(logoName, logoX, logoY, logoWidth, 0, false, logoOpts, 0, "")
		pdf.Ln(logoWidth)
	}

	translate := func(s string) string { return s }
	if !regular {
		translate = pdf.UnicodeTranslatorFromDescriptor("")
	}

	switch {
	case bold:
		pdf.SetFont(unicodeFamily, "B", titleSize)
	case regular:
		pdf.SetFont(unicodeFamily, "", titleSize)
	default:
		pdf.SetFont(fallbackFamily, "B", titleSize)
	}
	pdf.CellFormat(0, titleHeight, translate(title), "", 1, "L", false, 0, "")
	pdf.Ln(5)

	if regular {
		pdf.SetFont(unicodeFamily, "", bodySize)
	} else {
		pdf.SetFont(fallbackFamily, "", bodySize)
	}
	layout := r.Layout(text)
	for i, paragraph := range layout.Paragraphs {
		if i > 0 {
			pdf.Ln(paragraphGap)
		}
		for _, line := range paragraph.Lines {
			pdf.MultiCell(0, lineHeight, translate(line), "", "L", false)
		}
	}

	if pdf.Err() {
		return result, services.Wrap(services.ErrRender, "document", "compose", "", pdf.Error())
	}
	result.Pages = pdf.PageCount()
	if err := pdf.OutputFileAndClose(result.Path); err != nil {
		return result, services.Wrap(services.ErrRender, "document", "write", result.Path, err)
	}
	logger.Info("document rendered",
		logging.String("path", result.Path),
		logging.Int("pages", result.Pages),
		logging.Int("lines", layout.LineCount()),
		logging.Int("fallbacks", len(result.Fallbacks)),
	)
	return result, nil
}

// loadFont reads a TrueType file and checks it on a scratch document so a
// broken font never poisons the real one.
func loadFont(path string) (data []byte, err error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("not configured")
	}
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			data, err = nil, fmt.Errorf("parse font %s: %v", filepath.Base(path), rec)
		}
	}()
	scratch := fpdf.New("P", "mm", "A4", "")
	scratch.AddUTF8FontFromBytes("probe", "", data)
	if scratch.Err() {
		return nil, scratch.Error()
	}
	return data, nil
}

func loadLogo(pdf *fpdf.Fpdf, path string) (string, fpdf.ImageOptions, error) {
	opts := fpdf.ImageOptions{ReadDpi: true}
	if strings.TrimSpace(path) == "" {
		return "", opts, fmt.Errorf("not configured")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		opts.ImageType = "PNG"
	case ".jpg", ".jpeg":
		opts.ImageType = "JPG"
	case ".gif":
		opts.ImageType = "GIF"
	default:
		return "", opts, fmt.Errorf("unsupported image type %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", opts, err
	}

	scratch := fpdf.New("P", "mm", "A4", "")
	scratch.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
	if scratch.Err() {
		return "", opts, scratch.Error()
	}
	pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
	return "logo", opts, nil
}
