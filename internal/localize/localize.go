package localize

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"whisperstudio/internal/services"
)

var (
	supported = []language.Tag{language.English, language.French}
	matcher   = language.NewMatcher(supported)
	messages  = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range french {
		if err := builder.SetString(language.French, key, text); err != nil {
			panic("localize: " + err.Error())
		}
	}
	return builder
}

// Localizer renders user-facing messages in one locale.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a localizer for locale, falling back to English for anything
// unsupported.
func New(locale string) *Localizer {
	tag := language.English
	if parsed, err := language.Parse(strings.TrimSpace(locale)); err == nil {
		_, index, confidence := matcher.Match(parsed)
		if confidence != language.No {
			tag = supported[index]
		}
	}
	return &Localizer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

// Supported lists the locales with translations.
func Supported() []string {
	out := make([]string, len(supported))
	for i, tag := range supported {
		out[i] = tag.String()
	}
	return out
}

// Locale returns the effective locale.
func (l *Localizer) Locale() string {
	return l.tag.String()
}

// Sprintf renders the message key with args.
func (l *Localizer) Sprintf(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// Stage returns the localized name of the stage err failed in.
func (l *Localizer) Stage(err error) string {
	var engineErr *services.EngineError
	if errors.As(err, &engineErr) {
		return l.Sprintf(StageEngine, engineErr.SegmentIndex+1)
	}
	switch services.Kind(err) {
	case "source_resolution":
		return l.Sprintf(StageDownload)
	case "transcode":
		return l.Sprintf(StageTranscode)
	case "split":
		return l.Sprintf(StageSplit)
	case "render":
		return l.Sprintf(StageRender)
	case "run_id_collision":
		return l.Sprintf(StageAllocate)
	case "validation", "configuration":
		return l.Sprintf(StageValidation)
	default:
		return l.Sprintf(StageInternal)
	}
}

// Failure renders the short message shown when a run aborts: the stage, the
// error, and the raw tool diagnostics when there are any.
func (l *Localizer) Failure(err error) string {
	if err == nil {
		return ""
	}
	stage := l.Stage(err)
	summary := err.Error()
	var engineErr *services.EngineError
	if errors.As(err, &engineErr) && strings.TrimSpace(engineErr.Message) != "" {
		summary = strings.TrimSpace(engineErr.Message)
		return l.Sprintf(MsgFailure, stage, summary)
	}
	if diagnostics := services.Diagnostics(err); diagnostics != "" && !strings.Contains(summary, diagnostics) {
		return l.Sprintf(MsgFailureDetail, stage, summary, diagnostics)
	}
	return l.Sprintf(MsgFailure, stage, summary)
}

// Estimate renders the processing-time estimate for an input of
// durationSeconds at factor. It returns "" for an unknown duration.
func (l *Localizer) Estimate(durationSeconds, factor float64) string {
	if durationSeconds <= 0 {
		return ""
	}
	estimate := durationSeconds * factor
	minutes := int(estimate / 60)
	seconds := int(estimate) % 60
	return l.Sprintf(MsgEstimate, durationSeconds/60, minutes, seconds)
}
