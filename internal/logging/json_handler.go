package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"whisperstudio/internal/services"
)

// jsonTimeLayout matches the timestamps served by the HTTP API.
const jsonTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// newJSONHandler emits one object per line with ts/level/msg keys. Error
// values are expanded into {message, kind[, diagnostics]} so failures can be
// filtered by taxonomy without parsing messages.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) == 0 {
				switch attr.Key {
				case slog.TimeKey:
					attr.Key = "ts"
					if attr.Value.Kind() == slog.KindTime {
						attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(jsonTimeLayout))
					}
					return attr
				case slog.LevelKey:
					attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
					return attr
				case slog.SourceKey:
					if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
						attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
					}
					return attr
				}
			}
			if attr.Value.Kind() == slog.KindAny {
				if err, ok := attr.Value.Any().(error); ok {
					attr.Value = errorValue(err)
				}
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &opts)
}

func errorValue(err error) slog.Value {
	attrs := []slog.Attr{
		slog.String("message", err.Error()),
		slog.String("kind", services.Kind(err)),
	}
	if diag := services.Diagnostics(err); diag != "" && !strings.Contains(err.Error(), diag) {
		attrs = append(attrs, slog.String("diagnostics", diag))
	}
	return slog.GroupValue(attrs...)
}
