package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

const redacted = "[redacted]"

// secretKeySuffixes mark attributes that may carry provider credentials.
var secretKeySuffixes = []string{"api_key", "apikey", "token", "authorization", "secret"}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) (slog.Handler, error) {
	opts := slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	}
	return slog.NewJSONHandler(w, &opts), nil
}

// replaceJSONAttr shortens the built-in keys, writes durations as fractional
// seconds and masks credential-looking attributes.
func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch attr.Key {
		case slog.TimeKey:
			attr.Key = "ts"
			if attr.Value.Kind() == slog.KindTime {
				attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
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
	if isSecretKey(attr.Key) && attr.Value.Kind() == slog.KindString && attr.Value.String() != "" {
		return slog.String(attr.Key, redacted)
	}
	if attr.Value.Kind() == slog.KindDuration {
		return slog.Float64(attr.Key, attr.Value.Duration().Seconds())
	}
	return attr
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, suffix := range secretKeySuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}
