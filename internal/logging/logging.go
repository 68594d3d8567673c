package logging

import (
	"io"
	"strings"

	gokitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New returns a logfmt logger writing to w with timestamp and caller context,
// filtered at the named level (debug, info, warn, error). Unknown names fall
// back to info.
func New(w io.Writer, lvl string) gokitlog.Logger {
	logger := gokitlog.NewLogfmtLogger(gokitlog.NewSyncWriter(w))
	logger = level.NewFilter(logger, levelOption(lvl))
	return gokitlog.With(logger, "ts", gokitlog.DefaultTimestampUTC, "caller", gokitlog.DefaultCaller)
}

// Nop returns a logger that discards everything.
func Nop() gokitlog.Logger {
	return gokitlog.NewNopLogger()
}

func levelOption(lvl string) level.Option {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}
