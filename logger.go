package gpurt

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discardHandler drops every record. It reports every level as disabled, so
// attribute arguments are never formatted.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

var silent = slog.New(discardHandler{})

// current is swapped by SetLogger while devices may be logging.
var current atomic.Pointer[slog.Logger]

func init() { current.Store(silent) }

// SetLogger routes the messages of gpurt and its subpackages to l. Until
// it is called nothing is logged; SetLogger(nil) goes back to that state.
//
// Messages by level:
//   - [slog.LevelDebug]: buffer allocations, kernel compiles, dispatch sizes
//   - [slog.LevelInfo]: device open and close, simulation start and stop
//   - [slog.LevelWarn]: a submission still pending after the wait interval
//
// The gpurt command installs a text handler on stderr:
//
//	gpurt.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the logger installed by SetLogger.
func Logger() *slog.Logger {
	return current.Load()
}
