// Package lualog wraps github.com/hashicorp/go-hclog the way the pack's
// hashicorp repos do: one process-wide named logger, leveled via a
// level string, with Named() child loggers per subsystem
// (pipeline, semantic, lsp) instead of every package reaching for its own
// log.Logger.
package lualog

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Options configures the root logger; cmd/luals fills it from its
// --log-level and --log-json flags (the YAML configuration has no log
// settings).
type Options struct {
	// Level is one of "trace", "debug", "info", "warn", "error", "off".
	// Empty defaults to "info".
	Level string
	// JSON selects structured JSON output over hclog's default
	// human-readable format — set when luals runs as a child process
	// under an editor that scrapes its stderr as structured logs.
	JSON bool
	// Output defaults to os.Stderr (an LSP server's stdout is the wire
	// protocol channel and must never carry log lines).
	Output io.Writer
}

// New builds the root logger. Every subsystem logger in this codebase is
// a Named() child of one of these, so a single -log-level flag controls
// every component at once.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "luals",
		Level:      hclog.LevelFromString(levelOrDefault(opts.Level)),
		Output:     out,
		JSONFormat: opts.JSON,
	})
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}
