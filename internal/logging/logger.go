package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
)

// Options describes logger construction parameters. OutputPaths accepts
// "stdout", "stderr" or file paths; the default is stdout.
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
	Development bool
	// StageLevels lists per-stage level overrides. The handler is built at the
	// most verbose of these so StageLogger can lower the threshold later.
	StageLevels []string
}

// New constructs a slog logger using the provided options. With no output
// paths it writes to stdout.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	// The handler runs at the most verbose stage level; a floor handler
	// restores the global level for everything else.
	floor := level
	for _, override := range opts.StageLevels {
		floor = min(floor, parseLevel(override))
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(floor)

	w, err := openWriters(opts.OutputPaths)
	if err != nil {
		return nil, err
	}
	addSource := opts.Development || level <= slog.LevelDebug

	var handler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "json":
		handler = newJSONHandler(w, levelVar, addSource)
	case "", "console":
		handler = newPrettyHandler(w, levelVar, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	if floor < level {
		handler = withMinLevel(handler, level)
	}
	return slog.New(handler), nil
}

// NewFromConfig creates a logger using application config defaults. Log
// lines are written to stdout and to a dated seadva-YYYYMMDD.log file under
// the configured log directory; files older than the retention window are
// pruned.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}

	outputPaths := []string{"stdout"}
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		logPath := filepath.Join(cfg.Paths.LogDir, LogFileName(time.Now()))
		outputPaths = append(outputPaths, logPath)
		defer CleanupOldLogs(nil, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)
	}

	stageLevels := make([]string, 0, len(cfg.Logging.StageOverrides))
	for _, level := range cfg.Logging.StageOverrides {
		stageLevels = append(stageLevels, level)
	}
	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputPaths,
		StageLevels: stageLevels,
	})
}

// LogFileName returns the daily log file name for the given time.
func LogFileName(now time.Time) string {
	return "seadva-" + now.UTC().Format("20060102") + ".log"
}

// parseLevel maps a config level name to a slog level. Unknown names fall
// back to info; "warning" is accepted alongside slog's own names.
func parseLevel(level string) slog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	var out slog.Level
	if err := out.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return out
}

// openWriters resolves output targets to a single writer. Duplicate and blank
// targets are ignored; files are opened for append.
func openWriters(targets []string) (io.Writer, error) {
	var writers []io.Writer
	seen := make(map[string]bool, len(targets))
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		w, err := openWriter(target)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func openWriter(target string) (io.Writer, error) {
	switch target {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", target, err)
	}
	return file, nil
}

// newJSONHandler emits one object per line with ts, level and msg keys,
// UTC timestamps and short file:line sources.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: jsonAttr,
	})
}

func jsonAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
		}
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return attr
}
