package logging

import (
	"context"
	"log/slog"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
)

// minLevelHandler drops records below floor before they reach next. New builds
// next at the most verbose level any stage override asks for, so the floor
// here is what actually filters.
type minLevelHandler struct {
	next  slog.Handler
	floor slog.Level
}

func withMinLevel(next slog.Handler, floor slog.Level) slog.Handler {
	switch h := next.(type) {
	case nil:
		return NoopHandler{}
	case *minLevelHandler:
		return &minLevelHandler{next: h.next, floor: floor}
	default:
		return &minLevelHandler{next: next, floor: floor}
	}
}

func (h *minLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.floor && h.next.Enabled(ctx, level)
}

func (h *minLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.floor {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *minLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &minLevelHandler{next: h.next.WithAttrs(attrs), floor: h.floor}
}

func (h *minLevelHandler) WithGroup(name string) slog.Handler {
	return &minLevelHandler{next: h.next.WithGroup(name), floor: h.floor}
}

// StageLogger returns a logger tagged with the stage name. When the config
// carries a level override for the stage it replaces the global level, in
// either direction.
func StageLogger(logger *slog.Logger, cfg *config.Config, stage string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if level, ok := cfg.StageLogLevel(stage); ok {
		logger = slog.New(withMinLevel(logger.Handler(), parseLevel(level)))
	}
	return logger.With(String(FieldStage, stage))
}
