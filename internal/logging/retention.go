package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const logFilePattern = "seadva-*.log"

// CleanupOldLogs removes daily log files in dir older than retentionDays.
// A retentionDays value of 0 disables pruning. Paths listed in keep are never
// removed.
func CleanupOldLogs(logger *slog.Logger, dir string, retentionDays int, keep ...string) {
	if retentionDays <= 0 || dir == "" {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	exclusions := make(map[string]struct{}, len(keep))
	for _, path := range keep {
		if abs, err := filepath.Abs(path); err == nil {
			exclusions[abs] = struct{}{}
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, logFilePattern))
	if err != nil {
		return
	}
	for _, fullPath := range matches {
		if abs, err := filepath.Abs(fullPath); err == nil {
			fullPath = abs
		}
		if _, skip := exclusions[fullPath]; skip {
			continue
		}
		info, err := os.Stat(fullPath)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(fullPath); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", fullPath),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		if logger != nil {
			logger.Info("log pruned", String("path", fullPath), String(FieldEventType, "log_pruned"))
		}
	}
}
