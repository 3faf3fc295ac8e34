package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err, "read log file")
	return string(content)
}

func TestNewFromConfigWritesDailyLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	require.NoError(t, err)
	logger.Info("ready")

	path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName(time.Now()))
	assert.Contains(t, readLog(t, path), "ready")
}

func TestConsoleLoggerPrefixesSubmissionAndStage(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	ctx := services.WithSubmissionID(context.Background(), "sip-1")
	ctx = services.WithStage(ctx, "fixity")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "ingest"))
	logger.Info("digest computed", logging.String("file", "a.csv"))

	line := readLog(t, logPath)
	assert.Contains(t, line, "INFO [sip-1] ingest/fixity: digest computed file=a.csv")
	assert.NotContains(t, line, ".go:", "info logs carry no caller information")
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	ctx := services.WithRequestID(services.WithSubmissionID(context.Background(), "sip-2"), "req-9")
	logging.WithContext(ctx, logger).Warn("slow", logging.Args(logging.ErrorAttrs(services.ErrTransient)...)...)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(readLog(t, logPath)), &record))
	assert.Equal(t, "sip-2", record["submission_id"])
	assert.Equal(t, "req-9", record["correlation_id"])
	assert.Equal(t, "warn", record["level"])
	assert.Equal(t, "transient", record["error_kind"])
}

func TestStageLoggerHonoursOverrides(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "stage.log")
	cfg := config.Default()
	cfg.Logging.StageOverrides = map[string]string{"fixity": "debug", "retire": "error"}

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
		StageLevels: []string{"debug", "error"},
	})
	require.NoError(t, err)

	logger.Debug("root debug hidden")
	logging.StageLogger(logger, &cfg, "fixity").Debug("fixity debug shown")
	logging.StageLogger(logger, &cfg, "retire").Info("retire info hidden")
	logging.StageLogger(logger, &cfg, "commit").Info("commit info shown")

	out := readLog(t, logPath)
	for _, want := range []string{"fixity debug shown", "commit info shown"} {
		assert.Contains(t, out, want)
	}
	for _, unwanted := range []string{"root debug hidden", "retire info hidden"} {
		assert.NotContains(t, out, unwanted)
	}
}

func TestCleanupOldLogsKeepsActiveFile(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "seadva-20000101.log")
	active := filepath.Join(dir, "seadva-20000102.log")
	other := filepath.Join(dir, "notes.txt")
	past := time.Now().AddDate(0, 0, -90)
	for _, path := range []string{old, active, other} {
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(path, past, past))
	}

	logging.CleanupOldLogs(logging.NewNop(), dir, 30, active)

	assert.NoFileExists(t, old, "old log should be pruned")
	assert.FileExists(t, active)
	assert.FileExists(t, other)
}
