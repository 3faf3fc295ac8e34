package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Staging contains configuration for the submission stager.
type Staging struct {
	Backend         string `toml:"backend"`
	DBPath          string `toml:"db_path"`
	StaleAfterHours int    `toml:"stale_after_hours"`
}

// Ingest contains configuration for the pipeline executor.
type Ingest struct {
	WorkerCount     int    `toml:"worker_count"`
	QueueSize       int    `toml:"queue_size"`
	RetireCompleted bool   `toml:"retire_completed"`
	IDPrefix        string `toml:"id_prefix"`
}

// Archive contains configuration for the archive store and its
// content-addressable layout. DigestAlgorithm and the fanout settings are
// fixed at deployment time.
type Archive struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	DigestAlgorithm string `toml:"digest_algorithm"`
	FanoutDepth     int    `toml:"fanout_depth"`
	FanoutWidth     int    `toml:"fanout_width"`
	Compression     string `toml:"compression"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	RetentionDays  int               `toml:"retention_days"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Config encapsulates all configuration values.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Staging: submission stager backend and stale cleanup window
//   - Ingest: worker pool sizing and stage behaviour
//   - Archive: archive backend and content-addressing layout
//   - Logging: log format, level, retention and per-stage overrides
type Config struct {
	Paths   Paths   `toml:"paths"`
	Staging Staging `toml:"staging"`
	Ingest  Ingest  `toml:"ingest"`
	Archive Archive `toml:"archive"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/seadva/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("seadva.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log, staging and archive directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if c.Staging.Backend == StagingBackendSQLite {
		dirs = append(dirs, filepath.Dir(c.Staging.DBPath))
	}
	if c.Archive.Backend == ArchiveBackendFS {
		dirs = append(dirs, c.Archive.Dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// StageLogLevel returns the configured level override for a stage, if any.
func (c *Config) StageLogLevel(stage string) (string, bool) {
	if c == nil || len(c.Logging.StageOverrides) == 0 {
		return "", false
	}
	level, ok := c.Logging.StageOverrides[strings.ToLower(strings.TrimSpace(stage))]
	return level, ok && level != ""
}
