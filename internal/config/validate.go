package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStaging(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStaging() error {
	switch c.Staging.Backend {
	case StagingBackendSQLite:
		if strings.TrimSpace(c.Staging.DBPath) == "" {
			return errors.New("staging.db_path must be set for the sqlite backend")
		}
	case StagingBackendMemory:
	default:
		return fmt.Errorf("staging.backend: unsupported value %q (want sqlite or memory)", c.Staging.Backend)
	}
	if c.Staging.StaleAfterHours < 0 {
		return errors.New("staging.stale_after_hours must be >= 0")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.WorkerCount <= 0 {
		return errors.New("ingest.worker_count must be positive")
	}
	if c.Ingest.QueueSize < 0 {
		return errors.New("ingest.queue_size must be >= 0")
	}
	return nil
}

func (c *Config) validateArchive() error {
	switch c.Archive.Backend {
	case ArchiveBackendFS:
		if strings.TrimSpace(c.Archive.Dir) == "" {
			return errors.New("archive.dir must be set for the fs backend")
		}
	case ArchiveBackendMemory:
	default:
		return fmt.Errorf("archive.backend: unsupported value %q (want fs or memory)", c.Archive.Backend)
	}
	switch c.Archive.DigestAlgorithm {
	case DigestSHA256, DigestSHA512, DigestBLAKE3:
	default:
		return fmt.Errorf("archive.digest_algorithm: unsupported value %q", c.Archive.DigestAlgorithm)
	}
	if c.Archive.FanoutDepth < 0 || c.Archive.FanoutDepth > 8 {
		return errors.New("archive.fanout_depth must be between 0 and 8")
	}
	if c.Archive.FanoutDepth > 0 && (c.Archive.FanoutWidth < 1 || c.Archive.FanoutWidth > 8) {
		return errors.New("archive.fanout_width must be between 1 and 8")
	}
	switch c.Archive.Compression {
	case CompressionNone, CompressionZstd, CompressionLZ4:
	default:
		return fmt.Errorf("archive.compression: unsupported value %q (want none, zstd or lz4)", c.Archive.Compression)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if !validLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	for stage, level := range c.Logging.StageOverrides {
		if !validLevel(level) {
			return fmt.Errorf("logging.stage_overrides.%s: unsupported value %q", stage, level)
		}
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func validLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
