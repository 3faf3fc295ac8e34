package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStaging(); err != nil {
		return err
	}
	if err := c.normalizeArchive(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStaging() error {
	c.Staging.Backend = strings.ToLower(strings.TrimSpace(c.Staging.Backend))
	if c.Staging.Backend == "" {
		c.Staging.Backend = StagingBackendSQLite
	}
	if strings.TrimSpace(c.Staging.DBPath) == "" {
		c.Staging.DBPath = filepath.Join(c.Paths.DataDir, "staging.db")
	}
	var err error
	if c.Staging.DBPath, err = expandPath(c.Staging.DBPath); err != nil {
		return fmt.Errorf("staging.db_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeArchive() error {
	c.Archive.Backend = strings.ToLower(strings.TrimSpace(c.Archive.Backend))
	if c.Archive.Backend == "" {
		c.Archive.Backend = ArchiveBackendFS
	}
	if value, ok := os.LookupEnv("SEADVA_ARCHIVE_DIR"); ok && strings.TrimSpace(c.Archive.Dir) == "" {
		c.Archive.Dir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Archive.Dir) == "" {
		c.Archive.Dir = filepath.Join(c.Paths.DataDir, "archive")
	}
	var err error
	if c.Archive.Dir, err = expandPath(c.Archive.Dir); err != nil {
		return fmt.Errorf("archive.dir: %w", err)
	}
	c.Archive.DigestAlgorithm = strings.ToLower(strings.TrimSpace(c.Archive.DigestAlgorithm))
	if c.Archive.DigestAlgorithm == "" {
		c.Archive.DigestAlgorithm = DigestSHA256
	}
	c.Archive.Compression = strings.ToLower(strings.TrimSpace(c.Archive.Compression))
	if c.Archive.Compression == "" {
		c.Archive.Compression = CompressionNone
	}
	return nil
}

func (c *Config) normalizeIngest() {
	c.Ingest.IDPrefix = strings.TrimSpace(c.Ingest.IDPrefix)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if value, ok := os.LookupEnv("SEADVA_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.StageOverrides) > 0 {
		overrides := make(map[string]string, len(c.Logging.StageOverrides))
		for stage, level := range c.Logging.StageOverrides {
			key := strings.ToLower(strings.TrimSpace(stage))
			if key == "" {
				continue
			}
			overrides[key] = strings.ToLower(strings.TrimSpace(level))
		}
		c.Logging.StageOverrides = overrides
	}
}
