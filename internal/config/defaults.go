package config

const (
	defaultDataDir         = "~/.local/share/seadva"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogRetention    = 30
	defaultStaleAfterHours = 168
	defaultWorkerCount     = 4
	defaultIDPrefix        = "sead:"
	defaultFanoutDepth     = 2
	defaultFanoutWidth     = 2
)

// Backend and algorithm names accepted by the configuration.
const (
	StagingBackendSQLite = "sqlite"
	StagingBackendMemory = "memory"

	ArchiveBackendFS     = "fs"
	ArchiveBackendMemory = "memory"

	DigestSHA256 = "sha256"
	DigestSHA512 = "sha512"
	DigestBLAKE3 = "blake3"

	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

// Default returns a Config populated with repository defaults. Directory
// fields left empty are derived from Paths.DataDir during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Staging: Staging{
			Backend:         StagingBackendSQLite,
			StaleAfterHours: defaultStaleAfterHours,
		},
		Ingest: Ingest{
			WorkerCount:     defaultWorkerCount,
			RetireCompleted: true,
			IDPrefix:        defaultIDPrefix,
		},
		Archive: Archive{
			Backend:         ArchiveBackendFS,
			DigestAlgorithm: DigestSHA256,
			FanoutDepth:     defaultFanoutDepth,
			FanoutWidth:     defaultFanoutWidth,
			Compression:     CompressionNone,
		},
		Logging: Logging{
			Format:         defaultLogFormat,
			Level:          defaultLogLevel,
			RetentionDays:  defaultLogRetention,
			StageOverrides: map[string]string{},
		},
	}
}
