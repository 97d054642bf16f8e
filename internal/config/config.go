package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	DataDir      string // KB_DATA_DIR (default ~/.local/state/kb)
	DatabasePath string // KB_DATABASE_PATH (default <data dir>/events.db)
	KnowledgeDir string // KB_KNOWLEDGE_DIR (default <data dir>/knowledge)
	RulesPath    string // KB_RULES_PATH (default <data dir>/rules.toml)
	NATSURL      string // KB_NATS_URL (optional, empty = no bus)

	// Archive settings
	SyncInterval      time.Duration // KB_SYNC_INTERVAL (default 15m; 0 = disabled)
	ArchiveS3Bucket   string        // KB_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Prefix   string        // KB_ARCHIVE_S3_PREFIX (default "kb/")
	ArchiveS3Region   string        // KB_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Endpoint string        // KB_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
}

func Load() (*Config, error) {
	dataDir := os.Getenv("KB_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "state", "kb")
	}

	c := &Config{
		DataDir:           dataDir,
		DatabasePath:      envOrDefault("KB_DATABASE_PATH", filepath.Join(dataDir, "events.db")),
		KnowledgeDir:      envOrDefault("KB_KNOWLEDGE_DIR", filepath.Join(dataDir, "knowledge")),
		RulesPath:         envOrDefault("KB_RULES_PATH", filepath.Join(dataDir, "rules.toml")),
		NATSURL:           os.Getenv("KB_NATS_URL"),
		ArchiveS3Bucket:   os.Getenv("KB_ARCHIVE_S3_BUCKET"),
		ArchiveS3Prefix:   envOrDefault("KB_ARCHIVE_S3_PREFIX", "kb/"),
		ArchiveS3Region:   envOrDefault("KB_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Endpoint: os.Getenv("KB_ARCHIVE_S3_ENDPOINT"),
	}

	intervalStr := envOrDefault("KB_SYNC_INTERVAL", "15m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("KB_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

// EnsureDirs creates the data and knowledge directories if missing.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.KnowledgeDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// LogDir is where event-log segments live.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "log")
}

// LockPath is the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "kb.lock")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
