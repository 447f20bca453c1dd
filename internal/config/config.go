// Package config handles server configuration and the CLI credential file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	ListenAddr string       `yaml:"listen_addr"`
	DBPath     string       `yaml:"db_path"`
	LogLevel   string       `yaml:"log_level"`
	Backup     BackupConfig `yaml:"backup"`
	Push       PushConfig   `yaml:"push"`
}

// BackupConfig controls scheduled S3 snapshots.
type BackupConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	ScheduleHour  int    `yaml:"schedule_hour"`  // UTC
	RetentionDays int    `yaml:"retention_days"`
}

// PushConfig holds VAPID keys for web push.
type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subscriber      string `yaml:"subscriber"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr: ":8080",
		DBPath:     "hearthkeep.db",
		LogLevel:   "info",
		Backup: BackupConfig{
			Region:        "auto",
			ScheduleHour:  3,
			RetentionDays: 30,
		},
		Push: PushConfig{
			Subscriber: "mailto:admin@localhost",
		},
	}
}

// Load reads configuration from an optional YAML file, then applies
// HEARTHKEEP_* environment overrides. A missing file is not an error;
// a malformed one is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.ListenAddr, "HEARTHKEEP_LISTEN_ADDR")
	setString(&cfg.DBPath, "HEARTHKEEP_DB_PATH")
	setString(&cfg.LogLevel, "HEARTHKEEP_LOG_LEVEL")

	setString(&cfg.Backup.Endpoint, "HEARTHKEEP_S3_ENDPOINT")
	setString(&cfg.Backup.Bucket, "HEARTHKEEP_S3_BUCKET")
	setString(&cfg.Backup.Region, "HEARTHKEEP_S3_REGION")
	setString(&cfg.Backup.AccessKey, "HEARTHKEEP_S3_ACCESS_KEY")
	setString(&cfg.Backup.SecretKey, "HEARTHKEEP_S3_SECRET_KEY")
	setInt(&cfg.Backup.ScheduleHour, "HEARTHKEEP_BACKUP_HOUR")
	setInt(&cfg.Backup.RetentionDays, "HEARTHKEEP_BACKUP_RETENTION_DAYS")

	setString(&cfg.Push.VAPIDPublicKey, "HEARTHKEEP_VAPID_PUBLIC_KEY")
	setString(&cfg.Push.VAPIDPrivateKey, "HEARTHKEEP_VAPID_PRIVATE_KEY")
	setString(&cfg.Push.Subscriber, "HEARTHKEEP_VAPID_SUBSCRIBER")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Credentials is the CLI's stored login state.
type Credentials struct {
	ServerURL   string `yaml:"server_url"`
	Token       string `yaml:"token"`
	HouseholdID int64  `yaml:"household_id,omitempty"`
}

const credentialsDir = ".hearthkeep"
const credentialsFile = "credentials.yaml"

func credentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, credentialsDir, credentialsFile), nil
}

// ReadCredentials loads the stored CLI credentials. Returns (nil, nil)
// when no credentials have been saved yet.
func ReadCredentials() (*Credentials, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return &creds, nil
}

// WriteCredentials saves CLI credentials, creating ~/.hearthkeep if needed.
// The file is written 0600 since it holds the session token.
func WriteCredentials(creds *Credentials) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// DeleteCredentials removes the stored CLI credentials.
func DeleteCredentials() error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}
