package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.Backup.ScheduleHour != 3 {
		t.Errorf("schedule hour = %d", cfg.Backup.ScheduleHour)
	}
	if cfg.Backup.RetentionDays != 30 {
		t.Errorf("retention days = %d", cfg.Backup.RetentionDays)
	}
}

func TestLoadMissingFileIsNotError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "listen_addr: \":9090\"\nlog_level: debug\nbackup:\n  bucket: from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HEARTHKEEP_S3_BUCKET", "from-env")
	t.Setenv("HEARTHKEEP_BACKUP_HOUR", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("listen addr = %q, want :9090", cfg.ListenAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	if cfg.Backup.Bucket != "from-env" {
		t.Errorf("bucket = %q, env should win over file", cfg.Backup.Bucket)
	}
	if cfg.Backup.ScheduleHour != 5 {
		t.Errorf("schedule hour = %d, want 5", cfg.Backup.ScheduleHour)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [not a string"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCredentialsRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	creds, err := ReadCredentials()
	if err != nil {
		t.Fatalf("ReadCredentials: %v", err)
	}
	if creds != nil {
		t.Fatal("expected nil credentials before first write")
	}

	want := &Credentials{ServerURL: "http://localhost:8080", Token: "abc123", HouseholdID: 4}
	if err := WriteCredentials(want); err != nil {
		t.Fatalf("WriteCredentials: %v", err)
	}

	got, err := ReadCredentials()
	if err != nil {
		t.Fatalf("ReadCredentials: %v", err)
	}
	if got == nil || got.Token != "abc123" || got.HouseholdID != 4 {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if err := DeleteCredentials(); err != nil {
		t.Fatalf("DeleteCredentials: %v", err)
	}
	got, err = ReadCredentials()
	if err != nil {
		t.Fatalf("ReadCredentials after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}
