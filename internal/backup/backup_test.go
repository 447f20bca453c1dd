package backup

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hearthkeep/hearthkeep/internal/database"
	"github.com/hearthkeep/hearthkeep/internal/model"
	"github.com/hearthkeep/hearthkeep/internal/store"
)

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*input.Key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *input.Key)
	f.deleted = append(f.deleted, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func testManager(t *testing.T, client s3Client) (*Manager, *store.BackupStore) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	m := NewManager(Config{
		S3:           S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath:       dbPath,
		ScheduleHour: 3,
	}, db, bs, nil, slog.Default())
	m.client = client
	return m, bs
}

func TestRunNowUploads(t *testing.T) {
	client := newFakeS3()
	m, bs := testManager(t, client)

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	record, err := bs.GetByID(id)
	if err != nil {
		t.Fatalf("get backup: %v", err)
	}
	if record.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want %q", record.Status, model.BackupStatusCompleted)
	}
	if record.SizeBytes == 0 {
		t.Error("expected non-zero snapshot size")
	}
	if _, ok := client.objects[record.S3Key]; !ok {
		t.Errorf("object %q not uploaded", record.S3Key)
	}
	if !strings.HasPrefix(record.S3Key, "snapshots/backup-") {
		t.Errorf("unexpected key %q", record.S3Key)
	}

	status := m.Status()
	if status.State != StateIdle {
		t.Errorf("state = %q, want %q", status.State, StateIdle)
	}
	if status.LastBackup == nil {
		t.Error("expected last backup timestamp")
	}
}

func TestRunNowUploadFailure(t *testing.T) {
	client := newFakeS3()
	client.putErr = io.ErrClosedPipe
	m, bs := testManager(t, client)

	id, err := m.RunNow(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if id != 0 {
		t.Errorf("expected zero id on failure, got %d", id)
	}

	backups, err := bs.List()
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 record, got %d", len(backups))
	}
	if backups[0].Status != model.BackupStatusFailed {
		t.Errorf("status = %q, want %q", backups[0].Status, model.BackupStatusFailed)
	}
	if m.Status().State != StateError {
		t.Errorf("state = %q, want %q", m.Status().State, StateError)
	}
}

func TestRunNowNotConfigured(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{DBPath: dbPath}, db, store.NewBackupStore(db), nil, slog.Default())
	if m.Status().State != StateDisabled {
		t.Fatalf("expected disabled state, got %q", m.Status().State)
	}
	if _, err := m.RunNow(context.Background()); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestStatusCallback(t *testing.T) {
	client := newFakeS3()
	var states []State
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{
		S3:     S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath: dbPath,
	}, db, store.NewBackupStore(db), func(s Status) {
		states = append(states, s.State)
	}, slog.Default())
	m.client = client

	if _, err := m.RunNow(context.Background()); err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	if len(states) < 2 || states[0] != StateRunning || states[len(states)-1] != StateIdle {
		t.Errorf("unexpected state transitions: %v", states)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("snapshot contents"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "snapshot contents" {
		t.Errorf("copied contents = %q", data)
	}
}
