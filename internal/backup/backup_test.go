package backup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/panelworks/reseller/internal/database"
	"github.com/panelworks/reseller/internal/model"
	"github.com/panelworks/reseller/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(string(data))),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func testConfig(dbPath string) Config {
	return Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath:     dbPath,
		Passphrase: "hunter2",
	}
}

func testManager(t *testing.T) (*Manager, *mockS3Client, *store.BackupStore) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "panel.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	m := NewManager(testConfig(dbPath), db, bs, slog.New(slog.DiscardHandler))
	mock := newMockS3()
	m.client = mock
	return m, mock, bs
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config -> disabled
	m := NewManager(Config{}, nil, nil, slog.New(slog.DiscardHandler))
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}

	// Credentials but no passphrase -> still disabled
	m2 := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, slog.New(slog.DiscardHandler))
	if m2.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m2.Status().State, StateDisabled)
	}

	// Full config -> idle
	m3 := NewManager(testConfig("panel.db"), nil, nil, slog.New(slog.DiscardHandler))
	if m3.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m3.Status().State, StateIdle)
	}
}

func TestManagerStopSafety(t *testing.T) {
	m := NewManager(testConfig("panel.db"), nil, nil, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	m.Stop()

	// Double stop should not panic
	m.Stop()
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, slog.New(slog.DiscardHandler))

	m.Start(context.Background()) // no-op when disabled
	m.Stop()                      // should not block
}

func TestRunNowNotConfigured(t *testing.T) {
	m := NewManager(Config{}, nil, nil, slog.New(slog.DiscardHandler))
	if _, err := m.RunNow(context.Background()); !errors.Is(err, model.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	m, mock, bs := testManager(t)

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	record, err := bs.GetByID(id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", record.Status)
	}
	if record.SizeBytes <= 0 {
		t.Errorf("size = %d, want > 0", record.SizeBytes)
	}
	if record.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	mock.mu.Lock()
	data, ok := mock.objects[record.S3Key]
	mock.mu.Unlock()
	if !ok {
		t.Fatalf("no object uploaded under key %q", record.S3Key)
	}
	if int64(len(data)) != record.SizeBytes {
		t.Errorf("uploaded %d bytes, record says %d", len(data), record.SizeBytes)
	}
	if m.Status().State != StateIdle {
		t.Errorf("state = %q, want idle", m.Status().State)
	}
	if m.Status().LastBackup == nil {
		t.Error("last backup time not set")
	}
}

func TestRunNowUploadFailure(t *testing.T) {
	m, mock, bs := testManager(t)
	mock.putErr = errors.New("connection refused")

	id, err := m.RunNow(context.Background())
	if err == nil {
		t.Fatal("expected upload error")
	}
	if id != 0 {
		t.Errorf("id = %d, want 0", id)
	}
	if m.Status().State != StateError {
		t.Errorf("state = %q, want error", m.Status().State)
	}

	// The failed attempt is still recorded.
	backups, err := bs.List(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 || backups[0].Status != model.BackupStatusFailed {
		t.Errorf("expected one failed record, got %+v", backups)
	}
	if !strings.Contains(backups[0].ErrorMessage, "connection refused") {
		t.Errorf("error message = %q, want the upload error recorded", backups[0].ErrorMessage)
	}
}

func TestDownloadRoundTrip(t *testing.T) {
	m, _, _ := testManager(t)

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	body, record, err := m.Download(context.Background(), id)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(data)) != record.SizeBytes {
		t.Errorf("downloaded %d bytes, record says %d", len(data), record.SizeBytes)
	}

	// The stream is the encrypted snapshot; it must decrypt with the
	// configured passphrase to a SQLite file.
	dir := t.TempDir()
	enc := filepath.Join(dir, "dl.enc")
	dec := filepath.Join(dir, "dl.db")
	if err := os.WriteFile(enc, data, 0600); err != nil {
		t.Fatal(err)
	}
	if err := decryptFile(enc, dec, "hunter2"); err != nil {
		t.Fatalf("decrypt downloaded backup: %v", err)
	}
	header, err := os.ReadFile(dec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(header), "SQLite format 3") {
		t.Error("decrypted backup is not a SQLite database")
	}
}

func TestDownloadUnknownBackup(t *testing.T) {
	m, _, _ := testManager(t)
	if _, _, err := m.Download(context.Background(), 999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCleanupRemovesExpiredBackups(t *testing.T) {
	m, mock, bs := testManager(t)

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	record, err := bs.GetByID(id)
	if err != nil {
		t.Fatal(err)
	}

	// Backdate the record past the retention window.
	old := time.Now().UTC().AddDate(0, 0, -60)
	if _, err := m.db.Exec(`UPDATE backups SET created_at = ? WHERE id = ?`, old, id); err != nil {
		t.Fatal(err)
	}

	if err := m.Cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, err := bs.GetByID(id); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("record still present after cleanup: %v", err)
	}
	mock.mu.Lock()
	_, ok := mock.objects[record.S3Key]
	mock.mu.Unlock()
	if ok {
		t.Error("object still present after cleanup")
	}
}
