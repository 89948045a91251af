package memory

import (
	"context"
	"errors"
	"testing"

	"financitos/internal/remote"
)

func TestUploadBackupKeepsID(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.UploadBackup(ctx, "backup_2024-01-01.json", []byte("1"))
	if err != nil || !first.Success {
		t.Fatalf("first upload: %+v %v", first, err)
	}
	second, err := s.UploadBackup(ctx, "backup_2024-01-01.json", []byte("2"))
	if err != nil || second.FileID != first.FileID {
		t.Fatalf("expected in-place update, got %+v %v", second, err)
	}
	if b, _ := s.File("backup_2024-01-01.json"); string(b) != "2" {
		t.Fatalf("content = %q", b)
	}
	if s.Uploads() != 2 || len(s.Names()) != 1 {
		t.Fatalf("uploads=%d names=%v", s.Uploads(), s.Names())
	}
}

func TestUploadBackupFailure(t *testing.T) {
	s := New()
	s.FailWith(errors.New("quota exceeded"))

	res, err := s.UploadBackup(context.Background(), "x.json", nil)
	if !errors.Is(err, remote.ErrSyncFailed) {
		t.Fatalf("expected ErrSyncFailed, got %v", err)
	}
	if res.Success || res.Error != "quota exceeded" {
		t.Fatalf("unexpected result %+v", res)
	}
}
