package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// Backup copies the live sqlite file to a timestamped file named
// <base>_backup_<YYYYMMDD_HHMMSS>.db under the configured backup
// directory, or next to the database when none is configured. When a
// backup bucket is set, the copy is also shipped to object storage.
// It is a no-op for postgres and for a database that has no file yet.
func (s *Store) Backup(ctx context.Context) (string, error) {
	if s.pg || s.path == "" || s.path == ":memory:" {
		return "", nil
	}
	src, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: open database for backup: %v", ErrStore, err)
	}
	defer src.Close()

	dir := s.backupDir
	if dir == "" {
		dir = filepath.Dir(s.path)
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create backup dir: %v", ErrStore, err)
	}
	base := strings.TrimSuffix(filepath.Base(s.path), ".db")
	target := filepath.Join(dir,
		fmt.Sprintf("%s_backup_%s.db", base, time.Now().Format("20060102_150405")))
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("%w: create backup file: %v", ErrStore, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("%w: copy backup: %v", ErrStore, err)
	}
	s.log.Info("database backed up", zap.String("path", target))

	if s.backupBucket != "" {
		uri, err := s.uploadBackup(ctx, target)
		if err != nil {
			s.log.Warn("backup upload failed", zap.Error(err))
		} else {
			s.log.Info("backup uploaded", zap.String("uri", uri))
		}
	}
	return target, nil
}

// uploadBackup ships one backup file to the configured bucket and
// returns its gs:// URI. Credentials come from Application Default
// Credentials.
func (s *Store) uploadBackup(ctx context.Context, path string) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()

	object := filepath.Base(path)
	w := client.Bucket(s.backupBucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/vnd.sqlite3"
	if _, err := io.Copy(w, f); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			return "", fmt.Errorf("copy backup object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy backup object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close storage writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.backupBucket, object), nil
}
