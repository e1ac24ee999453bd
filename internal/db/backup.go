package db

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	backupTimeLayout = "20060102-150405"
	backupExtension  = ".bak"

	// maxBackupAttempts bounds the "-N" suffixes tried within one second.
	maxBackupAttempts = 100
)

// BackupPath returns "<path>.<YYYYMMDD-HHMMSS>.bak" for the given moment.
func BackupPath(path string, now time.Time) string {
	return numberedBackupPath(path, now, 1)
}

// numberedBackupPath returns BackupPath for n == 1 and
// "<path>.<YYYYMMDD-HHMMSS>-<n>.bak" otherwise.
func numberedBackupPath(path string, now time.Time, n int) string {
	stamp := now.Format(backupTimeLayout)
	if n > 1 {
		stamp = fmt.Sprintf("%s-%d", stamp, n)
	}
	return fmt.Sprintf("%s.%s%s", path, stamp, backupExtension)
}

// createBackupFile exclusively creates the first free backup name for now.
func createBackupFile(path string, now time.Time, perm os.FileMode) (*os.File, string, error) {
	var err error
	for n := 1; n <= maxBackupAttempts; n++ {
		name := numberedBackupPath(path, now, n)
		var f *os.File
		f, err = os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	return nil, "", fmt.Errorf("failed to create backup file: %w", err)
}

// Backup copies the database file next to itself. The copy is created
// exclusively, so an existing backup is never overwritten: when the name for
// now is taken, "-2", "-3" and so on are appended to the timestamp. The copy
// keeps the source's mode and modification time.
func Backup(path string, now time.Time) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open database for backup: %w", err)
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat database: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", path)
	}

	dst, dstPath, err := createBackupFile(path, now, info.Mode().Perm())
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to copy database: %w", err)
	}
	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to flush backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to close backup: %w", err)
	}

	_ = os.Chtimes(dstPath, info.ModTime(), info.ModTime())

	return dstPath, nil
}

// PendingWAL returns the size of a non-empty write-ahead log next to path.
// Rows still in the WAL are not part of a plain file copy.
func PendingWAL(path string) int64 {
	info, err := os.Stat(path + "-wal")
	if err != nil {
		return 0
	}
	return info.Size()
}

// ListBackups returns the backups made of path, oldest first.
func ListBackups(path string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(
		filepath.Dir(path),
		escapeGlob(filepath.Base(path))+".*"+backupExtension,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	prefix := filepath.Base(path) + "."
	sort.Slice(matches, func(i, j int) bool {
		si, ni := backupOrder(strings.TrimPrefix(filepath.Base(matches[i]), prefix))
		sj, nj := backupOrder(strings.TrimPrefix(filepath.Base(matches[j]), prefix))
		if si != sj {
			return si < sj
		}
		return ni < nj
	})
	return matches, nil
}

// backupOrder splits "<stamp>[-<n>].bak" into the stamp and the attempt
// number, so that "-2" sorts after the plain name and "-10" after "-9".
func backupOrder(name string) (string, int) {
	name = strings.TrimSuffix(name, backupExtension)
	if len(name) <= len(backupTimeLayout) {
		return name, 1
	}
	stamp, rest := name[:len(backupTimeLayout)], name[len(backupTimeLayout):]
	n, err := strconv.Atoi(strings.TrimPrefix(rest, "-"))
	if err != nil || !strings.HasPrefix(rest, "-") {
		return name, 1
	}
	return stamp, n
}

func escapeGlob(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', '\\':
			b = append(b, '\\')
		}
		b = append(b, s[i])
	}
	return string(b)
}
