package models

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds reported by every operation. Check them with errors.Is.
var (
	// ErrInvalidInput covers unparseable timestamps, unknown timezones,
	// non-numeric offsets and missing required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when the entity has no exact match in statistics_meta.
	ErrNotFound = errors.New("entity not found")

	// ErrBackupFailed is returned when the database copy could not be made and
	// the caller did not confirm proceeding without one.
	ErrBackupFailed = errors.New("backup failed")

	// ErrStorage wraps any failure reported by the database engine.
	ErrStorage = errors.New("storage failure")
)

// InvalidInputf builds an ErrInvalidInput with a formatted reason.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// StorageError wraps a database error as ErrStorage while keeping the cause.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// NotFoundError carries the statistic ids that look like the requested entity.
type NotFoundError struct {
	EntityID   string
	Candidates []MetadataCandidate
}

func (e *NotFoundError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("entity not found in statistics_meta: %s", e.EntityID)
	}
	names := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		names = append(names, c.StatisticID)
	}
	return fmt.Sprintf("entity not found in statistics_meta: %s (similar: %s)",
		e.EntityID, strings.Join(names, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// BackupError describes a failed backup attempt.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup of %s failed: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() []error {
	return []error{ErrBackupFailed, e.Err}
}

// Kind returns a short label for the error kind, used in transcripts and exit messages.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrBackupFailed):
		return "BackupFailed"
	default:
		return "StorageFailure"
	}
}
