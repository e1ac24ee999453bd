package fixer

import (
	"fmt"
	"os"
	"strings"

	"github.com/j-veylop/ha-stats-fixer/internal/db"
	"github.com/j-veylop/ha-stats-fixer/internal/logger"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

// Apply backs up the database and adds the offset to the selected columns of
// every row in the window, in one transaction. The result is never nil.
func (s *Service) Apply(req ApplyRequest) (*ApplyResult, error) {
	res := &ApplyResult{}
	return res, finish(&res.Report, "apply", s.apply(req, res))
}

func (s *Service) apply(req ApplyRequest, res *ApplyResult) error {
	offset, err := models.ParseOffset(req.Offset)
	if err != nil {
		return err
	}
	res.Offset = offset

	t, err := s.open(req.Request, &res.Report)
	if err != nil {
		return err
	}
	defer closeDB(t.database)

	variant, err := detect(t.database, db.StatisticsTable)
	if err != nil {
		return err
	}

	correction := db.Correction{
		Primary: db.BuildRangeQuery(db.StatisticsTable, variant, t.metadataID, t.window, req.Columns),
	}
	var exact bool
	correction.Offset, exact = offset.Float64()
	if !exact {
		// The columns are REAL, so the nearest float64 is what SQLite would store anyway.
		logger.Debug("offset is not exactly representable as float64",
			"offset", offset.String(), "applied", correction.Offset)
	}

	if req.IncludeShortTerm {
		stVariant, err := detect(t.database, db.ShortTermTable)
		if err != nil {
			return err
		}
		q := db.BuildRangeQuery(db.ShortTermTable, stVariant, t.metadataID, t.window, req.Columns)
		correction.ShortTerm = &q
	}

	if err := s.backup(t.database, req, res); err != nil {
		return err
	}

	result, err := t.database.ApplyOffset(correction)
	if err != nil {
		res.logf("Transaction rolled back; no rows were changed.")
		return models.StorageError("apply correction", err)
	}
	res.Committed = true
	res.Updated = result.Primary
	res.ShortTermUpdated = result.ShortTerm

	res.logf("Applied offset %s to %s for range %s.",
		models.FormatOffset(offset), strings.Join(correction.Primary.Columns, ", "), t.window)

	counts := make([]string, 0, len(result.Primary))
	for _, c := range result.Primary {
		counts = append(counts, fmt.Sprintf("%s=%d", c.Column, c.Rows))
	}
	res.logf("Updated rows (%s): %s", db.StatisticsTable, strings.Join(counts, ", "))
	if req.IncludeShortTerm {
		res.logf("Updated rows (%s): %d", db.ShortTermTable, result.ShortTerm)
	}
	res.logf("Restart Home Assistant and hard-refresh the UI to see changes.")

	return nil
}

// backup checkpoints the WAL and copies the database file. A failed copy is
// only tolerated when the caller confirms.
func (s *Service) backup(database *db.DB, req ApplyRequest, res *ApplyResult) error {
	path := database.Path()

	if err := database.Checkpoint(); err != nil {
		logger.Warn("checkpoint before backup failed", "path", path, "error", err)
	}
	if pending := db.PendingWAL(path); pending > 0 {
		res.logf("Warning: %s of the write-ahead log is not part of the backup.", formatBytes(uint64(pending)))
	}

	backupPath, err := s.copyDB(path, s.now())
	if err == nil {
		res.BackupPath = backupPath
		if info, statErr := os.Stat(backupPath); statErr == nil {
			res.BackupSize = uint64(info.Size())
		}
		res.logf("Backup created: %s (%s)", backupPath, formatBytes(res.BackupSize))
		return nil
	}

	backupErr := &models.BackupError{Path: path, Err: err}
	res.logf("ERROR creating backup: %v", err)
	if req.ConfirmWithoutBackup == nil || !req.ConfirmWithoutBackup(backupErr) {
		res.logf("Aborted: no backup was made.")
		return backupErr
	}

	res.logf("Proceeding without backup.")
	logger.Warn("continuing without backup", "path", path, "error", err)
	return nil
}
