// Package fixer implements the preview, diagnose and apply operations against
// a Home Assistant recorder database.
package fixer

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/j-veylop/ha-stats-fixer/internal/db"
	"github.com/j-veylop/ha-stats-fixer/internal/logger"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

// DefaultTimezone is used when a request leaves the timezone empty.
const DefaultTimezone = "Europe/Berlin"

// Service runs the operations. Each call opens and closes its own connection.
type Service struct {
	now    func() time.Time
	copyDB func(path string, now time.Time) (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for backup names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{now: time.Now, copyDB: db.Backup}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// target is what every operation resolves before touching statistics rows.
type target struct {
	database   *db.DB
	window     models.Window
	metadataID int64
}

// open validates req, resolves the window, connects and resolves the
// metadata id. On error nothing is left open.
func (s *Service) open(req Request, r *Report) (*target, error) {
	if strings.TrimSpace(req.DatabasePath) == "" {
		return nil, models.InvalidInputf("database path required")
	}
	if strings.TrimSpace(req.EntityID) == "" {
		return nil, models.InvalidInputf("entity id required")
	}

	w, err := models.ResolveWindow(req.Start, req.End, req.timezone())
	if err != nil {
		return nil, err
	}
	r.Window = &w

	database, err := db.Open(strings.TrimSpace(req.DatabasePath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.InvalidInputf("database file not found: %s", req.DatabasePath)
		}
		return nil, models.StorageError("open database", err)
	}

	entity := strings.TrimSpace(req.EntityID)
	mid, found, err := database.LookupMetadataID(entity)
	if err != nil {
		closeDB(database)
		return nil, models.StorageError("look up metadata id", err)
	}
	if !found {
		err := s.notFound(database, entity, r)
		closeDB(database)
		return nil, err
	}
	r.MetadataID = mid

	return &target{database: database, window: w, metadataID: mid}, nil
}

// notFound lists similar statistic ids and returns the NotFound error.
func (s *Service) notFound(database *db.DB, entity string, r *Report) error {
	r.logf("Entity not found in statistics_meta: %s", entity)

	candidates, err := database.SimilarStatistics(entity)
	if err != nil {
		logger.Warn("failed to list similar statistic ids", "entity", entity, "error", err)
	}
	r.Candidates = candidates

	if len(candidates) > 0 {
		r.logf("Similar statistic_ids:")
		for _, c := range candidates {
			r.logf("  metadata_id=%d  statistic_id=%s", c.MetadataID, c.StatisticID)
		}
	}

	return &models.NotFoundError{EntityID: entity, Candidates: candidates}
}

// detect resolves the timestamp variant of table.
func detect(database *db.DB, table string) (db.TimestampVariant, error) {
	variant, err := database.DetectVariant(table)
	if err != nil {
		return variant, models.StorageError("detect timestamp column of "+table, err)
	}
	return variant, nil
}

// finish records the outcome of an operation in the transcript and the log.
func finish(r *Report, op string, err error) error {
	if err == nil {
		logger.Info(op+" finished", "metadata_id", r.MetadataID)
		return nil
	}
	r.logf("ERROR during %s (%s): %v", op, models.Kind(err), err)
	logger.Error(op+" failed", "kind", models.Kind(err), "error", err)
	return err
}

func closeDB(database *db.DB) {
	if err := database.Close(); err != nil {
		logger.Error("failed to close database", "path", database.Path(), "error", err)
	}
}
