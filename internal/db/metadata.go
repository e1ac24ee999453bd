package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/j-veylop/ha-stats-fixer/internal/logger"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

// LookupMetadataID returns the statistics_meta id for an exact statistic_id
// match. found is false when there is none.
func (db *DB) LookupMetadataID(statisticID string) (id int64, found bool, err error) {
	query := "SELECT id FROM " + MetaTable + " WHERE statistic_id = ?"

	err = db.QueryRowContext(context.Background(), query, statisticID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up metadata id: %w", err)
	}

	return id, true, nil
}

// SimilarStatistics lists statistic ids containing the given text.
func (db *DB) SimilarStatistics(statisticID string) ([]models.MetadataCandidate, error) {
	query := "SELECT id, statistic_id FROM " + MetaTable + `
		WHERE statistic_id LIKE ?
		ORDER BY statistic_id
		LIMIT ?`

	rows, err := db.QueryContext(context.Background(), query, "%"+statisticID+"%", CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar statistic ids: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var candidates []models.MetadataCandidate
	for rows.Next() {
		var c models.MetadataCandidate
		if err := rows.Scan(&c.MetadataID, &c.StatisticID); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}
