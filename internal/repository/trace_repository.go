package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/elasticpathing/traceprep/internal/database"
	"github.com/elasticpathing/traceprep/internal/models"
)

// TraceRepository handles database operations for one trace store
type TraceRepository struct {
	db *sql.DB
}

// NewTraceRepository creates a new trace repository
func NewTraceRepository(db *sql.DB) *TraceRepository {
	return &TraceRepository{db: db}
}

// Reset creates the position and speed tables if needed and empties them.
func (r *TraceRepository) Reset(ctx context.Context) error {
	if err := database.ApplySchema(ctx, r.db, database.TraceTables); err != nil {
		return fmt.Errorf("failed to reset trace tables: %w", err)
	}
	return nil
}

// InsertSamples writes samples into the position and speed tables. Rows with
// an existing time are replaced.
func (r *TraceRepository) InsertSamples(ctx context.Context, samples []models.TraceSample) error {
	if len(samples) == 0 {
		return nil
	}

	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		posStmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO gpstrace (latitude, longitude, time) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare position statement: %w", err)
		}
		defer posStmt.Close()

		speedStmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO speeds (speed, time) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare speed statement: %w", err)
		}
		defer speedStmt.Close()

		for _, s := range samples {
			if _, err := posStmt.ExecContext(ctx, s.Lat, s.Lon, s.Time); err != nil {
				return fmt.Errorf("failed to insert position at %d: %w", s.Time, err)
			}
			if _, err := speedStmt.ExecContext(ctx, s.Speed, s.Time); err != nil {
				return fmt.Errorf("failed to insert speed at %d: %w", s.Time, err)
			}
		}
		return nil
	})
}

// SamplesBySecond returns at most one sample per whole second, in time order.
func (r *TraceRepository) SamplesBySecond(ctx context.Context) ([]models.TraceSample, error) {
	query := `SELECT g.latitude, g.longitude, MIN(g.time) AS t, COALESCE(s.speed, 0)
		FROM gpstrace g
		LEFT JOIN speeds s ON s.time = g.time
		GROUP BY g.time / 1000
		ORDER BY t`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace samples: %w", err)
	}
	defer rows.Close()

	var samples []models.TraceSample
	for rows.Next() {
		var s models.TraceSample
		if err := rows.Scan(&s.Lat, &s.Lon, &s.Time, &s.Speed); err != nil {
			return nil, fmt.Errorf("failed to scan trace sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace samples: %w", err)
	}

	return samples, nil
}

// CountSamples returns the number of rows in the position table.
func (r *TraceRepository) CountSamples(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM gpstrace").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trace samples: %w", err)
	}
	return n, nil
}

// HasAnchor reports whether the store has already been anchored.
func (r *TraceRepository) HasAnchor(ctx context.Context) (bool, error) {
	return database.HasTable(ctx, r.db, database.AnchorTableName)
}

// SaveAnchor replaces the store's anchor row with (time, nodeID).
func (r *TraceRepository) SaveAnchor(ctx context.Context, time, nodeID int64) error {
	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if err := database.ApplyStatements(ctx, tx, database.AnchorTable); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO firstnode (time, "node id") VALUES (?, ?)`, time, nodeID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save anchor: %w", err)
	}
	return nil
}

// GetAnchor returns the stored anchor row. ok is false when the store has no
// anchor table or the table is empty.
func (r *TraceRepository) GetAnchor(ctx context.Context) (time, nodeID int64, ok bool, err error) {
	has, err := r.HasAnchor(ctx)
	if err != nil || !has {
		return 0, 0, false, err
	}

	err = r.db.QueryRowContext(ctx, `SELECT time, "node id" FROM firstnode LIMIT 1`).Scan(&time, &nodeID)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to get anchor: %w", err)
	}

	return time, nodeID, true, nil
}
