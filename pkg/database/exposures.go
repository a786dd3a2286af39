package database

import (
	"context"
	"fmt"
	"time"

	"radiography-shield/pkg/exposure"
)

// =====================
// Exposure log
// =====================

type exposureRow struct {
	exposure.Record
	CollimatorInt int     `db:"collimator"`
	DurationSec   float64 `db:"duration_s"`
	CreatedUnix   int64   `db:"created_at"`
}

// InsertExposure stores one exposure record.
func (db *Database) InsertExposure(ctx context.Context, rec exposure.Record) error {
	collimator := 0
	if rec.Collimator {
		collimator = 1
	}
	stmt := db.X.Rebind(`INSERT INTO exposures
  (id, user_id, isotope, activity_ci, collimator, distance_m, thickness_mm, mu, duration_s, dose_rate, dose, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := db.DB.ExecContext(ctx, stmt,
		rec.ID, rec.UserID, rec.Isotope, rec.ActivityCi, collimator, rec.DistanceM, rec.ThicknessMM,
		rec.Mu, rec.Duration.Seconds(), rec.DoseRate, rec.Dose, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert exposure: %w", err)
	}
	return nil
}

// ListExposures returns the user's most recent exposures, newest first.
func (db *Database) ListExposures(ctx context.Context, userID string, limit int) ([]exposure.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []exposureRow
	query := db.X.Rebind(fmt.Sprintf(`SELECT id, user_id, isotope, activity_ci, collimator, distance_m, thickness_mm, mu,
  duration_s, dose_rate, dose, created_at
FROM exposures WHERE user_id = ? ORDER BY created_at DESC LIMIT %d`, limit))
	if err := db.X.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list exposures: %w", err)
	}

	out := make([]exposure.Record, 0, len(rows))
	for _, r := range rows {
		rec := r.Record
		rec.Collimator = r.CollimatorInt != 0
		rec.Duration = time.Duration(r.DurationSec * float64(time.Second))
		rec.DurationS = r.DurationSec
		rec.CreatedAt = time.Unix(r.CreatedUnix, 0).UTC()
		out = append(out, rec)
	}
	return out, nil
}

// TotalDose sums the user's logged dose (mSv) since the given time.
func (db *Database) TotalDose(ctx context.Context, userID string, since time.Time) (float64, error) {
	var total float64
	query := db.X.Rebind(`SELECT COALESCE(SUM(dose), 0) FROM exposures WHERE user_id = ? AND created_at >= ?`)
	if err := db.X.QueryRowxContext(ctx, query, userID, since.Unix()).Scan(&total); err != nil {
		return 0, fmt.Errorf("total dose: %w", err)
	}
	return total, nil
}
