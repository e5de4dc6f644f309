package training

import (
	"context"
	"errors"
	"time"

	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrRecoveryMetricNotFound = errors.New("recovery metric not found")

type RecoveryRepo struct {
	db *pgxpool.Pool
}

func NewRecoveryRepo(db *pgxpool.Pool) *RecoveryRepo {
	return &RecoveryRepo{
		db: db,
	}
}

// Add inserts a recovery metric for a day, or overwrites the existing
// one if the athlete already logged that day.
func (r *RecoveryRepo) Add(ctx context.Context, metric RecoveryMetric) (_ *RecoveryMetric, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.recovery.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.
		QueryRow(ctx, `
			INSERT INTO recovery_metric
				(athlete_id, metric_date, sleep_hours, sleep_quality, resting_hr, hrv, soreness, energy, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (athlete_id, metric_date) DO UPDATE SET
				sleep_hours = EXCLUDED.sleep_hours,
				sleep_quality = EXCLUDED.sleep_quality,
				resting_hr = EXCLUDED.resting_hr,
				hrv = EXCLUDED.hrv,
				soreness = EXCLUDED.soreness,
				energy = EXCLUDED.energy
			RETURNING id, created_at
		`,
			metric.AthleteID, metric.MetricDate, metric.SleepHours, metric.SleepQuality,
			metric.RestingHR, metric.HRV, metric.Soreness, metric.Energy,
		).
		Scan(&metric.ID, &metric.CreatedAt)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("recovery.id", metric.ID))
	return &metric, nil
}

// ListSince returns the recovery metrics logged at or after the given date, newest first.
func (r *RecoveryRepo) ListSince(ctx context.Context, athleteID int, from time.Time) (_ []RecoveryMetric, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.recovery.listSince")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))

	rows, err := r.db.Query(ctx, `
		SELECT id, athlete_id, metric_date, sleep_hours, sleep_quality, resting_hr, hrv, soreness, energy, created_at
		FROM recovery_metric
		WHERE athlete_id = $1 AND metric_date >= $2
		ORDER BY metric_date DESC
	`, athleteID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2metrics(rows)
}

func (r *RecoveryRepo) GetForDate(ctx context.Context, athleteID int, date time.Time) (_ *RecoveryMetric, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.recovery.getForDate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, athlete_id, metric_date, sleep_hours, sleep_quality, resting_hr, hrv, soreness, energy, created_at
		FROM recovery_metric
		WHERE athlete_id = $1 AND metric_date = $2
	`, athleteID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics, err := r.rows2metrics(rows)
	if err != nil {
		return nil, err
	}
	if len(metrics) != 1 {
		return nil, ErrRecoveryMetricNotFound
	}
	return &metrics[0], nil
}

func (r *RecoveryRepo) rows2metrics(rows pgx.Rows) ([]RecoveryMetric, error) {
	var metrics []RecoveryMetric
	for rows.Next() {
		var m RecoveryMetric
		var restingHR, hrv *int
		if err := rows.Scan(
			&m.ID, &m.AthleteID, &m.MetricDate, &m.SleepHours, &m.SleepQuality,
			&restingHR, &hrv, &m.Soreness, &m.Energy, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		if restingHR != nil {
			m.RestingHR = *restingHR
		}
		if hrv != nil {
			m.HRV = *hrv
		}
		metrics = append(metrics, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if metrics == nil {
		metrics = make([]RecoveryMetric, 0)
	}
	return metrics, nil
}
