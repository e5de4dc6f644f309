package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrWorkoutNotFound = errors.New("workout not found")

type WorkoutParams struct {
	AthleteID int
	Type      WorkoutType
	From      *time.Time
	To        *time.Time
}

type WorkoutListParams struct {
	WorkoutParams
	Page int
	Size int
}

type WorkoutRepo struct {
	db *pgxpool.Pool
}

func NewWorkoutRepo(db *pgxpool.Pool) *WorkoutRepo {
	return &WorkoutRepo{
		db: db,
	}
}

func (r *WorkoutRepo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	stationsJson, err := json.Marshal(workout.Stations)
	if err != nil {
		return nil, fmt.Errorf("marshal stations: %w", err)
	}

	err = r.db.
		QueryRow(ctx, `
			INSERT INTO workout_log
				(athlete_id, workout_type, duration_minutes, distance_meters, rpe, stations, notes, performed_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			RETURNING id, created_at
		`,
			workout.AthleteID, workout.Type, workout.DurationMinutes, workout.DistanceMeters,
			workout.RPE, stationsJson, workout.Notes, workout.PerformedAt,
		).
		Scan(&workout.ID, &workout.CreatedAt)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("workout.id", workout.ID))
	return &workout, nil
}

func (r *WorkoutRepo) Get(ctx context.Context, athleteID, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(ctx, `
		SELECT id, athlete_id, workout_type, duration_minutes, distance_meters, rpe, stations, notes, performed_at, created_at
		FROM workout_log
		WHERE id = $1 AND athlete_id = $2 AND deleted_at IS NULL
	`, id, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}
	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}
	return &workouts[0], nil
}

func (r *WorkoutRepo) Update(ctx context.Context, workout *Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", workout.ID))

	stationsJson, err := json.Marshal(workout.Stations)
	if err != nil {
		return fmt.Errorf("marshal stations: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE workout_log
		SET workout_type = $1, duration_minutes = $2, distance_meters = $3, rpe = $4,
			stations = $5, notes = $6, performed_at = $7
		WHERE id = $8 AND athlete_id = $9 AND deleted_at IS NULL
	`,
		workout.Type, workout.DurationMinutes, workout.DistanceMeters, workout.RPE,
		stationsJson, workout.Notes, workout.PerformedAt,
		workout.ID, workout.AthleteID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

// Delete marks the workout as deleted, the row stays around.
func (r *WorkoutRepo) Delete(ctx context.Context, athleteID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `
		UPDATE workout_log SET deleted_at = NOW()
		WHERE id = $1 AND athlete_id = $2 AND deleted_at IS NULL
	`, id, athleteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *WorkoutRepo) List(ctx context.Context, params WorkoutListParams) (_ []Workout, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("page", params.Page))
	span.SetAttributes(attribute.Int("size", params.Size))
	span.SetAttributes(attribute.Int("athlete.id", params.AthleteID))

	if params.Page < 1 {
		return nil, -1, errors.New("page must be greater than 0")
	}
	if params.Size < 1 {
		return nil, -1, errors.New("size must be greater than 0")
	}

	limit := params.Size
	offset := (params.Page - 1) * params.Size
	countAll, err := r.Count(ctx, params.WorkoutParams)
	if err != nil {
		return nil, -1, err
	}

	if countAll <= limit {
		limit = countAll
		offset = 0
	}
	if countAll-offset < limit {
		offset = countAll - limit
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, athlete_id, workout_type, duration_minutes, distance_meters, rpe, stations, notes, performed_at, created_at
		FROM workout_log
		WHERE athlete_id = $1 AND deleted_at IS NULL
			AND ($2::text = '' OR workout_type = $2)
			AND ($3::timestamp IS NULL OR performed_at >= $3)
			AND ($4::timestamp IS NULL OR performed_at <= $4)
		ORDER BY performed_at DESC
		LIMIT $5
		OFFSET $6
	`,
		params.AthleteID, string(params.Type), params.From, params.To,
		limit, offset,
	)
	if err != nil {
		return nil, -1, err
	}
	defer rows.Close()

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, -1, err
	}
	return workouts, countAll, nil
}

// ListSince returns all non-deleted workouts performed at or after the given time,
// newest first. Used by the readiness and achievements engines.
func (r *WorkoutRepo) ListSince(ctx context.Context, athleteID int, from time.Time) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.listSince")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))

	rows, err := r.db.Query(ctx, `
		SELECT id, athlete_id, workout_type, duration_minutes, distance_meters, rpe, stations, notes, performed_at, created_at
		FROM workout_log
		WHERE athlete_id = $1 AND deleted_at IS NULL AND performed_at >= $2
		ORDER BY performed_at DESC
	`, athleteID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2workouts(rows)
}

func (r *WorkoutRepo) Count(ctx context.Context, params WorkoutParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT COUNT(*) FROM workout_log
		WHERE athlete_id = $1 AND deleted_at IS NULL
			AND ($2::text = '' OR workout_type = $2)
			AND ($3::timestamp IS NULL OR performed_at >= $3)
			AND ($4::timestamp IS NULL OR performed_at <= $4)
	`, params.AthleteID, string(params.Type), params.From, params.To)
	if err != nil {
		return -1, err
	}
	defer rows.Close()

	if rows.Next() {
		var count int
		if err := rows.Scan(&count); err == nil {
			return count, nil
		}
	}

	return -1, errors.New("unexpected error, failed to get workouts count")
}

func (r *WorkoutRepo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		var w Workout
		var stationsBytes []byte
		var notes *string
		if err := rows.Scan(
			&w.ID, &w.AthleteID, &w.Type, &w.DurationMinutes, &w.DistanceMeters,
			&w.RPE, &stationsBytes, &notes, &w.PerformedAt, &w.CreatedAt,
		); err != nil {
			return nil, err
		}

		if notes != nil {
			w.Notes = *notes
		}

		if len(stationsBytes) > 0 {
			if err := json.Unmarshal(stationsBytes, &w.Stations); err != nil {
				return nil, fmt.Errorf("unmarshal stations for workout %d: %w", w.ID, err)
			}
		}
		if w.Stations == nil {
			w.Stations = []StationWork{}
		}

		workouts = append(workouts, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if workouts == nil {
		workouts = make([]Workout, 0)
	}
	return workouts, nil
}
