package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrRaceNotFound = errors.New("race result not found")

type RaceRepo struct {
	db *pgxpool.Pool
}

func NewRaceRepo(db *pgxpool.Pool) *RaceRepo {
	return &RaceRepo{
		db: db,
	}
}

func (r *RaceRepo) Add(ctx context.Context, race RaceResult) (_ *RaceResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.race.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	splitsJson, err := json.Marshal(race.StationSplits)
	if err != nil {
		return nil, fmt.Errorf("marshal station splits: %w", err)
	}

	err = r.db.
		QueryRow(ctx, `
			INSERT INTO race_result
				(athlete_id, race_name, race_date, division, total_seconds, station_splits, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			RETURNING id, created_at
		`,
			race.AthleteID, race.RaceName, race.RaceDate, race.Division,
			race.TotalSeconds, splitsJson, race.Notes,
		).
		Scan(&race.ID, &race.CreatedAt)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("race.id", race.ID))
	return &race, nil
}

func (r *RaceRepo) List(ctx context.Context, athleteID int) (_ []RaceResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.race.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))

	rows, err := r.db.Query(ctx, `
		SELECT id, athlete_id, race_name, race_date, division, total_seconds, station_splits, notes, created_at
		FROM race_result
		WHERE athlete_id = $1
		ORDER BY race_date DESC
	`, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2races(rows)
}

func (r *RaceRepo) Get(ctx context.Context, athleteID, id int) (_ *RaceResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.race.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(ctx, `
		SELECT id, athlete_id, race_name, race_date, division, total_seconds, station_splits, notes, created_at
		FROM race_result
		WHERE id = $1 AND athlete_id = $2
	`, id, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	races, err := r.rows2races(rows)
	if err != nil {
		return nil, err
	}
	if len(races) != 1 {
		return nil, ErrRaceNotFound
	}
	return &races[0], nil
}

func (r *RaceRepo) Count(ctx context.Context, athleteID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.race.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT COUNT(*) FROM race_result WHERE athlete_id = $1
	`, athleteID)
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

	return -1, errors.New("unexpected error, failed to get races count")
}

func (r *RaceRepo) rows2races(rows pgx.Rows) ([]RaceResult, error) {
	var races []RaceResult
	for rows.Next() {
		var race RaceResult
		var splitsBytes []byte
		var notes *string
		if err := rows.Scan(
			&race.ID, &race.AthleteID, &race.RaceName, &race.RaceDate, &race.Division,
			&race.TotalSeconds, &splitsBytes, &notes, &race.CreatedAt,
		); err != nil {
			return nil, err
		}

		if notes != nil {
			race.Notes = *notes
		}

		if len(splitsBytes) > 0 {
			if err := json.Unmarshal(splitsBytes, &race.StationSplits); err != nil {
				return nil, fmt.Errorf("unmarshal station splits for race %d: %w", race.ID, err)
			}
		}
		if race.StationSplits == nil {
			race.StationSplits = make(map[string]float64)
		}

		races = append(races, race)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if races == nil {
		races = make([]RaceResult, 0)
	}
	return races, nil
}
