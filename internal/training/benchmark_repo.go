package training

import (
	"context"
	"errors"

	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrBenchmarkNotFound = errors.New("benchmark test not found")

type BenchmarkRepo struct {
	db *pgxpool.Pool
}

func NewBenchmarkRepo(db *pgxpool.Pool) *BenchmarkRepo {
	return &BenchmarkRepo{
		db: db,
	}
}

func (r *BenchmarkRepo) Add(ctx context.Context, benchmark BenchmarkTest) (_ *BenchmarkTest, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.benchmark.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.
		QueryRow(ctx, `
			INSERT INTO benchmark_test
				(athlete_id, station, time_seconds, test_date, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING id, created_at
		`,
			benchmark.AthleteID, benchmark.Station, benchmark.TimeSeconds,
			benchmark.TestDate, benchmark.Notes,
		).
		Scan(&benchmark.ID, &benchmark.CreatedAt)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("benchmark.id", benchmark.ID))
	return &benchmark, nil
}

func (r *BenchmarkRepo) List(ctx context.Context, athleteID int, station string) (_ []BenchmarkTest, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.benchmark.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))
	span.SetAttributes(attribute.String("station", station))

	rows, err := r.db.Query(ctx, `
		SELECT id, athlete_id, station, time_seconds, test_date, notes, created_at
		FROM benchmark_test
		WHERE athlete_id = $1
			AND ($2::text = '' OR station = $2)
		ORDER BY test_date DESC
	`, athleteID, station)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2benchmarks(rows)
}

// BestPerStation returns the fastest benchmark time per station for the athlete.
func (r *BenchmarkRepo) BestPerStation(ctx context.Context, athleteID int) (_ map[string]float64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.benchmark.bestPerStation")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))

	rows, err := r.db.Query(ctx, `
		SELECT station, MIN(time_seconds)
		FROM benchmark_test
		WHERE athlete_id = $1
		GROUP BY station
	`, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	best := make(map[string]float64)
	for rows.Next() {
		var station string
		var seconds float64
		if err := rows.Scan(&station, &seconds); err != nil {
			return nil, err
		}
		best[station] = seconds
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return best, nil
}

// UpsertPersonalRecord records the given time as the station PR if it beats
// the current one (or no PR exists yet). Returns true when a new PR was set.
func (r *BenchmarkRepo) UpsertPersonalRecord(ctx context.Context, record PersonalRecord) (improved bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.benchmark.upsertPR")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", record.AthleteID))
	span.SetAttributes(attribute.String("station", record.Station))

	tag, err := r.db.Exec(ctx, `
		INSERT INTO personal_record (athlete_id, station, best_seconds, achieved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (athlete_id, station) DO UPDATE SET
			best_seconds = EXCLUDED.best_seconds,
			achieved_at = EXCLUDED.achieved_at
		WHERE personal_record.best_seconds > EXCLUDED.best_seconds
	`, record.AthleteID, record.Station, record.BestSeconds, record.AchievedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BenchmarkRepo) ListPersonalRecords(ctx context.Context, athleteID int) (_ []PersonalRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.benchmark.listPRs")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))

	rows, err := r.db.Query(ctx, `
		SELECT id, athlete_id, station, best_seconds, achieved_at
		FROM personal_record
		WHERE athlete_id = $1
		ORDER BY station ASC
	`, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PersonalRecord
	for rows.Next() {
		var pr PersonalRecord
		if err := rows.Scan(&pr.ID, &pr.AthleteID, &pr.Station, &pr.BestSeconds, &pr.AchievedAt); err != nil {
			return nil, err
		}
		records = append(records, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if records == nil {
		records = make([]PersonalRecord, 0)
	}
	return records, nil
}

func (r *BenchmarkRepo) rows2benchmarks(rows pgx.Rows) ([]BenchmarkTest, error) {
	var benchmarks []BenchmarkTest
	for rows.Next() {
		var b BenchmarkTest
		var notes *string
		if err := rows.Scan(
			&b.ID, &b.AthleteID, &b.Station, &b.TimeSeconds, &b.TestDate, &notes, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		if notes != nil {
			b.Notes = *notes
		}
		benchmarks = append(benchmarks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if benchmarks == nil {
		benchmarks = make([]BenchmarkTest, 0)
	}
	return benchmarks, nil
}
