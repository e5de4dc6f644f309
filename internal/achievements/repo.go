package achievements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hyroxlab/roxcoach/internal/db"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogCacheKey = "achievements-catalog"
	catalogCacheTTL = 5 * 60 // seconds
	// 512KB is plenty for the catalog, freecache minimum anyway
	catalogCacheSize = 512 * 1024
)

var ErrAlreadyEarned = errors.New("achievement already earned")

type Repo struct {
	db    *pgxpool.Pool
	cache *freecache.Cache
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db:    db,
		cache: freecache.NewCache(catalogCacheSize),
	}
}

// Catalog returns all achievement definitions, id ascending. The catalog
// rarely changes so it is served from an in-process cache.
func (r *Repo) Catalog(ctx context.Context) (_ []Definition, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.catalog")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if cached, err := r.cache.Get([]byte(catalogCacheKey)); err == nil {
		var defs []Definition
		if err := json.Unmarshal(cached, &defs); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return defs, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	rows, err := r.db.Query(ctx, `
		SELECT id, code, name, category, tier, icon, criteria
		FROM achievement_definition
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs, err := r.rows2definitions(rows)
	if err != nil {
		return nil, err
	}

	if defsJson, err := json.Marshal(defs); err == nil {
		// cache set failure only means a DB roundtrip next time
		_ = r.cache.Set([]byte(catalogCacheKey), defsJson, catalogCacheTTL)
	}

	return defs, nil
}

// EarnedIDs returns the definition IDs the athlete has already earned.
func (r *Repo) EarnedIDs(ctx context.Context, athleteID int) (_ map[int]struct{}, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.earnedIDs")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))

	rows, err := r.db.Query(ctx, `
		SELECT definition_id FROM athlete_achievement WHERE athlete_id = $1
	`, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	earned := make(map[int]struct{})
	for rows.Next() {
		var defID int
		if err := rows.Scan(&defID); err != nil {
			return nil, err
		}
		earned[defID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return earned, nil
}

// ListEarned returns the achievements the athlete earned, newest first.
func (r *Repo) ListEarned(ctx context.Context, athleteID int) (_ []Earned, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.listEarned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))

	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.code, d.name, d.category, d.tier, d.icon, d.criteria, a.earned_at
		FROM athlete_achievement a
		JOIN achievement_definition d ON a.definition_id = d.id
		WHERE a.athlete_id = $1
		ORDER BY a.earned_at DESC
	`, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var earned []Earned
	for rows.Next() {
		var e Earned
		var icon *string
		var criteriaBytes []byte
		if err := rows.Scan(
			&e.ID, &e.Code, &e.Name, &e.Category, &e.Tier, &icon, &criteriaBytes, &e.EarnedAt,
		); err != nil {
			return nil, err
		}
		if icon != nil {
			e.Icon = *icon
		}
		if err := json.Unmarshal(criteriaBytes, &e.Criteria); err != nil {
			return nil, fmt.Errorf("unmarshal criteria for definition %d: %w", e.ID, err)
		}
		earned = append(earned, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if earned == nil {
		earned = make([]Earned, 0)
	}
	return earned, nil
}

// Award inserts the earned achievement. A unique constraint on
// (athlete_id, definition_id) guards against concurrent evaluations
// awarding the same achievement twice, that case comes back as
// ErrAlreadyEarned.
func (r *Repo) Award(ctx context.Context, athleteID, definitionID int, earnedAt time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.award")
	defer func() {
		if errors.Is(err, ErrAlreadyEarned) {
			span.End()
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))
	span.SetAttributes(attribute.Int("definition.id", definitionID))

	_, err = r.db.Exec(ctx, `
		INSERT INTO athlete_achievement (athlete_id, definition_id, earned_at)
		VALUES ($1, $2, $3)
	`, athleteID, definitionID, earnedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyEarned
		}
		return err
	}
	return nil
}

// WorkoutCount counts the athlete's non-deleted workouts.
func (r *Repo) WorkoutCount(ctx context.Context, athleteID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.workoutCount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	err = r.db.
		QueryRow(ctx, `
			SELECT COUNT(*) FROM workout_log
			WHERE athlete_id = $1 AND deleted_at IS NULL
		`, athleteID).
		Scan(&count)
	if err != nil {
		return -1, err
	}
	return count, nil
}

// WorkoutDays returns the distinct days the athlete trained on since the
// given time, used for streak computation.
func (r *Repo) WorkoutDays(ctx context.Context, athleteID int, from time.Time) (_ []time.Time, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.workoutDays")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT performed_at::date FROM workout_log
		WHERE athlete_id = $1 AND deleted_at IS NULL AND performed_at >= $2
		ORDER BY 1 DESC
	`, athleteID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

// BestBenchmarks returns the fastest benchmark time per station.
func (r *Repo) BestBenchmarks(ctx context.Context, athleteID int) (_ map[string]float64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.bestBenchmarks")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT station, MIN(time_seconds) FROM benchmark_test
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

func (r *Repo) RaceCount(ctx context.Context, athleteID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.raceCount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	err = r.db.
		QueryRow(ctx, `SELECT COUNT(*) FROM race_result WHERE athlete_id = $1`, athleteID).
		Scan(&count)
	if err != nil {
		return -1, err
	}
	return count, nil
}

func (r *Repo) rows2definitions(rows pgx.Rows) ([]Definition, error) {
	var defs []Definition
	for rows.Next() {
		var def Definition
		var icon *string
		var criteriaBytes []byte
		if err := rows.Scan(
			&def.ID, &def.Code, &def.Name, &def.Category, &def.Tier, &icon, &criteriaBytes,
		); err != nil {
			return nil, err
		}
		if icon != nil {
			def.Icon = *icon
		}
		if err := json.Unmarshal(criteriaBytes, &def.Criteria); err != nil {
			return nil, fmt.Errorf("unmarshal criteria for definition %d: %w", def.ID, err)
		}
		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if defs == nil {
		defs = make([]Definition, 0)
	}
	return defs, nil
}
