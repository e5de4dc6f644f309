package plan

import (
	"context"
	"errors"
	"time"

	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrPlanNotFound = errors.New("training plan not found")
	ErrDayNotFound  = errors.New("plan day not found")
)

// Ownership is the outcome of walking the day -> week -> plan -> athlete
// chain. Handlers respond 404 for both NotFound and Forbidden, foreign
// rows must be indistinguishable from absent ones.
type Ownership int

const (
	OwnershipAuthorized Ownership = iota
	OwnershipNotFound
	OwnershipForbidden
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Create inserts the plan with all its weeks and days in one transaction.
func (r *Repo) Create(ctx context.Context, plan Plan) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plan.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = tx.
		QueryRow(ctx, `
			INSERT INTO training_plan (athlete_id, name, race_date, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING id, created_at
		`, plan.AthleteID, plan.Name, plan.RaceDate).
		Scan(&plan.ID, &plan.CreatedAt)
	if err != nil {
		return nil, err
	}

	for wi := range plan.Weeks {
		week := &plan.Weeks[wi]
		week.PlanID = plan.ID
		err = tx.
			QueryRow(ctx, `
				INSERT INTO training_plan_week (plan_id, index, focus)
				VALUES ($1, $2, $3)
				RETURNING id
			`, week.PlanID, week.Index, week.Focus).
			Scan(&week.ID)
		if err != nil {
			return nil, err
		}

		for di := range week.Days {
			day := &week.Days[di]
			day.WeekID = week.ID
			err = tx.
				QueryRow(ctx, `
					INSERT INTO training_plan_day (week_id, day_of_week, session_type, description, completed)
					VALUES ($1, $2, $3, $4, FALSE)
					RETURNING id
				`, day.WeekID, day.DayOfWeek, day.SessionType, day.Description).
				Scan(&day.ID)
			if err != nil {
				return nil, err
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("plan.id", plan.ID))
	return &plan, nil
}

// GetActive returns the athlete's most recent plan with all weeks and days.
func (r *Repo) GetActive(ctx context.Context, athleteID int) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plan.getActive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))

	plan := &Plan{}
	err = r.db.
		QueryRow(ctx, `
			SELECT id, athlete_id, name, race_date, created_at
			FROM training_plan
			WHERE athlete_id = $1
			ORDER BY created_at DESC
			LIMIT 1
		`, athleteID).
		Scan(&plan.ID, &plan.AthleteID, &plan.Name, &plan.RaceDate, &plan.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadWeeks(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *Repo) loadWeeks(ctx context.Context, plan *Plan) error {
	rows, err := r.db.Query(ctx, `
		SELECT id, plan_id, index, focus
		FROM training_plan_week
		WHERE plan_id = $1
		ORDER BY index ASC
	`, plan.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	plan.Weeks = []Week{}
	weekIdx := make(map[int]int)
	for rows.Next() {
		var week Week
		if err := rows.Scan(&week.ID, &week.PlanID, &week.Index, &week.Focus); err != nil {
			return err
		}
		week.Days = []Day{}
		plan.Weeks = append(plan.Weeks, week)
		weekIdx[week.ID] = len(plan.Weeks) - 1
	}
	if err := rows.Err(); err != nil {
		return err
	}

	dayRows, err := r.db.Query(ctx, `
		SELECT d.id, d.week_id, d.day_of_week, d.session_type, d.description, d.completed
		FROM training_plan_day d
		JOIN training_plan_week w ON d.week_id = w.id
		WHERE w.plan_id = $1
		ORDER BY w.index ASC, d.day_of_week ASC
	`, plan.ID)
	if err != nil {
		return err
	}
	defer dayRows.Close()

	for dayRows.Next() {
		var day Day
		if err := dayRows.Scan(
			&day.ID, &day.WeekID, &day.DayOfWeek, &day.SessionType, &day.Description, &day.Completed,
		); err != nil {
			return err
		}
		if wi, ok := weekIdx[day.WeekID]; ok {
			plan.Weeks[wi].Days = append(plan.Weeks[wi].Days, day)
		}
	}
	return dayRows.Err()
}

// DayOwnership walks day -> week -> plan and checks the plan's athlete.
func (r *Repo) DayOwnership(ctx context.Context, dayID, athleteID int) (_ Ownership, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plan.dayOwnership")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day.id", dayID))

	var ownerID int
	err = r.db.
		QueryRow(ctx, `
			SELECT p.athlete_id
			FROM training_plan_day d
			JOIN training_plan_week w ON d.week_id = w.id
			JOIN training_plan p ON w.plan_id = p.id
			WHERE d.id = $1
		`, dayID).
		Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return OwnershipNotFound, nil
	}
	if err != nil {
		return OwnershipNotFound, err
	}

	if ownerID != athleteID {
		return OwnershipForbidden, nil
	}
	return OwnershipAuthorized, nil
}

// CompleteDay marks the day as done after verifying the ownership chain.
// Missing and foreign days both come back as ErrDayNotFound.
func (r *Repo) CompleteDay(ctx context.Context, athleteID, dayID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plan.completeDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day.id", dayID))

	ownership, err := r.DayOwnership(ctx, dayID, athleteID)
	if err != nil {
		return err
	}
	if ownership != OwnershipAuthorized {
		return ErrDayNotFound
	}

	_, err = r.db.Exec(ctx, `
		UPDATE training_plan_day SET completed = TRUE WHERE id = $1
	`, dayID)
	return err
}

// CompletionRatio reports the completed share of the active plan's days
// scheduled in [from, to]. The plan's first week starts on the Monday of
// the week it was created in. ok is false when the athlete has no plan or
// no days fall in the window.
func (r *Repo) CompletionRatio(ctx context.Context, athleteID int, from, to time.Time) (ratio float64, ok bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plan.completionRatio")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))

	plan, err := r.GetActive(ctx, athleteID)
	if errors.Is(err, ErrPlanNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	planStart := mondayOf(plan.CreatedAt)

	var total, completed int
	for _, week := range plan.Weeks {
		for _, day := range week.Days {
			scheduled := planStart.AddDate(0, 0, (week.Index-1)*7+day.DayOfWeek-1)
			if scheduled.Before(from) || scheduled.After(to) {
				continue
			}
			total++
			if day.Completed {
				completed++
			}
		}
	}

	if total == 0 {
		return 0, false, nil
	}
	return float64(completed) / float64(total), true, nil
}

func mondayOf(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return t.AddDate(0, 0, -(weekday - 1))
}
