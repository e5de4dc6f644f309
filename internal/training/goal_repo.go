package training

import (
	"context"
	"errors"

	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrGoalNotFound = errors.New("goal not found")

type GoalRepo struct {
	db *pgxpool.Pool
}

func NewGoalRepo(db *pgxpool.Pool) *GoalRepo {
	return &GoalRepo{
		db: db,
	}
}

func (r *GoalRepo) Add(ctx context.Context, goal Goal) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goal.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.
		QueryRow(ctx, `
			INSERT INTO goal
				(athlete_id, title, description, metric, target_value, target_date, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			RETURNING id, created_at
		`,
			goal.AthleteID, goal.Title, goal.Description, goal.Metric,
			goal.TargetValue, goal.TargetDate, goal.Status,
		).
		Scan(&goal.ID, &goal.CreatedAt)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("goal.id", goal.ID))
	return &goal, nil
}

func (r *GoalRepo) List(ctx context.Context, athleteID int, status GoalStatus) (_ []Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goal.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))

	rows, err := r.db.Query(ctx, `
		SELECT id, athlete_id, title, description, metric, target_value, target_date, status, created_at
		FROM goal
		WHERE athlete_id = $1
			AND ($2::text = '' OR status = $2)
		ORDER BY created_at DESC
	`, athleteID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2goals(rows)
}

func (r *GoalRepo) UpdateStatus(ctx context.Context, athleteID, id int, status GoalStatus) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goal.updateStatus")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))
	span.SetAttributes(attribute.String("status", string(status)))

	tag, err := r.db.Exec(ctx, `
		UPDATE goal SET status = $1 WHERE id = $2 AND athlete_id = $3
	`, status, id, athleteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *GoalRepo) Delete(ctx context.Context, athleteID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goal.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `
		DELETE FROM goal WHERE id = $1 AND athlete_id = $2
	`, id, athleteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *GoalRepo) rows2goals(rows pgx.Rows) ([]Goal, error) {
	var goals []Goal
	for rows.Next() {
		var g Goal
		var description, metric *string
		var targetValue *float64
		if err := rows.Scan(
			&g.ID, &g.AthleteID, &g.Title, &description, &metric,
			&targetValue, &g.TargetDate, &g.Status, &g.CreatedAt,
		); err != nil {
			return nil, err
		}
		if description != nil {
			g.Description = *description
		}
		if metric != nil {
			g.Metric = *metric
		}
		if targetValue != nil {
			g.TargetValue = *targetValue
		}
		goals = append(goals, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if goals == nil {
		goals = make([]Goal, 0)
	}
	return goals, nil
}
