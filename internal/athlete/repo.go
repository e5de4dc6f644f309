package athlete

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

var ErrProfileNotFound = errors.New("athlete profile not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Create(ctx context.Context, profile Profile) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athlete.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	equipmentJson, err := json.Marshal(profile.Equipment)
	if err != nil {
		return nil, fmt.Errorf("marshal equipment: %w", err)
	}
	injuriesJson, err := json.Marshal(profile.Injuries)
	if err != nil {
		return nil, fmt.Errorf("marshal injuries: %w", err)
	}

	err = r.db.
		QueryRow(ctx, `
			INSERT INTO athlete_profile
				(user_id, division, race_date, goal_time_seconds, training_phase, equipment, injuries, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			RETURNING id, created_at, updated_at
		`,
			profile.UserID, profile.Division, profile.RaceDate, profile.GoalTimeSeconds,
			profile.TrainingPhase, equipmentJson, injuriesJson,
		).
		Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("athlete.id", profile.ID))
	return &profile, nil
}

func (r *Repo) GetByUserID(ctx context.Context, userID int) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athlete.getByUserID")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	profile := &Profile{}
	var equipmentBytes, injuriesBytes []byte
	err = r.db.
		QueryRow(ctx, `
			SELECT id, user_id, division, race_date, goal_time_seconds, training_phase, equipment, injuries, created_at, updated_at
			FROM athlete_profile
			WHERE user_id = $1
		`, userID).
		Scan(
			&profile.ID, &profile.UserID, &profile.Division, &profile.RaceDate,
			&profile.GoalTimeSeconds, &profile.TrainingPhase,
			&equipmentBytes, &injuriesBytes,
			&profile.CreatedAt, &profile.UpdatedAt,
		)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := unmarshalStringList(equipmentBytes, &profile.Equipment); err != nil {
		return nil, fmt.Errorf("unmarshal equipment for athlete %d: %w", profile.ID, err)
	}
	if err := unmarshalStringList(injuriesBytes, &profile.Injuries); err != nil {
		return nil, fmt.Errorf("unmarshal injuries for athlete %d: %w", profile.ID, err)
	}

	return profile, nil
}

func (r *Repo) Update(ctx context.Context, profile *Profile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.athlete.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("athlete.id", profile.ID))

	equipmentJson, err := json.Marshal(profile.Equipment)
	if err != nil {
		return fmt.Errorf("marshal equipment: %w", err)
	}
	injuriesJson, err := json.Marshal(profile.Injuries)
	if err != nil {
		return fmt.Errorf("marshal injuries: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE athlete_profile
		SET division = $1, race_date = $2, goal_time_seconds = $3, training_phase = $4,
			equipment = $5, injuries = $6, updated_at = NOW()
		WHERE id = $7 AND user_id = $8
	`,
		profile.Division, profile.RaceDate, profile.GoalTimeSeconds, profile.TrainingPhase,
		equipmentJson, injuriesJson,
		profile.ID, profile.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func unmarshalStringList(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		*dst = []string{}
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	if *dst == nil {
		*dst = []string{}
	}
	return nil
}
