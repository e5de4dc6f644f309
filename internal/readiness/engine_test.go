package readiness_test

import (
	"context"
	"testing"
	"time"

	"github.com/hyroxlab/roxcoach/internal/athlete"
	"github.com/hyroxlab/roxcoach/internal/readiness"
	"github.com/hyroxlab/roxcoach/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)

type profilesMock struct {
	profile *athlete.Profile
	err     error
}

func (m *profilesMock) GetByUserID(_ context.Context, _ int) (*athlete.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

type workoutsMock struct {
	workouts []training.Workout
}

func (m *workoutsMock) ListSince(_ context.Context, _ int, from time.Time) ([]training.Workout, error) {
	var out []training.Workout
	for _, w := range m.workouts {
		if !w.PerformedAt.Before(from) {
			out = append(out, w)
		}
	}
	return out, nil
}

type recoveryMock struct {
	metrics []training.RecoveryMetric
}

func (m *recoveryMock) ListSince(_ context.Context, _ int, from time.Time) ([]training.RecoveryMetric, error) {
	var out []training.RecoveryMetric
	for _, rm := range m.metrics {
		if !rm.MetricDate.Before(from) {
			out = append(out, rm)
		}
	}
	return out, nil
}

type plansMock struct {
	ratio   float64
	hasPlan bool
}

func (m *plansMock) CompletionRatio(_ context.Context, _ int, _, _ time.Time) (float64, bool, error) {
	return m.ratio, m.hasPlan, nil
}

func buildProfile(phase athlete.Phase, raceDate *time.Time) *athlete.Profile {
	return &athlete.Profile{
		ID:            1,
		UserID:        1,
		Division:      athlete.DivisionOpen,
		TrainingPhase: phase,
		RaceDate:      raceDate,
	}
}

// a 7-day daily streak of 60 minute sessions at RPE 6
func streakWorkouts() []training.Workout {
	var workouts []training.Workout
	for i := 0; i < 7; i++ {
		workouts = append(workouts, training.Workout{
			ID:              i + 1,
			AthleteID:       1,
			Type:            training.WorkoutTypeRun,
			DurationMinutes: 60,
			RPE:             6,
			PerformedAt:     testNow.AddDate(0, 0, -i),
		})
	}
	return workouts
}

func newTestEngine(profiles *profilesMock, workouts *workoutsMock, recovery *recoveryMock, plans *plansMock) *readiness.Engine {
	return readiness.NewEngineWithClock(profiles, workouts, recovery, plans, func() time.Time {
		return testNow
	})
}

func TestEngine_NoProfile(t *testing.T) {
	engine := newTestEngine(
		&profilesMock{err: athlete.ErrProfileNotFound},
		&workoutsMock{}, &recoveryMock{}, &plansMock{},
	)

	score, err := engine.ScoreForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, score.Score)
	assert.Empty(t, score.Components)
	assert.Empty(t, score.Weakest)
}

func TestEngine_NoWorkoutHistory(t *testing.T) {
	engine := newTestEngine(
		&profilesMock{profile: buildProfile(athlete.PhaseBase, nil)},
		&workoutsMock{}, &recoveryMock{}, &plansMock{},
	)

	score, err := engine.ScoreForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, score.Score)
	assert.Equal(t, 0, score.Components[readiness.ComponentLoad])
	assert.Equal(t, 0, score.Components[readiness.ComponentConsistency])
	// no recovery data and no race date, both components omitted
	assert.NotContains(t, score.Components, readiness.ComponentRecovery)
	assert.NotContains(t, score.Components, readiness.ComponentRace)
}

func TestEngine_StreakNoRecoveryData(t *testing.T) {
	// 7-day streak, avg RPE 6, no recovery metrics: the recovery component
	// is omitted and the composite comes only from load and consistency
	engine := newTestEngine(
		&profilesMock{profile: buildProfile(athlete.PhaseBuild, nil)},
		&workoutsMock{workouts: streakWorkouts()},
		&recoveryMock{}, &plansMock{},
	)

	score, err := engine.ScoreForUser(context.Background(), 1)
	require.NoError(t, err)

	require.NotContains(t, score.Components, readiness.ComponentRecovery)
	require.NotContains(t, score.Components, readiness.ComponentRace)

	// load: 420 volume minutes vs 360 build target, capped at 100
	assert.Equal(t, 100, score.Components[readiness.ComponentLoad])
	// consistency: 7 of 16 target sessions (26 rounded) plus a full streak (40)
	assert.Equal(t, 66, score.Components[readiness.ComponentConsistency])
	// composite renormalized over .35 load + .30 consistency
	assert.Equal(t, 84, score.Score)
	assert.Equal(t, readiness.ComponentConsistency, score.Weakest)

	// fixed inputs, deterministic output
	again, err := engine.ScoreForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, score, again)
}

func TestEngine_HighRPEPenalty(t *testing.T) {
	workouts := streakWorkouts()
	for i := range workouts {
		workouts[i].RPE = 10
	}

	engine := newTestEngine(
		&profilesMock{profile: buildProfile(athlete.PhaseBuild, nil)},
		&workoutsMock{workouts: workouts},
		&recoveryMock{}, &plansMock{},
	)

	score, err := engine.ScoreForUser(context.Background(), 1)
	require.NoError(t, err)
	// volume alone would cap at 100, redlining at RPE 10 costs 30
	assert.Equal(t, 70, score.Components[readiness.ComponentLoad])
}

func TestEngine_RecoveryComponent(t *testing.T) {
	recovery := &recoveryMock{
		metrics: []training.RecoveryMetric{
			{MetricDate: testNow.AddDate(0, 0, -1), SleepHours: 8, SleepQuality: 8, Soreness: 1, Energy: 10},
			{MetricDate: testNow.AddDate(0, 0, -2), SleepHours: 8, SleepQuality: 8, Soreness: 1, Energy: 10},
		},
	}

	engine := newTestEngine(
		&profilesMock{profile: buildProfile(athlete.PhaseBuild, nil)},
		&workoutsMock{workouts: streakWorkouts()},
		recovery, &plansMock{},
	)

	score, err := engine.ScoreForUser(context.Background(), 1)
	require.NoError(t, err)
	// perfect sleep, no soreness, full energy
	assert.Equal(t, 100, score.Components[readiness.ComponentRecovery])
}

func TestEngine_RaceComponent(t *testing.T) {
	raceDate := testNow.AddDate(0, 0, 42)

	t.Run("with active plan", func(t *testing.T) {
		engine := newTestEngine(
			&profilesMock{profile: buildProfile(athlete.PhasePeak, &raceDate)},
			&workoutsMock{workouts: streakWorkouts()},
			&recoveryMock{},
			&plansMock{ratio: 0.8, hasPlan: true},
		)

		score, err := engine.ScoreForUser(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 80, score.Components[readiness.ComponentRace])
	})

	t.Run("no active plan defaults neutral", func(t *testing.T) {
		engine := newTestEngine(
			&profilesMock{profile: buildProfile(athlete.PhasePeak, &raceDate)},
			&workoutsMock{workouts: streakWorkouts()},
			&recoveryMock{},
			&plansMock{hasPlan: false},
		)

		score, err := engine.ScoreForUser(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 50, score.Components[readiness.ComponentRace])
	})

	t.Run("race date passed omits component", func(t *testing.T) {
		pastRace := testNow.AddDate(0, 0, -10)
		engine := newTestEngine(
			&profilesMock{profile: buildProfile(athlete.PhasePeak, &pastRace)},
			&workoutsMock{workouts: streakWorkouts()},
			&recoveryMock{},
			&plansMock{ratio: 0.8, hasPlan: true},
		)

		score, err := engine.ScoreForUser(context.Background(), 1)
		require.NoError(t, err)
		assert.NotContains(t, score.Components, readiness.ComponentRace)
	})
}

func TestEngine_WeakestTieBreak(t *testing.T) {
	// zero workouts and a race date with no plan: load and consistency are
	// both 0, recovery absent. load wins the tie over consistency.
	raceDate := testNow.AddDate(0, 0, 42)
	engine := newTestEngine(
		&profilesMock{profile: buildProfile(athlete.PhaseBase, &raceDate)},
		&workoutsMock{}, &recoveryMock{}, &plansMock{},
	)

	score, err := engine.ScoreForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, score.Components[readiness.ComponentLoad])
	assert.Equal(t, 0, score.Components[readiness.ComponentConsistency])
	assert.Equal(t, readiness.ComponentLoad, score.Weakest)
}
