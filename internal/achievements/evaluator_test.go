package achievements_test

import (
	"testing"
	"time"

	"github.com/hyroxlab/roxcoach/internal/achievements"

	"github.com/stretchr/testify/assert"
)

func TestSatisfied_WorkoutCount(t *testing.T) {
	def := achievements.Definition{
		ID:   1,
		Code: "first-50",
		Criteria: achievements.Criteria{
			Type:      achievements.CriteriaWorkoutCount,
			Threshold: 50,
		},
	}

	assert.False(t, achievements.Satisfied(def, achievements.History{WorkoutCount: 49}))
	assert.True(t, achievements.Satisfied(def, achievements.History{WorkoutCount: 50}))
	assert.True(t, achievements.Satisfied(def, achievements.History{WorkoutCount: 51}))
}

func TestSatisfied_BenchmarkUnder(t *testing.T) {
	def := achievements.Definition{
		ID:   2,
		Code: "skierg-sub-8",
		Criteria: achievements.Criteria{
			Type:      achievements.CriteriaBenchmarkUnder,
			Threshold: 480,
			Station:   "skierg",
		},
	}

	assert.True(t, achievements.Satisfied(def, achievements.History{
		BestBenchmarks: map[string]float64{"skierg": 475},
	}))
	assert.False(t, achievements.Satisfied(def, achievements.History{
		BestBenchmarks: map[string]float64{"skierg": 485},
	}))
	// exactly on the threshold is not under it
	assert.False(t, achievements.Satisfied(def, achievements.History{
		BestBenchmarks: map[string]float64{"skierg": 480},
	}))
	// no benchmark for that station at all
	assert.False(t, achievements.Satisfied(def, achievements.History{
		BestBenchmarks: map[string]float64{"rowing": 400},
	}))
}

func TestSatisfied_StreakAndRaces(t *testing.T) {
	streakDef := achievements.Definition{
		ID:       3,
		Criteria: achievements.Criteria{Type: achievements.CriteriaStreakDays, Threshold: 7},
	}
	raceDef := achievements.Definition{
		ID:       4,
		Criteria: achievements.Criteria{Type: achievements.CriteriaRaceCount, Threshold: 1},
	}

	assert.True(t, achievements.Satisfied(streakDef, achievements.History{StreakDays: 7}))
	assert.False(t, achievements.Satisfied(streakDef, achievements.History{StreakDays: 6}))
	assert.True(t, achievements.Satisfied(raceDef, achievements.History{RaceCount: 1}))
	assert.False(t, achievements.Satisfied(raceDef, achievements.History{RaceCount: 0}))
}

func TestEvaluateDefinitions(t *testing.T) {
	defs := []achievements.Definition{
		{ID: 1, Code: "first-workout", Criteria: achievements.Criteria{Type: achievements.CriteriaWorkoutCount, Threshold: 1}},
		{ID: 2, Code: "ten-workouts", Criteria: achievements.Criteria{Type: achievements.CriteriaWorkoutCount, Threshold: 10}},
		{ID: 3, Code: "fifty-workouts", Criteria: achievements.Criteria{Type: achievements.CriteriaWorkoutCount, Threshold: 50}},
	}
	history := achievements.History{WorkoutCount: 12}

	satisfied := achievements.EvaluateDefinitions(defs, map[int]struct{}{}, history)
	require2Order(t, satisfied, "first-workout", "ten-workouts")

	// already earned definitions are skipped
	satisfied = achievements.EvaluateDefinitions(defs, map[int]struct{}{1: {}}, history)
	require2Order(t, satisfied, "ten-workouts")
}

func require2Order(t *testing.T, got []achievements.Definition, codes ...string) {
	t.Helper()
	gotCodes := make([]string, 0, len(got))
	for _, d := range got {
		gotCodes = append(gotCodes, d.Code)
	}
	assert.Equal(t, codes, gotCodes)
}

func TestStreakDays(t *testing.T) {
	now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time {
		return now.AddDate(0, 0, offset)
	}

	assert.Equal(t, 0, achievements.StreakDays(nil, now))

	// trained today and the 6 days before
	var week []time.Time
	for i := 0; i > -7; i-- {
		week = append(week, day(i))
	}
	assert.Equal(t, 7, achievements.StreakDays(week, now))

	// streak ending yesterday still counts
	var untilYesterday []time.Time
	for i := -1; i > -5; i-- {
		untilYesterday = append(untilYesterday, day(i))
	}
	assert.Equal(t, 4, achievements.StreakDays(untilYesterday, now))

	// gap two days ago breaks the streak
	broken := []time.Time{day(0), day(-1), day(-3), day(-4)}
	assert.Equal(t, 2, achievements.StreakDays(broken, now))

	// last training more than a day ago means no active streak
	stale := []time.Time{day(-2), day(-3)}
	assert.Equal(t, 0, achievements.StreakDays(stale, now))
}
