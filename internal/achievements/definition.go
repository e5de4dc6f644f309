package achievements

import "time"

// Trigger tells the evaluator which event caused the evaluation, so
// only the relevant part of the catalog gets checked.
type Trigger string

const (
	TriggerWorkout   Trigger = "workout"
	TriggerBenchmark Trigger = "benchmark"
)

type CriteriaType string

const (
	CriteriaWorkoutCount   CriteriaType = "workout_count"
	CriteriaStreakDays     CriteriaType = "streak_days"
	CriteriaBenchmarkUnder CriteriaType = "benchmark_under"
	CriteriaRaceCount      CriteriaType = "race_count"
)

// CriteriaTypes returns the criteria types this trigger can satisfy.
func (t Trigger) CriteriaTypes() []CriteriaType {
	switch t {
	case TriggerWorkout:
		return []CriteriaType{CriteriaWorkoutCount, CriteriaStreakDays}
	case TriggerBenchmark:
		return []CriteriaType{CriteriaBenchmarkUnder, CriteriaRaceCount}
	}
	return nil
}

type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

type Criteria struct {
	Type      CriteriaType `json:"type"`
	Threshold float64      `json:"threshold"`
	// Station is set for benchmark_under criteria only.
	Station string `json:"station,omitempty"`
}

type Definition struct {
	ID       int      `json:"id"`
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Tier     Tier     `json:"tier"`
	Icon     string   `json:"icon,omitempty"`
	Criteria Criteria `json:"criteria"`
}

// Earned is a definition awarded to an athlete.
type Earned struct {
	Definition
	EarnedAt time.Time `json:"earnedAt"`
}

// History is the athlete training snapshot the criteria are checked against.
type History struct {
	WorkoutCount   int
	StreakDays     int
	BestBenchmarks map[string]float64
	RaceCount      int
}
