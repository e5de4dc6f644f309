package training

import "time"

type WorkoutType string

const (
	WorkoutTypeRun             WorkoutType = "run"
	WorkoutTypeStrength        WorkoutType = "strength"
	WorkoutTypeHyroxSim        WorkoutType = "hyrox_sim"
	WorkoutTypeStationPractice WorkoutType = "station_practice"
	WorkoutTypeHybrid          WorkoutType = "hybrid"
	WorkoutTypeRecovery        WorkoutType = "recovery"
)

func (wt WorkoutType) Valid() bool {
	switch wt {
	case WorkoutTypeRun, WorkoutTypeStrength, WorkoutTypeHyroxSim,
		WorkoutTypeStationPractice, WorkoutTypeHybrid, WorkoutTypeRecovery:
		return true
	}
	return false
}

// StationWork is a single station block within a workout,
// e.g. 4 rounds of 25m sled push at 152 kilos.
type StationWork struct {
	Station string  `json:"station"`
	Rounds  int     `json:"rounds,omitempty"`
	Meters  float64 `json:"meters,omitempty"`
	Reps    int     `json:"reps,omitempty"`
	Kilos   float64 `json:"kilos,omitempty"`
	Seconds int     `json:"seconds,omitempty"`
}

type Workout struct {
	ID              int           `json:"id"`
	AthleteID       int           `json:"athleteId"`
	Type            WorkoutType   `json:"type"`
	DurationMinutes int           `json:"durationMinutes"`
	DistanceMeters  float64       `json:"distanceMeters,omitempty"`
	RPE             int           `json:"rpe"`
	Stations        []StationWork `json:"stations"`
	Notes           string        `json:"notes,omitempty"`
	PerformedAt     time.Time     `json:"performedAt"`
	CreatedAt       time.Time     `json:"createdAt"`
}

type RecoveryMetric struct {
	ID           int       `json:"id"`
	AthleteID    int       `json:"athleteId"`
	MetricDate   time.Time `json:"metricDate"`
	SleepHours   float64   `json:"sleepHours"`
	SleepQuality int       `json:"sleepQuality"`
	RestingHR    int       `json:"restingHr,omitempty"`
	HRV          int       `json:"hrv,omitempty"`
	Soreness     int       `json:"soreness"`
	Energy       int       `json:"energy"`
	CreatedAt    time.Time `json:"createdAt"`
}

type BenchmarkTest struct {
	ID          int       `json:"id"`
	AthleteID   int       `json:"athleteId"`
	Station     string    `json:"station"`
	TimeSeconds float64   `json:"timeSeconds"`
	TestDate    time.Time `json:"testDate"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PersonalRecord struct {
	ID          int       `json:"id"`
	AthleteID   int       `json:"athleteId"`
	Station     string    `json:"station"`
	BestSeconds float64   `json:"bestSeconds"`
	AchievedAt  time.Time `json:"achievedAt"`
}

type RaceResult struct {
	ID            int                `json:"id"`
	AthleteID     int                `json:"athleteId"`
	RaceName      string             `json:"raceName"`
	RaceDate      time.Time          `json:"raceDate"`
	Division      string             `json:"division"`
	TotalSeconds  float64            `json:"totalSeconds"`
	StationSplits map[string]float64 `json:"stationSplits"`
	Notes         string             `json:"notes,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

func (gs GoalStatus) Valid() bool {
	switch gs {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusAbandoned:
		return true
	}
	return false
}

type Goal struct {
	ID          int        `json:"id"`
	AthleteID   int        `json:"athleteId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Metric      string     `json:"metric,omitempty"`
	TargetValue float64    `json:"targetValue,omitempty"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	Status      GoalStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Hyrox station names, used for benchmark and race split validation.
var Stations = []string{
	"skierg",
	"sled_push",
	"sled_pull",
	"burpee_broad_jumps",
	"rowing",
	"farmers_carry",
	"sandbag_lunges",
	"wall_balls",
	"run",
}

func KnownStation(station string) bool {
	for _, s := range Stations {
		if s == station {
			return true
		}
	}
	return false
}
