package readiness

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/hyroxlab/roxcoach/internal/achievements"
	"github.com/hyroxlab/roxcoach/internal/athlete"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"
	"github.com/hyroxlab/roxcoach/internal/training"

	"go.opentelemetry.io/otel/attribute"
)

const (
	ComponentLoad        = "load"
	ComponentConsistency = "consistency"
	ComponentRecovery    = "recovery"
	ComponentRace        = "race"
)

// component weights, renormalized over the components that are present
var componentWeights = map[string]float64{
	ComponentLoad:        0.35,
	ComponentConsistency: 0.30,
	ComponentRecovery:    0.20,
	ComponentRace:        0.15,
}

// weakestPriority breaks sub-score ties, first match wins
var weakestPriority = []string{
	ComponentRecovery,
	ComponentLoad,
	ComponentConsistency,
	ComponentRace,
}

// weekly training volume targets in minutes, per training phase
var phaseVolumeTargets = map[athlete.Phase]float64{
	athlete.PhaseBase:      300,
	athlete.PhaseBuild:     360,
	athlete.PhasePeak:      420,
	athlete.PhaseTaper:     180,
	athlete.PhaseOffSeason: 150,
}

type Score struct {
	Score      int            `json:"score"`
	Components map[string]int `json:"components"`
	Weakest    string         `json:"weakest"`
}

type profileGetter interface {
	GetByUserID(ctx context.Context, userID int) (*athlete.Profile, error)
}

type workoutLister interface {
	ListSince(ctx context.Context, athleteID int, from time.Time) ([]training.Workout, error)
}

type recoveryLister interface {
	ListSince(ctx context.Context, athleteID int, from time.Time) ([]training.RecoveryMetric, error)
}

type planProgressGetter interface {
	// CompletionRatio reports the completed share of plan days scheduled in
	// the window. ok is false when the athlete has no active plan.
	CompletionRatio(ctx context.Context, athleteID int, from, to time.Time) (ratio float64, ok bool, err error)
}

type Engine struct {
	profiles profileGetter
	workouts workoutLister
	recovery recoveryLister
	plans    planProgressGetter

	now func() time.Time
}

func NewEngine(
	profiles profileGetter,
	workouts workoutLister,
	recovery recoveryLister,
	plans planProgressGetter,
) *Engine {
	return &Engine{
		profiles: profiles,
		workouts: workouts,
		recovery: recovery,
		plans:    plans,
		now:      time.Now,
	}
}

// NewEngineWithClock is NewEngine with an injectable clock, used in tests.
func NewEngineWithClock(
	profiles profileGetter,
	workouts workoutLister,
	recovery recoveryLister,
	plans planProgressGetter,
	now func() time.Time,
) *Engine {
	e := NewEngine(profiles, workouts, recovery, plans)
	e.now = now
	return e
}

// ScoreForUser computes the composite readiness score for the user's
// athlete profile. A missing profile yields a zero score, not an error.
// Components without enough data (no recovery metrics in the last week,
// no race date set) are omitted and the weights of the remaining
// components renormalized.
func (e *Engine) ScoreForUser(ctx context.Context, userID int) (_ *Score, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "readiness.score")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	profile, err := e.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, athlete.ErrProfileNotFound) {
			return &Score{Components: map[string]int{}}, nil
		}
		return nil, err
	}

	now := e.now()
	weekAgo := now.AddDate(0, 0, -7)
	fourWeeksAgo := now.AddDate(0, 0, -28)

	workouts, err := e.workouts.ListSince(ctx, profile.ID, fourWeeksAgo)
	if err != nil {
		return nil, err
	}

	components := map[string]int{
		ComponentLoad:        e.loadScore(profile, workouts, weekAgo),
		ComponentConsistency: e.consistencyScore(workouts, now),
	}

	recoveryMetrics, err := e.recovery.ListSince(ctx, profile.ID, fourWeeksAgo)
	if err != nil {
		return nil, err
	}
	if recoveryScore, ok := e.recoveryScore(recoveryMetrics, weekAgo); ok {
		components[ComponentRecovery] = recoveryScore
	}

	if raceScore, ok, err := e.raceScore(ctx, profile, fourWeeksAgo, now); err != nil {
		return nil, err
	} else if ok {
		components[ComponentRace] = raceScore
	}

	score := &Score{
		Score:      composite(components),
		Components: components,
		Weakest:    weakest(components),
	}

	span.SetAttributes(attribute.Int("score", score.Score))
	span.SetAttributes(attribute.String("weakest", score.Weakest))
	return score, nil
}

// loadScore rates last-7-day volume against the phase target, with a
// penalty when the athlete is consistently redlining (avg RPE above 8).
func (e *Engine) loadScore(profile *athlete.Profile, workouts []training.Workout, weekAgo time.Time) int {
	var volumeMinutes float64
	var rpeSum, rpeCount float64
	for _, w := range workouts {
		if w.PerformedAt.Before(weekAgo) {
			continue
		}
		volumeMinutes += float64(w.DurationMinutes)
		rpeSum += float64(w.RPE)
		rpeCount++
	}

	if rpeCount == 0 {
		return 0
	}

	target := phaseVolumeTargets[profile.TrainingPhase]
	if target == 0 {
		target = phaseVolumeTargets[athlete.PhaseBase]
	}

	score := clamp(volumeMinutes / target * 100)

	avgRPE := rpeSum / rpeCount
	if avgRPE > 8 {
		score -= (avgRPE - 8) * 15
	}

	return int(math.Round(clamp(score)))
}

// consistencyScore blends 28-day frequency (target 16 sessions) with the
// current daily streak (7 days scores full).
func (e *Engine) consistencyScore(workouts []training.Workout, now time.Time) int {
	if len(workouts) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(workouts))
	for _, w := range workouts {
		days = append(days, w.PerformedAt)
	}
	streak := achievements.StreakDays(days, now)

	freqScore := clamp(float64(len(workouts)) / 16 * 100)
	streakScore := clamp(float64(streak) / 7 * 100)

	return int(math.Round(0.6*freqScore + 0.4*streakScore))
}

// recoveryScore averages the available recovery signals from the last
// week: sleep vs the 8h target, inverted soreness, energy, and the HRV
// trend against the 28-day baseline when enough HRV data exists.
// ok is false when no recovery metrics were logged in the last 7 days.
func (e *Engine) recoveryScore(metrics []training.RecoveryMetric, weekAgo time.Time) (int, bool) {
	var recent []training.RecoveryMetric
	for _, m := range metrics {
		if !m.MetricDate.Before(weekAgo) {
			recent = append(recent, m)
		}
	}
	if len(recent) == 0 {
		return 0, false
	}

	var sleepSum, sorenessSum, energySum float64
	var recentHRVSum, recentHRVCount float64
	for _, m := range recent {
		sleepSum += m.SleepHours
		sorenessSum += float64(m.Soreness)
		energySum += float64(m.Energy)
		if m.HRV > 0 {
			recentHRVSum += float64(m.HRV)
			recentHRVCount++
		}
	}
	n := float64(len(recent))

	signals := []float64{
		clamp(sleepSum / n / 8 * 100),
		clamp((10 - sorenessSum/n) / 9 * 100),
		clamp(energySum / n / 10 * 100),
	}

	var baselineHRVSum, baselineHRVCount float64
	for _, m := range metrics {
		if m.HRV > 0 {
			baselineHRVSum += float64(m.HRV)
			baselineHRVCount++
		}
	}
	if recentHRVCount > 0 && baselineHRVCount > recentHRVCount {
		baseline := baselineHRVSum / baselineHRVCount
		current := recentHRVSum / recentHRVCount
		signals = append(signals, clamp(current/baseline*100))
	}

	var sum float64
	for _, s := range signals {
		sum += s
	}
	return int(math.Round(sum / float64(len(signals)))), true
}

// raceScore rates race preparedness from the plan-day completion ratio
// over the last four weeks. Without an active plan it falls back to a
// neutral 50. ok is false when the profile has no upcoming race date.
func (e *Engine) raceScore(
	ctx context.Context,
	profile *athlete.Profile,
	from, now time.Time,
) (int, bool, error) {
	if profile.RaceDate == nil || profile.RaceDate.Before(now) {
		return 0, false, nil
	}

	ratio, hasPlan, err := e.plans.CompletionRatio(ctx, profile.ID, from, now)
	if err != nil {
		return 0, false, err
	}
	if !hasPlan {
		return 50, true, nil
	}
	return int(math.Round(clamp(ratio * 100))), true, nil
}

func composite(components map[string]int) int {
	if len(components) == 0 {
		return 0
	}

	var weightedSum, weightSum float64
	for name, score := range components {
		w := componentWeights[name]
		weightedSum += w * float64(score)
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return int(math.Round(weightedSum / weightSum))
}

func weakest(components map[string]int) string {
	weakestName := ""
	weakestScore := math.MaxInt
	for _, name := range weakestPriority {
		score, present := components[name]
		if !present {
			continue
		}
		if score < weakestScore {
			weakestScore = score
			weakestName = name
		}
	}
	return weakestName
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
