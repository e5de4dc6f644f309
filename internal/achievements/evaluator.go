package achievements

import "time"

// Satisfied checks a single definition against the athlete history.
func Satisfied(def Definition, history History) bool {
	switch def.Criteria.Type {
	case CriteriaWorkoutCount:
		return float64(history.WorkoutCount) >= def.Criteria.Threshold
	case CriteriaStreakDays:
		return float64(history.StreakDays) >= def.Criteria.Threshold
	case CriteriaBenchmarkUnder:
		best, ok := history.BestBenchmarks[def.Criteria.Station]
		return ok && best < def.Criteria.Threshold
	case CriteriaRaceCount:
		return float64(history.RaceCount) >= def.Criteria.Threshold
	}
	return false
}

// EvaluateDefinitions returns the definitions that are satisfied by the
// history and not yet earned. The input order (id ascending) is preserved.
func EvaluateDefinitions(defs []Definition, earned map[int]struct{}, history History) []Definition {
	var satisfied []Definition
	for _, def := range defs {
		if _, alreadyEarned := earned[def.ID]; alreadyEarned {
			continue
		}
		if Satisfied(def, history) {
			satisfied = append(satisfied, def)
		}
	}
	return satisfied
}

// StreakDays counts consecutive training days ending today or yesterday.
// The input holds the distinct days the athlete trained on, any order.
// A streak broken before today still counts if the last day was yesterday,
// so an athlete does not lose the streak before the day is over.
func StreakDays(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}

	trained := make(map[string]struct{}, len(days))
	for _, d := range days {
		trained[d.Format("2006-01-02")] = struct{}{}
	}

	day := now
	if _, ok := trained[day.Format("2006-01-02")]; !ok {
		day = day.AddDate(0, 0, -1)
		if _, ok := trained[day.Format("2006-01-02")]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := trained[day.Format("2006-01-02")]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
