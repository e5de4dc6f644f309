package achievements

import (
	"context"
	"errors"
	"time"

	"github.com/hyroxlab/roxcoach/internal/telemetry/metrics"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// streak lookback window, streaks longer than this are still reported
// as the window length
const streakLookbackDays = 400

type achievementsRepo interface {
	Catalog(ctx context.Context) ([]Definition, error)
	EarnedIDs(ctx context.Context, athleteID int) (map[int]struct{}, error)
	ListEarned(ctx context.Context, athleteID int) ([]Earned, error)
	Award(ctx context.Context, athleteID, definitionID int, earnedAt time.Time) error
	WorkoutCount(ctx context.Context, athleteID int) (int, error)
	WorkoutDays(ctx context.Context, athleteID int, from time.Time) ([]time.Time, error)
	BestBenchmarks(ctx context.Context, athleteID int) (map[string]float64, error)
	RaceCount(ctx context.Context, athleteID int) (int, error)
}

type Service struct {
	repo           achievementsRepo
	metricsManager *metrics.Manager

	now func() time.Time
}

func NewService(repo achievementsRepo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// Evaluate checks the catalog against the athlete's training history and
// awards everything newly satisfied. It never fails the caller: the
// triggering write (workout, benchmark, race) is already committed, so
// evaluation problems are logged and an empty slice comes back. Running
// it twice for the same event awards nothing the second time.
func (s *Service) Evaluate(ctx context.Context, athleteID int, trigger Trigger) []Earned {
	ctx, span := tracing.GlobalTracer.Start(ctx, "achievements.evaluate")
	defer span.End()
	span.SetAttributes(attribute.Int("athlete.id", athleteID))
	span.SetAttributes(attribute.String("trigger", string(trigger)))

	catalog, err := s.repo.Catalog(ctx)
	if err != nil {
		log.Errorf("achievements evaluate, get catalog: %s", err)
		return []Earned{}
	}

	candidates := s.filterByTrigger(catalog, trigger)
	if len(candidates) == 0 {
		return []Earned{}
	}

	earnedIDs, err := s.repo.EarnedIDs(ctx, athleteID)
	if err != nil {
		log.Errorf("achievements evaluate, get earned for athlete %d: %s", athleteID, err)
		return []Earned{}
	}

	history, err := s.buildHistory(ctx, athleteID, candidates, earnedIDs)
	if err != nil {
		log.Errorf("achievements evaluate, build history for athlete %d: %s", athleteID, err)
		return []Earned{}
	}

	satisfied := EvaluateDefinitions(candidates, earnedIDs, history)

	newlyEarned := make([]Earned, 0, len(satisfied))
	earnedAt := s.now()
	for _, def := range satisfied {
		if err := s.repo.Award(ctx, athleteID, def.ID, earnedAt); err != nil {
			if errors.Is(err, ErrAlreadyEarned) {
				// a parallel evaluation got there first, fine
				log.Debugf("achievement %s already earned by athlete %d", def.Code, athleteID)
				continue
			}
			log.Errorf("achievements evaluate, award %s to athlete %d: %s", def.Code, athleteID, err)
			continue
		}

		s.metricsManager.CounterAchievementsAwarded.Inc()
		log.Debugf("achievement %s awarded to athlete %d", def.Code, athleteID)
		newlyEarned = append(newlyEarned, Earned{
			Definition: def,
			EarnedAt:   earnedAt,
		})
	}

	span.SetAttributes(attribute.Int("awarded", len(newlyEarned)))
	return newlyEarned
}

func (s *Service) filterByTrigger(catalog []Definition, trigger Trigger) []Definition {
	types := trigger.CriteriaTypes()
	var candidates []Definition
	for _, def := range catalog {
		for _, ct := range types {
			if def.Criteria.Type == ct {
				candidates = append(candidates, def)
				break
			}
		}
	}
	return candidates
}

// buildHistory queries only the history parts the unearned candidates need.
func (s *Service) buildHistory(
	ctx context.Context,
	athleteID int,
	candidates []Definition,
	earnedIDs map[int]struct{},
) (History, error) {
	needed := make(map[CriteriaType]bool)
	for _, def := range candidates {
		if _, alreadyEarned := earnedIDs[def.ID]; alreadyEarned {
			continue
		}
		needed[def.Criteria.Type] = true
	}

	var history History

	if needed[CriteriaWorkoutCount] {
		count, err := s.repo.WorkoutCount(ctx, athleteID)
		if err != nil {
			return History{}, err
		}
		history.WorkoutCount = count
	}

	if needed[CriteriaStreakDays] {
		from := s.now().AddDate(0, 0, -streakLookbackDays)
		days, err := s.repo.WorkoutDays(ctx, athleteID, from)
		if err != nil {
			return History{}, err
		}
		history.StreakDays = StreakDays(days, s.now())
	}

	if needed[CriteriaBenchmarkUnder] {
		best, err := s.repo.BestBenchmarks(ctx, athleteID)
		if err != nil {
			return History{}, err
		}
		history.BestBenchmarks = best
	}

	if needed[CriteriaRaceCount] {
		count, err := s.repo.RaceCount(ctx, athleteID)
		if err != nil {
			return History{}, err
		}
		history.RaceCount = count
	}

	return history, nil
}
