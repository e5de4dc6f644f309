package training

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hyroxlab/roxcoach/internal/achievements"
	"github.com/hyroxlab/roxcoach/internal/athlete"
	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/internal/telemetry/metrics"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"
	"github.com/hyroxlab/roxcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type benchmarkRepo interface {
	Add(ctx context.Context, benchmark BenchmarkTest) (*BenchmarkTest, error)
	List(ctx context.Context, athleteID int, station string) ([]BenchmarkTest, error)
	UpsertPersonalRecord(ctx context.Context, record PersonalRecord) (improved bool, err error)
	ListPersonalRecords(ctx context.Context, athleteID int) ([]PersonalRecord, error)
}

type raceRepo interface {
	Add(ctx context.Context, race RaceResult) (*RaceResult, error)
	List(ctx context.Context, athleteID int) ([]RaceResult, error)
	Get(ctx context.Context, athleteID, id int) (*RaceResult, error)
}

type AddBenchmarkResponse struct {
	BenchmarkTest
	NewPersonalRecord bool                  `json:"newPersonalRecord"`
	NewAchievements   []achievements.Earned `json:"newAchievements"`
}

type AddRaceResponse struct {
	RaceResult
	NewAchievements []achievements.Earned `json:"newAchievements"`
}

type BenchmarkHandler struct {
	benchmarks     benchmarkRepo
	races          raceRepo
	profiles       profileProvider
	achievements   achievementsEvaluator
	metricsManager *metrics.Manager
}

func NewBenchmarkHandler(
	benchmarks benchmarkRepo,
	races raceRepo,
	profiles profileProvider,
	achievementsEval achievementsEvaluator,
	metricsManager *metrics.Manager,
) *BenchmarkHandler {
	return &BenchmarkHandler{
		benchmarks:     benchmarks,
		races:          races,
		profiles:       profiles,
		achievements:   achievementsEval,
		metricsManager: metricsManager,
	}
}

func (handler *BenchmarkHandler) SetupRoutes(router *mux.Router) {
	benchmarksRouter := router.PathPrefix("/benchmarks").Subrouter()
	benchmarksRouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-benchmark")
	benchmarksRouter.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-benchmarks")

	router.HandleFunc("/records", handler.HandleListRecords).Methods("GET", "OPTIONS").Name("list-records")

	racesRouter := router.PathPrefix("/races").Subrouter()
	racesRouter.HandleFunc("", handler.HandleAddRace).Methods("POST", "OPTIONS").Name("add-race")
	racesRouter.HandleFunc("", handler.HandleListRaces).Methods("GET", "OPTIONS").Name("list-races")
	racesRouter.HandleFunc("/{id}", handler.HandleGetRace).Methods("GET", "OPTIONS").Name("get-race")
}

func (handler *BenchmarkHandler) athleteID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return 0, false
	}

	profile, err := handler.profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, athlete.ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return 0, false
		}
		log.Errorf("resolve athlete for user %d: %s", userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return 0, false
	}

	return profile.ID, true
}

func (handler *BenchmarkHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.benchmark.add")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var benchmark BenchmarkTest
	if err := json.NewDecoder(r.Body).Decode(&benchmark); err != nil {
		log.Tracef("new benchmark, unmarshal json params: %s", err)
		http.Error(w, "add benchmark failed", http.StatusBadRequest)
		return
	}

	if !KnownStation(benchmark.Station) {
		http.Error(w, "error, unknown station: "+benchmark.Station, http.StatusBadRequest)
		return
	}
	if benchmark.TimeSeconds <= 0 {
		http.Error(w, "error, time must be positive", http.StatusBadRequest)
		return
	}

	benchmark.AthleteID = athleteID
	if benchmark.TestDate.IsZero() {
		benchmark.TestDate = time.Now()
	}

	addedBenchmark, err := handler.benchmarks.Add(ctx, benchmark)
	if err != nil {
		log.Errorf("failed to add benchmark [%s] for athlete %d: %s", benchmark.Station, athleteID, err)
		http.Error(w, "error, failed to add benchmark", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterBenchmarksLogged.Inc()

	improved, err := handler.benchmarks.UpsertPersonalRecord(ctx, PersonalRecord{
		AthleteID:   athleteID,
		Station:     addedBenchmark.Station,
		BestSeconds: addedBenchmark.TimeSeconds,
		AchievedAt:  addedBenchmark.TestDate,
	})
	if err != nil {
		// just log the error, the benchmark itself is saved
		log.Errorf("failed to upsert PR [%s] for athlete %d: %s", addedBenchmark.Station, athleteID, err)
	}

	newAchievements := handler.achievements.Evaluate(ctx, athleteID, achievements.TriggerBenchmark)

	respJson, err := json.Marshal(AddBenchmarkResponse{
		BenchmarkTest:     *addedBenchmark,
		NewPersonalRecord: improved,
		NewAchievements:   newAchievements,
	})
	if err != nil {
		log.Errorf("failed to marshal new benchmark: %s", err)
		http.Error(w, "error, failed to add benchmark", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

func (handler *BenchmarkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.benchmark.list")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	station := r.URL.Query().Get("station")
	if station != "" && !KnownStation(station) {
		http.Error(w, "error, unknown station: "+station, http.StatusBadRequest)
		return
	}

	benchmarks, err := handler.benchmarks.List(ctx, athleteID, station)
	if err != nil {
		log.Errorf("list benchmarks error: %s", err)
		http.Error(w, "failed to get benchmarks", http.StatusInternalServerError)
		return
	}

	benchmarksJson, err := json.Marshal(benchmarks)
	if err != nil {
		log.Errorf("marshal benchmarks error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, benchmarksJson, http.StatusOK)
}

func (handler *BenchmarkHandler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.benchmark.listRecords")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	records, err := handler.benchmarks.ListPersonalRecords(ctx, athleteID)
	if err != nil {
		log.Errorf("list personal records error: %s", err)
		http.Error(w, "failed to get personal records", http.StatusInternalServerError)
		return
	}

	recordsJson, err := json.Marshal(records)
	if err != nil {
		log.Errorf("marshal personal records error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, recordsJson, http.StatusOK)
}

func (handler *BenchmarkHandler) HandleAddRace(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.race.add")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var race RaceResult
	if err := json.NewDecoder(r.Body).Decode(&race); err != nil {
		log.Tracef("new race result, unmarshal json params: %s", err)
		http.Error(w, "add race result failed", http.StatusBadRequest)
		return
	}

	if race.RaceName == "" {
		http.Error(w, "error, race name empty", http.StatusBadRequest)
		return
	}
	if race.TotalSeconds <= 0 {
		http.Error(w, "error, total time must be positive", http.StatusBadRequest)
		return
	}
	for station := range race.StationSplits {
		if !KnownStation(station) {
			http.Error(w, "error, unknown station: "+station, http.StatusBadRequest)
			return
		}
	}
	if !athlete.Division(race.Division).Valid() {
		http.Error(w, "error, invalid division: "+race.Division, http.StatusBadRequest)
		return
	}

	race.AthleteID = athleteID
	if race.RaceDate.IsZero() {
		race.RaceDate = time.Now()
	}

	addedRace, err := handler.races.Add(ctx, race)
	if err != nil {
		log.Errorf("failed to add race result for athlete %d: %s", athleteID, err)
		http.Error(w, "error, failed to add race result", http.StatusInternalServerError)
		return
	}

	newAchievements := handler.achievements.Evaluate(ctx, athleteID, achievements.TriggerBenchmark)

	respJson, err := json.Marshal(AddRaceResponse{
		RaceResult:      *addedRace,
		NewAchievements: newAchievements,
	})
	if err != nil {
		log.Errorf("failed to marshal new race result: %s", err)
		http.Error(w, "error, failed to add race result", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

func (handler *BenchmarkHandler) HandleListRaces(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.race.list")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	races, err := handler.races.List(ctx, athleteID)
	if err != nil {
		log.Errorf("list races error: %s", err)
		http.Error(w, "failed to get races", http.StatusInternalServerError)
		return
	}

	racesJson, err := json.Marshal(races)
	if err != nil {
		log.Errorf("marshal races error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, racesJson, http.StatusOK)
}

func (handler *BenchmarkHandler) HandleGetRace(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.race.get")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	race, err := handler.races.Get(ctx, athleteID, id)
	if err != nil {
		if errors.Is(err, ErrRaceNotFound) {
			http.Error(w, "race not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get race %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	raceJson, err := json.Marshal(race)
	if err != nil {
		log.Errorf("failed to marshal race: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, raceJson, http.StatusOK)
}
