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

//go:generate mockgen -source=$GOFILE -destination=workout_mocks_test.go -package=training_test

type workoutRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	Get(ctx context.Context, athleteID, id int) (*Workout, error)
	Update(ctx context.Context, workout *Workout) error
	Delete(ctx context.Context, athleteID, id int) error
	List(ctx context.Context, params WorkoutListParams) (_ []Workout, total int, err error)
	Count(ctx context.Context, params WorkoutParams) (int, error)
}

type recoveryRepo interface {
	Add(ctx context.Context, metric RecoveryMetric) (*RecoveryMetric, error)
	ListSince(ctx context.Context, athleteID int, from time.Time) ([]RecoveryMetric, error)
	GetForDate(ctx context.Context, athleteID int, date time.Time) (*RecoveryMetric, error)
}

type profileProvider interface {
	GetByUserID(ctx context.Context, userID int) (*athlete.Profile, error)
}

type achievementsEvaluator interface {
	Evaluate(ctx context.Context, athleteID int, trigger achievements.Trigger) []achievements.Earned
}

type AddWorkoutResponse struct {
	Workout
	CountThisWeek   int                   `json:"countThisWeek"`
	NewAchievements []achievements.Earned `json:"newAchievements"`
}

type WorkoutListResponse struct {
	Workouts []Workout `json:"workouts"`
	Total    int       `json:"total"`
}

type DeleteWorkoutResponse struct {
	DeletedID int `json:"deletedId"`
}

type UpdateWorkoutResponse struct {
	UpdatedID int `json:"updatedId"`
}

type WorkoutHandler struct {
	repo           workoutRepo
	recovery       recoveryRepo
	profiles       profileProvider
	achievements   achievementsEvaluator
	metricsManager *metrics.Manager
}

func NewWorkoutHandler(
	repo workoutRepo,
	recovery recoveryRepo,
	profiles profileProvider,
	achievementsEval achievementsEvaluator,
	metricsManager *metrics.Manager,
) *WorkoutHandler {
	return &WorkoutHandler{
		repo:           repo,
		recovery:       recovery,
		profiles:       profiles,
		achievements:   achievementsEval,
		metricsManager: metricsManager,
	}
}

func (handler *WorkoutHandler) SetupRoutes(router *mux.Router) {
	workoutsRouter := router.PathPrefix("/workouts").Subrouter()
	workoutsRouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-workout")
	workoutsRouter.HandleFunc("/page/{page}/size/{size}", handler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	workoutsRouter.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	workoutsRouter.HandleFunc("/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	workoutsRouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")

	recoveryRouter := router.PathPrefix("/recovery").Subrouter()
	recoveryRouter.HandleFunc("", handler.HandleAddRecovery).Methods("POST", "OPTIONS").Name("add-recovery")
	recoveryRouter.HandleFunc("", handler.HandleListRecovery).Methods("GET", "OPTIONS").Name("list-recovery")
	recoveryRouter.HandleFunc("/{date}", handler.HandleGetRecoveryForDate).Methods("GET", "OPTIONS").Name("get-recovery-for-date")
}

// athleteID resolves the athlete profile of the request user. It writes the
// error response itself and returns ok=false when the caller should bail out.
func (handler *WorkoutHandler) athleteID(w http.ResponseWriter, r *http.Request) (int, bool) {
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

func (handler *WorkoutHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.add")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var workout Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		log.Tracef("new workout, unmarshal json params: %s", err)
		http.Error(w, "add workout failed", http.StatusBadRequest)
		return
	}

	if !workout.Type.Valid() {
		http.Error(w, "error, unknown workout type", http.StatusBadRequest)
		return
	}
	if workout.RPE < 1 || workout.RPE > 10 {
		http.Error(w, "error, rpe must be between 1 and 10", http.StatusBadRequest)
		return
	}
	if workout.DurationMinutes < 1 {
		http.Error(w, "error, duration must be positive", http.StatusBadRequest)
		return
	}
	for _, sw := range workout.Stations {
		if !KnownStation(sw.Station) {
			http.Error(w, "error, unknown station: "+sw.Station, http.StatusBadRequest)
			return
		}
	}

	workout.AthleteID = athleteID
	if workout.PerformedAt.IsZero() {
		workout.PerformedAt = time.Now()
	}

	addedWorkout, err := handler.repo.Add(ctx, workout)
	if err != nil {
		log.Errorf("failed to add workout for athlete %d: %s", athleteID, err)
		http.Error(w, "error, failed to add workout", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutsLogged.Inc()

	weekAgo := time.Now().AddDate(0, 0, -7)
	countThisWeek, err := handler.repo.Count(ctx, WorkoutParams{
		AthleteID: athleteID,
		From:      &weekAgo,
	})
	if err != nil {
		// just log the error, no need to return error to the client
		log.Errorf("failed to count workouts this week for athlete %d: %s", athleteID, err)
	}

	newAchievements := handler.achievements.Evaluate(ctx, athleteID, achievements.TriggerWorkout)

	addWorkoutResponse := AddWorkoutResponse{
		Workout:         *addedWorkout,
		CountThisWeek:   countThisWeek,
		NewAchievements: newAchievements,
	}

	addedJson, err := json.Marshal(addWorkoutResponse)
	if err != nil {
		log.Errorf("failed to marshal new workout: %s", err)
		http.Error(w, "error, failed to add workout", http.StatusInternalServerError)
		return
	}

	log.Debugf("new workout added for athlete %d: %d", athleteID, addedWorkout.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *WorkoutHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.get")
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

	workout, err := handler.repo.Get(ctx, athleteID, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get workout %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("failed to marshal workout: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutJson, http.StatusOK)
}

func (handler *WorkoutHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.list")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		http.Error(w, "parse form error, parameter <page>", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil {
		http.Error(w, "parse form error, parameter <size>", http.StatusBadRequest)
		return
	}
	if page < 1 {
		http.Error(w, "invalid page (has to be non-zero value)", http.StatusBadRequest)
		return
	}
	if size < 1 {
		http.Error(w, "invalid size (has to be non-zero value)", http.StatusBadRequest)
		return
	}

	listParams := WorkoutListParams{
		WorkoutParams: WorkoutParams{
			AthleteID: athleteID,
			Type:      WorkoutType(r.URL.Query().Get("type")),
		},
		Page: page,
		Size: size,
	}

	workouts, total, err := handler.repo.List(ctx, listParams)
	if err != nil {
		log.Errorf("list workouts error: %s", err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	listResponseJson, err := json.Marshal(WorkoutListResponse{
		Workouts: workouts,
		Total:    total,
	})
	if err != nil {
		log.Errorf("marshal workouts error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listResponseJson, http.StatusOK)
}

func (handler *WorkoutHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.update")
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

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var workout Workout
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		log.Errorf("update workout, unmarshal json params: %s", err)
		http.Error(w, "update workout failed", http.StatusBadRequest)
		return
	}

	if !workout.Type.Valid() {
		http.Error(w, "error, unknown workout type", http.StatusBadRequest)
		return
	}

	workout.ID = id
	workout.AthleteID = athleteID

	if err := handler.repo.Update(ctx, &workout); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update workout %d: %s", id, err)
		http.Error(w, "error, failed to update workout", http.StatusInternalServerError)
		return
	}

	updateRespJson, err := json.Marshal(UpdateWorkoutResponse{
		UpdatedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(updateRespJson))
}

func (handler *WorkoutHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.delete")
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

	if err := handler.repo.Delete(ctx, athleteID, id); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete workout %d: %s", id, err)
		http.Error(w, "workout not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteWorkoutResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func (handler *WorkoutHandler) HandleAddRecovery(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.recovery.add")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var metric RecoveryMetric
	if err := json.NewDecoder(r.Body).Decode(&metric); err != nil {
		log.Tracef("new recovery metric, unmarshal json params: %s", err)
		http.Error(w, "add recovery metric failed", http.StatusBadRequest)
		return
	}

	if metric.SleepQuality < 1 || metric.SleepQuality > 10 {
		http.Error(w, "error, sleep quality must be between 1 and 10", http.StatusBadRequest)
		return
	}
	if metric.Soreness < 1 || metric.Soreness > 10 {
		http.Error(w, "error, soreness must be between 1 and 10", http.StatusBadRequest)
		return
	}
	if metric.Energy < 1 || metric.Energy > 10 {
		http.Error(w, "error, energy must be between 1 and 10", http.StatusBadRequest)
		return
	}

	metric.AthleteID = athleteID
	if metric.MetricDate.IsZero() {
		metric.MetricDate = time.Now().Truncate(24 * time.Hour)
	}

	addedMetric, err := handler.recovery.Add(ctx, metric)
	if err != nil {
		log.Errorf("failed to add recovery metric for athlete %d: %s", athleteID, err)
		http.Error(w, "error, failed to add recovery metric", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(addedMetric)
	if err != nil {
		log.Errorf("failed to marshal recovery metric: %s", err)
		http.Error(w, "error, failed to add recovery metric", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *WorkoutHandler) HandleListRecovery(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.recovery.list")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	days := 30
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		var err error
		days, err = strconv.Atoi(daysStr)
		if err != nil || days < 1 {
			http.Error(w, "error, invalid days param", http.StatusBadRequest)
			return
		}
	}

	from := time.Now().AddDate(0, 0, -days)
	metrics, err := handler.recovery.ListSince(ctx, athleteID, from)
	if err != nil {
		log.Errorf("list recovery metrics error: %s", err)
		http.Error(w, "failed to get recovery metrics", http.StatusInternalServerError)
		return
	}

	metricsJson, err := json.Marshal(metrics)
	if err != nil {
		log.Errorf("marshal recovery metrics error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, metricsJson, http.StatusOK)
}

func (handler *WorkoutHandler) HandleGetRecoveryForDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.recovery.getForDate")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", mux.Vars(r)["date"])
	if err != nil {
		http.Error(w, "error, invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	metric, err := handler.recovery.GetForDate(ctx, athleteID, date)
	if err != nil {
		if errors.Is(err, ErrRecoveryMetricNotFound) {
			http.Error(w, "recovery metric not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get recovery metric for %s: %s", date.Format("2006-01-02"), err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	metricJson, err := json.Marshal(metric)
	if err != nil {
		log.Errorf("failed to marshal recovery metric: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, metricJson, http.StatusOK)
}
