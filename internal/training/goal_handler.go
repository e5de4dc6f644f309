package training

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hyroxlab/roxcoach/internal/athlete"
	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"
	"github.com/hyroxlab/roxcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type goalRepo interface {
	Add(ctx context.Context, goal Goal) (*Goal, error)
	List(ctx context.Context, athleteID int, status GoalStatus) ([]Goal, error)
	UpdateStatus(ctx context.Context, athleteID, id int, status GoalStatus) error
	Delete(ctx context.Context, athleteID, id int) error
}

type GoalHandler struct {
	repo     goalRepo
	profiles profileProvider
}

func NewGoalHandler(repo goalRepo, profiles profileProvider) *GoalHandler {
	return &GoalHandler{
		repo:     repo,
		profiles: profiles,
	}
}

func (handler *GoalHandler) SetupRoutes(router *mux.Router) {
	goalsRouter := router.PathPrefix("/goals").Subrouter()
	goalsRouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-goal")
	goalsRouter.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-goals")
	goalsRouter.HandleFunc("/{id}/status", handler.HandleUpdateStatus).Methods("PUT", "OPTIONS").Name("update-goal-status")
	goalsRouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-goal")
}

func (handler *GoalHandler) athleteID(w http.ResponseWriter, r *http.Request) (int, bool) {
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

func (handler *GoalHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goal.add")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var goal Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		log.Tracef("new goal, unmarshal json params: %s", err)
		http.Error(w, "add goal failed", http.StatusBadRequest)
		return
	}

	if goal.Title == "" {
		http.Error(w, "error, goal title empty", http.StatusBadRequest)
		return
	}

	goal.AthleteID = athleteID
	if goal.Status == "" {
		goal.Status = GoalStatusActive
	}
	if !goal.Status.Valid() {
		http.Error(w, "error, invalid goal status", http.StatusBadRequest)
		return
	}

	addedGoal, err := handler.repo.Add(ctx, goal)
	if err != nil {
		log.Errorf("failed to add goal for athlete %d: %s", athleteID, err)
		http.Error(w, "error, failed to add goal", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(addedGoal)
	if err != nil {
		log.Errorf("failed to marshal new goal: %s", err)
		http.Error(w, "error, failed to add goal", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *GoalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goal.list")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	status := GoalStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		http.Error(w, "error, invalid goal status", http.StatusBadRequest)
		return
	}

	goals, err := handler.repo.List(ctx, athleteID, status)
	if err != nil {
		log.Errorf("list goals error: %s", err)
		http.Error(w, "failed to get goals", http.StatusInternalServerError)
		return
	}

	goalsJson, err := json.Marshal(goals)
	if err != nil {
		log.Errorf("marshal goals error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, goalsJson, http.StatusOK)
}

func (handler *GoalHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goal.updateStatus")
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

	var req struct {
		Status GoalStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "update goal failed", http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		http.Error(w, "error, invalid goal status", http.StatusBadRequest)
		return
	}

	if err := handler.repo.UpdateStatus(ctx, athleteID, id, req.Status); err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			http.Error(w, "goal not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update goal %d status: %s", id, err)
		http.Error(w, "error, failed to update goal", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"updatedId":`+strconv.Itoa(id)+`}`)
}

func (handler *GoalHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goal.delete")
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
		if errors.Is(err, ErrGoalNotFound) {
			http.Error(w, "goal not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete goal %d: %s", id, err)
		http.Error(w, "goal not deleted", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"deletedId":`+strconv.Itoa(id)+`}`)
}
