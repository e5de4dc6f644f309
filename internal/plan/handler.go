package plan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hyroxlab/roxcoach/internal/athlete"
	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"
	"github.com/hyroxlab/roxcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type planRepo interface {
	Create(ctx context.Context, plan Plan) (*Plan, error)
	GetActive(ctx context.Context, athleteID int) (*Plan, error)
	CompleteDay(ctx context.Context, athleteID, dayID int) error
}

type draftExtractor interface {
	Extract(ctx context.Context, freeText string) (*Draft, error)
}

type profileProvider interface {
	GetByUserID(ctx context.Context, userID int) (*athlete.Profile, error)
}

type Handler struct {
	repo      planRepo
	extractor draftExtractor
	profiles  profileProvider
}

func NewHandler(repo planRepo, extractor draftExtractor, profiles profileProvider) *Handler {
	return &Handler{
		repo:      repo,
		extractor: extractor,
		profiles:  profiles,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.HandleCreate).Methods("POST", "OPTIONS").Name("create-plan")
	router.HandleFunc("/active", handler.HandleGetActive).Methods("GET", "OPTIONS").Name("get-active-plan")
	router.HandleFunc("/day/{id}/complete", handler.HandleCompleteDay).Methods("PUT", "OPTIONS").Name("complete-plan-day")
	router.HandleFunc("/extract", handler.HandleExtract).Methods("POST", "OPTIONS").Name("extract-plan")
}

func (handler *Handler) athleteID(w http.ResponseWriter, r *http.Request) (int, bool) {
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

type createPlanRequest struct {
	Name     string      `json:"name"`
	RaceDate string      `json:"raceDate,omitempty"`
	Weeks    []DraftWeek `json:"weeks"`
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.create")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new plan, unmarshal json params: %s", err)
		http.Error(w, "create plan failed", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, "error, plan name empty", http.StatusBadRequest)
		return
	}
	if len(req.Weeks) == 0 {
		http.Error(w, "error, plan has no weeks", http.StatusBadRequest)
		return
	}

	newPlan := Plan{
		AthleteID: athleteID,
		Name:      req.Name,
	}
	if req.RaceDate != "" {
		raceDate, err := time.Parse("2006-01-02", req.RaceDate)
		if err != nil {
			http.Error(w, "error, invalid race date: "+req.RaceDate, http.StatusBadRequest)
			return
		}
		newPlan.RaceDate = &raceDate
	}

	for _, draftWeek := range req.Weeks {
		if draftWeek.Index < 1 {
			http.Error(w, "error, week index must be positive", http.StatusBadRequest)
			return
		}
		week := Week{
			Index: draftWeek.Index,
			Focus: draftWeek.Focus,
		}
		for _, draftDay := range draftWeek.Days {
			if draftDay.DayOfWeek < 1 || draftDay.DayOfWeek > 7 {
				http.Error(w, "error, day of week must be between 1 and 7", http.StatusBadRequest)
				return
			}
			week.Days = append(week.Days, Day{
				DayOfWeek:   draftDay.DayOfWeek,
				SessionType: draftDay.SessionType,
				Description: draftDay.Description,
			})
		}
		newPlan.Weeks = append(newPlan.Weeks, week)
	}

	createdPlan, err := handler.repo.Create(ctx, newPlan)
	if err != nil {
		log.Errorf("failed to create plan for athlete %d: %s", athleteID, err)
		http.Error(w, "error, failed to create plan", http.StatusInternalServerError)
		return
	}

	createdJson, err := json.Marshal(createdPlan)
	if err != nil {
		log.Errorf("failed to marshal new plan: %s", err)
		http.Error(w, "error, failed to create plan", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, createdJson, http.StatusCreated)
}

func (handler *Handler) HandleGetActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.getActive")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	activePlan, err := handler.repo.GetActive(ctx, athleteID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "no active plan", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get active plan for athlete %d: %s", athleteID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	planJson, err := json.Marshal(activePlan)
	if err != nil {
		log.Errorf("failed to marshal plan: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, planJson, http.StatusOK)
}

func (handler *Handler) HandleCompleteDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.completeDay")
	defer span.End()

	athleteID, ok := handler.athleteID(w, r)
	if !ok {
		return
	}

	dayID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.CompleteDay(ctx, athleteID, dayID); err != nil {
		if errors.Is(err, ErrDayNotFound) {
			http.Error(w, "plan day not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to complete plan day %d: %s", dayID, err)
		http.Error(w, "error, failed to complete plan day", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"completedId":`+strconv.Itoa(dayID)+`}`)
}

type extractRequest struct {
	Text string `json:"text"`
}

func (handler *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.extract")
	defer span.End()

	if _, ok := handler.athleteID(w, r); !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "extract plan failed", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "error, text empty", http.StatusBadRequest)
		return
	}

	draft, err := handler.extractor.Extract(ctx, req.Text)
	if err != nil {
		log.Errorf("failed to extract plan draft: %s", err)
		http.Error(w, "failed to extract plan from text", http.StatusBadGateway)
		return
	}

	draftJson, err := json.Marshal(draft)
	if err != nil {
		log.Errorf("failed to marshal plan draft: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, draftJson, http.StatusOK)
}
