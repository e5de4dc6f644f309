package athlete

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type profileRepo interface {
	Create(ctx context.Context, profile Profile) (*Profile, error)
	GetByUserID(ctx context.Context, userID int) (*Profile, error)
	Update(ctx context.Context, profile *Profile) error
}

type Handler struct {
	repo profileRepo
}

func NewHandler(repo profileRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.HandleCreate).Methods("POST", "OPTIONS").Name("create-profile")
	router.HandleFunc("", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-profile")
	router.HandleFunc("", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-profile")
}

type profileRequest struct {
	Division        string   `json:"division"`
	RaceDate        string   `json:"raceDate,omitempty"`
	GoalTimeSeconds int      `json:"goalTimeSeconds"`
	TrainingPhase   string   `json:"trainingPhase"`
	Equipment       []string `json:"equipment"`
	Injuries        []string `json:"injuries"`
}

func (req profileRequest) toProfile(userID int) (Profile, error) {
	profile := Profile{
		UserID:          userID,
		Division:        Division(req.Division),
		GoalTimeSeconds: req.GoalTimeSeconds,
		TrainingPhase:   Phase(req.TrainingPhase),
		Equipment:       req.Equipment,
		Injuries:        req.Injuries,
	}
	if !profile.Division.Valid() {
		return Profile{}, errors.New("invalid division: " + req.Division)
	}
	if !profile.TrainingPhase.Valid() {
		return Profile{}, errors.New("invalid training phase: " + req.TrainingPhase)
	}
	if req.RaceDate != "" {
		raceDate, err := time.Parse("2006-01-02", req.RaceDate)
		if err != nil {
			return Profile{}, errors.New("invalid race date: " + req.RaceDate)
		}
		profile.RaceDate = &raceDate
	}
	if profile.Equipment == nil {
		profile.Equipment = []string{}
	}
	if profile.Injuries == nil {
		profile.Injuries = []string{}
	}
	return profile, nil
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "expected JSON content type", http.StatusBadRequest)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("create profile, unmarshal request: %s", err)
		http.Error(w, "failed to parse request", http.StatusBadRequest)
		return
	}

	profile, err := req.toProfile(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := handler.repo.Create(r.Context(), profile)
	if err != nil {
		log.Errorf("create profile for user %d: %s", userID, err)
		http.Error(w, "failed to create profile", http.StatusInternalServerError)
		return
	}

	createdBytes, err := json.Marshal(created)
	if err != nil {
		log.Errorf("create profile, marshal response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, createdBytes, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	profile, err := handler.repo.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		log.Errorf("get profile for user %d: %s", userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	profileBytes, err := json.Marshal(profile)
	if err != nil {
		log.Errorf("get profile, marshal response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, profileBytes)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "expected JSON content type", http.StatusBadRequest)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update profile, unmarshal request: %s", err)
		http.Error(w, "failed to parse request", http.StatusBadRequest)
		return
	}

	existing, err := handler.repo.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		log.Errorf("update profile, get existing for user %d: %s", userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	updated, err := req.toProfile(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated.ID = existing.ID

	if err := handler.repo.Update(r.Context(), &updated); err != nil {
		log.Errorf("update profile %d: %s", updated.ID, err)
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	updatedBytes, err := json.Marshal(updated)
	if err != nil {
		log.Errorf("update profile, marshal response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, updatedBytes)
}
