package achievements

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hyroxlab/roxcoach/internal/athlete"
	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"
	"github.com/hyroxlab/roxcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type earnedLister interface {
	Catalog(ctx context.Context) ([]Definition, error)
	ListEarned(ctx context.Context, athleteID int) ([]Earned, error)
}

type profileProvider interface {
	GetByUserID(ctx context.Context, userID int) (*athlete.Profile, error)
}

type Handler struct {
	repo     earnedLister
	profiles profileProvider
}

func NewHandler(repo earnedLister, profiles profileProvider) *Handler {
	return &Handler{
		repo:     repo,
		profiles: profiles,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.HandleListEarned).Methods("GET", "OPTIONS").Name("list-achievements")
	router.HandleFunc("/catalog", handler.HandleCatalog).Methods("GET", "OPTIONS").Name("achievements-catalog")
}

func (handler *Handler) HandleListEarned(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.achievements.listEarned")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	profile, err := handler.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, athlete.ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		log.Errorf("resolve athlete for user %d: %s", userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	earned, err := handler.repo.ListEarned(ctx, profile.ID)
	if err != nil {
		log.Errorf("list earned achievements for athlete %d: %s", profile.ID, err)
		http.Error(w, "failed to get achievements", http.StatusInternalServerError)
		return
	}

	earnedJson, err := json.Marshal(earned)
	if err != nil {
		log.Errorf("marshal earned achievements: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, earnedJson, http.StatusOK)
}

func (handler *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.achievements.catalog")
	defer span.End()

	catalog, err := handler.repo.Catalog(ctx)
	if err != nil {
		log.Errorf("get achievements catalog: %s", err)
		http.Error(w, "failed to get achievements catalog", http.StatusInternalServerError)
		return
	}

	catalogJson, err := json.Marshal(catalog)
	if err != nil {
		log.Errorf("marshal achievements catalog: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, catalogJson, http.StatusOK)
}
