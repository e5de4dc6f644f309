package readiness

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/internal/telemetry/metrics"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"
	"github.com/hyroxlab/roxcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type scorer interface {
	ScoreForUser(ctx context.Context, userID int) (*Score, error)
}

type Handler struct {
	engine         scorer
	metricsManager *metrics.Manager
}

func NewHandler(engine scorer, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		engine:         engine,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-readiness")
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.readiness.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	score, err := handler.engine.ScoreForUser(ctx, userID)
	if err != nil {
		log.Errorf("compute readiness for user %d: %s", userID, err)
		http.Error(w, "failed to compute readiness", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterReadinessComputed.Inc()

	scoreJson, err := json.Marshal(score)
	if err != nil {
		log.Errorf("marshal readiness score: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, scoreJson, http.StatusOK)
}
