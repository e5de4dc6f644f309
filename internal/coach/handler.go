package coach

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/hyroxlab/roxcoach/internal/athlete"
	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/internal/telemetry/metrics"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"
	"github.com/hyroxlab/roxcoach/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxTitleLength = 60

type conversationRepo interface {
	CreateConversation(ctx context.Context, athleteID int, title string) (*Conversation, error)
	GetConversation(ctx context.Context, athleteID int, id uuid.UUID) (*Conversation, error)
	AddMessage(ctx context.Context, message Message) (*Message, error)
	SetFeedback(ctx context.Context, athleteID, messageID int, feedback Feedback) error
}

type replier interface {
	Reply(ctx context.Context, profile *athlete.Profile, history []Message, userMessage string) (string, []SuggestedAction, error)
}

type profileProvider interface {
	GetByUserID(ctx context.Context, userID int) (*athlete.Profile, error)
}

type ChatResponse struct {
	ConversationID uuid.UUID `json:"conversationId"`
	UserMessage    Message   `json:"userMessage"`
	Reply          Message   `json:"reply"`
}

type Handler struct {
	repo           conversationRepo
	assistant      replier
	profiles       profileProvider
	metricsManager *metrics.Manager
}

func NewHandler(
	repo conversationRepo,
	assistant replier,
	profiles profileProvider,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:           repo,
		assistant:      assistant,
		profiles:       profiles,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", handler.HandleChat).Methods("POST", "OPTIONS").Name("chat")
	router.HandleFunc("/message/{id}/feedback", handler.HandleFeedback).Methods("PUT", "OPTIONS").Name("chat-feedback")
	router.HandleFunc("/{id}", handler.HandleGetConversation).Methods("GET", "OPTIONS").Name("get-conversation")
}

func (handler *Handler) athleteProfile(w http.ResponseWriter, r *http.Request) (*athlete.Profile, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, false
	}

	profile, err := handler.profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, athlete.ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return nil, false
		}
		log.Errorf("resolve athlete for user %d: %s", userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}

	return profile, true
}

type chatRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
}

func (handler *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.chat")
	defer span.End()

	profile, ok := handler.athleteProfile(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("chat, unmarshal json params: %s", err)
		http.Error(w, "chat failed", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "error, message empty", http.StatusBadRequest)
		return
	}

	var conversation *Conversation
	if req.ConversationID == "" {
		created, err := handler.repo.CreateConversation(ctx, profile.ID, titleFrom(req.Message))
		if err != nil {
			log.Errorf("failed to create conversation for athlete %d: %s", profile.ID, err)
			http.Error(w, "chat failed", http.StatusInternalServerError)
			return
		}
		conversation = created
	} else {
		conversationID, err := uuid.Parse(req.ConversationID)
		if err != nil {
			http.Error(w, "error, invalid conversation id", http.StatusBadRequest)
			return
		}
		existing, err := handler.repo.GetConversation(ctx, profile.ID, conversationID)
		if err != nil {
			if errors.Is(err, ErrConversationNotFound) {
				http.Error(w, "conversation not found", http.StatusNotFound)
				return
			}
			log.Errorf("failed to get conversation %s: %s", conversationID, err)
			http.Error(w, "chat failed", http.StatusInternalServerError)
			return
		}
		conversation = existing
	}

	userMessage, err := handler.repo.AddMessage(ctx, Message{
		ConversationID:   conversation.ID,
		Role:             RoleUser,
		Content:          req.Message,
		SuggestedActions: []SuggestedAction{},
	})
	if err != nil {
		log.Errorf("failed to store user message in %s: %s", conversation.ID, err)
		http.Error(w, "chat failed", http.StatusInternalServerError)
		return
	}

	replyText, actions, err := handler.assistant.Reply(ctx, profile, conversation.Messages, req.Message)
	if err != nil {
		log.Errorf("failed to get coach reply in %s: %s", conversation.ID, err)
		http.Error(w, "coach is unavailable right now", http.StatusBadGateway)
		return
	}

	replyMessage, err := handler.repo.AddMessage(ctx, Message{
		ConversationID:   conversation.ID,
		Role:             RoleAssistant,
		Content:          replyText,
		SuggestedActions: actions,
	})
	if err != nil {
		log.Errorf("failed to store coach reply in %s: %s", conversation.ID, err)
		http.Error(w, "chat failed", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterChatMessages.Inc()

	respJson, err := json.Marshal(ChatResponse{
		ConversationID: conversation.ID,
		UserMessage:    *userMessage,
		Reply:          *replyMessage,
	})
	if err != nil {
		log.Errorf("failed to marshal chat response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.getConversation")
	defer span.End()

	profile, ok := handler.athleteProfile(w, r)
	if !ok {
		return
	}

	conversationID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid conversation id", http.StatusBadRequest)
		return
	}

	conversation, err := handler.repo.GetConversation(ctx, profile.ID, conversationID)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get conversation %s: %s", conversationID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conversationJson, err := json.Marshal(conversation)
	if err != nil {
		log.Errorf("failed to marshal conversation: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, conversationJson, http.StatusOK)
}

type feedbackRequest struct {
	Feedback Feedback `json:"feedback"`
}

func (handler *Handler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.feedback")
	defer span.End()

	profile, ok := handler.athleteProfile(w, r)
	if !ok {
		return
	}

	messageID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "feedback failed", http.StatusBadRequest)
		return
	}
	if !req.Feedback.Valid() {
		http.Error(w, "error, feedback must be positive or negative", http.StatusBadRequest)
		return
	}

	if err := handler.repo.SetFeedback(ctx, profile.ID, messageID, req.Feedback); err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			http.Error(w, "message not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to set feedback on message %d: %s", messageID, err)
		http.Error(w, "feedback failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"updatedId":`+strconv.Itoa(messageID)+`}`)
}

// titleFrom derives a conversation title from the first message, cut to
// maxTitleLength runes so multi-byte input never gets split mid-character.
func titleFrom(message string) string {
	title := strings.TrimSpace(message)
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength])
		if idx := strings.LastIndex(title, " "); idx > 0 {
			title = title[:idx]
		}
	}
	return title
}
