package coach_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/hyroxlab/roxcoach/internal/athlete"
	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/internal/coach"
	"github.com/hyroxlab/roxcoach/internal/telemetry/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type convRepoMock struct {
	conversations map[uuid.UUID]*coach.Conversation
	nextMessageID int
	feedback      map[int]coach.Feedback
}

func newConvRepoMock() *convRepoMock {
	return &convRepoMock{
		conversations: map[uuid.UUID]*coach.Conversation{},
		nextMessageID: 1,
		feedback:      map[int]coach.Feedback{},
	}
}

func (m *convRepoMock) CreateConversation(_ context.Context, athleteID int, title string) (*coach.Conversation, error) {
	conversation := &coach.Conversation{
		ID:        uuid.New(),
		AthleteID: athleteID,
		Title:     title,
		CreatedAt: time.Now(),
		Messages:  []coach.Message{},
	}
	m.conversations[conversation.ID] = conversation
	return conversation, nil
}

func (m *convRepoMock) GetConversation(_ context.Context, athleteID int, id uuid.UUID) (*coach.Conversation, error) {
	conversation, ok := m.conversations[id]
	if !ok || conversation.AthleteID != athleteID {
		return nil, coach.ErrConversationNotFound
	}
	return conversation, nil
}

func (m *convRepoMock) AddMessage(_ context.Context, message coach.Message) (*coach.Message, error) {
	message.ID = m.nextMessageID
	m.nextMessageID++
	message.CreatedAt = time.Now()
	if conversation, ok := m.conversations[message.ConversationID]; ok {
		conversation.Messages = append(conversation.Messages, message)
	}
	return &message, nil
}

func (m *convRepoMock) SetFeedback(_ context.Context, athleteID, messageID int, feedback coach.Feedback) error {
	for _, conversation := range m.conversations {
		if conversation.AthleteID != athleteID {
			continue
		}
		for _, message := range conversation.Messages {
			if message.ID == messageID {
				m.feedback[messageID] = feedback
				return nil
			}
		}
	}
	return coach.ErrMessageNotFound
}

type assistantMock struct {
	reply   string
	actions []coach.SuggestedAction
	err     error
}

func (m *assistantMock) Reply(_ context.Context, _ *athlete.Profile, _ []coach.Message, _ string) (string, []coach.SuggestedAction, error) {
	return m.reply, m.actions, m.err
}

type chatProfilesMock struct{}

func (m *chatProfilesMock) GetByUserID(_ context.Context, userID int) (*athlete.Profile, error) {
	return &athlete.Profile{ID: 10, UserID: userID}, nil
}

func chatRouter(repo *convRepoMock, assistant *assistantMock) *mux.Router {
	r := mux.NewRouter()
	handler := coach.NewHandler(repo, assistant, &chatProfilesMock{}, metrics.NewTestManager())
	handler.SetupRoutes(r.PathPrefix("/chat").Subrouter())
	return r
}

func chatHTTPRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(auth.ContextWithUserID(req.Context(), 42))
}

func TestHandler_Chat_NewConversation(t *testing.T) {
	repo := newConvRepoMock()
	assistant := &assistantMock{
		reply: "Start with 3 rounds of 20 wall balls.",
		actions: []coach.SuggestedAction{
			{Type: "log_workout", Label: "Log it"},
		},
	}
	r := chatRouter(repo, assistant)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, chatHTTPRequest("POST", "/chat", `{"message": "how do I improve wall balls?"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp coach.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqual(t, uuid.Nil, resp.ConversationID)
	assert.Equal(t, coach.RoleUser, resp.UserMessage.Role)
	assert.Equal(t, coach.RoleAssistant, resp.Reply.Role)
	assert.Equal(t, assistant.reply, resp.Reply.Content)
	require.Len(t, resp.Reply.SuggestedActions, 1)

	stored := repo.conversations[resp.ConversationID]
	require.NotNil(t, stored)
	assert.Equal(t, "how do I improve wall balls?", stored.Title)
	assert.Len(t, stored.Messages, 2)
}

func TestHandler_Chat_MultiByteTitleStaysValid(t *testing.T) {
	repo := newConvRepoMock()
	r := chatRouter(repo, &assistantMock{reply: "続けましょう。"})

	// 80 runes, each 3 bytes, no spaces to fall back on
	message := strings.Repeat("筋", 80)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, chatHTTPRequest("POST", "/chat", `{"message": "`+message+`"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp coach.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	stored := repo.conversations[resp.ConversationID]
	require.NotNil(t, stored)

	assert.True(t, utf8.ValidString(stored.Title))
	assert.Equal(t, 60, utf8.RuneCountInString(stored.Title))
}

func TestHandler_Chat_AppendToExisting(t *testing.T) {
	repo := newConvRepoMock()
	existing, err := repo.CreateConversation(context.Background(), 10, "wall balls")
	require.NoError(t, err)

	r := chatRouter(repo, &assistantMock{reply: "More squats."})

	body := `{"conversationId": "` + existing.ID.String() + `", "message": "still slow"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, chatHTTPRequest("POST", "/chat", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp coach.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, existing.ID, resp.ConversationID)
	assert.Len(t, repo.conversations[existing.ID].Messages, 2)
}

func TestHandler_Chat_ForeignConversationIs404(t *testing.T) {
	repo := newConvRepoMock()
	foreign, err := repo.CreateConversation(context.Background(), 999, "not yours")
	require.NoError(t, err)

	r := chatRouter(repo, &assistantMock{reply: "hi"})

	body := `{"conversationId": "` + foreign.ID.String() + `", "message": "hello"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, chatHTTPRequest("POST", "/chat", body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Chat_AssistantDownIs502(t *testing.T) {
	repo := newConvRepoMock()
	r := chatRouter(repo, &assistantMock{err: assert.AnError})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, chatHTTPRequest("POST", "/chat", `{"message": "hello"}`))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandler_Chat_EmptyMessage(t *testing.T) {
	r := chatRouter(newConvRepoMock(), &assistantMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, chatHTTPRequest("POST", "/chat", `{"message": "   "}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetConversation(t *testing.T) {
	repo := newConvRepoMock()
	conversation, err := repo.CreateConversation(context.Background(), 10, "pacing")
	require.NoError(t, err)
	_, err = repo.AddMessage(context.Background(), coach.Message{
		ConversationID: conversation.ID,
		Role:           coach.RoleUser,
		Content:        "race pace?",
	})
	require.NoError(t, err)

	r := chatRouter(repo, &assistantMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, chatHTTPRequest("GET", "/chat/"+conversation.ID.String(), ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var got coach.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "pacing", got.Title)
	assert.Len(t, got.Messages, 1)
}

func TestHandler_Feedback(t *testing.T) {
	repo := newConvRepoMock()
	conversation, err := repo.CreateConversation(context.Background(), 10, "pacing")
	require.NoError(t, err)
	message, err := repo.AddMessage(context.Background(), coach.Message{
		ConversationID: conversation.ID,
		Role:           coach.RoleAssistant,
		Content:        "negative split it",
	})
	require.NoError(t, err)

	r := chatRouter(repo, &assistantMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, chatHTTPRequest(
		"PUT", "/chat/message/1/feedback", `{"feedback": "positive"}`,
	))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, coach.FeedbackPositive, repo.feedback[message.ID])

	// unknown message
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, chatHTTPRequest(
		"PUT", "/chat/message/777/feedback", `{"feedback": "negative"}`,
	))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// invalid feedback value
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, chatHTTPRequest(
		"PUT", "/chat/message/1/feedback", `{"feedback": "meh"}`,
	))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
