package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) CreateConversation(ctx context.Context, athleteID int, title string) (_ *Conversation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coach.createConversation")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	conversation := &Conversation{
		ID:        uuid.New(),
		AthleteID: athleteID,
		Title:     title,
		Messages:  []Message{},
	}

	err = r.db.
		QueryRow(ctx, `
			INSERT INTO conversation (id, athlete_id, title, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING created_at
		`, conversation.ID, conversation.AthleteID, conversation.Title).
		Scan(&conversation.CreatedAt)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("conversation.id", conversation.ID.String()))
	return conversation, nil
}

// GetConversation loads the conversation with all messages. Conversations
// of other athletes come back as ErrConversationNotFound.
func (r *Repo) GetConversation(ctx context.Context, athleteID int, id uuid.UUID) (_ *Conversation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coach.getConversation")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("conversation.id", id.String()))

	conversation := &Conversation{}
	err = r.db.
		QueryRow(ctx, `
			SELECT id, athlete_id, title, created_at
			FROM conversation
			WHERE id = $1 AND athlete_id = $2
		`, id, athleteID).
		Scan(&conversation.ID, &conversation.AthleteID, &conversation.Title, &conversation.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, role, content, feedback, suggested_actions, created_at
		FROM message
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversation.Messages, err = r.rows2messages(rows)
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

func (r *Repo) AddMessage(ctx context.Context, message Message) (_ *Message, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coach.addMessage")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	actionsJson, err := json.Marshal(message.SuggestedActions)
	if err != nil {
		return nil, fmt.Errorf("marshal suggested actions: %w", err)
	}

	err = r.db.
		QueryRow(ctx, `
			INSERT INTO message (conversation_id, role, content, suggested_actions, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			RETURNING id, created_at
		`, message.ConversationID, message.Role, message.Content, actionsJson).
		Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("message.id", message.ID))
	return &message, nil
}

// SetFeedback stores the thumbs up/down on an assistant message, checking
// the message belongs to one of the athlete's conversations.
func (r *Repo) SetFeedback(ctx context.Context, athleteID, messageID int, feedback Feedback) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coach.setFeedback")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("message.id", messageID))

	tag, err := r.db.Exec(ctx, `
		UPDATE message m SET feedback = $1
		FROM conversation c
		WHERE m.id = $2 AND m.conversation_id = c.id AND c.athlete_id = $3
	`, feedback, messageID, athleteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *Repo) rows2messages(rows pgx.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var m Message
		var actionsBytes []byte
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Feedback, &actionsBytes, &m.CreatedAt,
		); err != nil {
			return nil, err
		}

		if len(actionsBytes) > 0 {
			if err := json.Unmarshal(actionsBytes, &m.SuggestedActions); err != nil {
				return nil, fmt.Errorf("unmarshal suggested actions for message %d: %w", m.ID, err)
			}
		}
		if m.SuggestedActions == nil {
			m.SuggestedActions = []SuggestedAction{}
		}

		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if messages == nil {
		messages = make([]Message, 0)
	}
	return messages, nil
}
