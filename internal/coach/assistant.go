package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyroxlab/roxcoach/internal/athlete"
	"github.com/hyroxlab/roxcoach/internal/llm"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"

	"github.com/qri-io/jsonschema"
	log "github.com/sirupsen/logrus"
)

// keep prompts bounded, older messages are dropped
const maxHistoryMessages = 12

var knownActionTypes = map[string]bool{
	"log_workout":    true,
	"log_recovery":   true,
	"view_readiness": true,
	"update_plan":    true,
	"log_benchmark":  true,
}

const replySchemaJSON = `{
	"type": "object",
	"required": ["reply"],
	"properties": {
		"reply": {"type": "string", "minLength": 1},
		"suggestedActions": {
			"type": "array",
			"maxItems": 3,
			"items": {
				"type": "object",
				"required": ["type", "label"],
				"properties": {
					"type": {"type": "string"},
					"label": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

var replySchema = llm.MustCompileSchema(replySchemaJSON)

const replyPromptFormat = `You are a knowledgeable, encouraging Hyrox coach. The athlete you are
talking to competes in the %s division, training phase: %s.

Conversation so far:
%s

Athlete: %s

Respond with a JSON object matching this schema, nothing else:
%s

suggestedActions types you may use: log_workout, log_recovery,
view_readiness, update_plan, log_benchmark. Suggest at most 3, only
when they genuinely follow from your reply.`

type structuredReply struct {
	Reply            string            `json:"reply"`
	SuggestedActions []SuggestedAction `json:"suggestedActions"`
}

type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, schema *jsonschema.Schema) ([]byte, error)
}

// Assistant produces coach replies via the language model. When the model
// fails to produce schema-valid output, the reply degrades to plain text
// with no suggested actions rather than failing the chat request.
type Assistant struct {
	llmClient generator
}

func NewAssistant(llmClient generator) *Assistant {
	return &Assistant{
		llmClient: llmClient,
	}
}

func (a *Assistant) Reply(
	ctx context.Context,
	profile *athlete.Profile,
	history []Message,
	userMessage string,
) (_ string, _ []SuggestedAction, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coach.reply")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	prompt := fmt.Sprintf(
		replyPromptFormat,
		profile.Division, profile.TrainingPhase,
		renderHistory(history),
		userMessage,
		replySchemaJSON,
	)

	replyJson, err := a.llmClient.GenerateJSON(ctx, prompt, replySchema)
	if err == nil {
		var reply structuredReply
		if err := json.Unmarshal(replyJson, &reply); err == nil {
			return reply.Reply, filterActions(reply.SuggestedActions), nil
		}
		log.Errorf("coach reply, unmarshal structured reply: %s", err)
	} else {
		log.Debugf("coach reply, structured generation failed, degrading to plain text: %s", err)
	}

	// degraded path: plain text, no suggested actions
	plainReply, err := a.llmClient.Generate(ctx, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("generate coach reply: %w", err)
	}

	if extracted := extractPlainReply(plainReply); extracted != "" {
		plainReply = extracted
	}
	return plainReply, []SuggestedAction{}, nil
}

// filterActions drops actions of types the client does not know.
func filterActions(actions []SuggestedAction) []SuggestedAction {
	filtered := make([]SuggestedAction, 0, len(actions))
	for _, action := range actions {
		if knownActionTypes[action.Type] {
			filtered = append(filtered, action)
		}
	}
	return filtered
}

// extractPlainReply salvages the reply field if the degraded plain call
// still produced JSON-ish output.
func extractPlainReply(out string) string {
	extracted := llm.ExtractJSON(out)
	if extracted == "" {
		return strings.TrimSpace(out)
	}
	var reply structuredReply
	if err := json.Unmarshal([]byte(extracted), &reply); err != nil || reply.Reply == "" {
		return strings.TrimSpace(out)
	}
	return reply.Reply
}

func renderHistory(history []Message) string {
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	if len(history) == 0 {
		return "(new conversation)"
	}

	var sb strings.Builder
	for _, m := range history {
		switch m.Role {
		case RoleUser:
			sb.WriteString("Athlete: ")
		case RoleAssistant:
			sb.WriteString("Coach: ")
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
