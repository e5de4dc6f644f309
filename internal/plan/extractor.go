package plan

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyroxlab/roxcoach/internal/llm"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"

	"github.com/qri-io/jsonschema"
)

const draftSchemaJSON = `{
	"type": "object",
	"required": ["name", "weeks"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"raceDate": {"type": "string"},
		"weeks": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["index", "days"],
				"properties": {
					"index": {"type": "integer", "minimum": 1},
					"focus": {"type": "string"},
					"days": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["dayOfWeek", "sessionType"],
							"properties": {
								"dayOfWeek": {"type": "integer", "minimum": 1, "maximum": 7},
								"sessionType": {"type": "string", "minLength": 1},
								"description": {"type": "string"}
							}
						}
					}
				}
			}
		}
	}
}`

var draftSchema = llm.MustCompileSchema(draftSchemaJSON)

const extractPromptFormat = `You are a Hyrox training assistant. Convert the athlete's free-text
training plan description into JSON matching exactly this schema:

%s

Rules:
- dayOfWeek: 1 is Monday, 7 is Sunday.
- sessionType is one of: run, strength, hyrox_sim, station_practice, hybrid, recovery.
- Do not invent sessions the athlete did not describe.
- Respond with the JSON object only, no extra text.

Athlete's description:
%s`

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *jsonschema.Schema) ([]byte, error)
}

// Extractor turns free-text plan descriptions into structured drafts via
// the language model, rejecting anything that fails schema validation.
type Extractor struct {
	llmClient jsonGenerator
}

func NewExtractor(llmClient jsonGenerator) *Extractor {
	return &Extractor{
		llmClient: llmClient,
	}
}

func (e *Extractor) Extract(ctx context.Context, freeText string) (_ *Draft, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "plan.extract")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	prompt := fmt.Sprintf(extractPromptFormat, draftSchemaJSON, freeText)

	draftJson, err := e.llmClient.GenerateJSON(ctx, prompt, draftSchema)
	if err != nil {
		return nil, fmt.Errorf("extract plan draft: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal(draftJson, &draft); err != nil {
		return nil, fmt.Errorf("unmarshal plan draft: %w", err)
	}
	return &draft, nil
}
