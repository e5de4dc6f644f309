package plan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hyroxlab/roxcoach/internal/plan"

	"github.com/qri-io/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generatorMock struct {
	response string
	err      error

	gotPrompt string
	gotSchema *jsonschema.Schema
}

func (m *generatorMock) GenerateJSON(ctx context.Context, prompt string, schema *jsonschema.Schema) ([]byte, error) {
	m.gotPrompt = prompt
	m.gotSchema = schema
	if m.err != nil {
		return nil, m.err
	}

	// validate like the real client does, so tests exercise the schema
	validationErrs, err := schema.ValidateBytes(ctx, []byte(m.response))
	if err != nil {
		return nil, err
	}
	if len(validationErrs) > 0 {
		return nil, errors.New("model response does not match schema")
	}
	return []byte(m.response), nil
}

func TestExtractor_Extract(t *testing.T) {
	gen := &generatorMock{
		response: `{
			"name": "6 week sharpening",
			"raceDate": "2026-03-07",
			"weeks": [
				{"index": 1, "focus": "speed", "days": [
					{"dayOfWeek": 1, "sessionType": "run", "description": "track intervals"},
					{"dayOfWeek": 5, "sessionType": "hyrox_sim", "description": "half sim"}
				]}
			]
		}`,
	}

	extractor := plan.NewExtractor(gen)
	draft, err := extractor.Extract(context.Background(), "mondays track, fridays half sim, 6 weeks out")
	require.NoError(t, err)

	assert.Equal(t, "6 week sharpening", draft.Name)
	assert.Equal(t, "2026-03-07", draft.RaceDate)
	require.Len(t, draft.Weeks, 1)
	require.Len(t, draft.Weeks[0].Days, 2)
	assert.Equal(t, "hyrox_sim", draft.Weeks[0].Days[1].SessionType)

	assert.Contains(t, gen.gotPrompt, "mondays track")
	assert.NotNil(t, gen.gotSchema)
}

func TestExtractor_Extract_SchemaRejects(t *testing.T) {
	for name, response := range map[string]string{
		"missing name":   `{"weeks": [{"index": 1, "days": []}]}`,
		"no weeks":       `{"name": "plan", "weeks": []}`,
		"bad dayOfWeek":  `{"name": "plan", "weeks": [{"index": 1, "days": [{"dayOfWeek": 9, "sessionType": "run"}]}]}`,
		"bad week index": `{"name": "plan", "weeks": [{"index": 0, "days": []}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			extractor := plan.NewExtractor(&generatorMock{response: response})
			_, err := extractor.Extract(context.Background(), "some text")
			assert.Error(t, err)
		})
	}
}

func TestExtractor_Extract_GeneratorError(t *testing.T) {
	extractor := plan.NewExtractor(&generatorMock{err: errors.New("timeout")})
	_, err := extractor.Extract(context.Background(), "some text")
	assert.Error(t, err)
}
