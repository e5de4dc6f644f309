package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/qri-io/jsonschema"
	log "github.com/sirupsen/logrus"
)

var ErrEmptyResponse = errors.New("empty model response")

// Client wraps the Ollama API client with a per-request timeout and
// helpers for getting schema-valid JSON out of free-form model output.
type Client struct {
	api     *api.Client
	model   string
	timeout time.Duration
}

func NewClient(baseURL, model string, timeout time.Duration, httpClient *http.Client) (*Client, error) {
	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		api:     api.NewClient(u, httpClient),
		model:   model,
		timeout: timeout,
	}, nil
}

// Generate sends the prompt to the model and returns the full text response.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream := false
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var sb strings.Builder
	start := time.Now()
	err := c.api.Generate(ctx, req, func(r api.GenerateResponse) error {
		sb.WriteString(r.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	out := sb.String()
	log.Tracef("llm generate took %s, %d chars", time.Since(start), len(out))

	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// GenerateJSON sends the prompt, extracts the JSON object from the model
// output and validates it against the schema. The returned bytes are the
// extracted JSON, ready to unmarshal into the caller's type.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema *jsonschema.Schema) ([]byte, error) {
	out, err := c.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	extracted := ExtractJSON(out)
	if extracted == "" {
		return nil, errors.New("no JSON object found in model response")
	}

	validationErrs, err := schema.ValidateBytes(ctx, []byte(extracted))
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if len(validationErrs) > 0 {
		var sb strings.Builder
		for _, ve := range validationErrs {
			sb.WriteString(ve.Message)
			sb.WriteString("; ")
		}
		return nil, fmt.Errorf("model response does not match schema: %s", sb.String())
	}

	return []byte(extracted), nil
}

// ExtractJSON returns the substring from the first '{' to the last '}',
// since models tend to wrap JSON in prose or markdown fences.
func ExtractJSON(s string) string {
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first == -1 || last == -1 || last < first {
		return ""
	}
	return s[first : last+1]
}

// MustCompileSchema panics on an invalid schema, for package-level schema
// constants that are covered by tests.
func MustCompileSchema(schemaJSON string) *jsonschema.Schema {
	schema := &jsonschema.Schema{}
	if err := schema.UnmarshalJSON([]byte(schemaJSON)); err != nil {
		panic(fmt.Sprintf("compile json schema: %s", err))
	}
	return schema
}
