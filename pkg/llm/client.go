package llm

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	log "github.com/sirupsen/logrus"
)

const callTimeout = 120 * time.Second

// Client is the OpenAI-backed gateway. Any OpenAI-compatible endpoint
// works; set OPENAI_API_KEY for authenticated access.
type Client struct {
	client *openai.Client
	model  string
}

func NewClient(url, model string) *Client {
	options := []option.RequestOption{}
	if url != "" {
		options = append(options, option.WithBaseURL(url))
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Info("OPENAI_API_KEY environment variable is not set, will try unauthenticated access")
	} else {
		options = append(options, option.WithAPIKey(apiKey))
	}

	client := openai.NewClient(options...)
	return &Client{client: &client, model: model}
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Call(ctx context.Context, systemPrompt string, payload interface{}, opts CallOptions) Result {
	start := time.Now()

	data, err := marshalPayload(payload)
	if err != nil {
		return errorResult(err.Error(), "MarshalError", 0)
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(data),
		},
		Model: c.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(opts.MaxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	latencyMS := int(time.Since(start).Milliseconds())
	if err != nil {
		log.WithError(err).Warn("model call failed")
		return errorResult("model API error: "+err.Error(), "APIError", latencyMS)
	}

	if len(resp.Choices) == 0 {
		return errorResult("model returned no content choices", "EmptyResponse", latencyMS)
	}

	rawText := resp.Choices[0].Message.Content
	result := Result{
		RawText:   rawText,
		TokenIn:   int(resp.Usage.PromptTokens),
		TokenOut:  int(resp.Usage.CompletionTokens),
		LatencyMS: latencyMS,
	}

	if !json.Valid([]byte(rawText)) {
		payload, _ := json.Marshal(map[string]string{"error": "model output is not valid JSON", "type": "ParseError"})
		result.Parsed = payload
		return result
	}

	result.Parsed = json.RawMessage(rawText)
	return result
}
