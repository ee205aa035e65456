package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultMaxInsights caps how many insights a single extraction may return
const DefaultMaxInsights = 10

// ExtractedInsight is a single scored claim returned by the model
type ExtractedInsight struct {
	Content string   `json:"content"`
	Score   float64  `json:"score"`
	Topics  []string `json:"topics"`
}

// LLMService wraps the language model used for insight extraction and post drafting
type LLMService interface {
	ExtractInsights(ctx context.Context, title, transcript string, maxInsights int) ([]ExtractedInsight, error)
	GeneratePost(ctx context.Context, insight, platform string, tone *string) (string, error)
}

// OpenAILLMService implements LLMService against the OpenAI API
type OpenAILLMService struct {
	client openai.Client
	model  string
}

// NewOpenAILLMService creates a new OpenAI-backed LLM service
func NewOpenAILLMService(apiKey, baseURL, model string) LLMService {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAILLMService{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

const extractSystemPrompt = `You extract shareable insights from meeting transcripts.
An insight is a short, self-contained claim, lesson, or observation that could seed a social media post.
Score each insight between 0 and 1 by how compelling it would be to the speaker's professional audience.
Tag each insight with up to three short topic labels.`

// ExtractInsights asks the model for scored insights from a transcript
func (s *OpenAILLMService) ExtractInsights(ctx context.Context, title, transcript string, maxInsights int) ([]ExtractedInsight, error) {
	if maxInsights <= 0 || maxInsights > 20 {
		maxInsights = DefaultMaxInsights
	}

	userPrompt := fmt.Sprintf(`Transcript title: %s

Transcript:
%s

Return at most %d insights.`, title, transcript, maxInsights)

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"insights": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"content": map[string]any{"type": "string"},
						"score":   map[string]any{"type": "number"},
						"topics":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
					"required":             []string{"content", "score", "topics"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"insights"},
		"additionalProperties": false,
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractSystemPrompt),
			openai.UserMessage(userPrompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "insight_extraction",
					Schema: any(schema),
					Strict: openai.Bool(true),
				},
			},
		},
	}

	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("insight extraction call failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}

	var result struct {
		Insights []ExtractedInsight `json:"insights"`
	}
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("failed to decode insight extraction response: %w", err)
	}

	// Clamp scores to the documented range, the model occasionally drifts
	insights := result.Insights
	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	for i := range insights {
		if insights[i].Score < 0 {
			insights[i].Score = 0
		}
		if insights[i].Score > 1 {
			insights[i].Score = 1
		}
	}

	return insights, nil
}

// GeneratePost asks the model to draft a platform-shaped post from an insight
func (s *OpenAILLMService) GeneratePost(ctx context.Context, insight, platform string, tone *string) (string, error) {
	var sb strings.Builder
	sb.WriteString("You write social media posts from a single insight.\n")

	switch platform {
	case "x":
		sb.WriteString("Write a post for X (Twitter). Keep it under 280 characters. No hashtag spam, at most one hashtag.\n")
	default:
		sb.WriteString("Write a post for LinkedIn. Short paragraphs, a strong opening line, no emoji overload.\n")
	}

	if tone != nil && *tone != "" {
		sb.WriteString(fmt.Sprintf("Tone: %s.\n", *tone))
	}
	sb.WriteString("Return only the post text, nothing else.")

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(sb.String()),
			openai.UserMessage(fmt.Sprintf("Insight: %s", insight)),
		},
	}

	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("post generation call failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("model returned an empty post")
	}

	return content, nil
}
