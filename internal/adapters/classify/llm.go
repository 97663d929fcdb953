package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

// Fixed instruction sent with every classification request. The exact
// JSON shape is part of the contract: anything else fails validation
// and lets the caller fall back.
const classifyInstruction = `You are a logistics delay analyst. Decide whether the given shipping delay reason is weather-related (caused by meteorological or oceanographic conditions). Respond with JSON only, in exactly this shape: {"is_weather_related": <boolean>, "reasoning": "<short explanation>", "confidence": <number between 0 and 1>}`

// LLMClassifier sends delay reasons to a chat-completions style
// natural-language service and validates the structured verdict it
// returns. It keeps no cross-call state.
type LLMClassifier struct {
	session   *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	validate  *validator.Validate
}

func NewLLMClassifier(baseURL, apiKey, model string, maxTokens int) (*LLMClassifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm classifier: api key is empty")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("llm classifier: model is empty")
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}

	return &LLMClassifier{
		session:   &http.Client{Timeout: 15 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		validate:  validator.New(),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// verdictPayload is the exact response shape the instruction demands.
// Pointer fields distinguish "absent" from legitimate zero values
// (false / 0.0) during validation.
type verdictPayload struct {
	IsWeatherRelated *bool    `json:"is_weather_related" validate:"required"`
	Reasoning        string   `json:"reasoning" validate:"required"`
	Confidence       *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
}

func (c *LLMClassifier) Classify(ctx context.Context, reason string) (domain.DelayClassification, error) {
	payload, err := json.Marshal(chatRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: classifyInstruction},
			{Role: "user", Content: reason},
		},
	})
	if err != nil {
		return domain.DelayClassification{}, fmt.Errorf("classify: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return domain.DelayClassification{}, fmt.Errorf("classify: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.session.Do(req)
	if err != nil {
		return domain.DelayClassification{}, fmt.Errorf("classify: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return domain.DelayClassification{}, fmt.Errorf("classify: unexpected status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.DelayClassification{}, fmt.Errorf("classify: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return domain.DelayClassification{}, errors.New("classify: response contains no choices")
	}

	var verdict verdictPayload
	if err := json.Unmarshal([]byte(decoded.Choices[0].Message.Content), &verdict); err != nil {
		return domain.DelayClassification{}, fmt.Errorf("classify: parse verdict json: %w", err)
	}
	if err := c.validate.Struct(verdict); err != nil {
		return domain.DelayClassification{}, fmt.Errorf("classify: invalid verdict shape: %w", err)
	}

	return domain.DelayClassification{
		IsWeatherRelated: *verdict.IsWeatherRelated,
		Reasoning:        verdict.Reasoning,
		Confidence:       *verdict.Confidence,
	}, nil
}
