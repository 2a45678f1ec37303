package llm

import (
	"context"
	"fmt"
	"net/http"
)

// Client is a client for the OpenAI-compatible chat completions API served by llama.cpp.
type Client struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int // 0 leaves the limit to the server
	client    *http.Client
}

// NewClient creates a new LLM client.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  newHTTPClient(),
	}
}

// Generate sends prompt as a single user message and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	url := fmt.Sprintf("%s/v1/chat/completions", c.BaseURL)

	payload := ChatRequest{
		Model: c.Model,
		Messages: []ChatMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: temperature,
		MaxTokens:   c.MaxTokens,
	}

	var chatResp ChatResponse
	if err := postJSON(ctx, c.client, url, c.APIKey, payload, &chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}
