package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel    = "meta-llama/llama-3.3-8b-instruct:free"
)

type Config struct {
	APIKey   string
	Endpoint string
	Model    string
}

type Client struct {
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes a single chat completion. System messages come
// first, then user messages, then Extra verbatim — the order the endpoint
// receives is exactly that.
type ChatRequest struct {
	System      []string
	User        []string
	Extra       []Message
	Model       string
	Temperature float64
	MaxTokens   int
	Stop        []string
}

type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stop        []string  `json:"stop,omitempty"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Output json.RawMessage `json:"output"`
}

func (r ChatRequest) messages() []Message {
	var msgs []Message
	for _, s := range r.System {
		msgs = append(msgs, Message{Role: "system", Content: s})
	}
	for _, u := range r.User {
		msgs = append(msgs, Message{Role: "user", Content: u})
	}
	return append(msgs, r.Extra...)
}

// Chat issues one chat completion and returns the concatenated choice
// contents. A single best-effort call: no retry, no streaming.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	reqBody := request{
		Model:       model,
		Messages:    req.messages(),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openrouter api error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		// Some backends return completions under a bare top-level field
		// instead of the choices array.
		if len(apiResp.Output) > 0 && string(apiResp.Output) != "null" {
			var out string
			if err := json.Unmarshal(apiResp.Output, &out); err == nil {
				return out, nil
			}
			return string(apiResp.Output), nil
		}
		return "", fmt.Errorf("unexpected response shape: %s", string(respBody))
	}

	contents := make([]string, len(apiResp.Choices))
	for i, ch := range apiResp.Choices {
		contents[i] = ch.Message.Content
	}
	return strings.TrimSpace(strings.Join(contents, "\n")), nil
}
