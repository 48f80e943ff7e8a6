package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/MikeSquared-Agency/scribe/internal/llm"
)

// ChatClient is the slice of the LLM client the agent needs.
type ChatClient interface {
	Chat(ctx context.Context, req llm.ChatRequest) (string, error)
}

type Agent struct {
	llm    ChatClient
	logger *slog.Logger
}

func New(llm ChatClient, logger *slog.Logger) *Agent {
	return &Agent{llm: llm, logger: logger}
}

var jsonBlockRe = regexp.MustCompile(`(?s)<json>(.*?)</json>`)

// Run summarizes a transcript into a structured Result. The model is asked
// for a JSON object wrapped in <json></json> tags; the first such block is
// parsed. Parse failures carry the raw model output for diagnosis.
func (a *Agent) Run(ctx context.Context, transcript string) (*Result, error) {
	a.logger.Info("summarizing transcript", "transcript_len", len(transcript))

	raw, err := a.llm.Chat(ctx, llm.ChatRequest{
		System:      []string{systemPrompt},
		User:        []string{fmt.Sprintf(userPrompt, transcript)},
		Temperature: 0.2,
		MaxTokens:   1200,
	})
	if err != nil {
		return nil, fmt.Errorf("llm summarize: %w", err)
	}

	match := jsonBlockRe.FindStringSubmatch(raw)
	if match == nil {
		a.logger.Error("no json block in model response", "raw", raw)
		return nil, fmt.Errorf("no json block found in model response: %s", raw)
	}

	var result Result
	if err := json.Unmarshal([]byte(match[1]), &result); err != nil {
		a.logger.Error("failed to parse summary json", "error", err, "raw", raw)
		return nil, fmt.Errorf("parse summary json: %w; raw: %s", err, raw)
	}

	a.logger.Info("summary complete",
		"new_stories", len(result.NewStories),
		"existing_stories", len(result.ExistingStories),
		"has_requestor", result.Requestor != nil,
	)

	return &result, nil
}
