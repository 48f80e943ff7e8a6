package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/scribe/internal/servicenow"
	"github.com/MikeSquared-Agency/scribe/internal/summarizer"
)

// Summarizer produces a structured summary from transcript text.
type Summarizer interface {
	Run(ctx context.Context, transcript string) (*summarizer.Result, error)
}

// UserDirectory resolves an email to a ticketing-system user.
type UserDirectory interface {
	LookupUser(ctx context.Context, email string) (*servicenow.User, error)
}

// Pipeline is the fixed two-step sequence: summarize, then enrich the
// requestor against the user directory.
type Pipeline struct {
	summarizer Summarizer
	directory  UserDirectory
	logger     *slog.Logger
}

func New(s Summarizer, d UserDirectory, logger *slog.Logger) *Pipeline {
	return &Pipeline{summarizer: s, directory: d, logger: logger}
}

// Run summarizes the transcript and, when the summary names a requestor
// with an email, resolves them. A failed lookup is recorded on the
// requestor rather than failing the run; only the summarize step can
// return an error.
func (p *Pipeline) Run(ctx context.Context, transcript string) (*summarizer.Result, error) {
	result, err := p.summarizer.Run(ctx, transcript)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	p.enrichRequestor(ctx, result)
	return result, nil
}

func (p *Pipeline) enrichRequestor(ctx context.Context, result *summarizer.Result) {
	if result.Requestor == nil || result.Requestor.ID == "" {
		return
	}

	user, err := p.directory.LookupUser(ctx, result.Requestor.ID)
	if err != nil {
		p.logger.Warn("requestor lookup failed", "email", result.Requestor.ID, "error", err)
		result.Requestor.Error = err.Error()
		return
	}
	if user == nil {
		p.logger.Info("requestor not in directory", "email", result.Requestor.ID)
		return
	}

	result.Requestor.SysID = user.SysID
	result.Requestor.SNName = user.Name
}
