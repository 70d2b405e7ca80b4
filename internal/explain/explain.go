// Package explain proxies code-explanation requests to Google's Gemini API
// and streams the generated text back chunk by chunk.
//
// This is deliberately a thin pass-through: a fixed system instruction, no
// retries, no caching, no history. The interesting part of the app is the
// snippet data model — the model call is a collaborator, not a subsystem.
package explain

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// systemInstruction frames every request. The model only ever sees snippet
// content; it has no tools and no access to anything else.
const systemInstruction = "You are a code explanation assistant. The user sends you a " +
	"code snippet; explain what it does clearly and concisely for a developer who has " +
	"never seen it: overall purpose first, then the notable parts. If the input is not " +
	"code, say so briefly."

// Explainer generates a streamed explanation of a piece of code, invoking
// emit once per text chunk. Handlers depend on this interface so tests can
// substitute a canned stream.
type Explainer interface {
	Explain(ctx context.Context, code string, emit func(chunk string) error) error
}

// Service is the Gemini-backed Explainer.
type Service struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

var _ Explainer = (*Service)(nil)

// New creates a Service. model may be empty to use the default.
func New(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("explain: API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("explain: creating genai client: %w", err)
	}

	return &Service{client: client, model: model, logger: logger}, nil
}

// Explain streams the model's explanation of code through emit.
//
// If emit returns an error (client went away), the stream is abandoned; if
// the upstream fails mid-stream, whatever was emitted stays emitted — there
// is no buffering and no retry.
func (s *Service) Explain(ctx context.Context, code string, emit func(chunk string) error) error {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	for resp, err := range s.client.Models.GenerateContentStream(ctx, s.model, genai.Text(code), config) {
		if err != nil {
			s.logger.Error("explain stream failed", slog.String("error", err.Error()))
			return fmt.Errorf("explain: generating: %w", err)
		}

		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		if err := emit(chunk); err != nil {
			return fmt.Errorf("explain: emitting chunk: %w", err)
		}
	}

	return nil
}
