package conversation

import (
	"context"
	"strings"
	"time"

	"meetbot_server/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
)

// LLMResolver asks a chat model to normalize a time phrase the rule resolver
// could not handle. It stays strictly single-field: the model only ever sees
// the phrase and the reference instant, and must answer with one RFC 3339
// timestamp or the word "unknown".
type LLMResolver struct {
	client *openai.Client
	model  string
	inner  TimeResolver
}

// NewLLMResolver wraps inner with an LLM fallback. The rule resolver always
// runs first; the model is consulted only on ErrUnparseableTime.
func NewLLMResolver(apiKey, model string, inner TimeResolver) *LLMResolver {
	return &LLMResolver{
		client: openai.NewClient(apiKey),
		model:  model,
		inner:  inner,
	}
}

const llmTimePrompt = `You convert one natural-language time phrase into an absolute timestamp.
The current time is %REF% (UTC). Answer with exactly one RFC 3339 UTC timestamp
(e.g. 2025-09-07T15:00:00Z) for the phrase, or the single word "unknown" if the
phrase does not describe a time.`

func (r *LLMResolver) Resolve(ctx context.Context, phrase string, now time.Time) (time.Time, error) {
	t, err := r.inner.Resolve(ctx, phrase, now)
	if err == nil {
		return t, nil
	}

	prompt := strings.Replace(llmTimePrompt, "%REF%", now.UTC().Format(time.RFC3339), 1)

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: 0,
		MaxTokens:   32,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: phrase},
		},
	})
	if err != nil {
		logger.WithError(err).Warn("LLM time fallback unavailable")
		return time.Time{}, ErrUnparseableTime
	}
	if len(resp.Choices) == 0 {
		return time.Time{}, ErrUnparseableTime
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	parsed, err := time.Parse(time.RFC3339, answer)
	if err != nil {
		return time.Time{}, ErrUnparseableTime
	}
	return parsed.UTC(), nil
}
