package translate

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

func init() {
	Register("openai", newOpenAITranslator)
}

// OpenAITranslator translates via a chat-completion prompt. It does not
// report a detected source language.
type OpenAITranslator struct {
	client     *openai.Client
	targetLang string
}

func newOpenAITranslator(opts Options) (Translator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai: missing API key")
	}
	return &OpenAITranslator{
		client:     openai.NewClient(opts.APIKey),
		targetLang: opts.TargetLang,
	}, nil
}

func (t *OpenAITranslator) Translate(ctx context.Context, text string) (Result, error) {
	req := openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You are a translator. Translate the user's message into %s. Respond with only the translation, nothing else.", t.targetLang),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.3,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return Result{Text: strings.TrimSpace(resp.Choices[0].Message.Content)}, nil
}
