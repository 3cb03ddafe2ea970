package providers

import (
	"context"

	"pagegen/core"
	"pagegen/logging"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// TextClient performs synchronous chat completions against an
// OpenAI-compatible endpoint. Used for copy generation, scene planning, and
// single-field refinement.
type TextClient struct {
	baseURL     string
	model       string
	credentials *core.CredentialStore
	cfg         *core.Config
	logger      *logging.Logger
}

// NewTextClient creates the text completion client.
func NewTextClient(cfg *core.Config, credentials *core.CredentialStore, logger *logging.Logger) *TextClient {
	return &TextClient{
		baseURL:     cfg.TextAPIURL,
		model:       cfg.TextModel,
		credentials: credentials,
		cfg:         cfg,
		logger:      logger.Named("text"),
	}
}

// Complete sends one system+user instruction pair and returns the completion
// text. An empty completion is a provider failure, not a success.
func (c *TextClient) Complete(ctx context.Context, systemInstruction, userInstruction string) (string, error) {
	apiKey, err := c.credentials.Get(core.ProviderText)
	if err != nil {
		return "", err
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = c.baseURL
	clientConfig.HTTPClient = core.GetHTTPClient(c.cfg.RequestTimeout)
	client := openai.NewClientWithConfig(clientConfig)

	messages := []openai.ChatCompletionMessage{}
	if systemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemInstruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userInstruction,
	})

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		kind := core.ClassifyProviderMessage(err.Error())
		if kind == core.KindCreditsExhausted {
			return "", core.ErrCreditsExhausted("text", err.Error())
		}
		return "", core.WrapFailure(kind, "text", "chat completion failed", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", core.NewFailure(core.KindProvider, "text", "empty completion")
	}

	c.logger.Debug("completion received",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return resp.Choices[0].Message.Content, nil
}

// Model returns the configured completion model name.
func (c *TextClient) Model() string {
	return c.model
}
