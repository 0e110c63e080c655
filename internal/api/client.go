// Package api provides the Gemini API client used to troubleshoot issues.
package api

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	apierrors "github.com/diogo/techsolve/internal/errors"
	"github.com/diogo/techsolve/internal/models"
)

// Troubleshooter is the contract the chat session depends on
type Troubleshooter interface {
	Troubleshoot(ctx context.Context, history []models.Message, text, image string, category models.Category) (*models.Answer, error)
}

// ContentGenerator is the subset of the genai SDK used by the client.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client talks to the Gemini API through the genai SDK
type Client struct {
	generator      ContentGenerator
	model          string
	thinkingBudget int32
	googleSearch   bool
	logger         *zap.Logger
}

// Ensure Client implements Troubleshooter
var _ Troubleshooter = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithModel sets the model name
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithThinkingBudget sets the token budget for the model's reasoning
func WithThinkingBudget(budget int) ClientOption {
	return func(c *Client) {
		c.thinkingBudget = int32(budget)
	}
}

// WithGoogleSearch toggles the Google Search grounding tool
func WithGoogleSearch(enabled bool) ClientOption {
	return func(c *Client) {
		c.googleSearch = enabled
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithGenerator replaces the SDK with another ContentGenerator.
// No SDK client is created when one is supplied.
func WithGenerator(g ContentGenerator) ClientOption {
	return func(c *Client) {
		c.generator = g
	}
}

// NewClient creates a Client. An empty API key is a construction error.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, apierrors.ErrMissingAPIKey
	}

	client := &Client{
		model:          models.DefaultModel,
		thinkingBudget: models.DefaultThinkingBudget,
		googleSearch:   true,
		logger:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.generator == nil {
		sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create genai client: %w", err)
		}
		client.generator = sdk.Models
	}

	return client, nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Troubleshoot sends the conversation plus the new turn in a single
// non-streaming request and returns the answer with its citations.
func (c *Client) Troubleshoot(ctx context.Context, history []models.Message, text, image string, category models.Category) (*models.Answer, error) {
	contents, err := buildContents(history, text, image)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending troubleshoot request",
		zap.String("model", c.model),
		zap.String("category", string(category)),
		zap.Int("history", len(history)),
		zap.Bool("image", image != ""),
	)

	resp, err := c.generator.GenerateContent(ctx, c.model, contents, c.generateConfig(category))
	if err != nil {
		return nil, c.wrapError(err)
	}
	if resp == nil {
		return nil, apierrors.WrapAPIError(c.model, apierrors.ErrInvalidResponse)
	}

	answer := &models.Answer{
		Text:           resp.Text(),
		GroundingLinks: c.groundingLinks(resp),
	}
	if answer.Text == "" {
		answer.Text = models.FallbackAnswerText
	}

	c.logger.Debug("troubleshoot response received",
		zap.Int("chars", len(answer.Text)),
		zap.Int("sources", len(answer.GroundingLinks)),
	)

	return answer, nil
}

func (c *Client) generateConfig(category models.Category) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction(category), genai.RoleUser),
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(c.thinkingBudget),
		},
	}
	if c.googleSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

// groundingLinks copies the web citations of the first candidate
func (c *Client) groundingLinks(resp *genai.GenerateContentResponse) []models.GroundingLink {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}

	links := make([]models.GroundingLink, 0, len(meta.GroundingChunks))
	for i, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			c.logger.Debug("dropping grounding chunk without web uri", zap.Int("index", i))
			continue
		}
		links = append(links, models.GroundingLink{
			Web: &models.WebSource{URI: chunk.Web.URI, Title: chunk.Web.Title},
		})
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

// wrapError converts SDK errors into the typed errors of this module
func (c *Client) wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var sdkErr genai.APIError
	if errors.As(err, &sdkErr) {
		return c.fromSDKError(sdkErr, err)
	}
	var sdkErrPtr *genai.APIError
	if errors.As(err, &sdkErrPtr) && sdkErrPtr != nil {
		return c.fromSDKError(*sdkErrPtr, err)
	}

	return apierrors.WrapAPIError(c.model, err)
}

func (c *Client) fromSDKError(sdkErr genai.APIError, cause error) error {
	apiErr := apierrors.NewAPIError(sdkErr.Code, c.model, sdkErr.Message)
	apiErr.Status = sdkErr.Status
	apiErr.Err = cause
	return apiErr
}
