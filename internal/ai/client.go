// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ai wraps OpenAI-compatible endpoints for chat completion, image
// generation and feature extraction. Every call passes through a shared
// Limiter and is recorded in the usage log.
package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/olegiv/ocms-blog/internal/metrics"
	"github.com/olegiv/ocms-blog/internal/model"
)

// ErrUpstream marks a non-success status or a response without a payload.
var ErrUpstream = errors.New("upstream AI service error")

// Operation names used in usage records and metrics.
const (
	OperationChat  = "chat"
	OperationImage = "image"
	OperationEmbed = "embed"
)

// Config describes one OpenAI-compatible endpoint and model.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// UsageRecorder persists usage records.
type UsageRecorder interface {
	CreateAIUsage(ctx context.Context, u model.AIUsage) error
}

// Client calls one model on one endpoint.
type Client struct {
	api      openai.Client
	model    string
	provider string
	limiter  *Limiter
	usage    UsageRecorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUsageRecorder records every call through r.
func WithUsageRecorder(r UsageRecorder) Option {
	return func(c *Client) { c.usage = r }
}

// WithMetrics reports calls to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client. Upstream calls are never retried.
func NewClient(cfg Config, limiter *Limiter, logger *slog.Logger, opts ...Option) *Client {
	reqOpts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	if limiter == nil {
		limiter = Unlimited()
	}

	c := &Client{
		api:      openai.NewClient(reqOpts...),
		model:    cfg.Model,
		provider: providerName(cfg.BaseURL),
		limiter:  limiter,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// providerName derives a short provider label from the endpoint host.
func providerName(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	host := strings.TrimPrefix(u.Hostname(), "api.")
	host = strings.TrimPrefix(host, "router.")
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}

// ChatRequest is a single system/user exchange.
type ChatRequest struct {
	System string
	User   string
	// Locale is recorded in the usage log only.
	Locale model.Locale
}

// ChatResponse holds the generated text and token usage.
type ChatResponse struct {
	Content          string
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Chat runs a chat completion and returns the first choice.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var out *ChatResponse
	err := c.call(ctx, OperationChat, string(req.Locale), func(ctx context.Context, u *model.AIUsage) error {
		resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(req.System),
				openai.UserMessage(req.User),
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%w: no choices returned", ErrUpstream)
		}
		u.PromptTokens = resp.Usage.PromptTokens
		u.CompletionTokens = resp.Usage.CompletionTokens
		u.TotalTokens = resp.Usage.TotalTokens
		out = &ChatResponse{
			Content:          resp.Choices[0].Message.Content,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ImageRequest asks for one image of explicit pixel dimensions.
type ImageRequest struct {
	Prompt string
	Width  int
	Height int
}

// GenerateImage requests a base64-encoded image and returns its raw bytes.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	var data []byte
	err := c.call(ctx, OperationImage, "", func(ctx context.Context, _ *model.AIUsage) error {
		resp, err := c.api.Images.Generate(ctx, openai.ImageGenerateParams{
			Prompt:         req.Prompt,
			Model:          openai.ImageModel(c.model),
			N:              openai.Int(1),
			ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		},
			option.WithJSONSet("width", req.Width),
			option.WithJSONSet("height", req.Height),
		)
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
			return fmt.Errorf("%w: no image data returned", ErrUpstream)
		}
		data, err = base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
		if err != nil {
			return fmt.Errorf("%w: decoding image payload: %w", ErrUpstream, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Embed returns the feature vector the endpoint computes for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	var vec []float64
	err := c.call(ctx, OperationEmbed, "", func(ctx context.Context, u *model.AIUsage) error {
		resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
			Model:          openai.EmbeddingModel(c.model),
			EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return fmt.Errorf("%w: no embedding returned", ErrUpstream)
		}
		u.PromptTokens = resp.Usage.PromptTokens
		u.TotalTokens = resp.Usage.TotalTokens
		vec = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// call acquires the limiter, runs fn, classifies its error and records usage.
func (c *Client) call(ctx context.Context, operation, locale string, fn func(context.Context, *model.AIUsage) error) error {
	started := time.Now()

	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		c.metrics.ObserveUpstream(operation, started, err)
		return err
	}
	defer release()

	usage := model.AIUsage{
		Operation: operation,
		Provider:  c.provider,
		Model:     c.model,
		Locale:    locale,
	}
	err = classify(fn(ctx, &usage))
	usage.Success = err == nil

	c.metrics.ObserveUpstream(operation, started, err)
	c.recordUsage(usage)

	if err != nil {
		return fmt.Errorf("%s %s: %w", c.provider, operation, err)
	}
	return nil
}

// classify marks HTTP status failures from the SDK as ErrUpstream.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrUpstream) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %w", ErrUpstream, apiErr.StatusCode, err)
	}
	return err
}

func (c *Client) recordUsage(u model.AIUsage) {
	if c.usage == nil {
		return
	}
	// The usage log must not depend on the caller's context being alive.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.usage.CreateAIUsage(ctx, u); err != nil {
		c.logger.Debug("failed to record ai usage", "operation", u.Operation, "error", err)
	}
}
