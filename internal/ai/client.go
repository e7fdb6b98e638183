package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/genai"
)

// modelsAPI genai.Models 中用到的部分
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type Client struct {
	models     modelsAPI
	chatModels []string // 多模型轮换
	modelIdx   atomic.Int64
	embedModel string
	temp       float32
	maxTokens  int32
	timeout    time.Duration
	system     string
	backoff    func(attempt int) time.Duration

	// 限流
	rpmLimit int
	mu       sync.Mutex
	tokens   int
	lastTick time.Time
}

func NewClient(ctx context.Context, apiKey string, chatModels []string, embedModel string, temp float32, maxTokens int32, rpmLimit int, timeout time.Duration) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(client.Models, chatModels, embedModel, temp, maxTokens, rpmLimit, timeout)
}

func newClient(models modelsAPI, chatModels []string, embedModel string, temp float32, maxTokens int32, rpmLimit int, timeout time.Duration) (*Client, error) {
	if len(chatModels) == 0 {
		return nil, errors.New("at least one chat model is required")
	}
	if embedModel == "" {
		return nil, errors.New("embedding model is required")
	}

	c := &Client{
		models:     models,
		chatModels: chatModels,
		embedModel: embedModel,
		temp:       temp,
		maxTokens:  maxTokens,
		timeout:    timeout,
		system:     SystemPrompt(),
		backoff:    func(attempt int) time.Duration { return time.Duration(1<<attempt) * time.Second },
		rpmLimit:   rpmLimit,
		tokens:     rpmLimit,
		lastTick:   time.Now(),
	}
	return c, nil
}

// currentModel 获取当前模型
func (c *Client) currentModel() string {
	idx := c.modelIdx.Load() % int64(len(c.chatModels))
	return c.chatModels[idx]
}

// rotateModel 切换到下一个模型
func (c *Client) rotateModel() string {
	newIdx := c.modelIdx.Add(1) % int64(len(c.chatModels))
	model := c.chatModels[newIdx]
	slog.Info("rotating to next model", "model", model)
	return model
}

// Generate 基于检索上下文回答问题，429 时自动切换模型
func (c *Client) Generate(ctx context.Context, contextBlock, question string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.waitForToken(ctx); err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromText(BuildUserPrompt(contextBlock, question), genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.system, genai.RoleUser),
		Temperature:       genai.Ptr(c.temp),
		MaxOutputTokens:   c.maxTokens,
	}

	// 尝试所有模型，每个模型最多重试 2 次
	totalAttempts := len(c.chatModels) * 2
	var lastErr error
	for attempt := 0; attempt < totalAttempts; attempt++ {
		model := c.currentModel()
		resp, err := c.models.GenerateContent(ctx, model, contents, cfg)
		if err == nil {
			text := strings.TrimSpace(resp.Text())
			if text == "" {
				lastErr = errors.New("empty generation")
				slog.Warn("model returned empty text", "model", model, "attempt", attempt+1)
				continue
			}
			slog.Debug("generated answer", "model", model, "chars", len(text))
			return text, nil
		}

		lastErr = err
		if isPermanentError(err) {
			return "", fmt.Errorf("generate with %s: %w", model, err)
		}
		if attempt == totalAttempts-1 {
			break
		}
		wait := c.backoff(attempt)
		if isQuotaError(err) {
			slog.Warn("model quota exceeded, switching", "model", model, "attempt", attempt+1)
			c.rotateModel()
			wait = c.backoff(0)
		} else {
			slog.Warn("generate failed, retrying", "model", model, "attempt", attempt+1, "error", err)
		}
		if err := sleep(ctx, wait); err != nil {
			return "", fmt.Errorf("generate: %w (last error: %v)", err, lastErr)
		}
	}
	return "", fmt.Errorf("all models exhausted after %d attempts: %w", totalAttempts, lastErr)
}

// Embed 生成文本嵌入向量
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.waitForToken(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err := c.models.EmbedContent(ctx, c.embedModel,
			[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
		if err != nil {
			lastErr = err
			if isPermanentError(err) || attempt == 2 {
				break
			}
			slog.Warn("embed failed, retrying", "attempt", attempt+1, "error", err)
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
			return nil, fmt.Errorf("empty embedding response")
		}
		return resp.Embeddings[0].Values, nil
	}
	return nil, fmt.Errorf("embed failed: %w", lastErr)
}

// EmbedFunc 返回一个可用于 chromem-go 的 embedding 函数
func (c *Client) EmbedFunc() func(ctx context.Context, text string) ([]float32, error) {
	return c.Embed
}

// waitForToken 简单令牌桶限流；rpmLimit <= 0 表示不限流
func (c *Client) waitForToken(ctx context.Context) error {
	if c.rpmLimit <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(c.lastTick)
	if elapsed >= time.Minute {
		c.tokens = c.rpmLimit
		c.lastTick = now
	}

	if c.tokens > 0 {
		c.tokens--
		return nil
	}

	wait := time.Minute - elapsed
	c.mu.Unlock()
	slog.Info("rate limit reached, waiting", "duration", wait)
	err := sleep(ctx, wait)
	c.mu.Lock()
	if err != nil {
		return err
	}
	c.tokens = c.rpmLimit - 1
	c.lastTick = time.Now()
	return nil
}

// isPermanentError 请求本身有问题（参数、鉴权、模型不存在），重试没有意义
func isPermanentError(err error) bool {
	s := err.Error()
	for _, marker := range []string{"INVALID_ARGUMENT", "PERMISSION_DENIED", "UNAUTHENTICATED", "NOT_FOUND", "Error 400", "Error 401", "Error 403", "Error 404"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func isQuotaError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "429") || strings.Contains(s, "RESOURCE_EXHAUSTED")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
