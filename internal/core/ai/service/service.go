package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pantry-chef/internal/core/ai/provider"
	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// Service AI 服務，負責呼叫提供者並統一錯誤與指標
type Service struct {
	provider provider.Provider
	metrics  *metrics.Collector
}

// NewService 創建 AI 服務
func NewService(p provider.Provider, m *metrics.Collector) (*Service, error) {
	if p == nil {
		return nil, errors.New("ai provider is required")
	}
	return &Service{
		provider: p,
		metrics:  m,
	}, nil
}

// ProcessRequest 統一對外方法，kind 僅用於日誌與指標
func (s *Service) ProcessRequest(ctx context.Context, kind string, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", common.ErrInvalidInput.Wrap(errors.New("empty prompt"))
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := s.provider.Generate(ctx, provider.UserPrompt(prompt))
	duration := time.Since(start)

	common.LogAICall(s.provider.GetModel(), duration, err)
	s.metrics.RecordAIRequest(kind, duration, err)

	if err != nil {
		return "", common.ErrGenerationUnavailable.Wrap(fmt.Errorf("%s: %w", kind, err))
	}

	common.LogDebug("AI 回應內容",
		zap.String("kind", kind),
		zap.Int("ai_response_length", len(resp.Content)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return resp.Content, nil
}

// Model 目前使用的模型
func (s *Service) Model() string {
	return s.provider.GetModel()
}

// Close 關閉底層提供者
func (s *Service) Close() error {
	return s.provider.Close()
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := s.provider.GetTimeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
