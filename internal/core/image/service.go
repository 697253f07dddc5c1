package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Service 透過 Unsplash 搜尋食譜圖片
type Service struct {
	client  *resty.Client
	enabled bool
}

type searchResponse struct {
	Results []struct {
		ID   string `json:"id"`
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
	} `json:"results"`
}

// NewService 創建圖片搜尋服務
func NewService(cfg config.UnsplashConfig) *Service {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept-Version", "v1").
		SetHeader("Authorization", "Client-ID "+cfg.AccessKey)

	return &Service{
		client:  client,
		enabled: cfg.Enabled && cfg.AccessKey != "",
	}
}

// Enabled 是否啟用
func (s *Service) Enabled() bool {
	return s != nil && s.enabled
}

// FindImage 回傳第一張符合的圖片網址，找不到時回傳空字串
func (s *Service) FindImage(ctx context.Context, query string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("empty image query")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":       query,
			"per_page":    "1",
			"orientation": "landscape",
		}).
		Get("/search/photos")
	if err != nil {
		return "", fmt.Errorf("unsplash search: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("unsplash search returned %d", resp.StatusCode())
	}

	var result searchResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("parse unsplash response: %w", err)
	}
	if len(result.Results) == 0 {
		common.LogDebug("找不到食譜圖片", zap.String("query", query))
		return "", nil
	}

	photo := result.Results[0]
	if photo.URLs.Regular != "" {
		return photo.URLs.Regular, nil
	}
	return photo.URLs.Small, nil
}
