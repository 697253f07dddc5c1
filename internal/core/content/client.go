package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 集合名稱
const (
	CollectionPantryItems  = "pantry-items"
	CollectionRecipes      = "recipes"
	CollectionSavedRecipes = "saved-recipes"
)

// Client Strapi 內容庫客戶端，不做快取與重試
type Client struct {
	client  *resty.Client
	metrics *metrics.Collector
}

// envelope Strapi 回應外層
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NewClient 創建內容庫客戶端
func NewClient(cfg config.ContentStoreConfig, m *metrics.Collector) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIToken != "" {
		client.SetAuthToken(cfg.APIToken)
	}

	return &Client{
		client:  client,
		metrics: m,
	}
}

// Find 查詢集合，將 data 陣列解碼至 out
func (c *Client) Find(ctx context.Context, collection string, q Query, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Cache-Control", "no-store").
		SetQueryParamsFromValues(q.Values()).
		Get("/api/" + collection)
	if err != nil {
		c.metrics.RecordStoreRequest(http.MethodGet, collection, 0)
		return common.ErrStoreUnavailable.Wrap(fmt.Errorf("find %s: %w", collection, err))
	}
	c.metrics.RecordStoreRequest(http.MethodGet, collection, resp.StatusCode())

	if !resp.IsSuccess() {
		common.LogError("內容庫查詢失敗",
			zap.String("collection", collection),
			zap.Int("status", resp.StatusCode()),
			zap.String("detail", errorDetail(resp.Body())),
		)
		return common.ErrStoreUnavailable.Wrap(fmt.Errorf("find %s: status %d", collection, resp.StatusCode()))
	}

	if err := decodeData(resp.Body(), out); err != nil {
		return common.ErrStoreUnavailable.Wrap(fmt.Errorf("decode %s: %w", collection, err))
	}
	return nil
}

// Create 建立記錄，4xx 視為驗證失敗（包含唯一性衝突）
func (c *Client) Create(ctx context.Context, collection string, payload any, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"data": payload}).
		Post("/api/" + collection)
	if err != nil {
		c.metrics.RecordStoreRequest(http.MethodPost, collection, 0)
		return common.ErrStoreUnavailable.Wrap(fmt.Errorf("create %s: %w", collection, err))
	}
	c.metrics.RecordStoreRequest(http.MethodPost, collection, resp.StatusCode())

	status := resp.StatusCode()
	switch {
	case resp.IsSuccess():
	case status >= 400 && status < 500:
		detail := errorDetail(resp.Body())
		common.LogWarn("內容庫拒絕建立記錄",
			zap.String("collection", collection),
			zap.Int("status", status),
			zap.String("detail", detail),
		)
		return common.ErrStoreValidation.Wrap(fmt.Errorf("create %s: status %d: %s", collection, status, detail))
	default:
		common.LogError("內容庫建立記錄失敗",
			zap.String("collection", collection),
			zap.Int("status", status),
		)
		return common.ErrStoreUnavailable.Wrap(fmt.Errorf("create %s: status %d", collection, status))
	}

	if out == nil {
		return nil
	}
	if err := decodeData(resp.Body(), out); err != nil {
		return common.ErrStoreUnavailable.Wrap(fmt.Errorf("decode %s: %w", collection, err))
	}
	return nil
}

// Delete 刪除記錄，記錄不存在時視為成功
func (c *Client) Delete(ctx context.Context, collection string, id string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete("/api/" + collection + "/" + url.PathEscape(id))
	if err != nil {
		c.metrics.RecordStoreRequest(http.MethodDelete, collection, 0)
		return common.ErrStoreUnavailable.Wrap(fmt.Errorf("delete %s/%s: %w", collection, id, err))
	}
	c.metrics.RecordStoreRequest(http.MethodDelete, collection, resp.StatusCode())

	if resp.IsSuccess() || resp.StatusCode() == http.StatusNotFound {
		return nil
	}
	common.LogError("內容庫刪除記錄失敗",
		zap.String("collection", collection),
		zap.String("id", id),
		zap.Int("status", resp.StatusCode()),
	)
	return common.ErrStoreUnavailable.Wrap(fmt.Errorf("delete %s/%s: status %d", collection, id, resp.StatusCode()))
}

// Ping 檢查內容庫是否可用
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/_health")
	if err != nil {
		return common.ErrStoreUnavailable.Wrap(err)
	}
	if !resp.IsSuccess() {
		return common.ErrStoreUnavailable.Wrap(fmt.Errorf("health status %d", resp.StatusCode()))
	}
	return nil
}

func decodeData(body []byte, out any) error {
	var env envelope
	if err := common.ParseJSONBytes(body, &env); err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("response has no data")
	}
	return json.Unmarshal(env.Data, out)
}

func errorDetail(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return env.Error.Name + ": " + env.Error.Message
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
