package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"pantry-chef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const dedupKeyPrefix = "pantry-chef:dedup:"

// Deduplication 請求去重中間件：同一使用者在 window 內送出相同的寫入請求時回 429。
// 指紋存於 Redis，client 為 nil 時不做去重；處理失敗（非 2xx）時清除指紋以便立即重試。
func Deduplication(client *redis.Client, window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		window = time.Second
	}
	return func(c *gin.Context) {
		if client == nil || (c.Request.Method != http.MethodPost && c.Request.Method != http.MethodDelete) {
			c.Next()
			return
		}

		fingerprint, ok := requestFingerprint(c)
		if !ok {
			c.Next()
			return
		}

		key := dedupKeyPrefix + fingerprint
		fresh, err := client.SetNX(c.Request.Context(), key, 1, window).Result()
		if err != nil {
			// Redis 不可用時放行
			common.LogWarn("去重檢查失敗", zap.Error(err), zap.String("path", c.Request.URL.Path))
			c.Next()
			return
		}
		if !fresh {
			common.LogInfo("重複請求已拒絕",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			common.WriteErrorResponse(c, common.ErrTooManyRequests)
			return
		}

		c.Next()

		if status := c.Writer.Status(); status < 200 || status >= 300 {
			releaseFingerprint(client, key)
		}
	}
}

func releaseFingerprint(client *redis.Client, key string) {
	// 請求 context 可能已逾時
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Del(ctx, key).Err(); err != nil {
		common.LogWarn("清除去重指紋失敗", zap.Error(err))
	}
}

// requestFingerprint 以使用者、方法、路徑與請求體雜湊組成指紋
func requestFingerprint(c *gin.Context) (string, bool) {
	h := sha256.New()
	if user, ok := CurrentUser(c); ok {
		h.Write([]byte(user.ID.String()))
	} else {
		h.Write([]byte(c.ClientIP()))
	}
	h.Write([]byte{0})
	h.Write([]byte(c.Request.Method + ":" + c.Request.URL.Path))

	if c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			common.LogError("Failed to read request body", zap.Error(err))
			return "", false
		}
		// 恢復請求體
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		h.Write([]byte{0})
		h.Write(body)
	}
	return hex.EncodeToString(h.Sum(nil)), true
}
