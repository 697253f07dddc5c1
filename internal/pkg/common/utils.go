package common

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteErrorResponse 寫入錯誤響應，狀態碼與訊息取自 CustomError
func WriteErrorResponse(c *gin.Context, err error) {
	ce := AsCustomError(err)
	if ce.Status >= 500 {
		LogError("請求失敗",
			zap.String("code", ce.Code),
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ErrorResponse{
		Success: false,
		Code:    ce.Code,
		Message: ce.Message,
	})
}
