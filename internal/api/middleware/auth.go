package middleware

import (
	"errors"
	"strings"

	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const userContextKey = "user"

// Claims 身分提供者簽發的 JWT 內容
type Claims struct {
	UID  common.ID `json:"uid"`
	Tier string    `json:"tier"`
	jwt.RegisteredClaims
}

// Auth 驗證 Bearer JWT 並將使用者寫入 context
func Auth(cfg config.AuthConfig) gin.HandlerFunc {
	secret := []byte(cfg.JWTSecret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			common.WriteErrorResponse(c, common.ErrUnauthorized.Wrap(errors.New("authorization header required")))
			return
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			common.LogWarn("JWT 驗證失敗",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			common.WriteErrorResponse(c, common.ErrUnauthorized.Wrap(errors.New("invalid token")))
			return
		}

		user := common.User{
			ID:         claims.UID,
			ExternalID: claims.Subject,
			Tier:       common.ParseTier(claims.Tier),
		}
		if user.ID.IsZero() {
			common.WriteErrorResponse(c, common.ErrUnauthorized.Wrap(errors.New("uid claim missing")))
			return
		}

		SetUser(c, user)
		c.Next()
	}
}

// SetUser 將使用者寫入 context
func SetUser(c *gin.Context, user common.User) {
	c.Set(userContextKey, user)
}

// CurrentUser 取得 Auth 寫入的使用者
func CurrentUser(c *gin.Context) (common.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return common.User{}, false
	}
	user, ok := v.(common.User)
	return user, ok
}
