package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  "user_abc",
		"uid":  7,
		"tier": "pro",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

func authRouter(cfg config.AuthConfig) *gin.Engine {
	r := gin.New()
	r.Use(Auth(cfg))
	r.GET("/me", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, user)
	})
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthAcceptsValidToken(t *testing.T) {
	r := authRouter(config.AuthConfig{JWTSecret: testSecret})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.SigningMethodHS256, validClaims()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var user common.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, common.ID("7"), user.ID)
	assert.Equal(t, "user_abc", user.ExternalID)
	assert.Equal(t, common.TierPro, user.Tier)
}

func TestAuthRejects(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	noUID := validClaims()
	delete(noUID, "uid")
	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "someone-else"

	cases := []struct {
		name   string
		header string
		issuer string
	}{
		{"missing header", "", ""},
		{"not bearer", "Basic abc", ""},
		{"garbage", "Bearer not-a-token", ""},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.SigningMethodHS256, validClaims()), ""},
		{"wrong algorithm", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS512, validClaims()), ""},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, expired), ""},
		{"missing uid", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, noUID), ""},
		{"wrong issuer", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, wrongIssuer), "pantry-auth"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := authRouter(config.AuthConfig{JWTSecret: testSecret, Issuer: tc.issuer})
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			body := decodeError(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, common.ErrCodeUnauthorized, body.Code)
		})
	}
}

func TestAuthDefaultsUnknownTierToFree(t *testing.T) {
	claims := validClaims()
	claims["tier"] = "platinum"
	r := authRouter(config.AuthConfig{JWTSecret: testSecret})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.SigningMethodHS256, claims))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var user common.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, common.TierFree, user.Tier)
}

func dedupRouter(client *redis.Client) *gin.Engine {
	r := gin.New()
	r.Use(Deduplication(client, time.Second))
	handler := func(c *gin.Context) {
		body := make([]byte, 64)
		n, _ := c.Request.Body.Read(body)
		c.String(http.StatusOK, string(body[:n]))
	}
	r.POST("/save", handler)
	r.GET("/list", handler)
	return r
}

func post(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDeduplicationRejectsRepeatWithinWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	r := dedupRouter(client)

	first := post(r, http.MethodPost, "/save", `{"recipeId":"42"}`)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, `{"recipeId":"42"}`, first.Body.String())

	second := post(r, http.MethodPost, "/save", `{"recipeId":"42"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, common.ErrCodeTooManyRequests, decodeError(t, second).Code)

	other := post(r, http.MethodPost, "/save", `{"recipeId":"43"}`)
	assert.Equal(t, http.StatusOK, other.Code)

	mr.FastForward(2 * time.Second)
	again := post(r, http.MethodPost, "/save", `{"recipeId":"42"}`)
	assert.Equal(t, http.StatusOK, again.Code)
}

func TestDeduplicationAllowsRetryAfterFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	failures := 1
	r := gin.New()
	r.Use(Deduplication(client, time.Minute))
	r.POST("/recommend", func(c *gin.Context) {
		if failures > 0 {
			failures--
			common.WriteErrorResponse(c, common.ErrGenerationUnavailable)
			return
		}
		c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusServiceUnavailable, post(r, http.MethodPost, "/recommend", "").Code)
	assert.Equal(t, http.StatusOK, post(r, http.MethodPost, "/recommend", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(r, http.MethodPost, "/recommend", "").Code)
}

func TestDeduplicationSkipsReads(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	r := dedupRouter(client)

	assert.Equal(t, http.StatusOK, post(r, http.MethodGet, "/list", "").Code)
	assert.Equal(t, http.StatusOK, post(r, http.MethodGet, "/list", "").Code)
}

func TestDeduplicationDisabledWithoutRedis(t *testing.T) {
	r := dedupRouter(nil)
	assert.Equal(t, http.StatusOK, post(r, http.MethodPost, "/save", "x").Code)
	assert.Equal(t, http.StatusOK, post(r, http.MethodPost, "/save", "x").Code)
}

func TestDeduplicationFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	r := dedupRouter(client)
	mr.Close()

	assert.Equal(t, http.StatusOK, post(r, http.MethodPost, "/save", "x").Code)
}

func TestBodySizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodySizeLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, post(r, http.MethodPost, "/", "small").Code)

	w := post(r, http.MethodPost, "/", "this body is too large")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.False(t, decodeError(t, w).Success)
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), Logger())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := post(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, common.ErrCodeInternalError, body.Code)
}

func TestTimeoutWritesGatewayTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := post(r, http.MethodGet, "/slow", "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, common.ErrCodeGatewayTimeout, decodeError(t, w).Code)

	assert.Equal(t, http.StatusNoContent, post(r, http.MethodGet, "/fast", "").Code)
}

func TestTimeoutKeepsHandlerResponse(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/late", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		<-ctx.Done()
		c.String(http.StatusAccepted, "done")
	})

	assert.Equal(t, http.StatusAccepted, post(r, http.MethodGet, "/late", "").Code)
}
