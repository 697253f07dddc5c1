package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Success bool   `json:"success"`           // 永遠為 false
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is(err, ErrStoreUnavailable) 可以成立
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Wrap 以預定義錯誤為範本附加原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return NewError(e.Code, e.Message, e.Status, err)
}

// WithMessage 以預定義錯誤為範本替換對外訊息
func (e *CustomError) WithMessage(message string) *CustomError {
	return NewError(e.Code, message, e.Status, e.Err)
}

// AsCustomError 取出錯誤鏈中的 CustomError，找不到時包成內部錯誤
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return ErrInternalError.Wrap(err)
}

// IsCode 檢查錯誤鏈中是否有指定代碼
func IsCode(err error, code string) bool {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidInput    = "INVALID_INPUT"     // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"      // 401
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeStoreValidation = "STORE_VALIDATION"  // 422
	ErrCodeQuotaExceeded   = "QUOTA_EXCEEDED"    // 429
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError         = "INTERNAL_ERROR"         // 500
	ErrCodeStoreUnavailable      = "STORE_UNAVAILABLE"      // 502
	ErrCodeGenerationParseError  = "GENERATION_PARSE_ERROR" // 502
	ErrCodeRecipeNotResolved     = "RECIPE_NOT_RESOLVED"    // 502
	ErrCodeServiceUnavailable    = "SERVICE_UNAVAILABLE"    // 503
	ErrCodeGenerationUnavailable = "GENERATION_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout        = "GATEWAY_TIMEOUT"        // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidInput    = NewError(ErrCodeInvalidInput, "Invalid request", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "Unauthorized", http.StatusUnauthorized, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "Request timeout", http.StatusRequestTimeout, nil)
	ErrStoreValidation = NewError(ErrCodeStoreValidation, "The content store rejected the request", http.StatusUnprocessableEntity, nil)
	ErrQuotaExceeded   = NewError(ErrCodeQuotaExceeded, "Request denied", http.StatusTooManyRequests, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "Request too frequent", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError         = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrStoreUnavailable      = NewError(ErrCodeStoreUnavailable, "The content store is unavailable. Please try again later.", http.StatusBadGateway, nil)
	ErrGenerationParseError  = NewError(ErrCodeGenerationParseError, "Failed to generate recipe. Please try again.", http.StatusBadGateway, nil)
	ErrRecipeNotResolved     = NewError(ErrCodeRecipeNotResolved, "Could not find or generate this recipe. Please try again.", http.StatusBadGateway, nil)
	ErrServiceUnavailable    = NewError(ErrCodeServiceUnavailable, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGenerationUnavailable = NewError(ErrCodeGenerationUnavailable, "The recipe generator is unavailable. Please try again later.", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout        = NewError(ErrCodeGatewayTimeout, "Gateway timeout", http.StatusGatewayTimeout, nil)
)
