package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error string `json:"error"`           // 錯誤信息
	Code  string `json:"code"`            // 錯誤代碼
	Field string `json:"field,omitempty"` // 驗證失敗的欄位
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
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 返回原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓包裝過的錯誤也能用 errors.Is 判斷
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

// ValidationError 表示驗證錯誤
type ValidationError struct {
	Field   string
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NewStorageError 包裝儲存層寫入失敗
func NewStorageError(err error) *CustomError {
	return NewError(ErrCodeStorageUnavailable, "Recipe storage is unavailable", http.StatusServiceUnavailable, err)
}

// IsStorageError 檢查是否為儲存層錯誤
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE" // 413
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE" // 503
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "Invalid request format", http.StatusBadRequest, nil)
	ErrRequestTooLarge = NewError(ErrCodeRequestTooLarge, "Request body too large", http.StatusRequestEntityTooLarge, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrStorageUnavailable = NewError(ErrCodeStorageUnavailable, "Recipe storage is unavailable", http.StatusServiceUnavailable, nil)

	// 業務錯誤
	ErrRecipeNotFound = NewError(ErrCodeNotFound, "Recipe not found", http.StatusNotFound, nil)
)

// ToErrorResponse 將錯誤轉換為 HTTP 狀態碼與響應結構
func ToErrorResponse(err error) (int, ErrorResponse) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ErrorResponse{
			Error: ve.Error(),
			Code:  ErrCodeInvalidRequest,
			Field: ve.Field,
		}
	}

	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Status, ErrorResponse{
			Error: ce.Message,
			Code:  ce.Code,
		}
	}

	message := ErrInternalError.Message
	if err != nil {
		message = err.Error()
	}
	return http.StatusInternalServerError, ErrorResponse{
		Error: message,
		Code:  ErrCodeInternalError,
	}
}
