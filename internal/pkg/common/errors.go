package common

import (
	"errors"
	"fmt"
)

// ErrNotFound 目錄查無資料的非致命信號
var ErrNotFound = errors.New("not found")

// TransportError 表示 HTTP 層的網路或逾時錯誤
type TransportError struct {
	Op  string
	Err error
}

// Error 實現 error 介面
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport error during %s", e.Op)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError 創建新的傳輸錯誤
func NewTransportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

// IsTransportError 檢查是否為傳輸錯誤
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AuthError 表示抓取服務登入失敗
type AuthError struct {
	message string
	Err     error
}

// Error 實現 error 介面
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.Err)
	}
	return e.message
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError 創建新的認證錯誤
func NewAuthError(message string, err error) error {
	return &AuthError{message: message, Err: err}
}

// IsAuthError 檢查是否為認證錯誤
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// MalformedResponseError 表示正規化後仍無法解析的 AI 回應
type MalformedResponseError struct {
	message string
	Err     error
}

// Error 實現 error 介面
func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.Err)
	}
	return e.message
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// NewMalformedResponseError 創建新的回應格式錯誤
func NewMalformedResponseError(message string, err error) error {
	return &MalformedResponseError{message: message, Err: err}
}

// IsMalformedResponseError 檢查是否為回應格式錯誤
func IsMalformedResponseError(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TimeoutError 表示抓取任務輪詢超出預算
type TimeoutError struct {
	message string
}

// Error 實現 error 介面
func (e *TimeoutError) Error() string {
	return e.message
}

// NewTimeoutError 創建新的輪詢逾時錯誤
func NewTimeoutError(message string) error {
	return &TimeoutError{message: message}
}

// IsTimeoutError 檢查是否為輪詢逾時錯誤
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
