// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
)

// APIError はクライアントに返すエラーレスポンスを表す。
// Messageのみがレスポンスボディに含まれ、内部エラーの詳細は含めない。
type APIError struct {
	Status  int    // HTTPステータスコード
	Message string // クライアント向けメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s", e.Status, e.Message)
}

// クライアント向けの固定メッセージ
const (
	MsgLoginSuccessful = "Login successful"
	MsgTokenRequired   = "Token is required for login."
	MsgInvalidToken    = "Invalid Firebase token. Please try again."
	MsgExpiredToken    = "Token expired. Please try again."
	MsgUnauthorized    = "Unauthorised login. Please try again."
	MsgTooManyRequests = "Too many requests. Please try again later."
	MsgInternalError   = "Internal server error."
)

// NewTokenRequiredError はトークン未指定エラーを生成する。
func NewTokenRequiredError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: MsgTokenRequired}
}

// NewInvalidTokenError は無効なIDトークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: MsgInvalidToken}
}

// NewExpiredTokenError は有効期限切れトークンのエラーを生成する。
func NewExpiredTokenError() *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: MsgExpiredToken}
}

// NewUnauthorizedError はその他の検証失敗を表す汎用エラーを生成する。
// 検証器の内部エラーや未知のエラー種別はすべてこれに集約する。
func NewUnauthorizedError() *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: MsgUnauthorized}
}

// NewTooManyRequestsError はレート制限超過エラーを生成する。
func NewTooManyRequestsError() *APIError {
	return &APIError{Status: http.StatusTooManyRequests, Message: MsgTooManyRequests}
}

// NewInternalError は内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{Status: http.StatusInternalServerError, Message: MsgInternalError}
}
