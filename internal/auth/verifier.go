// Package auth はIdPが発行したIDトークンの検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorKind はIDトークン検証失敗の分類を表す。
type ErrorKind string

const (
	// KindUnknown は分類できない失敗を表す。
	KindUnknown ErrorKind = ""
	// KindInvalidIDToken は署名・発行者・audience等の検証に失敗したトークンを表す。
	KindInvalidIDToken ErrorKind = "invalid-id-token"
	// KindExpiredToken は有効期限切れのトークンを表す。
	KindExpiredToken ErrorKind = "expired-token"
	// KindInvalidArgument は検証器に渡された引数自体が不正であることを表す。
	KindInvalidArgument ErrorKind = "invalid-argument"
	// KindUnavailable は公開鍵の取得など検証器側の通信に失敗したことを表す。
	KindUnavailable ErrorKind = "verifier-unavailable"
)

// Identity は検証済みIDトークンから得られる認証主体を表す。
type Identity struct {
	UID            string
	Email          string
	EmailVerified  bool
	SignInProvider string
	AuthTime       time.Time
}

// TokenVerifier はIDトークンを検証する外部IdPのインターフェース。
// 検証失敗時は*VerifyErrorを返すことが期待されるが、
// 呼び出し側はそれ以外のエラーも扱えなければならない。
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// VerifyError はIDトークン検証の失敗を表す。
type VerifyError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error はerrorインターフェースを実装する。
func (e *VerifyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap は元のエラーを返す。
func (e *VerifyError) Unwrap() error {
	return e.Err
}

// KindOf はerrから検証失敗の分類を取り出す。
// *VerifyErrorを含まないエラーの場合はKindUnknownを返す。
func KindOf(err error) ErrorKind {
	var verr *VerifyError
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return KindUnknown
}
