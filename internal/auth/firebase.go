package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	// DefaultFirebaseJWKSURL はFirebase AuthenticationのIDトークン署名鍵の公開URL。
	DefaultFirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

	firebaseIssuerPrefix = "https://securetoken.google.com/"
	maxUIDLength         = 128
	clockSkew            = 5 * time.Minute
	keyFetchTimeout      = 10 * time.Second
)

// FirebaseConfig はFirebaseVerifierの設定。
type FirebaseConfig struct {
	ProjectID string

	// 空の場合はDefaultFirebaseJWKSURLを使用する
	JWKSURL string

	// テスト用にオーバーライド可能
	KeySet     oidc.KeySet
	HTTPClient *http.Client
	Now        func() time.Time
}

// FirebaseVerifier はFirebase AuthenticationのIDトークンを検証する。
// 署名鍵はJWKS URLから取得し、go-oidcのキャッシュに保持される。
type FirebaseVerifier struct {
	verifier *oidc.IDTokenVerifier
	now      func() time.Time
}

// NewFirebaseVerifier はFirebaseVerifierを生成する。
// ctxは公開鍵取得のHTTPリクエストに使われるため、プロセスの生存期間と同じものを渡すこと。
func NewFirebaseVerifier(ctx context.Context, cfg FirebaseConfig) (*FirebaseVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase project ID is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	keySet := cfg.KeySet
	if keySet == nil {
		if cfg.JWKSURL == "" {
			cfg.JWKSURL = DefaultFirebaseJWKSURL
		}
		client := cfg.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: keyFetchTimeout}
		}
		keySet = oidc.NewRemoteKeySet(oidc.ClientContext(ctx, client), cfg.JWKSURL)
	}

	verifier := oidc.NewVerifier(firebaseIssuerPrefix+cfg.ProjectID, observedKeySet{keySet}, &oidc.Config{
		ClientID:             cfg.ProjectID,
		SupportedSigningAlgs: []string{oidc.RS256},
		Now:                  cfg.Now,
	})

	return &FirebaseVerifier{
		verifier: verifier,
		now:      cfg.Now,
	}, nil
}

var _ TokenVerifier = (*FirebaseVerifier)(nil)

// firebaseClaims はFirebase IDトークン固有のクレーム。
type firebaseClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	AuthTime      int64  `json:"auth_time"`
	Firebase      struct {
		SignInProvider string `json:"sign_in_provider"`
	} `json:"firebase"`
}

// Verify はIDトークンを検証し、認証主体を返す。
// 失敗時は常に*VerifyErrorを返す。
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, &VerifyError{Kind: KindInvalidArgument, Message: "id token must be a non-empty string"}
	}

	failure := &keyFetchFailure{}
	idToken, err := v.verifier.Verify(context.WithValue(ctx, keyFetchFailureKey{}, failure), token)
	if err != nil {
		return nil, classifyVerifyError(err, failure)
	}

	if idToken.Subject == "" {
		return nil, &VerifyError{Kind: KindInvalidIDToken, Message: "id token has an empty sub claim"}
	}
	if len(idToken.Subject) > maxUIDLength {
		return nil, &VerifyError{Kind: KindInvalidIDToken, Message: "id token has a sub claim longer than 128 characters"}
	}

	now := v.now()
	if idToken.IssuedAt.After(now.Add(clockSkew)) {
		return nil, &VerifyError{Kind: KindInvalidIDToken, Message: "id token issued in the future"}
	}

	var claims firebaseClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, &VerifyError{Kind: KindInvalidIDToken, Message: "failed to decode claims", Err: err}
	}

	authTime := time.Unix(claims.AuthTime, 0)
	if claims.AuthTime == 0 || authTime.After(now.Add(clockSkew)) {
		return nil, &VerifyError{Kind: KindInvalidIDToken, Message: "id token has an invalid auth_time claim"}
	}

	return &Identity{
		UID:            idToken.Subject,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		SignInProvider: claims.Firebase.SignInProvider,
		AuthTime:       authTime,
	}, nil
}

// classifyVerifyError はgo-oidcの検証エラーを分類する。
func classifyVerifyError(err error, failure *keyFetchFailure) error {
	var expired *oidc.TokenExpiredError
	switch {
	case errors.As(err, &expired):
		return &VerifyError{Kind: KindExpiredToken, Message: "id token has expired", Err: err}
	case failure.err != nil:
		return &VerifyError{Kind: KindUnavailable, Message: "failed to fetch signing keys", Err: failure.err}
	default:
		return &VerifyError{Kind: KindInvalidIDToken, Message: "id token verification failed", Err: err}
	}
}

// remoteKeyFetchErrorPrefix はRemoteKeySetが鍵取得失敗に付ける接頭辞。
const remoteKeyFetchErrorPrefix = "fetching keys"

type keyFetchFailureKey struct{}

// keyFetchFailure はリクエスト単位で公開鍵取得の通信エラーを記録する。
// go-oidcは署名検証のエラーを文字列化して返すため、元のエラーをここで捕捉する。
type keyFetchFailure struct {
	err error
}

// observedKeySet はKeySetをラップし、公開鍵取得の失敗をコンテキスト上のkeyFetchFailureに記録する。
type observedKeySet struct {
	oidc.KeySet
}

func (ks observedKeySet) VerifySignature(ctx context.Context, jwt string) ([]byte, error) {
	payload, err := ks.KeySet.VerifySignature(ctx, jwt)
	if err != nil && isKeyFetchError(err) {
		if f, ok := ctx.Value(keyFetchFailureKey{}).(*keyFetchFailure); ok {
			f.err = fmt.Errorf("verify signature: %w", err)
		}
	}
	return payload, err
}

// isKeyFetchError は署名検証ではなく公開鍵の取得自体が失敗したかを判定する。
// RemoteKeySetは非2xx応答や鍵のデコード失敗を型の無いエラーで返し、
// 必ず "fetching keys" で包むため、その接頭辞でも判定する。
func isKeyFetchError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		strings.HasPrefix(err.Error(), remoteKeyFetchErrorPrefix)
}
