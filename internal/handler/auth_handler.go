// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/loginserver/internal/auth"
	"github.com/hitoshi/loginserver/internal/metrics"
	"github.com/hitoshi/loginserver/internal/middleware"
	"github.com/hitoshi/loginserver/internal/model"
)

// AuthHandler はログイン関連のHTTPハンドラー。
type AuthHandler struct {
	verifier auth.TokenVerifier
	metrics  metrics.MetricsCollector
	validate *validator.Validate
}

// NewAuthHandler はAuthHandlerを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewAuthHandler(verifier auth.TokenVerifier, collector metrics.MetricsCollector) *AuthHandler {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &AuthHandler{
		verifier: verifier,
		metrics:  collector,
		validate: validator.New(),
	}
}

// Login はIDトークンを検証し、ログイン結果を返す。
// POST /api/login {"token": "..."}
//
// トークンが無い場合は検証器を呼ばずに400を返す。
// 検証失敗はすべて401のいずれかに変換し、検証器のエラー内容はクライアントに返さない。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// 1. トークンの存在確認
	var req model.LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || h.validate.Struct(req) != nil {
		h.metrics.RecordLoginOutcome(metrics.OutcomeMissingToken)
		middleware.WriteErrorResponse(w, r, model.NewTokenRequiredError())
		return
	}

	// 2. 外部IdPによる検証（1リクエストにつき1回、リトライしない）
	start := time.Now()
	identity, err := h.verifier.Verify(r.Context(), req.Token)
	h.metrics.RecordVerifyLatency(time.Since(start))

	if err == nil && (identity == nil || identity.UID == "") {
		err = &auth.VerifyError{Message: "verifier returned no uid"}
	}
	if err != nil {
		apiErr, outcome := mapVerifyError(err)
		slog.Warn("login failed",
			slog.String("error_kind", string(auth.KindOf(err))),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		slog.Debug("login verification error", slog.String("error", err.Error()))
		h.metrics.RecordLoginOutcome(outcome)
		middleware.WriteErrorResponse(w, r, apiErr)
		return
	}

	// 3. ログイン成功
	slog.Info("user logged in",
		slog.String("uid", identity.UID),
		slog.String("sign_in_provider", identity.SignInProvider),
	)
	h.metrics.RecordLoginOutcome(metrics.OutcomeSuccess)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, model.NewLoginSuccessResponse(identity.UID))
}

// mapVerifyError は検証エラーをクライアント向けエラーとメトリクスのラベルに変換する。
// 無効トークンと期限切れ以外は、分類不能なエラーや通信エラーを含めてすべて汎用の401にまとめる。
func mapVerifyError(err error) (*model.APIError, string) {
	switch auth.KindOf(err) {
	case auth.KindInvalidIDToken:
		return model.NewInvalidTokenError(), metrics.OutcomeInvalidToken
	case auth.KindExpiredToken:
		return model.NewExpiredTokenError(), metrics.OutcomeExpiredToken
	default:
		return model.NewUnauthorizedError(), metrics.OutcomeUnauthorized
	}
}
