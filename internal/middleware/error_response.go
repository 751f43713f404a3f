package middleware

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/hitoshi/loginserver/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 内部エラーの詳細を漏らさないよう、メッセージのみを含む。
type ErrorResponseBody struct {
	Message string `json:"message"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, apiErr *model.APIError) {
	render.Status(r, apiErr.Status)
	render.JSON(w, r, ErrorResponseBody{Message: apiErr.Message})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, r, model.NewInternalError())
}
