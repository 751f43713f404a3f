package model

// LoginRequest はPOST /api/login のリクエストボディ。
// tokenはIdPが発行したIDトークンで、リクエスト処理中のみ保持する。
type LoginRequest struct {
	Token string `json:"token" validate:"required"`
}

// LoginResponse はPOST /api/login のレスポンスボディ。
// UIDはログイン成功時(200)のみ設定される。
type LoginResponse struct {
	Message string `json:"message"`
	UID     string `json:"uid,omitempty"`
}

// NewLoginSuccessResponse はログイン成功レスポンスを生成する。
func NewLoginSuccessResponse(uid string) *LoginResponse {
	return &LoginResponse{Message: MsgLoginSuccessful, UID: uid}
}
