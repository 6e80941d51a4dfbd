package model

import "fmt"

// APIError はAPIが返すエラーを表す。
// レスポンスボディは {"error": Message} の形式で書き出される。
type APIError struct {
	Code    string // ログ用のエラーコード
	Message string // クライアントに返す固定メッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotLoggedIn    = "NOT_LOGGED_IN"
	ErrCodeNotInInventory = "NOT_IN_INVENTORY"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
)

// NewNotLoggedInError は未認証アクセスのエラーを生成する。
func NewNotLoggedInError() *APIError {
	return &APIError{
		Code:    ErrCodeNotLoggedIn,
		Message: "Not logged in",
	}
}

// NewNotInInventoryError は出品対象がインベントリに存在しない場合のエラーを生成する。
// メッセージは既存クライアントとの互換のため固定文字列とする。
func NewNotInInventoryError() *APIError {
	return &APIError{
		Code:    ErrCodeNotInInventory,
		Message: "Skin nicht im Inventar",
	}
}

// NewInvalidRequestError はリクエストボディの解析に失敗した場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidRequest,
		Message: "Invalid request body",
	}
}
