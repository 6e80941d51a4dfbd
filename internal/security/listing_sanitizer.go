// ListingSanitizerService は出品入力のサニタイズを提供する。
// 出品名はフロントエンドでそのまま表示されるため、
// bluemondayのStrictPolicyで一切のマークアップを除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ListingSanitizerService は出品入力のサニタイズ機能のインターフェースを定義する。
// 出品作成時、インベントリ照合の前に使用される。
type ListingSanitizerService interface {
	// SanitizeName は出品名から全てのHTMLマークアップを除去し、
	// 前後の空白をトリムして返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeName(name string) string
}

// listingSanitizer はListingSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type listingSanitizer struct {
	policy *bluemonday.Policy
}

// NewListingSanitizer はListingSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのタグと属性を除去し、テキストのみを残す。
func NewListingSanitizer() *listingSanitizer {
	return &listingSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeName は出品名をサニタイズして返す。
func (s *listingSanitizer) SanitizeName(name string) string {
	return strings.TrimSpace(s.policy.Sanitize(name))
}
