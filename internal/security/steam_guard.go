// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// allowedSchemes はSteam向けアウトバウンド通信で許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// claimedIDPattern はSteam OpenIDのclaimed_idとして正当なURLの形式。
// 末尾の数字列がSteamID64となる。
var claimedIDPattern = regexp.MustCompile(`^https://steamcommunity\.com/openid/id/(\d+)$`)

// OutboundGuardService はアウトバウンドHTTP通信の保護機能のインターフェースを定義する。
// Steamへのインベントリ取得・OpenID検証・プロフィール取得で使用される。
type OutboundGuardService interface {
	// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
	// safeurlライブラリにより、プライベートIP、ループバック、リンクローカル、
	// メタデータIPへのリクエストが自動的にブロックされる。
	// DNS再バインディング攻撃への対策も有効化される。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateClaimedID はOpenIDコールバックのclaimed_idを検証し、
	// SteamID64を抽出する。steamcommunity.comのOpenID ID URL以外は拒否する。
	ValidateClaimedID(claimedID string) (string, error)
}

// outboundGuard はOutboundGuardServiceの実装。
type outboundGuard struct{}

// NewOutboundGuard はOutboundGuardServiceの新しいインスタンスを生成する。
func NewOutboundGuard() *outboundGuard {
	return &outboundGuard{}
}

// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlはnet.DialerのControlフックでDNS解決後のIPアドレスを検証するため、
// DNS再バインディング攻撃にも対応している。
func (g *outboundGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	wrappedClient := safeurl.Client(config)
	return wrappedClient.Client
}

// ValidateClaimedID はclaimed_idを検証してSteamID64を返す。
// DNS解決を伴わない静的な検証のみを行う。
func (g *outboundGuard) ValidateClaimedID(claimedID string) (string, error) {
	if claimedID == "" {
		return "", fmt.Errorf("empty claimed_id")
	}

	parsed, err := url.Parse(claimedID)
	if err != nil {
		return "", fmt.Errorf("invalid claimed_id: %w", err)
	}
	if !strings.EqualFold(parsed.Scheme, "https") {
		return "", fmt.Errorf("disallowed claimed_id scheme: %s", parsed.Scheme)
	}

	m := claimedIDPattern.FindStringSubmatch(claimedID)
	if m == nil {
		return "", fmt.Errorf("claimed_id is not a steamcommunity openid URL: %s", claimedID)
	}

	return m[1], nil
}
