package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultSteamLoginURL         = "https://steamcommunity.com/openid/login"
	defaultSteamPlayerSummaryURL = "https://api.steampowered.com/ISteamUser/GetPlayerSummaries/v0002/"

	openIDNS = "http://specs.openid.net/auth/2.0"
	// identifierSelect はOpenID 2.0のidentifier selectモードを示す。
	// Steamはこのモードのみをサポートし、実際のIDはコールバックのclaimed_idで返す。
	identifierSelect = "http://specs.openid.net/auth/2.0/identifier_select"
)

// ClaimedIDValidator はOpenIDコールバックのclaimed_idを検証し、SteamID64を抽出する。
// security.OutboundGuardServiceの部分集合として定義する。
type ClaimedIDValidator interface {
	ValidateClaimedID(claimedID string) (string, error)
}

// SteamOpenIDConfig はSteam OpenIDプロバイダーの設定。
type SteamOpenIDConfig struct {
	APIKey    string
	ReturnURL string
	Realm     string

	// テスト用にオーバーライド可能なURL
	LoginURL         string
	PlayerSummaryURL string
}

// SteamOpenIDProvider はSteamのOpenID 2.0による認証を提供する。
// OpenID 2.0はOAuth 2.0より古いプロトコルで、認可コード交換の代わりに
// コールバックのアサーションをプロバイダーに送り返して検証する
// （check_authentication）。
type SteamOpenIDProvider struct {
	config     SteamOpenIDConfig
	httpClient *http.Client
	validator  ClaimedIDValidator
}

// NewSteamOpenIDProvider はSteamOpenIDProviderを生成する。
func NewSteamOpenIDProvider(config SteamOpenIDConfig, httpClient *http.Client, validator ClaimedIDValidator) *SteamOpenIDProvider {
	if config.LoginURL == "" {
		config.LoginURL = defaultSteamLoginURL
	}
	if config.PlayerSummaryURL == "" {
		config.PlayerSummaryURL = defaultSteamPlayerSummaryURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SteamOpenIDProvider{
		config:     config,
		httpClient: httpClient,
		validator:  validator,
	}
}

// GetLoginURL はSteamのOpenID認証URLを生成する。
// ローカルの状態変更は行わない。
func (p *SteamOpenIDProvider) GetLoginURL() string {
	params := url.Values{
		"openid.ns":         {openIDNS},
		"openid.mode":       {"checkid_setup"},
		"openid.return_to":  {p.config.ReturnURL},
		"openid.realm":      {p.config.Realm},
		"openid.identity":   {identifierSelect},
		"openid.claimed_id": {identifierSelect},
	}
	return p.config.LoginURL + "?" + params.Encode()
}

// VerifyCallback はOpenIDコールバックのアサーションを検証し、SteamID64を返す。
// アサーション全体をmode=check_authenticationでプロバイダーに送り返し、
// is_valid:true の応答を要求する。リトライは行わない。
func (p *SteamOpenIDProvider) VerifyCallback(ctx context.Context, callbackParams url.Values) (string, error) {
	if callbackParams.Get("openid.mode") != "id_res" {
		return "", fmt.Errorf("unexpected openid.mode: %q", callbackParams.Get("openid.mode"))
	}

	// 1. claimed_idの形式検証とSteamID64の抽出
	steamID, err := p.validator.ValidateClaimedID(callbackParams.Get("openid.claimed_id"))
	if err != nil {
		return "", fmt.Errorf("invalid claimed_id: %w", err)
	}

	// 2. アサーションをそのまま送り返して検証
	verify := url.Values{}
	for key, values := range callbackParams {
		if strings.HasPrefix(key, "openid.") {
			verify[key] = values
		}
	}
	verify.Set("openid.mode", "check_authentication")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.LoginURL, strings.NewReader(verify.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("verification failed with status %d", resp.StatusCode)
	}

	// 3. key:value形式の応答からis_validを読み取る
	valid, err := parseIsValid(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse verification response: %w", err)
	}
	if !valid {
		return "", fmt.Errorf("openid assertion rejected by provider")
	}

	return steamID, nil
}

// parseIsValid はOpenID key-value形式の応答からis_validの値を読み取る。
func parseIsValid(r io.Reader) (bool, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if key == "is_valid" {
			return value == "true", nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, fmt.Errorf("is_valid not present in response")
}

// FetchProfile はSteam Web APIからプレイヤープロフィールを取得する。
// 返されるプレイヤーオブジェクトは解釈せず、JSONのまま返す。
func (p *SteamOpenIDProvider) FetchProfile(ctx context.Context, steamID string) ([]byte, error) {
	reqURL, err := url.Parse(p.config.PlayerSummaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse player summary URL: %w", err)
	}

	q := reqURL.Query()
	q.Set("key", p.config.APIKey)
	q.Set("steamids", steamID)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var summary struct {
		Response struct {
			Players []json.RawMessage `json:"players"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse profile response: %w", err)
	}

	if len(summary.Response.Players) == 0 {
		return nil, fmt.Errorf("no player found for steam ID %s", steamID)
	}

	return summary.Response.Players[0], nil
}

// compile-time interface check
var _ IdentityProvider = (*SteamOpenIDProvider)(nil)
