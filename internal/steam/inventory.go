// Package steam はSteamコミュニティのインベントリ取得機能を提供する。
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// defaultEndpoint はSteamコミュニティのインベントリ取得エンドポイント。
// {steamID}/{appID}/{contextID} をパスに続けて指定する。
const defaultEndpoint = "https://steamcommunity.com/inventory"

// InventoryMetrics はインベントリ取得の計測に必要なインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type InventoryMetrics interface {
	RecordInventoryFetchSuccess()
	RecordInventoryFetchFailure(reason string)
	RecordInventoryFetchLatency(duration time.Duration)
}

// ClientConfig はインベントリクライアントの設定。
type ClientConfig struct {
	AppID     string
	ContextID string
	MaxCount  int

	// テスト用にオーバーライド可能なエンドポイント
	Endpoint string
}

// Client はSteamインベントリAPIのクライアント。
// 出品作成のたびにインベントリ全体を再取得する。キャッシュは持たない。
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	metrics    InventoryMetrics
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(config ClientConfig, httpClient *http.Client, logger *slog.Logger, metrics InventoryMetrics) *Client {
	if config.Endpoint == "" {
		config.Endpoint = defaultEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
	}
}

// inventoryResponse はSteamインベントリAPIレスポンスのうち必要な部分。
type inventoryResponse struct {
	Assets []struct {
		ClassID string `json:"classid"`
	} `json:"assets"`
}

// FetchInventoryClassIDs は指定アカウントのインベントリからクラスIDの一覧を取得する。
//
// 失敗時はエラーを伝播せず、ログに記録して空の一覧を返す（fail-open-to-empty）。
// これにより後続の出品照合は「インベントリに存在しない」として拒否され、
// 上流の障害が呼び出し元へのハードエラーにはならない。
// リトライは行わず、タイムアウトはhttpClientの設定に従う。
func (c *Client) FetchInventoryClassIDs(ctx context.Context, steamID string) []string {
	start := time.Now()
	classIDs, err := c.fetch(ctx, steamID)
	c.metrics.RecordInventoryFetchLatency(time.Since(start))

	if err != nil {
		c.logger.Error("インベントリの取得に失敗しました",
			slog.String("steam_id", steamID),
			slog.String("error", err.Error()),
		)
		c.metrics.RecordInventoryFetchFailure(failureReason(err))
		return []string{}
	}

	c.metrics.RecordInventoryFetchSuccess()
	return classIDs
}

// fetch はインベントリを1回取得してクラスIDを抽出する。
func (c *Client) fetch(ctx context.Context, steamID string) ([]string, error) {
	reqURL := fmt.Sprintf("%s/%s/%s/%s",
		c.config.Endpoint, url.PathEscape(steamID), c.config.AppID, c.config.ContextID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	q := req.URL.Query()
	q.Set("l", "english")
	q.Set("count", strconv.Itoa(c.config.MaxCount))
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("インベントリAPIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var inv inventoryResponse
	if err := json.Unmarshal(body, &inv); err != nil {
		return nil, &parseError{cause: err}
	}

	classIDs := make([]string, 0, len(inv.Assets))
	for _, asset := range inv.Assets {
		classIDs = append(classIDs, asset.ClassID)
	}

	return classIDs, nil
}

// statusError は2xx以外のHTTPステータスによる失敗を表す。
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("インベントリAPIがステータス %d を返しました", e.code)
}

// parseError はレスポンスJSONの解析失敗を表す。
type parseError struct {
	cause error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("レスポンスJSONのパースに失敗しました: %v", e.cause)
}

// failureReason はメトリクスのラベル用に失敗理由を分類する。
func failureReason(err error) string {
	switch err.(type) {
	case *statusError:
		return "status"
	case *parseError:
		return "parse"
	default:
		return "transport"
	}
}
