// Package listing は出品の作成と検索のビジネスロジックを提供する。
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/skinmarket/internal/model"
	"github.com/hitoshi/skinmarket/internal/repository"
)

// InventoryFetcher はインベントリ照合に必要なインターフェース。
// 失敗時は空の一覧を返す契約（fail-open-to-empty）であり、エラーは返さない。
type InventoryFetcher interface {
	FetchInventoryClassIDs(ctx context.Context, steamID string) []string
}

// NameSanitizer は出品名のサニタイズに必要なインターフェース。
// security.ListingSanitizerServiceの部分集合として定義する。
type NameSanitizer interface {
	SanitizeName(name string) string
}

// CreateMetrics は出品作成の計測に必要なインターフェース。
type CreateMetrics interface {
	RecordListingCreated()
}

// CreateInput は出品作成の入力。
type CreateInput struct {
	Name  string
	Price float64
	Float float64
	Image string
}

// Service は出品に関するビジネスロジックを提供する。
type Service struct {
	repo      repository.ListingRepository
	inventory InventoryFetcher
	sanitizer NameSanitizer
	metrics   CreateMetrics
}

// NewService はServiceを生成する。
func NewService(repo repository.ListingRepository, inventory InventoryFetcher, sanitizer NameSanitizer, metrics CreateMetrics) *Service {
	return &Service{
		repo:      repo,
		inventory: inventory,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// Create は出品を作成する。
// 出品名が所有者の現在のインベントリに存在することを作成時に1回だけ検証する。
// 存在しない場合はmodel.APIError（400相当）を返し、何も永続化しない。
// インベントリ取得の失敗は空インベントリとして扱われるため、同じ拒否になる。
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*model.Listing, error) {
	name := s.sanitizer.SanitizeName(input.Name)

	inventory := s.inventory.FetchInventoryClassIDs(ctx, ownerID)
	if !contains(inventory, name) {
		return nil, model.NewNotInInventoryError()
	}

	l := &model.Listing{
		ID:       uuid.New().String(),
		OwnerID:  ownerID,
		Name:     name,
		Price:    input.Price,
		Float:    input.Float,
		Image:    input.Image,
		ListedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.metrics.RecordListingCreated()
	slog.Info("listing created",
		slog.String("listing_id", l.ID),
		slog.String("owner_id", ownerID),
		slog.String("name", name),
	)

	return l, nil
}

// Query はフィルタ条件に合致する出品を価格の昇順で返す。
// 結果が空の場合もnilではなく空スライスを返す。
func (s *Service) Query(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error) {
	listings, err := s.repo.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	return listings, nil
}

// contains は一覧に値が含まれるかを線形探索で判定する。
func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
