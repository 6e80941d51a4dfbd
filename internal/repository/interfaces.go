// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/skinmarket/internal/model"
)

// ListingRepository は出品データの永続化インターフェース。
// 出品は作成後不変のため、更新・削除の操作は定義しない。
type ListingRepository interface {
	// Create は出品を作成する。(owner, name)の一意性制約はなく、重複出品を許容する。
	Create(ctx context.Context, listing *model.Listing) error

	// Query はフィルタ条件に合致する出品を価格の昇順で返す。
	// nilの境界は条件を課さない。全条件はANDで結合される。
	Query(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れまたは未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}
