// Package model はドメインモデルを定義する。
package model

import "time"

// Listing は出品された1つのスキンを表す。
// 作成後は不変であり、更新・削除の操作は存在しない。
type Listing struct {
	ID       string    `json:"id"`
	OwnerID  string    `json:"ownerId"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Float    float64   `json:"float"`
	Image    string    `json:"image"`
	ListedAt time.Time `json:"listedAt"`
}

// ListingFilter は出品一覧の検索条件を表す。
// nilのフィールドは条件を課さない。全条件はANDで結合される。
type ListingFilter struct {
	MinPrice *float64
	MaxPrice *float64
	MinFloat *float64
	MaxFloat *float64
	// Name は大文字小文字を区別しない部分一致で照合する。空文字は条件なし。
	Name string
}
