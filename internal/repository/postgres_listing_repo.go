package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/skinmarket/internal/model"
)

// PostgresListingRepo はPostgreSQLを使用した出品リポジトリ。
type PostgresListingRepo struct {
	db *sql.DB
}

// NewPostgresListingRepo はPostgresListingRepoを生成する。
func NewPostgresListingRepo(db *sql.DB) *PostgresListingRepo {
	return &PostgresListingRepo{db: db}
}

// Create は出品を作成する。
func (r *PostgresListingRepo) Create(ctx context.Context, listing *model.Listing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listings (id, owner_id, name, price, float_value, image, listed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		listing.ID, listing.OwnerID, listing.Name, listing.Price,
		listing.Float, listing.Image, listing.ListedAt,
	)
	if err != nil {
		return fmt.Errorf("出品の作成に失敗しました: %w", err)
	}
	return nil
}

// Query はフィルタ条件に合致する出品を価格の昇順で返す。
// 指定された境界のみWHERE句に追加する。同価格の並び順はDBに委ねる。
func (r *PostgresListingRepo) Query(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error) {
	baseQuery := `
		SELECT id, owner_id, name, price, float_value, image, listed_at
		FROM listings
		WHERE 1=1`

	var args []interface{}
	argIndex := 1

	if filter.MinPrice != nil {
		baseQuery += fmt.Sprintf(" AND price >= $%d", argIndex)
		args = append(args, *filter.MinPrice)
		argIndex++
	}
	if filter.MaxPrice != nil {
		baseQuery += fmt.Sprintf(" AND price <= $%d", argIndex)
		args = append(args, *filter.MaxPrice)
		argIndex++
	}
	if filter.MinFloat != nil {
		baseQuery += fmt.Sprintf(" AND float_value >= $%d", argIndex)
		args = append(args, *filter.MinFloat)
		argIndex++
	}
	if filter.MaxFloat != nil {
		baseQuery += fmt.Sprintf(" AND float_value <= $%d", argIndex)
		args = append(args, *filter.MaxFloat)
		argIndex++
	}
	if filter.Name != "" {
		baseQuery += fmt.Sprintf(" AND name ILIKE '%%' || $%d || '%%'", argIndex)
		args = append(args, escapeLikePattern(filter.Name))
		argIndex++
	}

	baseQuery += " ORDER BY price ASC"

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("出品一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(
			&l.ID, &l.OwnerID, &l.Name, &l.Price, &l.Float, &l.Image, &l.ListedAt,
		); err != nil {
			return nil, fmt.Errorf("出品行の読み取りに失敗しました: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("出品一覧の走査に失敗しました: %w", err)
	}

	return listings, nil
}

// escapeLikePattern はILIKEのワイルドカード文字をエスケープし、
// 検索語を部分文字列リテラルとして扱えるようにする。
func escapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// compile-time interface check
var _ ListingRepository = (*PostgresListingRepo)(nil)
