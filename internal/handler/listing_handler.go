package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/skinmarket/internal/listing"
	"github.com/hitoshi/skinmarket/internal/middleware"
	"github.com/hitoshi/skinmarket/internal/model"
)

// ListingServiceInterface は出品ハンドラーが必要とするサービスインターフェース。
type ListingServiceInterface interface {
	// Create は出品を作成する。インベントリに存在しない場合はAPIErrorを返す。
	Create(ctx context.Context, ownerID string, input listing.CreateInput) (*model.Listing, error)
	// Query はフィルタ条件に合致する出品を価格の昇順で返す。
	Query(ctx context.Context, filter model.ListingFilter) ([]model.Listing, error)
}

// ListingHandler は出品管理のHTTPハンドラー。
type ListingHandler struct {
	service ListingServiceInterface
}

// NewListingHandler はListingHandlerを生成する。
func NewListingHandler(service ListingServiceInterface) *ListingHandler {
	return &ListingHandler{service: service}
}

// createListingRequest は出品作成リクエストのボディ。
type createListingRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Float float64 `json:"float"`
	Image string  `json:"image"`
}

// createListingResponse は出品作成のレスポンス。
type createListingResponse struct {
	Success bool           `json:"success"`
	Skin    *model.Listing `json:"skin"`
}

// CreateListing は出品を作成する。
// POST /skins
// 認証済みアカウントのインベントリに出品名が存在する場合のみ成功する。
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNotLoggedInError())
		return
	}

	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	created, err := h.service.Create(r.Context(), ident.SteamID, listing.CreateInput{
		Name:  req.Name,
		Price: req.Price,
		Float: req.Float,
		Image: req.Image,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(createListingResponse{
		Success: true,
		Skin:    created,
	})
}

// ListListings は出品の一覧をフィルタ付きで取得する。
// GET /skins?minPrice=&maxPrice=&minFloat=&maxFloat=&name=
// 認証不要。指定された境界のみが条件として適用され、結果は価格の昇順。
func (h *ListingHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := model.ListingFilter{
		MinPrice: parseFloatParam(q.Get("minPrice")),
		MaxPrice: parseFloatParam(q.Get("maxPrice")),
		MinFloat: parseFloatParam(q.Get("minFloat")),
		MaxFloat: parseFloatParam(q.Get("maxFloat")),
		Name:     q.Get("name"),
	}

	listings, err := h.service.Query(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listings)
}

// parseFloatParam はクエリパラメータを*float64に変換する。
// 空または数値として解釈できない値は条件なし（nil）として扱う。
func parseFloatParam(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// サービス層が返すAPIErrorは検証エラーのみなので400で返し、
// それ以外は500として詳細をログに残す。認証エラーはミドルウェアが先に処理する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	slog.Error("service error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
