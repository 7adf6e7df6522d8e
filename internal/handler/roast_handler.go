package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Mahi11313/RoastMyStartup-main/internal/middleware"
	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
	"github.com/Mahi11313/RoastMyStartup-main/internal/roast"
)

// RoastServiceInterface はローストハンドラーが必要とするサービスインターフェース。
type RoastServiceInterface interface {
	RoastAndSave(ctx context.Context, req *model.RoastRequest, userID string) (*roast.Result, error)
	Stats(ctx context.Context) (*model.RoastStats, error)
}

// RoastHandler はロースト関連のHTTPハンドラー。
type RoastHandler struct {
	service RoastServiceInterface
}

// NewRoastHandler はRoastHandlerを生成する。
func NewRoastHandler(service RoastServiceInterface) *RoastHandler {
	return &RoastHandler{service: service}
}

// roastResponseBody はPOST /roastの成功レスポンス。
// ロースト結果に加えて保存状態を含む。
type roastResponseBody struct {
	model.RoastResponse
	Persisted bool `json:"persisted"`
}

// Roast はピッチを受け取りローストを生成する。
// POST /roast
//
// 認証は任意。ベアラートークンが有効ならローストはユーザーに紐付き、
// なければ匿名として保存される。保存の失敗はレスポンスの成否に影響しない。
func (h *RoastHandler) Roast(w http.ResponseWriter, r *http.Request) {
	var req model.RoastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディが不正です。",
			Category: "validation",
			Action:   "JSON形式でピッチを送信してください。",
		})
		return
	}

	id := middleware.IdentityFromContext(r.Context())

	result, err := h.service.RoastAndSave(r.Context(), &req, id.UserID)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
			return
		}
		// 生成AIの失敗は上流障害として502を返す
		slog.Error("roast generation failed", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewGenerationFailedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(roastResponseBody{
		RoastResponse: *result.Response,
		Persisted:     result.Persisted,
	})
}

// Stats はロースト全体の統計を返す。
// GET /roast/stats
func (h *RoastHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		slog.Error("failed to load roast stats", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
