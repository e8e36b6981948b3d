package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cocopalms/giftwallet/internal/enrollment"
	"github.com/cocopalms/giftwallet/internal/middleware"
	"github.com/cocopalms/giftwallet/internal/model"
	"github.com/go-chi/chi/v5"
)

// EnrollmentServiceInterface は利用者ハンドラーが必要とするサービスインターフェース。
type EnrollmentServiceInterface interface {
	Enroll(ctx context.Context, in enrollment.EnrollInput, zone string) (*model.Enrollee, error)
	List(ctx context.Context) ([]*model.Enrollee, error)
	ListGiftCards(ctx context.Context, enrolleeID string) ([]*model.GiftCard, error)
}

// EnrolleeHandler は利用者登録のHTTPハンドラー。
// APIでは利用者を "users" として公開する。
type EnrolleeHandler struct {
	service EnrollmentServiceInterface
	logger  *slog.Logger
}

// NewEnrolleeHandler はEnrolleeHandlerを生成する。
func NewEnrolleeHandler(service EnrollmentServiceInterface, logger *slog.Logger) *EnrolleeHandler {
	return &EnrolleeHandler{service: service, logger: logger}
}

// List は利用者一覧を新しい順に返す。
// GET /api/users
func (h *EnrolleeHandler) List(w http.ResponseWriter, r *http.Request) {
	enrollees, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: toEnrolleeResponses(enrollees)})
}

// Create は管理画面からの利用者登録を処理する。
// POST /api/users
func (h *EnrolleeHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.enroll(w, r, enrollment.ZoneAdmin)
}

// PublicCreate は公開登録フォームからの利用者登録を処理する。
// POST /api/public/users
func (h *EnrolleeHandler) PublicCreate(w http.ResponseWriter, r *http.Request) {
	h.enroll(w, r, enrollment.ZonePublic)
}

// ListGiftCards は利用者に発行されたギフトカードの一覧を返す。
// GET /api/users/{id}/giftcards
func (h *EnrolleeHandler) ListGiftCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.ListGiftCards(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: toGiftCardResponses(cards)})
}

// enroll は検証後に登録を実行する。検証に失敗した場合は発行APIを呼び出さない。
func (h *EnrolleeHandler) enroll(w http.ResponseWriter, r *http.Request, zone string) {
	var req enrollRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	in, verr := validateEnroll(req)
	if verr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationFailedError(verr))
		return
	}

	enrollee, err := h.service.Enroll(r.Context(), in, zone)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse{Item: toEnrolleeResponse(enrollee)})
}
