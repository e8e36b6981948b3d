// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cocopalms/giftwallet/internal/middleware"
	"github.com/cocopalms/giftwallet/internal/model"
	"github.com/cocopalms/giftwallet/internal/wallet"
)

// itemResponse は単一リソースのレスポンスエンベロープ。
type itemResponse struct {
	Item any `json:"item"`
}

// itemsResponse は一覧のレスポンスエンベロープ。
type itemsResponse struct {
	Items any `json:"items"`
}

// programResponse はプログラムのAPIレスポンス。
// IDのキーは管理画面との互換のため "_id" とする。
type programResponse struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
	ThemeURL    string     `json:"themeUrl,omitempty"`
	GWClassID   string     `json:"gwClassId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// enrolleeResponse は利用者のAPIレスポンス。
type enrolleeResponse struct {
	ID         string     `json:"_id"`
	FullName   string     `json:"fullName"`
	Phone      string     `json:"phone"`
	DOB        *time.Time `json:"dob,omitempty"`
	Email      string     `json:"email"`
	ProgramID  *string    `json:"programId"`
	GWObjectID string     `json:"gwObjectId,omitempty"`
	GWSaveLink string     `json:"gwSaveLink,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// giftCardResponse はギフトカード監査レコードのAPIレスポンス。
type giftCardResponse struct {
	ID         string    `json:"_id"`
	UserID     string    `json:"userId"`
	ProgramID  *string   `json:"programId"`
	GWClassID  string    `json:"gwClassId"`
	GWObjectID string    `json:"gwObjectId"`
	SaveLink   string    `json:"saveLink"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toProgramResponse(p *model.Program) programResponse {
	return programResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Amount:      p.Amount.InexactFloat64(),
		ExpiryDate:  p.ExpiryDate,
		ThemeURL:    p.ThemeURL,
		GWClassID:   p.GWClassID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProgramResponses(programs []*model.Program) []programResponse {
	out := make([]programResponse, len(programs))
	for i, p := range programs {
		out[i] = toProgramResponse(p)
	}
	return out
}

// nullableID は削除済みプログラムへの参照をnullとして返す。
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func toEnrolleeResponse(e *model.Enrollee) enrolleeResponse {
	return enrolleeResponse{
		ID:         e.ID,
		FullName:   e.FullName,
		Phone:      e.Phone,
		DOB:        e.DOB,
		Email:      e.Email,
		ProgramID:  nullableID(e.ProgramID),
		GWObjectID: e.GWObjectID,
		GWSaveLink: e.GWSaveLink,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func toEnrolleeResponses(enrollees []*model.Enrollee) []enrolleeResponse {
	out := make([]enrolleeResponse, len(enrollees))
	for i, e := range enrollees {
		out[i] = toEnrolleeResponse(e)
	}
	return out
}

func toGiftCardResponses(cards []*model.GiftCard) []giftCardResponse {
	out := make([]giftCardResponse, len(cards))
	for i, c := range cards {
		out[i] = giftCardResponse{
			ID:         c.ID,
			UserID:     c.EnrolleeID,
			ProgramID:  nullableID(c.ProgramID),
			GWClassID:  c.GWClassID,
			GWObjectID: c.GWObjectID,
			SaveLink:   c.SaveLink,
			CreatedAt:  c.CreatedAt,
		}
	}
	return out
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// 発行APIの失敗は上流のステータスを付けて502で返す。本文はログのみに記録する
	var upstreamErr *wallet.APIError
	if errors.As(err, &upstreamErr) {
		logger.Error("wallet issuer request failed",
			slog.String("operation", upstreamErr.Operation),
			slog.String("resource_id", upstreamErr.ResourceID),
			slog.Int("upstream_status", upstreamErr.StatusCode),
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewWalletUpstreamError(upstreamErr.StatusCode))
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	logger.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidRequest,
		model.ErrCodeMissingCredentials, model.ErrCodeProgramMissingClass:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeProgramNotFound, model.ErrCodeEnrolleeNotFound:
		return http.StatusNotFound
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeWalletUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
