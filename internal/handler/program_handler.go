package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cocopalms/giftwallet/internal/middleware"
	"github.com/cocopalms/giftwallet/internal/model"
	"github.com/cocopalms/giftwallet/internal/program"
	"github.com/go-chi/chi/v5"
)

// ProgramServiceInterface はプログラムハンドラーが必要とするサービスインターフェース。
type ProgramServiceInterface interface {
	Create(ctx context.Context, in program.CreateInput) (*model.Program, error)
	List(ctx context.Context) ([]*model.Program, error)
	Update(ctx context.Context, id string, update model.ProgramUpdate) (*model.Program, error)
	Delete(ctx context.Context, id string) error
}

// ProgramHandler はプログラム管理のHTTPハンドラー。
type ProgramHandler struct {
	service ProgramServiceInterface
	logger  *slog.Logger
}

// NewProgramHandler はProgramHandlerを生成する。
func NewProgramHandler(service ProgramServiceInterface, logger *slog.Logger) *ProgramHandler {
	return &ProgramHandler{service: service, logger: logger}
}

// List はプログラム一覧を新しい順に返す。
// GET /api/programs, GET /api/public/programs
func (h *ProgramHandler) List(w http.ResponseWriter, r *http.Request) {
	programs, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: toProgramResponses(programs)})
}

// Create はプログラムを作成する。検証に失敗した場合は発行APIを呼び出さない。
// POST /api/programs
func (h *ProgramHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req programRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	in, verr := validateCreateProgram(req)
	if verr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationFailedError(verr))
		return
	}

	p, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse{Item: toProgramResponse(p)})
}

// Update はプログラムを部分更新する。
// PUT /api/programs/{id}
func (h *ProgramHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req programRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	update, verr := validateUpdateProgram(req)
	if verr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationFailedError(verr))
		return
	}

	p, err := h.service.Update(r.Context(), id, update)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Item: toProgramResponse(p)})
}

// Delete はプログラムを削除する。存在しない場合も204を返す。
// DELETE /api/programs/{id}
func (h *ProgramHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
