package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cocopalms/giftwallet/internal/auth"
	"github.com/cocopalms/giftwallet/internal/enrollment"
	"github.com/cocopalms/giftwallet/internal/middleware"
	"github.com/cocopalms/giftwallet/internal/model"
	"github.com/cocopalms/giftwallet/internal/program"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	loginFn        func(ctx context.Context, email, password string) (*auth.LoginResult, error)
	currentAdminFn func(ctx context.Context, adminID string) (*model.Admin, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) CurrentAdmin(ctx context.Context, adminID string) (*model.Admin, error) {
	if m.currentAdminFn != nil {
		return m.currentAdminFn(ctx, adminID)
	}
	return &model.Admin{ID: adminID, Email: "admin@example.com"}, nil
}

// mockProgramService はProgramServiceInterfaceのモック実装。
type mockProgramService struct {
	createFn func(ctx context.Context, in program.CreateInput) (*model.Program, error)
	listFn   func(ctx context.Context) ([]*model.Program, error)
	updateFn func(ctx context.Context, id string, update model.ProgramUpdate) (*model.Program, error)
	deleteFn func(ctx context.Context, id string) error

	createCalls int
}

func (m *mockProgramService) Create(ctx context.Context, in program.CreateInput) (*model.Program, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return testProgram(), nil
}

func (m *mockProgramService) List(ctx context.Context) ([]*model.Program, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockProgramService) Update(ctx context.Context, id string, update model.ProgramUpdate) (*model.Program, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, update)
	}
	return testProgram(), nil
}

func (m *mockProgramService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockEnrollmentService はEnrollmentServiceInterfaceのモック実装。
type mockEnrollmentService struct {
	enrollFn        func(ctx context.Context, in enrollment.EnrollInput, zone string) (*model.Enrollee, error)
	listFn          func(ctx context.Context) ([]*model.Enrollee, error)
	listGiftCardsFn func(ctx context.Context, enrolleeID string) ([]*model.GiftCard, error)

	enrollCalls int
}

func (m *mockEnrollmentService) Enroll(ctx context.Context, in enrollment.EnrollInput, zone string) (*model.Enrollee, error) {
	m.enrollCalls++
	if m.enrollFn != nil {
		return m.enrollFn(ctx, in, zone)
	}
	return testEnrollee(), nil
}

func (m *mockEnrollmentService) List(ctx context.Context) ([]*model.Enrollee, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockEnrollmentService) ListGiftCards(ctx context.Context, enrolleeID string) ([]*model.GiftCard, error) {
	if m.listGiftCardsFn != nil {
		return m.listGiftCardsFn(ctx, enrolleeID)
	}
	return nil, nil
}

// --- テストヘルパー ---

const testProgramID = "5b0c8f64-3f1e-4a55-9d3c-0f4a1b2c3d4e"

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func testProgram() *model.Program {
	return &model.Program{
		ID:          testProgramID,
		Name:        "Bronze 10%",
		Description: "entry tier",
		Amount:      decimal.NewFromInt(10),
		GWClassID:   "cocopalms.bronze-10-class",
		CreatedAt:   testTime,
		UpdatedAt:   testTime,
	}
}

func testEnrollee() *model.Enrollee {
	return &model.Enrollee{
		ID:         "9a1d2f3e-1111-4222-8333-944455566677",
		FullName:   "John Doe",
		Phone:      "12345678901",
		Email:      "john@x.com",
		ProgramID:  testProgramID,
		GWObjectID: "cocopalms.bronze-10-class.john-x-com",
		GWSaveLink: "https://wallet.google/mock/save/cocopalms.bronze-10-class.john-x-com",
		CreatedAt:  testTime,
		UpdatedAt:  testTime,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// withAdminID はテスト用にリクエストコンテキストに管理者IDを注入するヘルパー。
func withAdminID(r *http.Request, adminID string) *http.Request {
	return r.WithContext(middleware.ContextWithAdminID(r.Context(), adminID))
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeJSON はレスポンスボディを汎用マップにデコードするヘルパー。
func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}

// fieldErrors は検証エラーレスポンスからフィールド別エラーを取り出すヘルパー。
func fieldErrors(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	details, ok := body["details"].(map[string]any)
	if !ok {
		t.Fatalf("details missing: %v", body)
	}
	fe, ok := details["fieldErrors"].(map[string]any)
	if !ok {
		t.Fatalf("fieldErrors missing: %v", details)
	}
	return fe
}
