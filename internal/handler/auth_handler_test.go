package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cocopalms/giftwallet/internal/auth"
	"github.com/cocopalms/giftwallet/internal/model"
)

func TestAuthHandler_Login_Success_ReturnsToken(t *testing.T) {
	var gotEmail, gotPassword string
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			gotEmail, gotPassword = email, password
			return &auth.LoginResult{
				Token:     "signed-token",
				ExpiresAt: testTime.Add(24 * time.Hour),
				Admin:     &model.Admin{ID: "admin-1"},
			}, nil
		},
	}
	h := NewAuthHandler(svc, discardLogger())

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"secret"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeJSON(t, w)
	if body["token"] != "signed-token" {
		t.Errorf("token = %v, want %q", body["token"], "signed-token")
	}
	if gotEmail != "admin@example.com" || gotPassword != "secret" {
		t.Errorf("service called with (%q, %q)", gotEmail, gotPassword)
	}
}

func TestAuthHandler_Login_WrongPassword_Returns401WithoutToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, discardLogger())

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"wrong"}`))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	body := decodeJSON(t, w)
	if body["error"] != "Invalid credentials" {
		t.Errorf("error = %v, want %q", body["error"], "Invalid credentials")
	}
	if _, ok := body["token"]; ok {
		t.Error("token must not be issued on failed login")
	}
}

func TestAuthHandler_Login_MalformedBody_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, discardLogger())

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/api/auth/login", `{not json`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decodeJSON(t, w); body["error"] != "Missing credentials" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestAuthHandler_Login_MissingFields_Returns400(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			return nil, model.NewMissingCredentialsError()
		},
	}
	h := NewAuthHandler(svc, discardLogger())

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"admin@example.com"}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAuthHandler_Login_StoreFailure_Returns500(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	h := NewAuthHandler(svc, discardLogger())

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"a@b.co","password":"x"}`))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestAuthHandler_Me_ReturnsAdmin(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, discardLogger())

	w := httptest.NewRecorder()
	h.Me(w, withAdminID(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), "admin-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeJSON(t, w)
	if body["id"] != "admin-1" || body["email"] != "admin@example.com" {
		t.Errorf("body = %v", body)
	}
}

func TestAuthHandler_Me_DeletedAdmin_Returns401(t *testing.T) {
	svc := &mockAuthService{
		currentAdminFn: func(ctx context.Context, adminID string) (*model.Admin, error) {
			return nil, model.NewUnauthorizedError()
		},
	}
	h := NewAuthHandler(svc, discardLogger())

	w := httptest.NewRecorder()
	h.Me(w, withAdminID(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), "admin-gone"))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthHandler_Me_NoAdminID_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, discardLogger())

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
