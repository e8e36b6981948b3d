package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cocopalms/giftwallet/internal/enrollment"
	"github.com/cocopalms/giftwallet/internal/model"
)

const validEnrollBody = `{"fullName":"John Doe","email":"John@X.com","phone":"12345678901","programId":"` + testProgramID + `"}`

func TestEnrolleeHandler_PublicCreate_Success(t *testing.T) {
	var gotIn enrollment.EnrollInput
	var gotZone string
	svc := &mockEnrollmentService{
		enrollFn: func(ctx context.Context, in enrollment.EnrollInput, zone string) (*model.Enrollee, error) {
			gotIn, gotZone = in, zone
			return testEnrollee(), nil
		},
	}
	h := NewEnrolleeHandler(svc, discardLogger())

	w := httptest.NewRecorder()
	h.PublicCreate(w, jsonRequest(http.MethodPost, "/api/public/users", validEnrollBody))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", w.Code, w.Body.String())
	}
	if gotZone != enrollment.ZonePublic {
		t.Errorf("zone = %q, want %q", gotZone, enrollment.ZonePublic)
	}
	if gotIn.ProgramID != testProgramID || gotIn.FullName != "John Doe" {
		t.Errorf("input = %+v", gotIn)
	}

	item, ok := decodeJSON(t, w)["item"].(map[string]any)
	if !ok {
		t.Fatal("item missing")
	}
	link, _ := item["gwSaveLink"].(string)
	if !strings.HasPrefix(link, "https://wallet.google/mock/save/") {
		t.Errorf("gwSaveLink = %q", link)
	}
	if item["gwObjectId"] != "cocopalms.bronze-10-class.john-x-com" {
		t.Errorf("gwObjectId = %v", item["gwObjectId"])
	}
}

func TestEnrolleeHandler_Create_UsesAdminZone(t *testing.T) {
	var gotZone string
	svc := &mockEnrollmentService{
		enrollFn: func(ctx context.Context, in enrollment.EnrollInput, zone string) (*model.Enrollee, error) {
			gotZone = zone
			return testEnrollee(), nil
		},
	}
	h := NewEnrolleeHandler(svc, discardLogger())

	w := httptest.NewRecorder()
	h.Create(w, jsonRequest(http.MethodPost, "/api/users", validEnrollBody))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if gotZone != enrollment.ZoneAdmin {
		t.Errorf("zone = %q, want %q", gotZone, enrollment.ZoneAdmin)
	}
}

func TestEnrolleeHandler_PublicCreate_ValidationFailure_SkipsService(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"short phone", `{"fullName":"John Doe","email":"john@x.com","phone":"123","programId":"p"}`, "phone"},
		{"bad email", `{"fullName":"John Doe","email":"john","phone":"12345678901","programId":"p"}`, "email"},
		{"display name email", `{"fullName":"John Doe","email":"John <john@x.com>","phone":"12345678901","programId":"p"}`, "email"},
		{"short name", `{"fullName":"J","email":"john@x.com","phone":"12345678901","programId":"p"}`, "fullName"},
		{"missing program", `{"fullName":"John Doe","email":"john@x.com","phone":"12345678901"}`, "programId"},
		{"empty program", `{"fullName":"John Doe","email":"john@x.com","phone":"12345678901","programId":""}`, "programId"},
		{"bad dob", `{"fullName":"John Doe","email":"john@x.com","phone":"12345678901","programId":"p","dob":"1990-01-01"}`, "dob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockEnrollmentService{}
			h := NewEnrolleeHandler(svc, discardLogger())

			w := httptest.NewRecorder()
			h.PublicCreate(w, jsonRequest(http.MethodPost, "/api/public/users", tt.body))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if _, ok := fieldErrors(t, decodeJSON(t, w))[tt.field]; !ok {
				t.Errorf("fieldErrors should contain %q", tt.field)
			}
			if svc.enrollCalls != 0 {
				t.Errorf("service called %d times, want 0", svc.enrollCalls)
			}
		})
	}
}

func TestEnrolleeHandler_PublicCreate_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"program not found", model.NewProgramNotFoundError(), http.StatusNotFound, "Program not found"},
		{"program missing class", model.NewProgramMissingClassError(), http.StatusBadRequest, "Program missing Wallet class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockEnrollmentService{
				enrollFn: func(ctx context.Context, in enrollment.EnrollInput, zone string) (*model.Enrollee, error) {
					return nil, tt.err
				},
			}
			h := NewEnrolleeHandler(svc, discardLogger())

			w := httptest.NewRecorder()
			h.PublicCreate(w, jsonRequest(http.MethodPost, "/api/public/users", validEnrollBody))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if body := decodeJSON(t, w); body["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", body["error"], tt.wantError)
			}
		})
	}
}

func TestEnrolleeHandler_List_ReturnsItems(t *testing.T) {
	svc := &mockEnrollmentService{
		listFn: func(ctx context.Context) ([]*model.Enrollee, error) {
			return []*model.Enrollee{testEnrollee()}, nil
		},
	}
	h := NewEnrolleeHandler(svc, discardLogger())

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	items, ok := decodeJSON(t, w)["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v", items)
	}
	if items[0].(map[string]any)["email"] != "john@x.com" {
		t.Errorf("email = %v", items[0].(map[string]any)["email"])
	}
}

// 削除済みプログラムに登録されていた利用者はprogramIdがnullになる
func TestEnrolleeHandler_List_DeletedProgramIsNull(t *testing.T) {
	orphan := testEnrollee()
	orphan.ProgramID = ""
	svc := &mockEnrollmentService{
		listFn: func(ctx context.Context) ([]*model.Enrollee, error) {
			return []*model.Enrollee{testEnrollee(), orphan}, nil
		},
	}
	h := NewEnrolleeHandler(svc, discardLogger())

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	items, ok := decodeJSON(t, w)["items"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("items = %v", items)
	}
	if got := items[0].(map[string]any)["programId"]; got != testProgramID {
		t.Errorf("programId = %v, want %s", got, testProgramID)
	}
	value, present := items[1].(map[string]any)["programId"]
	if !present || value != nil {
		t.Errorf("programId = %v (present=%v), want null", value, present)
	}
}

func TestEnrolleeHandler_ListGiftCards(t *testing.T) {
	svc := &mockEnrollmentService{
		listGiftCardsFn: func(ctx context.Context, enrolleeID string) ([]*model.GiftCard, error) {
			if enrolleeID != "user-1" {
				return nil, model.NewEnrolleeNotFoundError()
			}
			return []*model.GiftCard{{
				ID:         "card-1",
				EnrolleeID: "user-1",
				ProgramID:  testProgramID,
				GWClassID:  "cocopalms.bronze-10-class",
				GWObjectID: "cocopalms.bronze-10-class.john-x-com",
				SaveLink:   "https://wallet.google/mock/save/cocopalms.bronze-10-class.john-x-com",
				CreatedAt:  testTime,
			}}, nil
		},
	}
	h := NewEnrolleeHandler(svc, discardLogger())

	w := httptest.NewRecorder()
	h.ListGiftCards(w, withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "user-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	items, ok := decodeJSON(t, w)["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v", items)
	}
	if items[0].(map[string]any)["userId"] != "user-1" {
		t.Errorf("userId = %v", items[0].(map[string]any)["userId"])
	}

	w = httptest.NewRecorder()
	h.ListGiftCards(w, withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "other"))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", w.Code)
	}
}
