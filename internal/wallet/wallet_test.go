package wallet

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// testKey はテスト全体で共有するRSA鍵。生成コストが高いため1回だけ作る。
var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func rsaKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = k
	})
	return testKey
}

func privateKeyPEM(t *testing.T) string {
	t.Helper()
	der := x509.MarshalPKCS1PrivateKey(rsaKey(t))
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}))
}

// writeServiceAccount はサービスアカウントJSONを一時ディレクトリに書き出し、パスを返す。
func writeServiceAccount(t *testing.T, fields map[string]string) string {
	t.Helper()
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to marshal service account: %v", err)
	}
	path := filepath.Join(t.TempDir(), "service-account.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write service account: %v", err)
	}
	return path
}

func validServiceAccount(t *testing.T) string {
	t.Helper()
	return writeServiceAccount(t, map[string]string{
		"client_email":   "issuer@example.iam.gserviceaccount.com",
		"private_key":    privateKeyPEM(t),
		"private_key_id": "key-1",
	})
}

// fakeRecorder は計測呼び出しを記録する。
type fakeRecorder struct {
	mu        sync.Mutex
	requests  []string
	conflicts []string
}

func (r *fakeRecorder) RecordWalletRequest(operation string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, operation)
}

func (r *fakeRecorder) RecordWalletConflict(resource string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts = append(r.conflicts, resource)
}

// fakeIssuerAPI はウォレット発行APIの振る舞いを模したテストサーバー。
type fakeIssuerAPI struct {
	mu          sync.Mutex
	classes     map[string]json.RawMessage
	objects     map[string]json.RawMessage
	classPosts  int
	objectPosts int

	// 以下が0以外の場合、該当リクエストにそのステータスを返す
	classGetStatus   int
	classPostStatus  int
	objectPostStatus int
}

func newFakeIssuerAPI() *fakeIssuerAPI {
	return &fakeIssuerAPI{
		classes: map[string]json.RawMessage{},
		objects: map[string]json.RawMessage{},
	}
}

func (f *fakeIssuerAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	var payload struct {
		ID string `json:"id"`
	}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &payload)
	}

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/giftCardClass/"):
		if f.classGetStatus != 0 {
			http.Error(w, `{"error":"boom"}`, f.classGetStatus)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/giftCardClass/")
		stored, ok := f.classes[id]
		if !ok {
			http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
			return
		}
		w.Write(stored)
	case r.Method == http.MethodPost && r.URL.Path == "/giftCardClass":
		f.classPosts++
		if f.classPostStatus != 0 {
			http.Error(w, `{"error":"rejected"}`, f.classPostStatus)
			return
		}
		if _, exists := f.classes[payload.ID]; exists {
			http.Error(w, `{"error":{"code":409}}`, http.StatusConflict)
			return
		}
		f.classes[payload.ID] = body
		w.Write(body)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/giftCardObject/"):
		id := strings.TrimPrefix(r.URL.Path, "/giftCardObject/")
		stored, ok := f.objects[id]
		if !ok {
			http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
			return
		}
		w.Write(stored)
	case r.Method == http.MethodPost && r.URL.Path == "/giftCardObject":
		f.objectPosts++
		if f.objectPostStatus != 0 {
			http.Error(w, `{"error":"rejected"}`, f.objectPostStatus)
			return
		}
		if _, exists := f.objects[payload.ID]; exists {
			http.Error(w, `{"error":{"code":409}}`, http.StatusConflict)
			return
		}
		f.objects[payload.ID] = body
		w.Write(body)
	default:
		http.NotFound(w, r)
	}
}

func productionConfig(apiBase string) Config {
	return Config{
		IssuerID:    "3388000000012345678",
		ClassPrefix: "cocopalms",
		IssuerName:  "COCOPALMS",
		APIBase:     apiBase,
		Timeout:     2 * time.Second,
	}
}

func mockConfig() Config {
	return Config{
		MockEnabled: true,
		ClassPrefix: "cocopalms",
		IssuerName:  "COCOPALMS",
	}
}

func (f *fakeIssuerAPI) classPostCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.classPosts
}

func (f *fakeIssuerAPI) objectPostCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objectPosts
}

func (f *fakeIssuerAPI) storedClass(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.classes[id])
}

func (f *fakeIssuerAPI) putObject(id string, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[id] = json.RawMessage(body)
}
