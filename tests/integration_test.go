package tests

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackoutassasin/NF-BOT/internal/adapter/handler"
	"github.com/blackoutassasin/NF-BOT/internal/adapter/storage"
	"github.com/blackoutassasin/NF-BOT/internal/core/service"
)

const adminID = "admin-7"

// scriptedExtractor stands in for the OCR engine so the pipeline can be
// exercised without tesseract; each submission pops the next text.
type scriptedExtractor struct {
	mu    sync.Mutex
	texts []string
}

func (s *scriptedExtractor) ExtractText(ctx context.Context, image []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.texts) == 0 {
		return "", nil
	}
	text := s.texts[0]
	s.texts = s.texts[1:]
	return text, nil
}

type testEnv struct {
	server    *httptest.Server
	store     *storage.SQLiteAdapter
	extractor *scriptedExtractor
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr, DB: 15})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	store, err := storage.Open(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	extractor := &scriptedExtractor{}
	sessions := storage.NewRedisSessionAdapter(rdb, time.Minute)

	dispenser := service.NewDispenseService(store, sessions, extractor, service.DispenseConfig{
		ExpectedAmount: 50,
		BkashNumber:    "01700000001",
		NagadNumber:    "01700000002",
	}, nil)

	router := chi.NewRouter()
	handler.NewHTTPHandler(dispenser, adminID).Routes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: store, extractor: extractor}
}

func (env *testEnv) postJSON(t *testing.T, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(env.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (env *testEnv) adminRequest(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, env.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-Buyer-ID", adminID)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func proofPayload(buyerID string) map[string]string {
	// The scripted extractor ignores pixels, but the request still carries
	// a structurally valid PNG header.
	image := append([]byte{0x89, 0x50, 0x4E, 0x47}, []byte("fake")...)
	return map[string]string{
		"buyer_id":     buyerID,
		"image_base64": base64.StdEncoding.EncodeToString(image),
	}
}

func TestIntegration_FullDispensingFlow(t *testing.T) {
	env := setupTestEnv(t)

	// Seed three items through the admin boundary.
	resp, body := env.adminRequest(t, http.MethodPost, "/api/admin/items",
		"a@mail.test:passA:1111:Profile A\nb@mail.test:passB:2222:Profile B\nc@mail.test:passC:3333:Profile C\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["added"])

	// Buyer starts a purchase and gets instructions.
	resp, body = env.postJSON(t, "/api/purchase", map[string]string{"buyer_id": "buyer-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(50), body["price"])
	assert.Equal(t, "01700000001", body["bkash_number"])

	// Valid proof delivers the oldest credential.
	env.extractor.texts = []string{"Amount: 50 TK\nTrxID: TX12345678"}
	resp, body = env.postJSON(t, "/api/proof", proofPayload("buyer-1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "delivered", body["status"])
	credential := body["credential"].(map[string]any)
	assert.Equal(t, "a@mail.test", credential["email"])
	assert.Equal(t, "1111", credential["pin"])

	// Same transaction id from a second buyer is rejected, stock unchanged.
	resp, _ = env.postJSON(t, "/api/purchase", map[string]string{"buyer_id": "buyer-2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env.extractor.texts = []string{"Amount: 50 TK\nTrxID: TX12345678"}
	resp, body = env.postJSON(t, "/api/proof", proofPayload("buyer-2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "failed", body["status"])
	assert.Equal(t, "duplicate_transaction", body["reason"])
	assert.Nil(t, body["credential"])

	// Wrong amount is rejected and retryable.
	env.extractor.texts = []string{"Amount: 40 TK\nTrxID: TX87654321"}
	resp, body = env.postJSON(t, "/api/proof", proofPayload("buyer-2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "amount_mismatch", body["reason"])
	assert.Equal(t, true, body["retryable"])

	// A fresh valid payment succeeds on retry.
	env.extractor.texts = []string{"Amount: 50 TK\nTrxID: TX87654321"}
	resp, body = env.postJSON(t, "/api/proof", proofPayload("buyer-2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "delivered", body["status"])

	// Stats reflect two sales.
	resp, body = env.adminRequest(t, http.MethodGet, "/api/admin/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["available"])
	assert.Equal(t, float64(2), body["sold"])
	assert.Equal(t, float64(100), body["total_revenue"])
}

func TestIntegration_AdminEndpointsRequireIdentity(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/admin/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = http.Post(env.server.URL+"/api/admin/items", "text/plain",
		strings.NewReader("a@mail.test:pass:1111"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestIntegration_SoldOut(t *testing.T) {
	env := setupTestEnv(t)

	resp, body := env.postJSON(t, "/api/purchase", map[string]string{"buyer_id": "buyer-1"})
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	assert.Equal(t, "sold out", body["error"])
}

func TestIntegration_ProofWithoutPurchase(t *testing.T) {
	env := setupTestEnv(t)

	resp, _ := env.postJSON(t, "/api/proof", proofPayload(fmt.Sprintf("stranger-%d", time.Now().UnixNano())))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
