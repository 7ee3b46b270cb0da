package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"dokterku/pkg/validasi"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	// allow callers to pass nil for body safely
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	tmp := t.TempDir()
	_ = os.Setenv("UPLOAD_BASE", tmp)
	initDB()
	seedDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func loginAs(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp := performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(body), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login %s failed status=%d body=%s", username, resp.Code, resp.Body.String())
	}
	var out map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	token, _ := out["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", out)
	}
	return token
}

func TestValidationFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Self-service register creates a petugas
	regBody, _ := json.Marshal(map[string]string{"username": "petugas.itest", "password": "pass1234"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// bendahara accounts are provisioned by an operator, not self-service
	if err := RegisterUser("bendahara.itest", "pass1234", validasi.RoleBendahara); err != nil && !isUniqueConstraintError(err) {
		t.Fatalf("provision bendahara: %v", err)
	}

	petugasToken := loginAs(t, r, "petugas.itest", "pass1234")
	bendaharaToken := loginAs(t, r, "bendahara.itest", "pass1234")

	// 2. Create a draft record; category defaults, status starts pending
	createBody, _ := json.Marshal(map[string]any{
		"kind":        "pendapatan",
		"amount":      150000,
		"description": "pendaftaran pasien baru",
	})
	resp = performRequest(r, http.MethodPost, "/transaksi", bytes.NewBuffer(createBody), petugasToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create transaksi failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var created map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	if created["status"] != "pending" {
		t.Fatalf("expected pending status, got %v", created["status"])
	}
	if created["category"] != validasi.DefaultCategory {
		t.Fatalf("expected default category, got %v", created["category"])
	}
	id := fmt.Sprintf("%.0f", created["id"].(float64))

	// 3. Creator sees the record in their list
	resp = performRequest(r, http.MethodGet, "/transaksi?status=pending", nil, petugasToken, "")
	if resp.Code != 200 {
		t.Fatalf("list transaksi failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 4. Creator may edit while pending
	patchBody, _ := json.Marshal(map[string]any{"amount": 175000})
	resp = performRequest(r, http.MethodPatch, "/transaksi/"+id, bytes.NewBuffer(patchBody), petugasToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("edit pending failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 5. Creator must not validate their own record
	decision, _ := json.Marshal(map[string]string{"decision": "disetujui"})
	resp = performRequest(r, http.MethodPost, "/transaksi/"+id+"/validate", bytes.NewBuffer(decision), petugasToken, "application/json")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for self/role-blocked validation got %d body=%s", resp.Code, resp.Body.String())
	}

	// 6. Bendahara approves
	resp = performRequest(r, http.MethodPost, "/transaksi/"+id+"/validate", bytes.NewBuffer(decision), bendaharaToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("validate failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var validated map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &validated)
	if validated["status"] != "disetujui" {
		t.Fatalf("expected disetujui got %v", validated["status"])
	}

	// 7. Second validation attempt conflicts
	resp = performRequest(r, http.MethodPost, "/transaksi/"+id+"/validate", bytes.NewBuffer(decision), bendaharaToken, "application/json")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double validation got %d body=%s", resp.Code, resp.Body.String())
	}

	// 8. Record is locked for edits and deletes
	resp = performRequest(r, http.MethodPatch, "/transaksi/"+id, bytes.NewBuffer(patchBody), petugasToken, "application/json")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 editing locked record got %d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodDelete, "/transaksi/"+id, nil, petugasToken, "")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting locked record got %d body=%s", resp.Code, resp.Body.String())
	}

	// 9. Creator received a notification about the decision
	resp = performRequest(r, http.MethodGet, "/notifications", nil, petugasToken, "")
	if resp.Code != 200 {
		t.Fatalf("notifications failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 10. Audit trail and recap are treasurer-side views
	resp = performRequest(r, http.MethodGet, "/audit?transaksi_id="+id, nil, bendaharaToken, "")
	if resp.Code != 200 {
		t.Fatalf("audit failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/rekap", nil, bendaharaToken, "")
	if resp.Code != 200 {
		t.Fatalf("rekap failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/rekap", nil, petugasToken, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 rekap for petugas got %d", resp.Code)
	}
	resp = performRequest(r, http.MethodGet, "/jaspel", nil, petugasToken, "")
	if resp.Code != 200 {
		t.Fatalf("jaspel failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 11. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/transaksi", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list got %d", unauth.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	initDB()
}
