package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"bread-calculator/internal/client"
	"bread-calculator/internal/config"
	"bread-calculator/internal/metrics"
	"bread-calculator/internal/server"
	"bread-calculator/internal/smoke"
	"bread-calculator/internal/storage"

	"go.uber.org/zap"
)

func SetupServer(t *testing.T) http.Handler {
	t.Helper()

	st, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to create in-memory db: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Config{TokenTTL: 30 * time.Minute, ShutdownTimeout: time.Second}
	return server.New(cfg, st, []byte("integration-secret"), zap.NewNop(), metrics.New()).Handler()
}

func do(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, handler http.Handler, username string) string {
	t.Helper()

	payload := `{"username":"` + username + `","email":"` + username + `@example.com","password":"pass123"}`
	if w := do(t, handler, http.MethodPost, "/users/register", "", payload); w.Code != http.StatusCreated {
		t.Fatalf("register %s failed: status %d: %s", username, w.Code, w.Body.String())
	}

	w := do(t, handler, http.MethodPost, "/users/login", "", `{"username":"`+username+`","password":"pass123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s failed: status %d", username, w.Code)
	}
	var loginResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(w.Body).Decode(&loginResp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if loginResp.AccessToken == "" || loginResp.TokenType != "bearer" {
		t.Fatalf("unexpected login response: %+v", loginResp)
	}
	return loginResp.AccessToken
}

func TestIntegration_FullFlow(t *testing.T) {
	handler := SetupServer(t)
	token := registerAndLogin(t, handler, "user1")

	w := do(t, handler, http.MethodPost, "/calculations", token, `{"a":2,"b":3,"type":"multiply"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: status %d", w.Code)
	}
	var calc struct {
		ID     int64   `json:"id"`
		Result float64 `json:"result"`
	}
	if err := json.NewDecoder(w.Body).Decode(&calc); err != nil {
		t.Fatalf("failed to decode calculation: %v", err)
	}
	if calc.Result != 6 {
		t.Fatalf("expected result 6, got %v", calc.Result)
	}

	w = do(t, handler, http.MethodGet, "/calculations", token, "")
	var list []json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil || len(list) != 1 {
		t.Fatalf("expected one calculation, got %d (%v)", len(list), err)
	}
}

func TestIntegration_CalculationsArePerUser(t *testing.T) {
	handler := SetupServer(t)
	alice := registerAndLogin(t, handler, "alice")
	bob := registerAndLogin(t, handler, "bob")

	w := do(t, handler, http.MethodPost, "/calculations", alice, `{"a":1,"b":1,"type":"add"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: status %d", w.Code)
	}
	var calc struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&calc); err != nil {
		t.Fatalf("failed to decode calculation: %v", err)
	}

	path := "/calculations/" + strconv.FormatInt(calc.ID, 10)
	if w := do(t, handler, http.MethodGet, path, bob, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's calculation, got %d", w.Code)
	}
	if w := do(t, handler, http.MethodDelete, path, bob, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting another user's calculation, got %d", w.Code)
	}
	if w := do(t, handler, http.MethodGet, path, alice, ""); w.Code != http.StatusOK {
		t.Fatalf("owner lost access: status %d", w.Code)
	}
}

func TestIntegration_UnauthorizedCalculate(t *testing.T) {
	handler := SetupServer(t)

	w := do(t, handler, http.MethodPost, "/calculations", "", `{"a":2,"b":2,"type":"add"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without credentials, got %d", w.Code)
	}
}

func TestIntegration_InvalidLogin(t *testing.T) {
	handler := SetupServer(t)

	w := do(t, handler, http.MethodPost, "/users/login", "", `{"username":"nonexistent","password":"pass"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized for invalid login, got %d", w.Code)
	}
}

func TestIntegration_InvalidRegister(t *testing.T) {
	handler := SetupServer(t)

	w := do(t, handler, http.MethodPost, "/users/register", "", `{"username":"","email":"x@example.com","password":"pass123"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty username, got %d", w.Code)
	}
}

func TestIntegration_SmokeSequence(t *testing.T) {
	ts := httptest.NewServer(SetupServer(t))
	defer ts.Close()

	var out bytes.Buffer
	report, err := smoke.NewRunner(client.New(ts.URL), &out, smoke.DefaultCredentials()).Run(context.Background())
	if err != nil {
		t.Fatalf("smoke run failed: %v\n%s", err, out.String())
	}
	if !report.Passed() || len(report.Results) != 14 {
		t.Fatalf("expected 14 passing steps, got %d", len(report.Results))
	}
}
