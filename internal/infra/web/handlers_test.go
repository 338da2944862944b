//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/usecase"
)

type serverMocks struct {
	accounts    *mockAccountUC
	catalog     *mockCatalogUC
	purchases   *mockPurchaseUC
	fulfillment *mockFulfillmentUC
	stats       *mockStatsUC
}

func newTestServer(challenge string) (*Server, *serverMocks) {
	m := &serverMocks{
		accounts:    &mockAccountUC{},
		catalog:     &mockCatalogUC{},
		purchases:   &mockPurchaseUC{},
		fulfillment: &mockFulfillmentUC{},
		stats:       &mockStatsUC{},
	}
	auth := NewAuthManager("test-secret", false, "", time.Hour)
	srv := NewServer(m.accounts, m.catalog, m.purchases, m.fulfillment, m.stats, auth, challenge, newTestLogger())
	return srv, m
}

// sessionToken mints a token for the given user without going through login.
func sessionToken(t *testing.T, srv *Server, userID string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	tok, err := srv.auth.Mint(rec, userID)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestPaymentCallbackEndpoint(t *testing.T) {
	callbackBody := func(status, userID, vpnID, planID string) *bytes.Buffer {
		b, _ := json.Marshal(map[string]any{
			"status": status,
			"id":     "inv-1",
			"metadata": map[string]string{
				"user_id": userID,
				"vpn_id":  vpnID,
				"plan_id": planID,
			},
		})
		return bytes.NewBuffer(b)
	}

	t.Run("valid callback is accepted", func(t *testing.T) {
		srv, m := newTestServer("")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", callbackBody("COMPLETE", "user-1", "vpn-1", "plan-1"))
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
		}
		if len(m.purchases.callbacks) != 1 {
			t.Fatalf("callbacks forwarded = %d, want 1", len(m.purchases.callbacks))
		}
		cb := m.purchases.callbacks[0]
		if cb.Status != "COMPLETE" || cb.PaymentID != "inv-1" || cb.Metadata.PlanID != "plan-1" {
			t.Errorf("forwarded callback = %+v", cb)
		}
	})

	t.Run("no session is required", func(t *testing.T) {
		srv, _ := newTestServer("")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", callbackBody("FAILED", "u", "v", "p"))
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 without any auth", rec.Code)
		}
	})

	t.Run("incomplete metadata yields 400", func(t *testing.T) {
		srv, m := newTestServer("")
		m.purchases.HandleCallbackFunc = func(ctx context.Context, cb usecase.PaymentCallback) error {
			return fmt.Errorf("%w: incomplete callback metadata", domain.ErrInvalidArgument)
		}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", callbackBody("COMPLETE", "user-1", "", "plan-1"))
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("wrong signature is rejected when a challenge is configured", func(t *testing.T) {
		srv, m := newTestServer("shared-secret")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", callbackBody("COMPLETE", "u", "v", "p"))
		req.Header.Set("X-Payment-Signature", "wrong")
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
		if len(m.purchases.callbacks) != 0 {
			t.Error("callback must not reach the use case on bad signature")
		}
	})

	t.Run("matching signature passes", func(t *testing.T) {
		srv, _ := newTestServer("shared-secret")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", callbackBody("COMPLETE", "u", "v", "p"))
		req.Header.Set("X-Payment-Signature", "shared-secret")
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestAdminGuard(t *testing.T) {
	t.Run("no session yields 401", func(t *testing.T) {
		srv, _ := newTestServer("")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("non-admin session yields 403", func(t *testing.T) {
		srv, m := newTestServer("")
		m.accounts.IsAdminFunc = func(ctx context.Context, userID string) (bool, error) { return false, nil }
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, srv, "user-1"))
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("admin session passes", func(t *testing.T) {
		srv, m := newTestServer("")
		m.accounts.IsAdminFunc = func(ctx context.Context, userID string) (bool, error) { return userID == "admin-1", nil }
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, srv, "admin-1"))
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestAttachConfigEndpoint(t *testing.T) {
	srv, m := newTestServer("")
	m.accounts.IsAdminFunc = func(ctx context.Context, userID string) (bool, error) { return true, nil }

	var gotPurchaseID, gotFilename string
	var gotData []byte
	m.fulfillment.AttachConfigFunc = func(ctx context.Context, purchaseID, filename string, data []byte) (*model.Purchase, error) {
		gotPurchaseID, gotFilename, gotData = purchaseID, filename, data
		url := "https://store.example/configs/" + purchaseID
		return &model.Purchase{ID: purchaseID, ConfigFileURL: &url}, nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("config", "client.ovpn")
	_, _ = fw.Write([]byte("remote vpn.example 1194"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/purchases/p-1/config", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, srv, "admin-1"))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if gotPurchaseID != "p-1" || gotFilename != "client.ovpn" {
		t.Errorf("forwarded id=%s filename=%s", gotPurchaseID, gotFilename)
	}
	if !strings.Contains(string(gotData), "remote vpn.example") {
		t.Error("file bytes not forwarded")
	}
}

func TestMyPurchasesGatesDownloadURL(t *testing.T) {
	srv, m := newTestServer("")
	url := "https://store.example/configs/p-live_client.ovpn"
	staleURL := "https://store.example/configs/p-stale_client.ovpn"
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	m.purchases.ListForUserFunc = func(ctx context.Context, userID string) ([]*model.Purchase, error) {
		return []*model.Purchase{
			{ID: "p-live", Status: model.PurchaseStatusActive, ConfigFileURL: &url, ExpiresAt: &future},
			{ID: "p-stale", Status: model.PurchaseStatusActive, ConfigFileURL: &staleURL, ExpiresAt: &past},
			{ID: "p-wait", Status: model.PurchaseStatusPending, ExpiresAt: &future},
		}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/purchases", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, srv, "user-1"))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data []struct {
			ID            string  `json:"id"`
			Entitled      bool    `json:"entitled"`
			ConfigFileURL *string `json:"config_file_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 3 {
		t.Fatalf("rows = %d, want 3", len(resp.Data))
	}
	for _, row := range resp.Data {
		switch row.ID {
		case "p-live":
			if !row.Entitled || row.ConfigFileURL == nil {
				t.Error("entitled purchase must expose its download URL")
			}
		case "p-stale", "p-wait":
			if row.Entitled || row.ConfigFileURL != nil {
				t.Errorf("%s must not expose a download URL", row.ID)
			}
		}
	}
}

func TestProfileResponsesOmitPasswordHash(t *testing.T) {
	hash := "$2a$10$N9qo8uLOickgx2ZMRZoMye"
	profile := func(id string) *model.Profile {
		return &model.Profile{ID: id, Email: "alice@example.com", Username: "alice", PasswordHash: hash}
	}
	assertNoHash := func(t *testing.T, body string) {
		t.Helper()
		if strings.Contains(body, hash) || strings.Contains(body, "PasswordHash") {
			t.Errorf("response leaks the password hash: %s", body)
		}
		if !strings.Contains(body, `"email"`) {
			t.Errorf("response missing snake_case email field: %s", body)
		}
	}

	t.Run("register", func(t *testing.T) {
		srv, m := newTestServer("")
		m.accounts.RegisterFunc = func(ctx context.Context, email, password, username, hwid string) (*model.Profile, error) {
			return profile("user-1"), nil
		}
		body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "s3cret-pass"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewBuffer(body))
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
		}
		assertNoHash(t, rec.Body.String())
	})

	t.Run("me", func(t *testing.T) {
		srv, m := newTestServer("")
		m.accounts.GetFunc = func(ctx context.Context, id string) (*model.Profile, error) {
			return profile(id), nil
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, srv, "user-1"))
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
		}
		assertNoHash(t, rec.Body.String())
	})

	t.Run("admin account list", func(t *testing.T) {
		srv, m := newTestServer("")
		m.accounts.IsAdminFunc = func(ctx context.Context, userID string) (bool, error) { return true, nil }
		m.accounts.ListFunc = func(ctx context.Context) ([]*model.Profile, error) {
			return []*model.Profile{profile("user-1"), profile("user-2")}, nil
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, srv, "admin-1"))
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
		}
		assertNoHash(t, rec.Body.String())
	})
}

func TestCatalogResponsesUseSnakeCase(t *testing.T) {
	srv, m := newTestServer("")
	m.catalog.ProductFunc = func(ctx context.Context, id string) (*model.VPNProduct, error) {
		return &model.VPNProduct{
			ID: id, Name: "HTTP Custom", ImageURL: "https://cdn.example/hc.png", IsAvailable: true,
		}, nil
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/vpn-1", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, key := range []string{`"image_url"`, `"is_available"`, `"created_at"`} {
		if !strings.Contains(body, key) {
			t.Errorf("response missing %s: %s", key, body)
		}
	}
	for _, key := range []string{"ImageURL", "IsAvailable"} {
		if strings.Contains(body, key) {
			t.Errorf("response carries Go-cased field %s: %s", key, body)
		}
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	srv, _ := newTestServer("")
	body, _ := json.Marshal(map[string]string{"email": "user@example.com", "password": "s3cret-pass"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == "vpn_session" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected vpn_session cookie to be set")
	}
}
