package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
	"github.com/coopvalles/cartera-castigada-api/internal/handler"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/cache"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/client"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/observability"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/resilience"
	"github.com/coopvalles/cartera-castigada-api/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// newMockCore serves the core banking API surface the module talks to:
// paged accounts, gestiones, judicial processes and staff credentials.
func newMockCore(t *testing.T, passwordHash string) *httptest.Server {
	t.Helper()

	page1 := []domain.AccountRecord{
		{BranchCode: 1, BranchName: "Centro", NationalID: "111", BorrowerName: "Ana Pérez", OrdinaryDebt: 1200, ChargeOffDate: 1230110},
		{BranchCode: 2, BranchName: "Norte", NationalID: "222", BorrowerName: "Luis Gómez", OrdinaryDebt: 800, ChargeOffDate: 1230520},
	}
	page2 := []domain.AccountRecord{
		{BranchCode: 1, BranchName: "Centro", NationalID: "111", BorrowerName: "Ana Pérez", OrdinaryDebt: 300, SpecialDebt: 50, ChargeOffDate: 1221215},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/v1/castigada/accounts"):
			if r.URL.Query().Get("page") == "1" {
				json.NewEncoder(w).Encode(map[string]any{"records": page1, "has_more": true})
			} else {
				json.NewEncoder(w).Encode(map[string]any{"records": page2, "has_more": false})
			}
		case strings.HasPrefix(r.URL.Path, "/api/v1/castigada/gestiones"):
			if r.Method == http.MethodPost {
				var g domain.Gestion
				json.NewDecoder(r.Body).Decode(&g)
				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(g)
				return
			}
			json.NewEncoder(w).Encode([]domain.Gestion{
				{ID: "g-1", NationalID: "111", ActionType: "llamada", Note: "sin respuesta", StaffUser: "mrojas", CreatedAt: time.Now()},
			})
		case strings.HasPrefix(r.URL.Path, "/api/v1/castigada/judicial"):
			json.NewEncoder(w).Encode([]domain.JudicialProcess{
				{ID: "j-1", NationalID: "111", Court: "Juzgado Civil 4", CaseNumber: "2023-0114", Stage: "embargo"},
			})
		case strings.HasPrefix(r.URL.Path, "/api/v1/staff/credentials"):
			if r.URL.Query().Get("username") != "mrojas" {
				w.Write([]byte("[]"))
				return
			}
			json.NewEncoder(w).Encode([]domain.StaffCredential{
				{Username: "mrojas", PasswordHash: passwordHash, DisplayName: "María Rojas", Role: "cobranzas"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func buildRouter(t *testing.T, coreURL string) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 4}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	core := client.NewCore(httpClient, coreURL, "test-key", cb, cfg, logger)
	accounts := client.NewAccounts(core, 2)
	gestiones := client.NewGestiones(core)

	carteraSvc := service.NewCartera(
		accounts,
		accounts,
		gestiones,
		gestiones,
		cache.New[[]domain.AccountRecord](5*time.Minute),
		resilience.NewBulkhead(2),
		metrics,
		logger,
	)
	gestionSvc := service.NewGestionService(gestiones, cache.New[[]domain.Gestion](5*time.Minute), metrics, logger)
	authSvc := service.NewAuthService(
		gestiones,
		cache.New[domain.RefreshSession](time.Hour),
		"integration-secret",
		15*time.Minute,
		time.Hour,
		logger,
	)

	return handler.NewRouter(carteraSvc, gestionSvc, authSvc, metrics, logger)
}

func signIn(t *testing.T, router http.Handler) string {
	t.Helper()

	body, _ := json.Marshal(domain.LoginRequest{Username: "mrojas", Password: "cobranzas2023"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return resp.AccessToken
}

// TestIntegration_FullFlow exercises the complete path: sign-in against the
// mock core, paged snapshot pull, local filter/sort/paginate of the
// portfolio, and the associate dossier assembly.
func TestIntegration_FullFlow(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("cobranzas2023"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	coreServer := newMockCore(t, string(hash))
	defer coreServer.Close()

	router := buildRouter(t, coreServer.URL)
	token := signIn(t, router)

	// --- Portfolio page, newest charge-off first ---
	req := httptest.NewRequest(http.MethodGet, "/v1/cartera?date_order=desc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var page domain.CarteraPage
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("failed to decode page: %v", err)
	}
	if page.TotalRecords != 3 {
		t.Errorf("expected 3 records across both core pages, got %d", page.TotalRecords)
	}
	if page.Records[0].NationalID != "222" {
		t.Errorf("expected newest charge-off first, got %q", page.Records[0].NationalID)
	}
	if page.TotalValue != 2350 {
		t.Errorf("expected total value 2350, got %v", page.TotalValue)
	}

	// --- Associate dossier ---
	req = httptest.NewRequest(http.MethodGet, "/v1/associates/111", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("dossier failed with %d: %s", rec.Code, rec.Body.String())
	}
	var dossier domain.AssociateDossier
	if err := json.NewDecoder(rec.Body).Decode(&dossier); err != nil {
		t.Fatalf("failed to decode dossier: %v", err)
	}
	if len(dossier.Records) != 2 {
		t.Errorf("expected 2 charged-off records for associate 111, got %d", len(dossier.Records))
	}
	if len(dossier.Gestiones) != 1 || dossier.Gestiones[0].ActionType != "llamada" {
		t.Errorf("unexpected gestiones: %+v", dossier.Gestiones)
	}
	if len(dossier.Judicial) != 1 || dossier.Judicial[0].Stage != "embargo" {
		t.Errorf("unexpected judicial processes: %+v", dossier.Judicial)
	}

	// --- Record a gestion ---
	body, _ := json.Marshal(domain.GestionRequest{ActionType: "acuerdo_pago", Note: "cuotas mensuales"})
	req = httptest.NewRequest(http.MethodPost, "/v1/associates/111/gestiones", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.Gestion
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode created gestion: %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated gestion id")
	}
	if created.StaffUser != "mrojas" {
		t.Errorf("expected staff user from token, got %q", created.StaffUser)
	}
}

// TestIntegration_CoreSessionExpired verifies a 401 from the core surfaces
// as a 401 with the session_expired marker instead of a retried 500.
func TestIntegration_CoreSessionExpired(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("cobranzas2023"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	var accountCalls int
	coreServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/v1/staff/credentials") {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]domain.StaffCredential{
				{Username: "mrojas", PasswordHash: string(hash), DisplayName: "María Rojas", Role: "cobranzas"},
			})
			return
		}
		accountCalls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer coreServer.Close()

	router := buildRouter(t, coreServer.URL)
	token := signIn(t, router)

	req := httptest.NewRequest(http.MethodGet, "/v1/cartera", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp struct {
		SessionExpired bool `json:"session_expired"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.SessionExpired {
		t.Error("expected session_expired marker in body")
	}
	if accountCalls != 1 {
		t.Errorf("expected a single core call with no retries, got %d", accountCalls)
	}
}

// TestIntegration_CoreDown verifies a failing core surfaces as a 500 after
// retries instead of hanging or leaking a partial snapshot.
func TestIntegration_CoreDown(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("cobranzas2023"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	coreServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/v1/staff/credentials") {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]domain.StaffCredential{
				{Username: "mrojas", PasswordHash: string(hash), DisplayName: "María Rojas", Role: "cobranzas"},
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer coreServer.Close()

	router := buildRouter(t, coreServer.URL)
	token := signIn(t, router)

	req := httptest.NewRequest(http.MethodGet, "/v1/cartera", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for failing core, got %d", rec.Code)
	}
}
