package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/cache"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/observability"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/resilience"
	"github.com/coopvalles/cartera-castigada-api/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockAccounts struct {
	records []domain.AccountRecord
	err     error
	calls   int
}

func (m *mockAccounts) GetChargedOffAccounts(_ context.Context) ([]domain.AccountRecord, error) {
	m.calls++
	return m.records, m.err
}

type mockSummaries struct {
	rows []domain.BranchSummary
	err  error
}

func (m *mockSummaries) GetBranchSummaries(_ context.Context, _ domain.FilterConfig) ([]domain.BranchSummary, error) {
	return m.rows, m.err
}

type mockGestionStore struct {
	gestiones []domain.Gestion
	created   *domain.Gestion
	err       error
}

func (m *mockGestionStore) ListGestiones(_ context.Context, _ string) ([]domain.Gestion, error) {
	return m.gestiones, m.err
}

func (m *mockGestionStore) CreateGestion(_ context.Context, g *domain.Gestion) (*domain.Gestion, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = g
	return g, nil
}

type mockJudicialStore struct {
	processes []domain.JudicialProcess
	err       error
}

func (m *mockJudicialStore) ListJudicialProcesses(_ context.Context, _ string) ([]domain.JudicialProcess, error) {
	return m.processes, m.err
}

func newCarteraService(accounts *mockAccounts, summaries *mockSummaries, gestiones *mockGestionStore, judicial *mockJudicialStore) *service.Cartera {
	return service.NewCartera(
		accounts,
		summaries,
		gestiones,
		judicial,
		cache.New[[]domain.AccountRecord](5*time.Minute),
		resilience.NewBulkhead(1),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func testRecords() []domain.AccountRecord {
	return []domain.AccountRecord{
		{BranchCode: 1, BranchName: "Centro", NationalID: "111", BorrowerName: "Ana", OrdinaryDebt: 1000, ChargeOffDate: 1230110, RecoveryCategoryCode: 59},
		{BranchCode: 2, BranchName: "Norte", NationalID: "222", BorrowerName: "Luis", OrdinaryDebt: 500, ChargeOffDate: 1230520, RecoveryCategoryCode: 46},
		{BranchCode: 1, BranchName: "Centro", NationalID: "111", BorrowerName: "Ana", OrdinaryDebt: 250, ChargeOffDate: 1221201, RecoveryCategoryCode: 0},
	}
}

// --- Tests ---

func TestSnapshot_CachesAcrossCalls(t *testing.T) {
	accounts := &mockAccounts{records: testRecords()}
	svc := newCarteraService(accounts, &mockSummaries{}, &mockGestionStore{}, &mockJudicialStore{})

	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if accounts.calls != 1 {
		t.Errorf("expected a single core pull, got %d", accounts.calls)
	}
}

func TestPage_FiltersAndTotals(t *testing.T) {
	svc := newCarteraService(&mockAccounts{records: testRecords()}, &mockSummaries{}, &mockGestionStore{}, &mockJudicialStore{})

	cfg := domain.FilterConfig{
		DateOrder:        domain.OrderAsc,
		SelectedBranches: map[string]bool{"1 - Centro": true},
	}
	page, err := svc.Page(context.Background(), cfg, 1, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if page.TotalRecords != 2 {
		t.Fatalf("expected 2 records after branch filter, got %d", page.TotalRecords)
	}
	if page.TotalValue != 1250 {
		t.Errorf("expected total value 1250, got %f", page.TotalValue)
	}
	// Ascending date order: the 2022 record first.
	if page.Records[0].ChargeOffDateISO != "2022-12-01" {
		t.Errorf("expected oldest record first, got %q", page.Records[0].ChargeOffDateISO)
	}
	if page.Records[0].TotalDebt != 250 {
		t.Errorf("expected derived total debt 250, got %f", page.Records[0].TotalDebt)
	}
	if page.Records[0].RecoveryLabel != "CC - Irrecuperable" {
		t.Errorf("expected recovery label stamped, got %q", page.Records[0].RecoveryLabel)
	}
}

func TestPage_OutOfRangeIsEmpty(t *testing.T) {
	svc := newCarteraService(&mockAccounts{records: testRecords()}, &mockSummaries{}, &mockGestionStore{}, &mockJudicialStore{})

	page, err := svc.Page(context.Background(), domain.FilterConfig{DateOrder: domain.OrderAsc}, 99, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(page.Records) != 0 {
		t.Errorf("expected empty page past the end, got %d records", len(page.Records))
	}
	if page.TotalRecords != 3 {
		t.Errorf("expected totals to describe the full set, got %d", page.TotalRecords)
	}
}

func TestSnapshot_CoreError(t *testing.T) {
	svc := newCarteraService(&mockAccounts{err: errors.New("connection refused")}, &mockSummaries{}, &mockGestionStore{}, &mockJudicialStore{})

	if _, err := svc.Page(context.Background(), domain.FilterConfig{}, 1, 10); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestZoneSummary_FoldsBranches(t *testing.T) {
	summaries := &mockSummaries{rows: []domain.BranchSummary{
		{BranchCode: 1, TotalAccounts: 10, TotalDebt: 1000},  // norte
		{BranchCode: 2, TotalAccounts: 20, TotalDebt: 2000},  // centro
		{BranchCode: 6, TotalAccounts: 30, TotalDebt: 3000},  // sur
		{BranchCode: 99, TotalAccounts: 5, TotalDebt: 500},   // unassigned
	}}
	svc := newCarteraService(&mockAccounts{}, summaries, &mockGestionStore{}, &mockJudicialStore{})

	totals, err := svc.ZoneSummary(context.Background(), domain.FilterConfig{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if totals.North.Accounts != 10 || totals.Center.Accounts != 20 || totals.South.Accounts != 30 {
		t.Errorf("unexpected zone split: %+v", totals)
	}
	if totals.Total.Accounts != 65 {
		t.Errorf("expected unassigned branch in total, got %d", totals.Total.Accounts)
	}
}

func TestBranches_DistinctSorted(t *testing.T) {
	svc := newCarteraService(&mockAccounts{records: testRecords()}, &mockSummaries{}, &mockGestionStore{}, &mockJudicialStore{})

	branches, err := svc.Branches(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []string{"1 - Centro", "2 - Norte"}
	if len(branches) != len(want) {
		t.Fatalf("expected %v, got %v", want, branches)
	}
	for i := range want {
		if branches[i] != want[i] {
			t.Errorf("expected %v, got %v", want, branches)
			break
		}
	}
}

func TestDossier_AssemblesAllSources(t *testing.T) {
	gestiones := &mockGestionStore{gestiones: []domain.Gestion{{ID: "g-1", NationalID: "111", ActionType: "llamada"}}}
	judicial := &mockJudicialStore{processes: []domain.JudicialProcess{{ID: "j-1", NationalID: "111", Court: "Juzgado 4"}}}
	svc := newCarteraService(&mockAccounts{records: testRecords()}, &mockSummaries{}, gestiones, judicial)

	dossier, err := svc.Dossier(context.Background(), "111")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(dossier.Records) != 2 {
		t.Errorf("expected 2 records for associate, got %d", len(dossier.Records))
	}
	if len(dossier.Gestiones) != 1 || len(dossier.Judicial) != 1 {
		t.Errorf("expected gestion and judicial history, got %d/%d", len(dossier.Gestiones), len(dossier.Judicial))
	}
}

func TestDossier_UnknownAssociate(t *testing.T) {
	svc := newCarteraService(&mockAccounts{records: testRecords()}, &mockSummaries{}, &mockGestionStore{}, &mockJudicialStore{})

	_, err := svc.Dossier(context.Background(), "999")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExport_BuildsWorkbook(t *testing.T) {
	svc := newCarteraService(&mockAccounts{records: testRecords()}, &mockSummaries{}, &mockGestionStore{}, &mockJudicialStore{})

	f, err := svc.Export(context.Background(), domain.FilterConfig{DateOrder: domain.OrderAsc})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Cartera", "B2")
	if err != nil {
		t.Fatalf("failed to read cell: %v", err)
	}
	if got != "111" {
		t.Errorf("expected first national id in export, got %q", got)
	}
}
