// Package service implements the business operations behind the dashboard:
// portfolio queries, aggregations, exports, gestiones and staff auth.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
	"github.com/coopvalles/cartera-castigada-api/internal/engine"
	"github.com/coopvalles/cartera-castigada-api/internal/export"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/observability"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/resilience"
	"github.com/coopvalles/cartera-castigada-api/internal/port"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/cartera")

const snapshotKey = "cartera:snapshot"

// Cartera serves the charged-off portfolio: snapshot management, filtered
// queries, aggregations, the associate drill-in and the XLSX export.
type Cartera struct {
	accounts  port.AccountsFetcher
	summaries port.SummaryFetcher
	gestiones port.GestionStore
	judicial  port.JudicialStore
	snapshot  port.Cache[[]domain.AccountRecord]
	exportsBH *resilience.Bulkhead
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewCartera creates the portfolio service with all dependencies injected.
func NewCartera(
	accounts port.AccountsFetcher,
	summaries port.SummaryFetcher,
	gestiones port.GestionStore,
	judicial port.JudicialStore,
	snapshot port.Cache[[]domain.AccountRecord],
	exportsBH *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Cartera {
	return &Cartera{
		accounts:  accounts,
		summaries: summaries,
		gestiones: gestiones,
		judicial:  judicial,
		snapshot:  snapshot,
		exportsBH: exportsBH,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Snapshot returns the charged-off portfolio, pulling it from the core
// system on cache miss. Records are treated as immutable once cached.
func (s *Cartera) Snapshot(ctx context.Context) ([]domain.AccountRecord, error) {
	ctx, span := tracer.Start(ctx, "Cartera.Snapshot")
	defer span.End()

	if cached, ok := s.snapshot.Get(snapshotKey); ok {
		s.metrics.IncrCacheHit("snapshot")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("snapshot")

	start := time.Now()
	records, err := s.accounts.GetChargedOffAccounts(ctx)
	s.metrics.RecordRequestDuration("snapshot_pull", time.Since(start))
	if err != nil {
		s.metrics.IncrExternalError("core")
		s.logger.Error("failed to pull portfolio snapshot", zap.Error(err))
		return nil, fmt.Errorf("snapshot pull: %w", err)
	}

	s.snapshot.Set(snapshotKey, records)
	s.logger.Info("portfolio snapshot refreshed", zap.Int("records", len(records)))
	span.SetAttributes(attribute.Int("records.count", len(records)))
	return records, nil
}

// Query applies the filter state and ordering to the snapshot.
func (s *Cartera) Query(ctx context.Context, cfg domain.FilterConfig) ([]domain.AccountRecord, error) {
	ctx, span := tracer.Start(ctx, "Cartera.Query")
	defer span.End()

	records, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	filtered := engine.Sort(engine.Filter(records, cfg), cfg)
	s.metrics.RecordRowsReturned("query", len(filtered))
	span.SetAttributes(
		attribute.Int("records.total", len(records)),
		attribute.Int("records.filtered", len(filtered)),
	)
	return filtered, nil
}

// Page returns one page of the filtered portfolio, with derived display
// fields stamped against the current clock.
func (s *Cartera) Page(ctx context.Context, cfg domain.FilterConfig, page, pageSize int) (*domain.CarteraPage, error) {
	ctx, span := tracer.Start(ctx, "Cartera.Page")
	defer span.End()

	filtered, err := s.Query(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var totalValue float64
	for i := range filtered {
		totalValue += filtered[i].TotalValue()
	}

	return &domain.CarteraPage{
		Records:      s.buildViews(engine.Paginate(filtered, page, pageSize)),
		Page:         page,
		PageSize:     pageSize,
		TotalRecords: len(filtered),
		TotalValue:   totalValue,
	}, nil
}

// All returns every filtered row in one response. The frontend uses this
// for the print view; pagination metadata still describes the full set.
func (s *Cartera) All(ctx context.Context, cfg domain.FilterConfig) (*domain.CarteraPage, error) {
	ctx, span := tracer.Start(ctx, "Cartera.All")
	defer span.End()

	filtered, err := s.Query(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var totalValue float64
	for i := range filtered {
		totalValue += filtered[i].TotalValue()
	}

	return &domain.CarteraPage{
		Records:      s.buildViews(filtered),
		Page:         1,
		PageSize:     len(filtered),
		TotalRecords: len(filtered),
		TotalValue:   totalValue,
	}, nil
}

// buildViews stamps derived display fields onto raw records. Freshness is
// always recomputed against now, never stored.
func (s *Cartera) buildViews(records []domain.AccountRecord) []domain.AccountView {
	now := s.now()
	views := make([]domain.AccountView, 0, len(records))
	for i := range records {
		r := records[i]
		view := domain.AccountView{
			AccountRecord: r,
			TotalDebt:     r.TotalValue(),
			RecoveryLabel: domain.RecoveryLabel(r.RecoveryCategoryCode),
		}
		if t, ok := r.ChargeOffTime(); ok {
			view.ChargeOffDateISO = t.Format("2006-01-02")
		}
		insertion, _ := r.InsertionTime()
		view.Freshness = engine.AgeStatus(insertion, now)
		views = append(views, view)
	}
	return views
}

// RecoverySummary aggregates the filtered portfolio by recovery category.
func (s *Cartera) RecoverySummary(ctx context.Context, cfg domain.FilterConfig) ([]domain.AggregateRow, error) {
	ctx, span := tracer.Start(ctx, "Cartera.RecoverySummary")
	defer span.End()

	filtered, err := s.Query(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return engine.AggregateByRecovery(filtered), nil
}

// CreditTypeSummary aggregates the filtered portfolio by credit line.
func (s *Cartera) CreditTypeSummary(ctx context.Context, cfg domain.FilterConfig) ([]domain.AggregateRow, error) {
	ctx, span := tracer.Start(ctx, "Cartera.CreditTypeSummary")
	defer span.End()

	filtered, err := s.Query(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return engine.AggregateByCreditType(filtered), nil
}

// BranchSummaries returns the core's pre-aggregated per-branch rows scoped
// to the active filter state.
func (s *Cartera) BranchSummaries(ctx context.Context, cfg domain.FilterConfig) ([]domain.BranchSummary, error) {
	ctx, span := tracer.Start(ctx, "Cartera.BranchSummaries")
	defer span.End()

	rows, err := s.summaries.GetBranchSummaries(ctx, cfg)
	if err != nil {
		s.metrics.IncrExternalError("core")
		return nil, fmt.Errorf("branch summaries fetch: %w", err)
	}
	return rows, nil
}

// ZoneSummary folds the per-branch rows into the legal department's
// three-zone view.
func (s *Cartera) ZoneSummary(ctx context.Context, cfg domain.FilterConfig) (*domain.ZoneTotals, error) {
	ctx, span := tracer.Start(ctx, "Cartera.ZoneSummary")
	defer span.End()

	rows, err := s.BranchSummaries(ctx, cfg)
	if err != nil {
		return nil, err
	}
	totals := engine.AggregateZones(rows)
	return &totals, nil
}

// Branches lists the distinct branch display keys present in the snapshot,
// sorted for a stable filter dropdown.
func (s *Cartera) Branches(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Cartera.Branches")
	defer span.End()

	records, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var keys []string
	for i := range records {
		key := records[i].DisplayKey()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Dossier assembles the associate drill-in: the borrower's charged-off
// records plus collection and judicial history, fetched concurrently.
func (s *Cartera) Dossier(ctx context.Context, nationalID string) (*domain.AssociateDossier, error) {
	ctx, span := tracer.Start(ctx, "Cartera.Dossier")
	defer span.End()
	span.SetAttributes(attribute.String("associate.national_id", nationalID))

	var (
		records   []domain.AccountRecord
		gestiones []domain.Gestion
		judicial  []domain.JudicialProcess
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snapshot, err := s.Snapshot(gCtx)
		if err != nil {
			return err
		}
		for i := range snapshot {
			if snapshot[i].NationalID == nationalID {
				records = append(records, snapshot[i])
			}
		}
		return nil
	})

	g.Go(func() error {
		rows, err := s.gestiones.ListGestiones(gCtx, nationalID)
		if err != nil {
			s.metrics.IncrExternalError("core")
			return fmt.Errorf("gestiones fetch: %w", err)
		}
		gestiones = rows
		return nil
	})

	g.Go(func() error {
		rows, err := s.judicial.ListJudicialProcesses(gCtx, nationalID)
		if err != nil {
			s.metrics.IncrExternalError("core")
			return fmt.Errorf("judicial fetch: %w", err)
		}
		judicial = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, &domain.ErrNotFound{Resource: "associate", ID: nationalID}
	}

	return &domain.AssociateDossier{
		NationalID: nationalID,
		Records:    records,
		Gestiones:  gestiones,
		Judicial:   judicial,
	}, nil
}

// Judicial returns the judicial proceedings for one associate.
func (s *Cartera) Judicial(ctx context.Context, nationalID string) ([]domain.JudicialProcess, error) {
	ctx, span := tracer.Start(ctx, "Cartera.Judicial")
	defer span.End()
	span.SetAttributes(attribute.String("associate.national_id", nationalID))

	rows, err := s.judicial.ListJudicialProcesses(ctx, nationalID)
	if err != nil {
		s.metrics.IncrExternalError("core")
		return nil, fmt.Errorf("judicial fetch: %w", err)
	}
	return rows, nil
}

// Export builds the XLSX report for the filtered portfolio. Workbook
// generation is memory-heavy, so concurrent exports share a bulkhead.
func (s *Cartera) Export(ctx context.Context, cfg domain.FilterConfig) (*excelize.File, error) {
	ctx, span := tracer.Start(ctx, "Cartera.Export")
	defer span.End()

	if err := s.exportsBH.Acquire(ctx); err != nil {
		s.metrics.IncrExport("rejected")
		return nil, &domain.ErrTimeout{Operation: "export"}
	}
	defer s.exportsBH.Release()

	filtered, err := s.Query(ctx, cfg)
	if err != nil {
		s.metrics.IncrExport("error")
		return nil, err
	}

	start := time.Now()
	f, err := export.BuildWorkbook(
		filtered,
		engine.AggregateByRecovery(filtered),
		engine.AggregateByCreditType(filtered),
		s.now(),
	)
	s.metrics.RecordRequestDuration("export", time.Since(start))
	if err != nil {
		s.metrics.IncrExport("error")
		s.logger.Error("failed to build export workbook", zap.Error(err))
		return nil, fmt.Errorf("export build: %w", err)
	}

	s.metrics.IncrExport("success")
	s.logger.Info("export workbook built",
		zap.Int("records", len(filtered)),
	)
	return f, nil
}
