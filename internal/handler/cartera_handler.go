package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
	"github.com/coopvalles/cartera-castigada-api/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Cartera — portfolio queries and export
// ============================================================

func carteraPageHandler(svc *service.Cartera, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cartera")
		defer span.End()

		cfg := domain.ParseFilterConfig(r.URL.Query())
		page, pageSize := parsePagination(r)
		span.SetAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		)

		result, err := svc.Page(ctx, cfg, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func carteraAllHandler(svc *service.Cartera, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cartera/all")
		defer span.End()

		cfg := domain.ParseFilterConfig(r.URL.Query())
		result, err := svc.All(ctx, cfg)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func carteraExportHandler(svc *service.Cartera, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cartera/export")
		defer span.End()

		cfg := domain.ParseFilterConfig(r.URL.Query())
		f, err := svc.Export(ctx, cfg)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		defer f.Close()

		filename := fmt.Sprintf("cartera_castigada_%s.xlsx", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

		if err := f.Write(w); err != nil {
			// Headers are already out; all we can do is log.
			logger.Error("failed to stream export workbook", zap.Error(err))
		}
	}
}

// ============================================================
// Summaries
// ============================================================

func recoverySummaryHandler(svc *service.Cartera, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cartera/summary/recovery")
		defer span.End()

		rows, err := svc.RecoverySummary(ctx, domain.ParseFilterConfig(r.URL.Query()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
	}
}

func creditTypeSummaryHandler(svc *service.Cartera, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cartera/summary/credit-types")
		defer span.End()

		rows, err := svc.CreditTypeSummary(ctx, domain.ParseFilterConfig(r.URL.Query()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
	}
}

func zoneSummaryHandler(svc *service.Cartera, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cartera/summary/zones")
		defer span.End()

		totals, err := svc.ZoneSummary(ctx, domain.ParseFilterConfig(r.URL.Query()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, totals)
	}
}

func branchSummaryHandler(svc *service.Cartera, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cartera/summary/branches")
		defer span.End()

		rows, err := svc.BranchSummaries(ctx, domain.ParseFilterConfig(r.URL.Query()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
	}
}

func branchListHandler(svc *service.Cartera, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/branches")
		defer span.End()

		branches, err := svc.Branches(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"branches": branches})
	}
}
