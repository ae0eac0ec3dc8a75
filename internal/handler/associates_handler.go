package handler

import (
	"encoding/json"
	"net/http"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
	"github.com/coopvalles/cartera-castigada-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Associates — dossier, gestiones, judicial
// ============================================================

func associateDossierHandler(svc *service.Cartera, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/associates/{nationalId}")
		defer span.End()

		nationalID := chi.URLParam(r, "nationalId")
		if nationalID == "" {
			writeError(w, http.StatusBadRequest, "national_id is required")
			return
		}
		span.SetAttributes(attribute.String("associate.national_id", nationalID))

		dossier, err := svc.Dossier(ctx, nationalID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dossier)
	}
}

func listGestionesHandler(svc *service.GestionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/associates/{nationalId}/gestiones")
		defer span.End()

		nationalID := chi.URLParam(r, "nationalId")
		gestiones, err := svc.List(ctx, nationalID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"gestiones": gestiones})
	}
}

func createGestionHandler(svc *service.GestionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/associates/{nationalId}/gestiones")
		defer span.End()

		nationalID := chi.URLParam(r, "nationalId")
		staffUser := StaffUserFromContext(ctx)

		var req domain.GestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.Record(ctx, nationalID, staffUser, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func judicialHandler(svc *service.Cartera, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/associates/{nationalId}/judicial")
		defer span.End()

		nationalID := chi.URLParam(r, "nationalId")
		processes, err := svc.Judicial(ctx, nationalID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"judicial": processes})
	}
}
