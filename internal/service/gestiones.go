package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/observability"
	"github.com/coopvalles/cartera-castigada-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// GestionService validates and proxies collection actions to the core.
type GestionService struct {
	store   port.GestionStore
	cache   port.Cache[[]domain.Gestion]
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewGestionService creates the gestion service.
func NewGestionService(store port.GestionStore, cache port.Cache[[]domain.Gestion], metrics *observability.Metrics, logger *zap.Logger) *GestionService {
	return &GestionService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns the collection history for one associate, newest first.
func (s *GestionService) List(ctx context.Context, nationalID string) ([]domain.Gestion, error) {
	ctx, span := tracer.Start(ctx, "Gestiones.List")
	defer span.End()
	span.SetAttributes(attribute.String("associate.national_id", nationalID))

	cacheKey := fmt.Sprintf("gestiones:%s", nationalID)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("gestiones")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("gestiones")

	rows, err := s.store.ListGestiones(ctx, nationalID)
	if err != nil {
		s.metrics.IncrExternalError("core")
		return nil, fmt.Errorf("gestiones fetch: %w", err)
	}

	s.cache.Set(cacheKey, rows)
	return rows, nil
}

// Record validates and stores a new gestion for an associate. The staff
// username comes from the authenticated token, never from the payload.
func (s *GestionService) Record(ctx context.Context, nationalID, staffUser string, req *domain.GestionRequest) (*domain.Gestion, error) {
	ctx, span := tracer.Start(ctx, "Gestiones.Record")
	defer span.End()
	span.SetAttributes(
		attribute.String("associate.national_id", nationalID),
		attribute.String("gestion.action_type", req.ActionType),
	)

	if nationalID == "" {
		return nil, &domain.ErrValidation{Field: "national_id", Message: "is required"}
	}
	if !domain.GestionActionTypes[req.ActionType] {
		return nil, &domain.ErrValidation{Field: "action_type", Message: fmt.Sprintf("unknown action type %q", req.ActionType)}
	}
	note := strings.TrimSpace(req.Note)
	if note == "" {
		return nil, &domain.ErrValidation{Field: "note", Message: "is required"}
	}

	gestion := &domain.Gestion{
		ID:         uuid.NewString(),
		NationalID: nationalID,
		ActionType: req.ActionType,
		Note:       note,
		StaffUser:  staffUser,
		CreatedAt:  s.now(),
	}

	created, err := s.store.CreateGestion(ctx, gestion)
	if err != nil {
		s.metrics.IncrExternalError("core")
		s.logger.Error("failed to record gestion",
			zap.String("national_id", nationalID),
			zap.String("action_type", req.ActionType),
			zap.Error(err),
		)
		return nil, fmt.Errorf("gestion create: %w", err)
	}

	// The cached history for every associate may now be stale; the cache
	// is small and short-lived, so a full flush is fine.
	s.cache.Flush()

	s.logger.Info("gestion recorded",
		zap.String("national_id", nationalID),
		zap.String("action_type", created.ActionType),
		zap.String("staff_user", staffUser),
	)
	return created, nil
}
