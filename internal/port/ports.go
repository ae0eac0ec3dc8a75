// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
)

// AccountsFetcher retrieves the charged-off portfolio from the core system.
type AccountsFetcher interface {
	GetChargedOffAccounts(ctx context.Context) ([]domain.AccountRecord, error)
}

// SummaryFetcher retrieves pre-aggregated per-branch figures.
type SummaryFetcher interface {
	GetBranchSummaries(ctx context.Context, cfg domain.FilterConfig) ([]domain.BranchSummary, error)
}

// GestionStore defines data operations for collection gestiones.
type GestionStore interface {
	ListGestiones(ctx context.Context, nationalID string) ([]domain.Gestion, error)
	CreateGestion(ctx context.Context, g *domain.Gestion) (*domain.Gestion, error)
}

// JudicialStore retrieves judicial process records for an associate.
type JudicialStore interface {
	ListJudicialProcesses(ctx context.Context, nationalID string) ([]domain.JudicialProcess, error)
}

// StaffStore looks up staff credentials for login.
type StaffStore interface {
	GetStaffCredential(ctx context.Context, username string) (*domain.StaffCredential, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Flush()
}
