package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// Gestiones proxies the core's collection-action and judicial tables.
type Gestiones struct {
	core *Core
}

// NewGestiones creates the gestion/judicial/staff store.
func NewGestiones(core *Core) *Gestiones {
	return &Gestiones{core: core}
}

// ListGestiones fetches the collection history for one associate,
// newest first.
func (g *Gestiones) ListGestiones(ctx context.Context, nationalID string) ([]domain.Gestion, error) {
	ctx, span := tracer.Start(ctx, "Core.ListGestiones")
	defer span.End()
	span.SetAttributes(attribute.String("associate.national_id", nationalID))

	var gestiones []domain.Gestion

	err := g.core.execute(ctx, "core/gestiones", func() error {
		path := fmt.Sprintf("castigada/gestiones?national_id=%s&order=created_at.desc", url.QueryEscape(nationalID))
		body, err := g.core.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}

		if body == nil || string(body) == "[]" {
			gestiones = []domain.Gestion{}
			return nil
		}
		if err := json.Unmarshal(body, &gestiones); err != nil {
			return fmt.Errorf("failed to decode gestiones: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return gestiones, nil
}

// CreateGestion records a new collection action. The caller has already
// validated the action type and stamped ID, staff user and timestamp.
func (g *Gestiones) CreateGestion(ctx context.Context, gestion *domain.Gestion) (*domain.Gestion, error) {
	ctx, span := tracer.Start(ctx, "Core.CreateGestion")
	defer span.End()
	span.SetAttributes(
		attribute.String("associate.national_id", gestion.NationalID),
		attribute.String("gestion.action_type", gestion.ActionType),
	)

	var created domain.Gestion

	err := g.core.execute(ctx, "core/gestiones", func() error {
		body, err := g.core.doRequest(ctx, http.MethodPost, "castigada/gestiones", gestion)
		if err != nil {
			return err
		}

		if body == nil {
			// Core answered 204; echo back what we sent.
			created = *gestion
			return nil
		}
		if err := json.Unmarshal(body, &created); err != nil {
			return fmt.Errorf("failed to decode created gestion: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// ListJudicialProcesses fetches the judicial proceedings for one associate.
func (g *Gestiones) ListJudicialProcesses(ctx context.Context, nationalID string) ([]domain.JudicialProcess, error) {
	ctx, span := tracer.Start(ctx, "Core.ListJudicialProcesses")
	defer span.End()
	span.SetAttributes(attribute.String("associate.national_id", nationalID))

	var processes []domain.JudicialProcess

	err := g.core.execute(ctx, "core/judicial", func() error {
		path := fmt.Sprintf("castigada/judicial?national_id=%s", url.QueryEscape(nationalID))
		body, err := g.core.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}

		if body == nil || string(body) == "[]" {
			processes = []domain.JudicialProcess{}
			return nil
		}
		if err := json.Unmarshal(body, &processes); err != nil {
			return fmt.Errorf("failed to decode judicial processes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return processes, nil
}

// GetStaffCredential looks up one staff login row by username.
func (g *Gestiones) GetStaffCredential(ctx context.Context, username string) (*domain.StaffCredential, error) {
	ctx, span := tracer.Start(ctx, "Core.GetStaffCredential")
	defer span.End()

	var cred *domain.StaffCredential

	err := g.core.execute(ctx, "core/staff", func() error {
		path := fmt.Sprintf("staff/credentials?username=%s&limit=1", url.QueryEscape(username))
		body, err := g.core.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}

		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "staff credential", ID: username}
		}

		var rows []domain.StaffCredential
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode staff credential: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "staff credential", ID: username}
		}

		cred = &rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cred, nil
}
