package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// Accounts fetches the charged-off portfolio from the core system.
// It pages through /castigada/accounts until the snapshot is complete.
type Accounts struct {
	core     *Core
	pageRows int
}

// NewAccounts creates the portfolio fetcher. pageRows is the page size
// used when pulling the snapshot; the core caps responses at 5000 rows.
func NewAccounts(core *Core, pageRows int) *Accounts {
	if pageRows <= 0 {
		pageRows = 2500
	}
	return &Accounts{core: core, pageRows: pageRows}
}

// coreAccountsPage is one page of the core's accounts response.
type coreAccountsPage struct {
	Records []domain.AccountRecord `json:"records"`
	HasMore bool                   `json:"has_more"`
}

// GetChargedOffAccounts pulls the full charged-off snapshot.
// Filtering and ordering happen locally; the core only pages.
func (a *Accounts) GetChargedOffAccounts(ctx context.Context) ([]domain.AccountRecord, error) {
	ctx, span := tracer.Start(ctx, "Core.GetChargedOffAccounts")
	defer span.End()

	var records []domain.AccountRecord

	err := a.core.execute(ctx, "core/accounts", func() error {
		// Restart paging from scratch on every retry attempt so a
		// mid-pull failure cannot leave a half snapshot behind.
		records = records[:0]
		for page := 1; ; page++ {
			path := fmt.Sprintf("castigada/accounts?page=%d&rows=%d", page, a.pageRows)
			body, err := a.core.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			if body == nil {
				return nil
			}

			var pageResp coreAccountsPage
			if err := json.Unmarshal(body, &pageResp); err != nil {
				return fmt.Errorf("failed to decode accounts page %d: %w", page, err)
			}

			records = append(records, pageResp.Records...)
			if !pageResp.HasMore {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("records.count", len(records)))
	return records, nil
}

// GetBranchSummaries fetches pre-aggregated per-branch figures. The active
// filter state is forwarded so the core scopes its aggregation to match.
func (a *Accounts) GetBranchSummaries(ctx context.Context, cfg domain.FilterConfig) ([]domain.BranchSummary, error) {
	ctx, span := tracer.Start(ctx, "Core.GetBranchSummaries")
	defer span.End()

	var summaries []domain.BranchSummary

	err := a.core.execute(ctx, "core/branch-summaries", func() error {
		path := "castigada/branch-summaries"
		if q := cfg.QueryValues().Encode(); q != "" {
			path += "?" + q
		}
		body, err := a.core.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}

		if body == nil || string(body) == "[]" {
			summaries = []domain.BranchSummary{}
			return nil
		}
		if err := json.Unmarshal(body, &summaries); err != nil {
			return fmt.Errorf("failed to decode branch summaries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("branches.count", len(summaries)))
	return summaries, nil
}
