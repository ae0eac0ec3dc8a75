// Package engine implements the deterministic filter/sort/paginate/aggregate
// pipeline over charged-off account snapshots. Every function is a pure
// transformation of its inputs: no state, no I/O, no errors. Malformed data
// is excluded or bucketed, never propagated.
package engine

import (
	"strings"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
)

// Filter applies every active predicate of cfg conjunctively. A record is
// kept iff it passes all of them. The result is always a subset of records,
// in the original order.
func Filter(records []domain.AccountRecord, cfg domain.FilterConfig) []domain.AccountRecord {
	out := make([]domain.AccountRecord, 0, len(records))
	for i := range records {
		if matches(&records[i], &cfg) {
			out = append(out, records[i])
		}
	}
	return out
}

func matches(r *domain.AccountRecord, cfg *domain.FilterConfig) bool {
	return matchesBranch(r, cfg) &&
		matchesDateRange(r, cfg) &&
		matchesScore(r, cfg) &&
		matchesRecovery(r, cfg) &&
		matchesSearch(r, cfg)
}

// matchesBranch: an empty selection means "no branch filter", not
// "exclude all".
func matchesBranch(r *domain.AccountRecord, cfg *domain.FilterConfig) bool {
	if len(cfg.SelectedBranches) == 0 {
		return true
	}
	return cfg.SelectedBranches[r.DisplayKey()]
}

// matchesDateRange excludes records without a charge-off date whenever any
// bound is set. Bounds are inclusive.
func matchesDateRange(r *domain.AccountRecord, cfg *domain.FilterConfig) bool {
	if !cfg.HasDateBound() {
		return true
	}
	t, ok := r.ChargeOffTime()
	if !ok {
		return false
	}
	if cfg.DateFrom != nil && t.Before(*cfg.DateFrom) {
		return false
	}
	if cfg.DateTo != nil && t.After(*cfg.DateTo) {
		return false
	}
	return true
}

func matchesScore(r *domain.AccountRecord, cfg *domain.FilterConfig) bool {
	switch cfg.ScoreFilter {
	case "":
		return true
	case domain.ScoreFilterNoShow:
		return r.CreditScore.Kind == domain.ScoreNoShow
	case domain.ScoreFilterMissing:
		return r.CreditScore.Kind == domain.ScoreMissing
	case domain.ScoreFilterDeceased:
		return r.CreditScore.Kind == domain.ScoreDeceased
	case domain.ScoreFilterLow:
		return r.CreditScore.Kind == domain.ScoreNumeric && r.CreditScore.Value <= 650
	case domain.ScoreFilterHigh:
		return r.CreditScore.Kind == domain.ScoreNumeric && r.CreditScore.Value > 650
	default:
		return true
	}
}

func matchesRecovery(r *domain.AccountRecord, cfg *domain.FilterConfig) bool {
	if cfg.RecoveryFilter == "" {
		return true
	}
	codes, ok := domain.RecoveryCodesFor(cfg.RecoveryFilter)
	if !ok {
		return true
	}
	for _, code := range codes {
		if r.RecoveryCategoryCode == code {
			return true
		}
	}
	return false
}

func matchesSearch(r *domain.AccountRecord, cfg *domain.FilterConfig) bool {
	if cfg.SearchText == "" {
		return true
	}
	needle := strings.ToLower(cfg.SearchText)
	for _, haystack := range []string{
		r.NationalID,
		r.AccountTypeDesc,
		r.BorrowerName,
		r.AccountNumber,
		r.DisplayKey(),
	} {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	return false
}
