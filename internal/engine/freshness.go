package engine

import (
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
)

// AgeStatus derives the traffic-light freshness of a record from the days
// elapsed between its insertion date and now. The clock is an explicit
// parameter so callers and tests control it; the status must never be
// precomputed and stored.
//
// Bands: up to 170 days current, 171-179 moderate, 180+ overdue.
func AgeStatus(insertion, now time.Time) domain.FreshnessStatus {
	// Records without a usable insertion date are flagged overdue so they
	// surface for review instead of hiding as current.
	if insertion.IsZero() {
		return domain.FreshnessOverdue
	}
	days := int(now.Sub(insertion).Hours() / 24)
	switch {
	case days <= 170:
		return domain.FreshnessCurrent
	case days <= 179:
		return domain.FreshnessModerate
	default:
		return domain.FreshnessOverdue
	}
}
