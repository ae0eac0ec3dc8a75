package engine

import (
	"sort"
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
)

// undatedSentinel makes records without a charge-off date sort after every
// dated record under both directions. Only the relative order of dated
// records flips with the configured direction.
var undatedSentinel = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Sort orders records per cfg and returns a new slice; the input is left
// untouched. ValueOrder dominates when set, otherwise the decoded
// charge-off date is the key. A stable sort keeps ties deterministic
// across re-renders.
func Sort(records []domain.AccountRecord, cfg domain.FilterConfig) []domain.AccountRecord {
	out := make([]domain.AccountRecord, len(records))
	copy(out, records)

	if cfg.ValueOrder != "" {
		desc := cfg.ValueOrder == domain.OrderDesc
		sort.SliceStable(out, func(i, j int) bool {
			vi, vj := out[i].TotalValue(), out[j].TotalValue()
			if desc {
				return vi > vj
			}
			return vi < vj
		})
		return out
	}

	desc := cfg.DateOrder == domain.OrderDesc
	sort.SliceStable(out, func(i, j int) bool {
		ti := chargeOffOrSentinel(&out[i])
		tj := chargeOffOrSentinel(&out[j])

		// Undated records stay last regardless of direction.
		if ti.Equal(undatedSentinel) || tj.Equal(undatedSentinel) {
			return ti.Before(tj)
		}
		if desc {
			return ti.After(tj)
		}
		return ti.Before(tj)
	})
	return out
}

func chargeOffOrSentinel(r *domain.AccountRecord) time.Time {
	if t, ok := r.ChargeOffTime(); ok {
		return t
	}
	return undatedSentinel
}
