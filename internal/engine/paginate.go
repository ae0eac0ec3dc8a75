package engine

import "github.com/coopvalles/cartera-castigada-api/internal/domain"

// Paginate slices out page (1-based) of the given size. A page past the end
// yields an empty slice rather than clamping to the last page: serving a
// stale out-of-range page silently would mask the caller's obligation to
// reset to page 1 whenever the filter changes.
func Paginate(records []domain.AccountRecord, page, pageSize int) []domain.AccountRecord {
	if page < 1 || pageSize < 1 {
		return []domain.AccountRecord{}
	}
	start := (page - 1) * pageSize
	if start >= len(records) {
		return []domain.AccountRecord{}
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
