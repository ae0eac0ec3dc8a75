package domain

// AggregateRow is one output row of a grouping stage.
type AggregateRow struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
}

// Judicial zone names used by the legal department's per-agency view.
const (
	ZoneNorth  = "norte"
	ZoneCenter = "centro"
	ZoneSouth  = "sur"
)

// Fixed branch-code partition for judicial zones. Branches outside every
// set contribute only to the grand total.
var (
	zoneNorthBranches  = map[int]bool{1: true, 4: true, 7: true, 12: true, 15: true}
	zoneCenterBranches = map[int]bool{2: true, 3: true, 5: true, 8: true, 10: true}
	zoneSouthBranches  = map[int]bool{6: true, 9: true, 11: true, 13: true, 14: true}
)

// ZoneFor returns the judicial zone of a branch, or "" when unassigned.
func ZoneFor(branchCode int) string {
	switch {
	case zoneNorthBranches[branchCode]:
		return ZoneNorth
	case zoneCenterBranches[branchCode]:
		return ZoneCenter
	case zoneSouthBranches[branchCode]:
		return ZoneSouth
	default:
		return ""
	}
}

// ZoneSummary accumulates one zone's totals.
type ZoneSummary struct {
	Accounts  int     `json:"accounts"`
	TotalDebt float64 `json:"total_debt"`
}

// ZoneTotals is the three-zone + grand-total view built from per-branch
// summary rows. Unassigned branches count toward Total only.
type ZoneTotals struct {
	North  ZoneSummary `json:"north"`
	Center ZoneSummary `json:"center"`
	South  ZoneSummary `json:"south"`
	Total  ZoneSummary `json:"total"`
}

// FreshnessStatus is the traffic-light state derived from days elapsed
// since a record's insertion date. Always recomputed against "now".
type FreshnessStatus string

const (
	FreshnessCurrent  FreshnessStatus = "current"
	FreshnessModerate FreshnessStatus = "moderate"
	FreshnessOverdue  FreshnessStatus = "overdue"
)

// AccountView is one dashboard row: the raw record plus the derived fields
// the frontend renders directly.
type AccountView struct {
	AccountRecord

	TotalDebt        float64         `json:"total_debt"`
	ChargeOffDateISO string          `json:"charge_off_date_iso,omitempty"`
	RecoveryLabel    string          `json:"recovery_label"`
	Freshness        FreshnessStatus `json:"freshness"`
}

// CarteraPage is one page of the filtered, ordered portfolio.
type CarteraPage struct {
	Records      []AccountView `json:"records"`
	Page         int           `json:"page"`
	PageSize     int           `json:"page_size"`
	TotalRecords int           `json:"total_records"`
	TotalValue   float64       `json:"total_value"`
}
