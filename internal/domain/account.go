// Package domain holds the core types of the charged-off portfolio
// ("cartera castigada") administration API.
package domain

import (
	"fmt"
	"time"
)

// AccountRecord is one charged-off loan as delivered by the core system.
// The record is held as an immutable snapshot; derived values (total debt,
// decoded dates, freshness) are computed on demand, never stored back.
type AccountRecord struct {
	BranchCode           int    `json:"branch_code"`
	BranchName           string `json:"branch_name"`
	NationalID           string `json:"national_id"`
	AccountNumber        string `json:"account_number"`
	AccountTypeDesc      string `json:"account_type_desc,omitempty"`
	BorrowerName         string `json:"borrower_name,omitempty"`
	PayrollDesc          string `json:"payroll_desc,omitempty"`
	RecoveryCategoryCode int    `json:"recovery_category_code"`
	OrdinaryDebt         float64 `json:"ordinary_debt"`
	SpecialDebt          float64 `json:"special_debt"`

	// ChargeOffDate is encoded by the core as an offset from 1900-00-00:
	// the calendar date is 19000000 + value, split as YYYYMMDD.
	// Zero means the account has no charge-off date on file.
	ChargeOffDate int `json:"charge_off_date"`

	CreditScore   Score  `json:"credit_score"`
	InsertionDate string `json:"insertion_date,omitempty"`

	// GroupedCreditsRaw is the core's delimiter-encoded blob describing the
	// credit lines attached to this account: `#`-separated records, each a
	// sequence of |KEY:value| fields. Parsed on demand by the engine.
	GroupedCreditsRaw string `json:"grouped_credits,omitempty"`
}

// DisplayKey is the branch key shown in the UI and used by branch filters.
func (r *AccountRecord) DisplayKey() string {
	return fmt.Sprintf("%d - %s", r.BranchCode, r.BranchName)
}

// TotalValue is the full charged-off value of the account.
func (r *AccountRecord) TotalValue() float64 {
	return r.OrdinaryDebt + r.SpecialDebt
}

// ChargeOffTime decodes the encoded charge-off date.
// ok is false when the account has no date on file.
func (r *AccountRecord) ChargeOffTime() (t time.Time, ok bool) {
	if r.ChargeOffDate <= 0 {
		return time.Time{}, false
	}
	full := 19000000 + r.ChargeOffDate
	year := full / 10000
	month := (full / 100) % 100
	day := full % 100
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// InsertionTime parses the record's insertion timestamp.
// ok is false when the field is absent or unparseable.
func (r *AccountRecord) InsertionTime() (time.Time, bool) {
	if r.InsertionDate == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, r.InsertionDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BranchSummary is a pre-aggregated per-branch row supplied by the core's
// summary endpoint. The zone grouping operates on these, not on raw records.
type BranchSummary struct {
	BranchCode    int     `json:"branch_code"`
	BranchName    string  `json:"branch_name"`
	TotalAccounts int     `json:"total_accounts"`
	TotalDebt     float64 `json:"total_debt"`
}
