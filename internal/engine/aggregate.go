package engine

import (
	"sort"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
)

// NoCreditLabel is the synthetic bucket for records whose credits blob
// parses to zero credit lines.
const NoCreditLabel = "Sin crédito especificado"

// AggregateByRecovery groups records by the fine-grained recovery category.
// Each record contributes its full value to exactly one label, so the sum
// over all rows equals the sum over all records. Rows come out in the fixed
// report order; labels with no records are omitted.
func AggregateByRecovery(records []domain.AccountRecord) []domain.AggregateRow {
	byLabel := make(map[string]*domain.AggregateRow)
	for i := range records {
		label := domain.RecoveryLabel(records[i].RecoveryCategoryCode)
		row, ok := byLabel[label]
		if !ok {
			row = &domain.AggregateRow{Label: label}
			byLabel[label] = row
		}
		row.Count++
		row.Sum += records[i].TotalValue()
	}

	out := make([]domain.AggregateRow, 0, len(byLabel))
	for _, label := range domain.RecoveryLabelOrder {
		if row, ok := byLabel[label]; ok {
			out = append(out, *row)
		}
	}
	return out
}

// AggregateByCreditType groups the records' total values by credit-line
// label. A record's distinct labels each receive count 1 and an even share
// of the record's value, so value is conserved across the split. Records
// with no parseable credit lines fall into NoCreditLabel with their full
// value. Rows are sorted by count descending; ties break on label for
// determinism.
func AggregateByCreditType(records []domain.AccountRecord) []domain.AggregateRow {
	byLabel := make(map[string]*domain.AggregateRow)
	add := func(label string, count int, sum float64) {
		row, ok := byLabel[label]
		if !ok {
			row = &domain.AggregateRow{Label: label}
			byLabel[label] = row
		}
		row.Count += count
		row.Sum += sum
	}

	for i := range records {
		value := records[i].TotalValue()
		labels := distinctLabels(ParseCreditLines(records[i].GroupedCreditsRaw))
		if len(labels) == 0 {
			add(NoCreditLabel, 1, value)
			continue
		}
		share := value / float64(len(labels))
		for _, label := range labels {
			add(label, 1, share)
		}
	}

	out := make([]domain.AggregateRow, 0, len(byLabel))
	for _, row := range byLabel {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// distinctLabels de-duplicates labels within a single record's credit list,
// preserving first-seen order.
func distinctLabels(lines []CreditLine) []string {
	seen := make(map[string]bool, len(lines))
	var labels []string
	for _, line := range lines {
		label := line.Label()
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	return labels
}

// AggregateZones folds pre-aggregated per-branch rows into the three-zone
// legal view. Branches outside every zone still count toward the total.
func AggregateZones(summaries []domain.BranchSummary) domain.ZoneTotals {
	var totals domain.ZoneTotals
	for _, s := range summaries {
		totals.Total.Accounts += s.TotalAccounts
		totals.Total.TotalDebt += s.TotalDebt
		switch domain.ZoneFor(s.BranchCode) {
		case domain.ZoneNorth:
			totals.North.Accounts += s.TotalAccounts
			totals.North.TotalDebt += s.TotalDebt
		case domain.ZoneCenter:
			totals.Center.Accounts += s.TotalAccounts
			totals.Center.TotalDebt += s.TotalDebt
		case domain.ZoneSouth:
			totals.South.Accounts += s.TotalAccounts
			totals.South.TotalDebt += s.TotalDebt
		}
	}
	return totals
}
