package engine_test

import (
	"math"
	"testing"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
	"github.com/coopvalles/cartera-castigada-api/internal/engine"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestAggregateByRecovery_ConservesValueAndCount(t *testing.T) {
	records := []domain.AccountRecord{
		{RecoveryCategoryCode: 59, OrdinaryDebt: 100, SpecialDebt: 50},
		{RecoveryCategoryCode: 0, OrdinaryDebt: 200},
		{RecoveryCategoryCode: 46, OrdinaryDebt: 300},
		{RecoveryCategoryCode: 55, OrdinaryDebt: 400},
		{RecoveryCategoryCode: 12345, OrdinaryDebt: 500}, // unlisted -> Otros
	}

	rows := engine.AggregateByRecovery(records)

	var sum float64
	var count int
	for _, row := range rows {
		sum += row.Sum
		count += row.Count
	}
	if !almostEqual(sum, 1550) {
		t.Errorf("aggregate sum %.2f, want 1550", sum)
	}
	if count != len(records) {
		t.Errorf("aggregate count %d, want %d", count, len(records))
	}
}

func TestAggregateByRecovery_FineGrainedLabelsAndFixedOrder(t *testing.T) {
	records := []domain.AccountRecord{
		{RecoveryCategoryCode: 46, OrdinaryDebt: 1},
		{RecoveryCategoryCode: 0, OrdinaryDebt: 1},
		{RecoveryCategoryCode: 99, OrdinaryDebt: 1},
	}

	rows := engine.AggregateByRecovery(records)

	// Codes 0 and 46 share a filter key but report separately.
	want := []string{"Saldo mínimo", "CC - Irrecuperable", "Sin amnistía"}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, label := range want {
		if rows[i].Label != label {
			t.Errorf("row %d: expected %q, got %q (order must be fixed, not discovery order)", i, label, rows[i].Label)
		}
	}
}

func TestAggregateByRecovery_OmitsEmptyCategories(t *testing.T) {
	rows := engine.AggregateByRecovery([]domain.AccountRecord{{RecoveryCategoryCode: 72, OrdinaryDebt: 10}})
	if len(rows) != 1 || rows[0].Label != "Embargo de bienes" {
		t.Fatalf("expected a single 'Embargo de bienes' row, got %+v", rows)
	}
}

func TestAggregateByCreditType_SplitsValueEvenly(t *testing.T) {
	records := []domain.AccountRecord{
		{
			OrdinaryDebt:      1000,
			GroupedCreditsRaw: "CREDITO:1|TCRE:04|DESC06:VIVIENDA|#CREDITO:2|TCRE:07|DESC06:CONSUMO|",
		},
	}

	rows := engine.AggregateByCreditType(records)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Count != 1 {
			t.Errorf("%s: count %d, want 1", row.Label, row.Count)
		}
		if !almostEqual(row.Sum, 500) {
			t.Errorf("%s: sum %.2f, want 500 (even split)", row.Label, row.Sum)
		}
	}
}

func TestAggregateByCreditType_DeduplicatesWithinRecord(t *testing.T) {
	records := []domain.AccountRecord{
		{
			OrdinaryDebt:      600,
			GroupedCreditsRaw: "CREDITO:1|TCRE:04|#CREDITO:2|TCRE:04|#CREDITO:3|TCRE:08|",
		},
	}

	rows := engine.AggregateByCreditType(records)
	if len(rows) != 2 {
		t.Fatalf("duplicate labels inside one record must collapse: got %d rows", len(rows))
	}
	for _, row := range rows {
		if row.Count != 1 {
			t.Errorf("%s: a record contributes each distinct label at most once, count %d", row.Label, row.Count)
		}
		if !almostEqual(row.Sum, 300) {
			t.Errorf("%s: value splits across 2 distinct labels, sum %.2f", row.Label, row.Sum)
		}
	}
}

func TestAggregateByCreditType_CatchAllAndConservation(t *testing.T) {
	records := []domain.AccountRecord{
		{OrdinaryDebt: 1000, GroupedCreditsRaw: "CREDITO:1|TCRE:04|#CREDITO:2|TCRE:07|"},
		{OrdinaryDebt: 250, GroupedCreditsRaw: "sin formato valido"},
		{OrdinaryDebt: 150}, // no blob at all
	}

	rows := engine.AggregateByCreditType(records)

	var sum float64
	foundCatchAll := false
	for _, row := range rows {
		sum += row.Sum
		if row.Label == engine.NoCreditLabel {
			foundCatchAll = true
			if !almostEqual(row.Sum, 400) {
				t.Errorf("catch-all sum %.2f, want 400", row.Sum)
			}
			if row.Count != 2 {
				t.Errorf("catch-all count %d, want 2", row.Count)
			}
		}
	}
	if !foundCatchAll {
		t.Fatal("records with no parsed credit lines must land in the catch-all bucket")
	}
	if !almostEqual(sum, 1400) {
		t.Errorf("value must be conserved across the split: sum %.2f, want 1400", sum)
	}
}

func TestAggregateByCreditType_SortedByCountDescending(t *testing.T) {
	records := []domain.AccountRecord{
		{OrdinaryDebt: 1, GroupedCreditsRaw: "CREDITO:1|TCRE:04|"},
		{OrdinaryDebt: 1, GroupedCreditsRaw: "CREDITO:1|TCRE:04|"},
		{OrdinaryDebt: 1, GroupedCreditsRaw: "CREDITO:1|TCRE:07|"},
	}

	rows := engine.AggregateByCreditType(records)
	for i := 1; i < len(rows); i++ {
		if rows[i].Count > rows[i-1].Count {
			t.Fatal("credit-type rows must be ordered by count descending")
		}
	}
	if rows[0].Label != "04" {
		t.Errorf("most frequent label should come first, got %q", rows[0].Label)
	}
}

func TestAggregateZones(t *testing.T) {
	summaries := []domain.BranchSummary{
		{BranchCode: 1, TotalAccounts: 10, TotalDebt: 1000},  // north
		{BranchCode: 2, TotalAccounts: 20, TotalDebt: 2000},  // center
		{BranchCode: 6, TotalAccounts: 30, TotalDebt: 3000},  // south
		{BranchCode: 99, TotalAccounts: 5, TotalDebt: 500},   // unassigned
	}

	totals := engine.AggregateZones(summaries)

	if totals.North.Accounts != 10 || !almostEqual(totals.North.TotalDebt, 1000) {
		t.Errorf("north totals wrong: %+v", totals.North)
	}
	if totals.Center.Accounts != 20 {
		t.Errorf("center totals wrong: %+v", totals.Center)
	}
	if totals.South.Accounts != 30 {
		t.Errorf("south totals wrong: %+v", totals.South)
	}
	// Unassigned branches count toward the grand total only.
	if totals.Total.Accounts != 65 || !almostEqual(totals.Total.TotalDebt, 6500) {
		t.Errorf("grand total wrong: %+v", totals.Total)
	}
}
