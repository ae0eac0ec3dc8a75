// Package export builds the downloadable XLSX report of the charged-off
// portfolio: the filtered detail rows plus the recovery and credit-type
// summaries the dashboard shows.
package export

import (
	"fmt"
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	detailSheet  = "Cartera"
	summarySheet = "Resumen"
)

var detailHeaders = []string{
	"Agencia",
	"Cédula",
	"Nombre",
	"Cuenta",
	"Tipo de cuenta",
	"Nómina",
	"Deuda ordinaria",
	"Deuda extraordinaria",
	"Deuda total",
	"Fecha de castigo",
	"Score",
	"Categoría de recuperación",
}

// BuildWorkbook renders the filtered records and their aggregations into a
// two-sheet workbook. The caller owns closing the returned file.
func BuildWorkbook(records []domain.AccountRecord, recovery, creditTypes []domain.AggregateRow, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeDetailSheet(f, records); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummarySheet(f, recovery, creditTypes, now); err != nil {
		f.Close()
		return nil, err
	}

	// The default sheet excelize creates is replaced, not kept around.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, err
	}
	idx, err := f.GetSheetIndex(detailSheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(idx)

	return f, nil
}

func writeDetailSheet(f *excelize.File, records []domain.AccountRecord) error {
	if _, err := f.NewSheet(detailSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return err
	}

	for col, header := range detailHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(detailSheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(detailSheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i := range records {
		r := &records[i]
		chargeOff := ""
		if t, ok := r.ChargeOffTime(); ok {
			chargeOff = t.Format("2006-01-02")
		}
		row := []any{
			r.DisplayKey(),
			r.NationalID,
			r.BorrowerName,
			r.AccountNumber,
			r.AccountTypeDesc,
			r.PayrollDesc,
			r.OrdinaryDebt,
			r.SpecialDebt,
			r.TotalValue(),
			chargeOff,
			r.CreditScore.Display(),
			domain.RecoveryLabel(r.RecoveryCategoryCode),
		}
		for col, val := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(detailSheet, cell, val); err != nil {
				return err
			}
		}
	}

	return f.SetColWidth(detailSheet, "A", "L", 18)
}

func writeSummarySheet(f *excelize.File, recovery, creditTypes []domain.AggregateRow, now time.Time) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	if err != nil {
		return err
	}

	set := func(col, row int, val any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(summarySheet, cell, val)
	}

	if err := set(1, 1, fmt.Sprintf("Cartera castigada - Resumen al %s", now.Format("2006-01-02"))); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A1", titleStyle); err != nil {
		return err
	}

	writeBlock := func(startRow int, title string, rows []domain.AggregateRow) (int, error) {
		if err := set(1, startRow, title); err != nil {
			return 0, err
		}
		cell, _ := excelize.CoordinatesToCellName(1, startRow)
		if err := f.SetCellStyle(summarySheet, cell, cell, titleStyle); err != nil {
			return 0, err
		}

		if err := set(1, startRow+1, "Categoría"); err != nil {
			return 0, err
		}
		if err := set(2, startRow+1, "Cuentas"); err != nil {
			return 0, err
		}
		if err := set(3, startRow+1, "Valor"); err != nil {
			return 0, err
		}

		var totalCount int
		var totalSum float64
		for i, r := range rows {
			rowNum := startRow + 2 + i
			if err := set(1, rowNum, r.Label); err != nil {
				return 0, err
			}
			if err := set(2, rowNum, r.Count); err != nil {
				return 0, err
			}
			if err := set(3, rowNum, r.Sum); err != nil {
				return 0, err
			}
			totalCount += r.Count
			totalSum += r.Sum
		}

		totalRow := startRow + 2 + len(rows)
		if err := set(1, totalRow, "Total"); err != nil {
			return 0, err
		}
		if err := set(2, totalRow, totalCount); err != nil {
			return 0, err
		}
		if err := set(3, totalRow, totalSum); err != nil {
			return 0, err
		}
		return totalRow, nil
	}

	lastRow, err := writeBlock(3, "Por categoría de recuperación", recovery)
	if err != nil {
		return err
	}
	if _, err := writeBlock(lastRow+2, "Por línea de crédito", creditTypes); err != nil {
		return err
	}

	return f.SetColWidth(summarySheet, "A", "C", 26)
}
