package domain

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// Sort directions and score filter buckets accepted by the engine.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"

	ScoreFilterLow      = "0-650"
	ScoreFilterHigh     = "650+"
	ScoreFilterNoShow   = "SE"
	ScoreFilterMissing  = "FD"
	ScoreFilterDeceased = "QEPD"
)

// Recovery filter keys. Each maps to one or more recovery category codes.
const (
	RecoveryLeyInsolvencia    = "LEY_INSOLVENCIA"
	RecoverySaldoMinimo       = "SALDO_MINIMO"
	RecoverySinMedidaCautelar = "SIN_MEDIDA_CAUTELAR"
	RecoveryCarteraProblema   = "CARTERA_PROBLEMA"
	RecoveryEmbargoBienes     = "EMBARGO_BIENES"
	RecoveryEmbargoSecuestro  = "EMBARGO_SECUESTRADO"
	RecoveryCCRemate          = "CC_REMATE"
	RecoverySinAmnistia       = "SIN_AMNISTIA"
)

var recoveryFilterCodes = map[string][]int{
	RecoveryLeyInsolvencia:    {59},
	RecoverySaldoMinimo:       {0, 46},
	RecoverySinMedidaCautelar: {51, 52, 53, 54},
	RecoveryCarteraProblema:   {66},
	RecoveryEmbargoBienes:     {72},
	RecoveryEmbargoSecuestro:  {73},
	RecoveryCCRemate:          {74},
	RecoverySinAmnistia:       {99},
}

// RecoveryCodesFor resolves a filter key to its category codes.
// ok is false for unknown keys.
func RecoveryCodesFor(key string) ([]int, bool) {
	codes, ok := recoveryFilterCodes[key]
	return codes, ok
}

// RecoveryLabel maps a category code to the fine-grained report label.
// This mapping is deliberately finer than the filter table: code 0 is
// reported apart from 46 even though both answer the SALDO_MINIMO filter,
// and 55 only exists in reports.
func RecoveryLabel(code int) string {
	switch code {
	case 0:
		return "CC - Irrecuperable"
	case 46:
		return "Saldo mínimo"
	case 51, 52, 53, 54:
		return "Sin medida cautelar"
	case 55:
		return "CC - Ejecutivo con Descuento"
	case 59:
		return "Ley de Insolvencia"
	case 66:
		return "Cartera problema"
	case 72:
		return "Embargo de bienes"
	case 73:
		return "Embargo secuestrado"
	case 74:
		return "CC - Remate"
	case 99:
		return "Sin amnistía"
	default:
		return "Otros"
	}
}

// RecoveryLabelOrder fixes the order of recovery rows in reports.
// Aggregation emits rows in this order, skipping labels with no records.
var RecoveryLabelOrder = []string{
	"Ley de Insolvencia",
	"Saldo mínimo",
	"CC - Irrecuperable",
	"Sin medida cautelar",
	"Cartera problema",
	"Embargo de bienes",
	"Embargo secuestrado",
	"CC - Remate",
	"CC - Ejecutivo con Descuento",
	"Sin amnistía",
	"Otros",
}

// FilterConfig carries one dashboard filter state. The engine treats it as
// read-only; the handler layer owns mutation and must reset pagination to
// page 1 whenever any field changes.
type FilterConfig struct {
	DateFrom *time.Time
	DateTo   *time.Time

	// DateOrder orders by decoded charge-off date when ValueOrder is empty.
	DateOrder string
	// ValueOrder, when set, dominates and orders by total charged-off value.
	ValueOrder string

	ScoreFilter    string
	RecoveryFilter string

	// SelectedBranches holds branch display keys. Empty means "all pass".
	SelectedBranches map[string]bool

	SearchText string
}

// HasDateBound reports whether any date-range bound is active.
func (c *FilterConfig) HasDateBound() bool {
	return c.DateFrom != nil || c.DateTo != nil
}

const queryDateLayout = "2006-01-02"

// QueryValues serializes the config to URL query parameters. Both the
// accounts client and the branch-summary client use this single encoding.
func (c *FilterConfig) QueryValues() url.Values {
	q := url.Values{}
	if c.DateFrom != nil {
		q.Set("date_from", c.DateFrom.Format(queryDateLayout))
	}
	if c.DateTo != nil {
		q.Set("date_to", c.DateTo.Format(queryDateLayout))
	}
	if c.DateOrder != "" {
		q.Set("date_order", c.DateOrder)
	}
	if c.ValueOrder != "" {
		q.Set("value_order", c.ValueOrder)
	}
	if c.ScoreFilter != "" {
		q.Set("score", c.ScoreFilter)
	}
	if c.RecoveryFilter != "" {
		q.Set("recovery", c.RecoveryFilter)
	}
	if len(c.SelectedBranches) > 0 {
		keys := make([]string, 0, len(c.SelectedBranches))
		for k := range c.SelectedBranches {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		// One parameter per key; display keys are free text and may
		// contain any delimiter a joined encoding would pick.
		for _, k := range keys {
			q.Add("branches", k)
		}
	}
	if c.SearchText != "" {
		q.Set("search", c.SearchText)
	}
	return q
}

// ParseFilterConfig is the inverse of QueryValues.
// Unknown or malformed values fall back to the zero filter field.
func ParseFilterConfig(q url.Values) FilterConfig {
	cfg := FilterConfig{DateOrder: OrderAsc}

	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse(queryDateLayout, v); err == nil {
			cfg.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse(queryDateLayout, v); err == nil {
			cfg.DateTo = &t
		}
	}
	if v := q.Get("date_order"); v == OrderAsc || v == OrderDesc {
		cfg.DateOrder = v
	}
	if v := q.Get("value_order"); v == OrderAsc || v == OrderDesc {
		cfg.ValueOrder = v
	}
	switch v := q.Get("score"); v {
	case ScoreFilterLow, ScoreFilterHigh, ScoreFilterNoShow, ScoreFilterMissing, ScoreFilterDeceased:
		cfg.ScoreFilter = v
	}
	if v := q.Get("recovery"); v != "" {
		if _, ok := recoveryFilterCodes[v]; ok {
			cfg.RecoveryFilter = v
		}
	}
	if vs := q["branches"]; len(vs) > 0 {
		cfg.SelectedBranches = make(map[string]bool)
		for _, b := range vs {
			b = strings.TrimSpace(b)
			if b != "" {
				cfg.SelectedBranches[b] = true
			}
		}
	}
	cfg.SearchText = strings.TrimSpace(q.Get("search"))
	return cfg
}
