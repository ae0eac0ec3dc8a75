package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ScoreKind classifies a credit score after normalization. The core system
// mixes numeric scores with legacy sentinel strings, so the value is parsed
// once at ingestion and everything downstream switches on the kind.
type ScoreKind int

const (
	// ScoreNumeric is a plain numeric score.
	ScoreNumeric ScoreKind = iota
	// ScoreMissing is the "F/D" sentinel (no score on file).
	ScoreMissing
	// ScoreNoShow is the "S/E" sentinel (borrower never showed).
	ScoreNoShow
	// ScoreDeceased is the "CANCELADA POR MUERTE" sentinel, shown as Q.E.P.D.
	ScoreDeceased
	// ScoreUnknown is any other non-numeric value. It matches no filter bucket.
	ScoreUnknown
)

// Score is a credit score as a tagged union over numeric values and the
// core's sentinel strings.
type Score struct {
	Kind  ScoreKind
	Value float64
	raw   string
}

// ParseScore normalizes a raw score string from the core system.
func ParseScore(raw string) Score {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "falta"), strings.EqualFold(s, "F/D"):
		return Score{Kind: ScoreMissing, raw: raw}
	case strings.EqualFold(s, "S/E"):
		return Score{Kind: ScoreNoShow, raw: raw}
	case strings.Contains(lower, "muerte"), strings.EqualFold(s, "Q.E.P.D"):
		return Score{Kind: ScoreDeceased, raw: raw}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Score{Kind: ScoreNumeric, Value: v, raw: raw}
	}
	return Score{Kind: ScoreUnknown, raw: raw}
}

// NumericScore builds a numeric score directly.
func NumericScore(v float64) Score {
	return Score{Kind: ScoreNumeric, Value: v}
}

// Display returns the value shown in the dashboard.
func (s Score) Display() string {
	switch s.Kind {
	case ScoreNumeric:
		return strconv.FormatFloat(s.Value, 'f', -1, 64)
	case ScoreMissing:
		return "F/D"
	case ScoreNoShow:
		return "S/E"
	case ScoreDeceased:
		return "Q.E.P.D"
	default:
		return s.raw
	}
}

// UnmarshalJSON accepts either a JSON number or a string, normalizing
// sentinels on the way in.
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Score{Kind: ScoreMissing}
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = ParseScore(str)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Score{Kind: ScoreNumeric, Value: v}
	return nil
}

// MarshalJSON emits the display form so API consumers see the same
// normalized value as the table renderer.
func (s Score) MarshalJSON() ([]byte, error) {
	if s.Kind == ScoreNumeric {
		return json.Marshal(s.Value)
	}
	return json.Marshal(s.Display())
}
