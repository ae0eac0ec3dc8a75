package domain

import "time"

// Known gestion action types. The core system rejects anything else, so
// validation happens here before the write is proxied.
var GestionActionTypes = map[string]bool{
	"llamada":        true,
	"visita":         true,
	"carta":          true,
	"acuerdo_pago":   true,
	"cobro_juridico": true,
	"otro":           true,
}

// Gestion is one logged collection/legal action on an associate.
type Gestion struct {
	ID         string    `json:"id"`
	NationalID string    `json:"national_id"`
	ActionType string    `json:"action_type"`
	Note       string    `json:"note"`
	StaffUser  string    `json:"staff_user"`
	CreatedAt  time.Time `json:"created_at"`
}

// GestionRequest is the payload for recording a new gestion.
type GestionRequest struct {
	ActionType string `json:"action_type"`
	Note       string `json:"note"`
}

// JudicialProcess is one judicial proceeding tracked against an associate.
type JudicialProcess struct {
	ID         string `json:"id"`
	NationalID string `json:"national_id"`
	Court      string `json:"court"`
	CaseNumber string `json:"case_number"`
	Stage      string `json:"stage"`
	StartedAt  string `json:"started_at,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// AssociateDossier is the drill-in view for one borrower: every charged-off
// record plus the collection and judicial history.
type AssociateDossier struct {
	NationalID string            `json:"national_id"`
	Records    []AccountRecord   `json:"records"`
	Gestiones  []Gestion         `json:"gestiones"`
	Judicial   []JudicialProcess `json:"judicial"`
}
