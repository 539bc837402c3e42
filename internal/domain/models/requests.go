package models

// Requests for scan HTTP endpoints. Defined in domain for consistency and reuse.

type LedgerRequest struct {
	Symbol     string `query:"symbol" json:"symbol" validate:"omitempty,max=32"`
	SignalType string `query:"signal_type" json:"signal_type" validate:"omitempty,oneof=reversal_bull reversal_bear breakout_bull breakout_bear"`
	// Since is RFC3339 or unix seconds; entries published earlier are omitted.
	Since string `query:"since" json:"since" validate:"omitempty,max=64"`
}

type ScanRequest struct {
	Symbols []string `json:"symbols" validate:"omitempty,max=500,dive,required,max=32"`
}
