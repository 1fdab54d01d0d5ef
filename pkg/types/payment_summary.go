package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// PaymentSummary is the denormalized view of a completed payment carried on the
// subscription record (last payment and history entries).
type PaymentSummary struct {
	TransactionID string              `json:"transaction_id"`
	Amount        decimal.Decimal     `json:"amount"`
	Method        enums.PaymentMethod `json:"method"`
	Plan          enums.Plan          `json:"plan"`
	Date          time.Time           `json:"date"`
}

// PaymentSummaryList stores an append-only payment history as a JSON column.
type PaymentSummaryList []PaymentSummary

// Value marshals the list for storage.
func (l PaymentSummaryList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("payment history: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the stored JSON column.
func (l *PaymentSummaryList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("payment history: unsupported column type %T", value)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, l)
}

// Append returns a new list with the summary added at the tail. History is
// append-only: entries are never reordered or deduplicated.
func (l PaymentSummaryList) Append(summary PaymentSummary) PaymentSummaryList {
	out := make(PaymentSummaryList, 0, len(l)+1)
	out = append(out, l...)
	return append(out, summary)
}
