package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionCommitted событие о записанной в журнал транзакции.
type TransactionCommitted struct {
	TransactionID int64           `json:"transaction_id"`
	Kind          TransactionKind `json:"kind"`
	SourceUserID  int64           `json:"source_user_id"`
	TargetUserID  *int64          `json:"target_user_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      Currency        `json:"currency"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func NewTransactionCommitted(t *Transaction) TransactionCommitted {
	return TransactionCommitted{
		TransactionID: t.ID,
		Kind:          t.Kind,
		SourceUserID:  t.SourceUserID,
		TargetUserID:  t.TargetUserID,
		Amount:        t.Amount,
		Currency:      t.Currency,
		OccurredAt:    t.CreatedAt,
	}
}
