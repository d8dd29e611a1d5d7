package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64
	CreatedAt time.Time
	Name      string
	Email     string
}

// Transaction неизменяемая запись журнала транзакций. TargetUserID заполнен только для TransactionTransfer.
type Transaction struct {
	ID           int64
	CreatedAt    time.Time
	Kind         TransactionKind
	SourceUserID int64
	TargetUserID *int64
	Amount       decimal.Decimal
	Currency     Currency
}

// Parties возвращает id всех юзеров, чьи балансы затрагивает транзакция.
func (t Transaction) Parties() []int64 {
	if t.TargetUserID == nil {
		return []int64{t.SourceUserID}
	}
	return []int64{t.SourceUserID, *t.TargetUserID}
}

// Balances баланс юзера по каждой из валют.
type Balances map[Currency]decimal.Decimal

// NewBalances возвращает нулевые балансы по всем поддерживаемым валютам.
func NewBalances() Balances {
	b := make(Balances, len(currencies))
	for _, c := range currencies {
		b[c] = decimal.Zero
	}
	return b
}

// Clone возвращает копию балансов.
func (b Balances) Clone() Balances {
	c := make(Balances, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}
