package repoargs

import (
	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionCreate запись для добавления в журнал. TargetUserID заполняется только для переводов.
type TransactionCreate struct {
	Kind         domain.TransactionKind
	SourceUserID int64
	TargetUserID *int64
	Amount       decimal.Decimal
	Currency     domain.Currency
}
