package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-ledger/internal/domain"
)

// LedgerServicer интерфейс исключительно для моков.
type LedgerServicer interface {
	CreateUser(ctx context.Context, name, email string) (*domain.User, error)
	Deposit(
		ctx context.Context,
		userID int64,
		amount decimal.Decimal,
		currency domain.Currency,
	) (*domain.Transaction, error)
	Withdraw(
		ctx context.Context,
		userID int64,
		amount decimal.Decimal,
		currency domain.Currency,
	) (*domain.Transaction, error)
	Transfer(
		ctx context.Context,
		sourceID, targetID int64,
		amount decimal.Decimal,
		currency domain.Currency,
	) (*domain.Transaction, error)
	GetBalance(ctx context.Context, userID int64, currency domain.Currency) (decimal.Decimal, error)
	GetBalances(ctx context.Context, userID int64) (domain.Balances, error)
}
