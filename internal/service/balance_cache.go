package service

import (
	"fmt"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// balanceCache проекция журнала транзакций в памяти: id юзера -> баланс по каждой валюте.
// Не потокобезопасен, доступ только под мьютексом LedgerService.
type balanceCache struct {
	balances map[int64]domain.Balances
}

func newBalanceCache() *balanceCache {
	return &balanceCache{balances: make(map[int64]domain.Balances)}
}

// initUser выставляет нулевые балансы по всем валютам.
func (c *balanceCache) initUser(userID int64) {
	c.balances[userID] = domain.NewBalances()
}

func (c *balanceCache) has(userID int64) bool {
	_, ok := c.balances[userID]
	return ok
}

func (c *balanceCache) get(userID int64, currency domain.Currency) (decimal.Decimal, error) {
	b, ok := c.balances[userID]
	if !ok {
		return decimal.Zero, domain.NewUnknownUserError(userID, domain.RoleAccount)
	}
	return b[currency], nil
}

// all возвращает копию балансов юзера.
func (c *balanceCache) all(userID int64) (domain.Balances, error) {
	b, ok := c.balances[userID]
	if !ok {
		return nil, domain.NewUnknownUserError(userID, domain.RoleAccount)
	}
	return b.Clone(), nil
}

// adjust изменяет баланс на delta. Достаточность средств проверяет вызывающий.
func (c *balanceCache) adjust(userID int64, currency domain.Currency, delta decimal.Decimal) error {
	b, ok := c.balances[userID]
	if !ok {
		return domain.NewUnknownUserError(userID, domain.RoleAccount)
	}
	b[currency] = b[currency].Add(delta)
	return nil
}

// apply применяет эффект записи журнала. Перевод применяется к обеим сторонам или не применяется вовсе.
func (c *balanceCache) apply(t *domain.Transaction) error {
	if !t.Currency.Valid() {
		return fmt.Errorf("transaction %d: %w: %q", t.ID, domain.ErrInvalidCurrency, t.Currency)
	}

	switch t.Kind {
	case domain.TransactionDeposit:
		return c.adjust(t.SourceUserID, t.Currency, t.Amount)
	case domain.TransactionWithdraw:
		return c.adjust(t.SourceUserID, t.Currency, t.Amount.Neg())
	case domain.TransactionTransfer:
		if t.TargetUserID == nil {
			return fmt.Errorf("transfer %d has no target user", t.ID)
		}
		if !c.has(t.SourceUserID) {
			return domain.NewUnknownUserError(t.SourceUserID, domain.RoleSource)
		}
		if !c.has(*t.TargetUserID) {
			return domain.NewUnknownUserError(*t.TargetUserID, domain.RoleTarget)
		}
		c.balances[t.SourceUserID][t.Currency] = c.balances[t.SourceUserID][t.Currency].Sub(t.Amount)
		c.balances[*t.TargetUserID][t.Currency] = c.balances[*t.TargetUserID][t.Currency].Add(t.Amount)
		return nil
	default:
		return fmt.Errorf("transaction %d: unknown kind %q", t.ID, t.Kind)
	}
}
