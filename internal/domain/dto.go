package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyBitcoin  Currency = "bitcoin"
	CurrencyEthereum Currency = "ethereum"
	CurrencyMatic    Currency = "matic"
)

var currencies = []Currency{CurrencyBitcoin, CurrencyEthereum, CurrencyMatic}

// Currencies возвращает список поддерживаемых валют в фиксированном порядке.
func Currencies() []Currency {
	out := make([]Currency, len(currencies))
	copy(out, currencies)
	return out
}

func (c Currency) Valid() bool {
	for _, known := range currencies {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCurrency приводит строку к Currency. Регистр не учитывается.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	return c, nil
}

// Границы суммы операции совпадают с колонкой NUMERIC(38,18).
const (
	AmountIntegerDigits  = 20
	AmountFractionDigits = 18
)

// ValidateAmount сумма должна быть больше нуля и укладываться в AmountIntegerDigits знаков целой части
// и AmountFractionDigits знаков дробной. Значение в текст ошибки не попадает: для 1e-2000000000
// строковое представление заняло бы гигабайты.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if d.Exponent() < -AmountFractionDigits {
		return fmt.Errorf("%w: more than %d fractional digits", ErrInvalidAmount, AmountFractionDigits)
	}
	// коэффициент положительный, его длина равна числу значащих цифр.
	intDigits := int64(len(d.Coefficient().String())) + int64(d.Exponent())
	if intDigits > AmountIntegerDigits {
		return fmt.Errorf("%w: more than %d integer digits", ErrInvalidAmount, AmountIntegerDigits)
	}
	return nil
}

// ParseAmount разбирает строку в сумму и проверяет ее через ValidateAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, err.Error())
	}
	if validErr := ValidateAmount(d); validErr != nil {
		return decimal.Zero, validErr
	}
	return d, nil
}

type TransactionKind string

const (
	TransactionDeposit  TransactionKind = "deposit"
	TransactionWithdraw TransactionKind = "withdraw"
	TransactionTransfer TransactionKind = "transfer"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionDeposit, TransactionWithdraw, TransactionTransfer:
		return true
	default:
		return false
	}
}

// UserRole уточняет, какая сторона операции ссылается на несуществующего юзера.
type UserRole string

const (
	RoleAccount UserRole = "account"
	RoleSource  UserRole = "source"
	RoleTarget  UserRole = "target"
)
