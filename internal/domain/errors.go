package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrForeignKey     = errors.New("referenced record not found")
	ErrUnknown        = errors.New("unknown error")

	ErrUnknownUser       = errors.New("unknown user")
	ErrInvalidSourceUser = errors.New("source user id not found")
	ErrInvalidTargetUser = errors.New("target user id not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrStorageFailure    = errors.New("storage failure")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidCurrency   = errors.New("invalid currency")
)

// UnknownUserError юзер отсутствует в кеше балансов. Для переводов Role указывает сторону,
// errors.Is сопоставляет ее с ErrInvalidSourceUser / ErrInvalidTargetUser.
type UnknownUserError struct {
	UserID int64
	Role   UserRole
}

func NewUnknownUserError(userID int64, role UserRole) error {
	return &UnknownUserError{UserID: userID, Role: role}
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("%s user with id %d not found", e.Role, e.UserID)
}

func (e *UnknownUserError) Is(target error) bool {
	switch target {
	case ErrUnknownUser:
		return true
	case ErrInvalidSourceUser:
		return e.Role == RoleSource
	case ErrInvalidTargetUser:
		return e.Role == RoleTarget
	default:
		return false
	}
}

type InsufficientFundsError struct {
	UserID    int64
	Kind      TransactionKind
	Currency  Currency
	Requested decimal.Decimal
	Available decimal.Decimal
}

func NewInsufficientFundsError(
	userID int64,
	kind TransactionKind,
	currency Currency,
	requested, available decimal.Decimal,
) error {
	return &InsufficientFundsError{
		UserID:    userID,
		Kind:      kind,
		Currency:  currency,
		Requested: requested,
		Available: available,
	}
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds for %s: user %d requested %s %s, available %s",
		e.Kind,
		e.UserID,
		e.Requested,
		e.Currency,
		e.Available,
	)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

type DuplicateEmailError struct {
	Email string
}

func NewDuplicateEmailError(email string) error {
	return &DuplicateEmailError{Email: email}
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("user with email %s already exists", e.Email)
}

func (e *DuplicateEmailError) Is(target error) bool {
	return target == ErrDuplicateEmail
}

// StorageError ошибка долговременного хранилища. Оригинальная ошибка доступна через errors.Unwrap.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}
