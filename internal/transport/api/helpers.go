package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	msgUserNotFound            = "User id not found."
	msgSourceUserNotFound      = "Source user id not found."
	msgTargetUserNotFound      = "Target user id not found."
	msgInsufficientForTransfer = "Insufficient funds for transfer."
	msgInsufficientForWithdraw = "Insufficient funds for withdrawal."
	msgDuplicateEmail          = "User with this email already exists."
)

// abortWithError прерывает обработку и передает ошибку в middlewares.Errors. В отличии от
// gin.Context.AbortWithError не отправляет заголовки, тело ответа пишет middleware.
func abortWithError(c *gin.Context, status int, err error, errType gin.ErrorType) {
	_ = c.Error(err).SetType(errType)
	c.Status(status)
	c.Abort()
}

func abortWithPublicMessage(c *gin.Context, status int, msg string) {
	abortWithError(c, status, errors.New(msg), gin.ErrorTypePublic)
}

func abortWithBindError(c *gin.Context, err error) {
	abortWithError(c, http.StatusUnprocessableEntity, fmt.Errorf("invalid request params: %w", err), gin.ErrorTypePublic)
}

// abortWithServiceError сопоставляет ошибку сервиса со статусом ответа.
func abortWithServiceError(c *gin.Context, err error) {
	var fundsErr *domain.InsufficientFundsError

	switch {
	case errors.Is(err, domain.ErrInvalidSourceUser):
		abortWithPublicMessage(c, http.StatusNotFound, msgSourceUserNotFound)
	case errors.Is(err, domain.ErrInvalidTargetUser):
		abortWithPublicMessage(c, http.StatusNotFound, msgTargetUserNotFound)
	case errors.Is(err, domain.ErrUnknownUser):
		abortWithPublicMessage(c, http.StatusNotFound, msgUserNotFound)
	case errors.As(err, &fundsErr):
		msg := msgInsufficientForWithdraw
		if fundsErr.Kind == domain.TransactionTransfer {
			msg = msgInsufficientForTransfer
		}
		abortWithPublicMessage(c, http.StatusPaymentRequired, msg)
	case errors.Is(err, domain.ErrDuplicateEmail):
		abortWithPublicMessage(c, http.StatusConflict, msgDuplicateEmail)
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidCurrency):
		abortWithError(c, http.StatusUnprocessableEntity, err, gin.ErrorTypePublic)
	default:
		abortWithError(c, http.StatusInternalServerError, err, gin.ErrorTypePrivate)
	}
}

// parseAmountCurrency приводит параметры запроса к типам домена.
func parseAmountCurrency(rawAmount, rawCurrency string) (decimal.Decimal, domain.Currency, error) {
	amount, amountErr := domain.ParseAmount(rawAmount)
	if amountErr != nil {
		return decimal.Zero, "", amountErr //nolint:wrapcheck
	}
	currency, currencyErr := domain.ParseCurrency(rawCurrency)
	if currencyErr != nil {
		return decimal.Zero, "", currencyErr //nolint:wrapcheck
	}
	return amount, currency, nil
}
