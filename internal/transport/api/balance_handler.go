package api

import (
	"context"
	"net/http"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/gin-gonic/gin"
)

type BalanceHandler struct {
	svs LedgerServicer
}

func NewBalanceHandler(svs LedgerServicer) *BalanceHandler {
	return &BalanceHandler{
		svs: svs,
	}
}

type BalanceParams struct {
	UserID   int64  `form:"user_id" binding:"required,gt=0"`
	Currency string `form:"currency_type" binding:"omitempty,currency"`
}

// Show GET BalanceRoute. Без currency_type возвращает балансы по всем валютам.
func (b *BalanceHandler) Show(c *gin.Context) {
	var params BalanceParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	response := gin.H{"user_id": params.UserID}

	if params.Currency != "" {
		currency, parseErr := domain.ParseCurrency(params.Currency)
		if parseErr != nil {
			abortWithBindError(c, parseErr)
			return
		}
		balance, err := b.svs.GetBalance(reqCtx, params.UserID, currency)
		if err != nil {
			abortWithServiceError(c, err)
			return
		}
		response[string(currency)] = balance.InexactFloat64()
		c.JSON(http.StatusOK, response)
		return
	}

	balances, err := b.svs.GetBalances(reqCtx, params.UserID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	for _, currency := range domain.Currencies() {
		response[string(currency)] = balances[currency].InexactFloat64()
	}
	c.JSON(http.StatusOK, response)
}
