package api

import (
	"context"
	"net/http"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TransactionHandler struct {
	svs LedgerServicer
}

func NewTransactionHandler(svs LedgerServicer) *TransactionHandler {
	return &TransactionHandler{
		svs: svs,
	}
}

// AccountOperationParams параметры пополнения и списания.
type AccountOperationParams struct {
	UserID   int64  `form:"user_id" binding:"required,gt=0"`
	Amount   string `form:"amount" binding:"required,max=40,numeric,amount"`
	Currency string `form:"currency_type" binding:"required,currency"`
}

type TransferParams struct {
	SourceUserID int64  `form:"source_user_id" binding:"required,gt=0"`
	TargetUserID int64  `form:"target_user_id" binding:"required,gt=0"`
	Amount       string `form:"amount" binding:"required,max=40,numeric,amount"`
	Currency     string `form:"currency_type" binding:"required,currency"`
}

type AccountOperationResponse struct {
	TransactionID int64           `json:"transaction_id"`
	UserID        int64           `json:"user_id"`
	Amount        float64         `json:"amount"`
	Currency      domain.Currency `json:"currency_type"`
}

type TransferResponse struct {
	TransactionID int64           `json:"transaction_id"`
	SourceUserID  int64           `json:"source_user_id"`
	TargetUserID  int64           `json:"target_user_id"`
	Amount        float64         `json:"amount"`
	Currency      domain.Currency `json:"currency_type"`
}

type accountOperation func(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
	currency domain.Currency,
) (*domain.Transaction, error)

// Deposit GET DepositRoute.
func (t *TransactionHandler) Deposit(c *gin.Context) {
	t.handleAccountOperation(c, t.svs.Deposit)
}

// Withdraw GET WithdrawRoute.
func (t *TransactionHandler) Withdraw(c *gin.Context) {
	t.handleAccountOperation(c, t.svs.Withdraw)
}

func (t *TransactionHandler) handleAccountOperation(c *gin.Context, op accountOperation) {
	var params AccountOperationParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}
	amount, currency, parseErr := parseAmountCurrency(params.Amount, params.Currency)
	if parseErr != nil {
		abortWithBindError(c, parseErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	tr, err := op(reqCtx, params.UserID, amount, currency)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, &AccountOperationResponse{
		TransactionID: tr.ID,
		UserID:        tr.SourceUserID,
		Amount:        tr.Amount.InexactFloat64(),
		Currency:      tr.Currency,
	})
}

// Transfer GET TransferRoute.
func (t *TransactionHandler) Transfer(c *gin.Context) {
	var params TransferParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}
	amount, currency, parseErr := parseAmountCurrency(params.Amount, params.Currency)
	if parseErr != nil {
		abortWithBindError(c, parseErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	tr, err := t.svs.Transfer(reqCtx, params.SourceUserID, params.TargetUserID, amount, currency)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, &TransferResponse{
		TransactionID: tr.ID,
		SourceUserID:  tr.SourceUserID,
		TargetUserID:  params.TargetUserID,
		Amount:        tr.Amount.InexactFloat64(),
		Currency:      tr.Currency,
	})
}
