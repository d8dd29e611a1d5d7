package api

import (
	"fmt"
	"time"

	"github.com/fsdevblog/groph-ledger/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	IndexRoute    = "/"
	HealthRoute   = "/health"
	CreateRoute   = "/create"
	DepositRoute  = "/deposit"
	WithdrawRoute = "/withdraw"
	TransferRoute = "/transfer"
	BalanceRoute  = "/balance"
)

type RouterArgs struct {
	Logger        *logrus.Logger
	LedgerService LedgerServicer
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("new router: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	userHandler := NewUserHandler(args.LedgerService)
	transactionHandler := NewTransactionHandler(args.LedgerService)
	balanceHandler := NewBalanceHandler(args.LedgerService)

	r.GET(IndexRoute, Index)
	r.GET(HealthRoute, Health)

	r.GET(CreateRoute, userHandler.Create)
	r.GET(DepositRoute, transactionHandler.Deposit)
	r.GET(WithdrawRoute, transactionHandler.Withdraw)
	r.GET(TransferRoute, transactionHandler.Transfer)
	r.GET(BalanceRoute, balanceHandler.Show)
	return r, nil
}
