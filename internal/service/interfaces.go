package service

import (
	"context"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

// UserRepository долговременный реестр юзеров. Id назначаются по возрастанию.
type UserRepository interface {
	CreateUser(ctx context.Context, user repoargs.CreateUser) (*domain.User, error)
	// ListUsers возвращает всех юзеров в порядке возрастания id.
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// TransactionRepository журнал транзакций, только добавление.
type TransactionRepository interface {
	Create(ctx context.Context, transaction repoargs.TransactionCreate) (*domain.Transaction, error)
	// ListAll возвращает все записи журнала в порядке возрастания id.
	ListAll(ctx context.Context) ([]domain.Transaction, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.TransactionCommitted) error
}
