package uow

import (
	"context"
	"database/sql"
	"errors"
)

// SQLDBTX общий интерфейс sql.DB и sql.Tx.
type SQLDBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLRepositoryFactory func(SQLDBTX) Repository

// SQLUnitOfWork реализация UOW поверх database/sql.
type SQLUnitOfWork struct {
	db           *sql.DB
	txOptions    *sql.TxOptions
	repositories map[RepositoryName]SQLRepositoryFactory
}

func NewSQLUnitOfWork(db *sql.DB, txOptions *sql.TxOptions) *SQLUnitOfWork {
	return &SQLUnitOfWork{
		db:           db,
		txOptions:    txOptions,
		repositories: make(map[RepositoryName]SQLRepositoryFactory),
	}
}

// Register регистрирует репозиторий. Если репозиторий уже зарегистрирован, возвращает
// ошибку ErrRepositoryAlreadyRegistered.
func (u *SQLUnitOfWork) Register(name RepositoryName, factory SQLRepositoryFactory) error {
	if _, ok := u.repositories[name]; ok {
		return ErrRepositoryAlreadyRegistered
	}
	u.repositories[name] = factory
	return nil
}

// Do выполняет функцию fn внутри транзакции.
func (u *SQLUnitOfWork) Do(ctx context.Context, fn func(context.Context, TX) error) (err error) {
	tx, txErr := u.db.BeginTx(ctx, u.txOptions)
	if txErr != nil {
		return txErr //nolint:wrapcheck
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, rollbackErr)
		}
	}()

	if transErr := fn(ctx, NewSQLTransaction(tx, u.repositories)); transErr != nil {
		return transErr
	}
	err = tx.Commit()
	return
}

// GetRepository возвращает репозиторий или ошибку ErrRepositoryNotRegistered.
func (u *SQLUnitOfWork) GetRepository(name RepositoryName) (Repository, error) {
	if repoFactory, ok := u.repositories[name]; ok {
		return repoFactory(u.db), nil
	}
	return nil, notRegisteredError(name)
}
