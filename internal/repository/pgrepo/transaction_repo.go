package pgrepo

import (
	"context"
	"fmt"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
	"github.com/fsdevblog/groph-ledger/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	transactionColumns = `id, created_at, kind, source_user_id, target_user_id, amount::text, currency`

	transactionsCreateQuery = `INSERT INTO transactions (kind, source_user_id, target_user_id, amount, currency)
VALUES ($1, $2, $3, CAST($4::text AS NUMERIC), $5)
RETURNING ` + transactionColumns

	transactionsListQuery = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY id`
)

type TransactionRepository struct {
	conn uow.DBTX
}

func NewTransactionRepository(conn uow.DBTX) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

// Create добавляет запись в журнал транзакций.
func (t *TransactionRepository) Create(
	ctx context.Context,
	transaction repoargs.TransactionCreate,
) (*domain.Transaction, error) {
	row := t.conn.QueryRow(
		ctx,
		transactionsCreateQuery,
		string(transaction.Kind),
		transaction.SourceUserID,
		transaction.TargetUserID,
		transaction.Amount.String(),
		string(transaction.Currency),
	)

	dbTrans, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "creating %s transaction", transaction.Kind)
	}
	return dbTrans, nil
}

// ListAll возвращает весь журнал по возрастанию id.
func (t *TransactionRepository) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := t.conn.Query(ctx, transactionsListQuery)
	if err != nil {
		return nil, convertErr(err, "listing transactions")
	}

	transactions, collectErr := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		tr, scanErr := scanTransaction(row)
		if scanErr != nil {
			return domain.Transaction{}, scanErr
		}
		return *tr, nil
	})
	if collectErr != nil {
		return nil, convertErr(collectErr, "listing transactions")
	}
	return transactions, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tr       domain.Transaction
		kind     string
		amount   string
		currency string
	)
	if err := row.Scan(
		&tr.ID,
		&tr.CreatedAt,
		&kind,
		&tr.SourceUserID,
		&tr.TargetUserID,
		&amount,
		&currency,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}

	d, parseErr := decimal.NewFromString(amount)
	if parseErr != nil {
		return nil, fmt.Errorf("parse amount of transaction %d: %w", tr.ID, parseErr)
	}
	tr.Amount = d
	tr.Kind = domain.TransactionKind(kind)
	tr.Currency = domain.Currency(currency)
	return &tr, nil
}
