package sqliterepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
	"github.com/fsdevblog/groph-ledger/pkg/uow"
	"github.com/shopspring/decimal"
)

const (
	transactionsCreateQuery = `INSERT INTO transactions (created_at, kind, source_user_id, target_user_id, amount, currency)
VALUES (?, ?, ?, ?, ?, ?)`
	transactionsListQuery = `SELECT id, created_at, kind, source_user_id, target_user_id, amount, currency
FROM transactions ORDER BY id`
)

type TransactionRepository struct {
	conn uow.SQLDBTX
}

func NewTransactionRepository(conn uow.SQLDBTX) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

// Create добавляет запись в журнал транзакций. Сумма хранится строкой без потери точности.
func (t *TransactionRepository) Create(
	ctx context.Context,
	transaction repoargs.TransactionCreate,
) (*domain.Transaction, error) {
	createdAt := time.Now().UTC()

	var target sql.NullInt64
	if transaction.TargetUserID != nil {
		target = sql.NullInt64{Int64: *transaction.TargetUserID, Valid: true}
	}

	result, err := t.conn.ExecContext(
		ctx,
		transactionsCreateQuery,
		formatTime(createdAt),
		string(transaction.Kind),
		transaction.SourceUserID,
		target,
		transaction.Amount.String(),
		string(transaction.Currency),
	)
	if err != nil {
		return nil, convertErr(err, "creating %s transaction", transaction.Kind)
	}
	id, idErr := result.LastInsertId()
	if idErr != nil {
		return nil, convertErr(idErr, "creating %s transaction", transaction.Kind)
	}

	tr := &domain.Transaction{
		ID:           id,
		CreatedAt:    createdAt,
		Kind:         transaction.Kind,
		SourceUserID: transaction.SourceUserID,
		Amount:       transaction.Amount,
		Currency:     transaction.Currency,
	}
	if transaction.TargetUserID != nil {
		targetID := *transaction.TargetUserID
		tr.TargetUserID = &targetID
	}
	return tr, nil
}

// ListAll возвращает весь журнал по возрастанию id.
func (t *TransactionRepository) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := t.conn.QueryContext(ctx, transactionsListQuery)
	if err != nil {
		return nil, convertErr(err, "listing transactions")
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var (
			tr        domain.Transaction
			createdAt string
			kind      string
			target    sql.NullInt64
			amount    string
			currency  string
		)
		if scanErr := rows.Scan(
			&tr.ID,
			&createdAt,
			&kind,
			&tr.SourceUserID,
			&target,
			&amount,
			&currency,
		); scanErr != nil {
			return nil, convertErr(scanErr, "listing transactions")
		}

		ts, parseErr := parseTime(createdAt)
		if parseErr != nil {
			return nil, fmt.Errorf("transaction %d: %w", tr.ID, parseErr)
		}
		d, amountErr := decimal.NewFromString(amount)
		if amountErr != nil {
			return nil, fmt.Errorf("parse amount of transaction %d: %w", tr.ID, amountErr)
		}

		tr.CreatedAt = ts
		tr.Kind = domain.TransactionKind(kind)
		tr.Amount = d
		tr.Currency = domain.Currency(currency)
		if target.Valid {
			targetID := target.Int64
			tr.TargetUserID = &targetID
		}
		transactions = append(transactions, tr)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing transactions")
	}
	return transactions, nil
}
