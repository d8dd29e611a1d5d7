package sqliterepo

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// convertErr приводит ошибку sqlite к ошибкам domain: sql.ErrNoRows -> ErrRecordNotFound,
// нарушение уникальности -> ErrDuplicateKey, нарушение внешнего ключа -> ErrForeignKey,
// остальное -> ErrUnknown.
func convertErr(err error, format string, formatArgs ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, formatArgs...)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("[repository/%s] %w", msg, domain.ErrRecordNotFound)
	}

	errType := domain.ErrUnknown
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case isUniqueViolationErr(sqliteErr):
			errType = domain.ErrDuplicateKey
		case isForeignKeyViolationErr(sqliteErr):
			errType = domain.ErrForeignKey
		}
	}

	return fmt.Errorf("[repository/%s] %w: %s", msg, errType, err.Error())
}

func isUniqueViolationErr(err *sqlite.Error) bool {
	switch err.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// соединение без расширенных кодов ошибок.
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	default:
		return false
	}
}

func isForeignKeyViolationErr(err *sqlite.Error) bool {
	switch err.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
	default:
		return false
	}
}
