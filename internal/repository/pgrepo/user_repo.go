package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
	"github.com/fsdevblog/groph-ledger/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const (
	usersCreateQuery = `INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id, created_at, name, email`
	usersListQuery   = `SELECT id, created_at, name, email FROM users ORDER BY id`
)

type UserRepository struct {
	conn uow.DBTX
}

func NewUserRepository(conn uow.DBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

// CreateUser создает юзера в базе данных. В случае конфликта email возвращает ошибку domain.ErrDuplicateKey,
// во всех других случаях - domain.ErrUnknown.
func (u *UserRepository) CreateUser(ctx context.Context, user repoargs.CreateUser) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, usersCreateQuery, user.Name, user.Email)

	var dbUser domain.User
	if err := row.Scan(&dbUser.ID, &dbUser.CreatedAt, &dbUser.Name, &dbUser.Email); err != nil {
		return nil, convertErr(err, "creating user with email %s", user.Email)
	}
	return &dbUser, nil
}

// ListUsers возвращает всех юзеров по возрастанию id.
func (u *UserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := u.conn.Query(ctx, usersListQuery)
	if err != nil {
		return nil, convertErr(err, "listing users")
	}

	users, collectErr := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		var user domain.User
		scanErr := row.Scan(&user.ID, &user.CreatedAt, &user.Name, &user.Email)
		return user, scanErr //nolint:wrapcheck
	})
	if collectErr != nil {
		return nil, convertErr(collectErr, "listing users")
	}
	return users, nil
}
