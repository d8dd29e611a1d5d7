package sqliterepo

import (
	"context"
	"fmt"
	"time"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
	"github.com/fsdevblog/groph-ledger/pkg/uow"
)

const (
	usersCreateQuery = `INSERT INTO users (created_at, name, email) VALUES (?, ?, ?)`
	usersListQuery   = `SELECT id, created_at, name, email FROM users ORDER BY id`
)

type UserRepository struct {
	conn uow.SQLDBTX
}

func NewUserRepository(conn uow.SQLDBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

// CreateUser создает юзера. В случае конфликта email возвращает ошибку domain.ErrDuplicateKey.
func (u *UserRepository) CreateUser(ctx context.Context, user repoargs.CreateUser) (*domain.User, error) {
	createdAt := time.Now().UTC()

	result, err := u.conn.ExecContext(ctx, usersCreateQuery, formatTime(createdAt), user.Name, user.Email)
	if err != nil {
		return nil, convertErr(err, "creating user with email %s", user.Email)
	}
	id, idErr := result.LastInsertId()
	if idErr != nil {
		return nil, convertErr(idErr, "creating user with email %s", user.Email)
	}

	return &domain.User{
		ID:        id,
		CreatedAt: createdAt,
		Name:      user.Name,
		Email:     user.Email,
	}, nil
}

// ListUsers возвращает всех юзеров по возрастанию id.
func (u *UserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := u.conn.QueryContext(ctx, usersListQuery)
	if err != nil {
		return nil, convertErr(err, "listing users")
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var (
			user      domain.User
			createdAt string
		)
		if scanErr := rows.Scan(&user.ID, &createdAt, &user.Name, &user.Email); scanErr != nil {
			return nil, convertErr(scanErr, "listing users")
		}
		t, parseErr := parseTime(createdAt)
		if parseErr != nil {
			return nil, fmt.Errorf("user %d: %w", user.ID, parseErr)
		}
		user.CreatedAt = t
		users = append(users, user)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing users")
	}
	return users, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", s, err)
	}
	return t, nil
}
