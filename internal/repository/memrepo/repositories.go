package memrepo

import (
	"context"
	"fmt"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
)

type UserRepository struct {
	store *Store
}

// CreateUser сохраняет юзера. Занятый email возвращает domain.ErrDuplicateKey.
func (r *UserRepository) CreateUser(_ context.Context, args repoargs.CreateUser) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[args.Email]; ok {
		return nil, fmt.Errorf("email %q: %w", args.Email, domain.ErrDuplicateKey)
	}

	user := domain.User{
		ID:        s.nextUserID,
		CreatedAt: s.now().UTC(),
		Name:      args.Name,
		Email:     args.Email,
	}
	s.nextUserID++
	s.users = append(s.users, user)
	s.emails[args.Email] = struct{}{}

	return &user, nil
}

func (r *UserRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, len(s.users))
	copy(users, s.users)
	return users, nil
}

type TransactionRepository struct {
	store *Store
}

func (r *TransactionRepository) Create(
	_ context.Context,
	args repoargs.TransactionCreate,
) (*domain.Transaction, error) {
	if !args.Kind.Valid() {
		return nil, fmt.Errorf("unknown transaction kind %q", args.Kind)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	t := domain.Transaction{
		ID:           s.nextTransactionID,
		CreatedAt:    s.now().UTC(),
		Kind:         args.Kind,
		SourceUserID: args.SourceUserID,
		Amount:       args.Amount,
		Currency:     args.Currency,
	}
	if args.TargetUserID != nil {
		targetID := *args.TargetUserID
		t.TargetUserID = &targetID
	}
	s.nextTransactionID++
	s.transactions = append(s.transactions, t)

	out := t
	return &out, nil
}

func (r *TransactionRepository) ListAll(_ context.Context) ([]domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	transactions := make([]domain.Transaction, len(s.transactions))
	copy(transactions, s.transactions)
	return transactions, nil
}
