// Package memrepo хранилище юзеров и журнала транзакций в памяти. Данные не переживают перезапуск,
// используется для тестов и для запуска без базы данных.
package memrepo

import (
	"context"
	"sync"
	"time"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
	"github.com/fsdevblog/groph-ledger/pkg/uow"
)

// Store реализует uow.UOW. Транзакции Do выполняются последовательно; при ошибке fn все записи,
// сделанные внутри, откатываются.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users        []domain.User
	emails       map[string]struct{}
	transactions []domain.Transaction

	nextUserID        int64
	nextTransactionID int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		emails:            make(map[string]struct{}),
		nextUserID:        1,
		nextTransactionID: 1,
		now:               time.Now,
	}
}

type snapshot struct {
	users, transactions           int
	nextUserID, nextTransactionID int64
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:             len(s.users),
		transactions:      len(s.transactions),
		nextUserID:        s.nextUserID,
		nextTransactionID: s.nextTransactionID,
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users[snap.users:] {
		delete(s.emails, u.Email)
	}
	s.users = s.users[:snap.users]
	s.transactions = s.transactions[:snap.transactions]
	s.nextUserID = snap.nextUserID
	s.nextTransactionID = snap.nextTransactionID
}

// Do выполняет fn как единое целое.
func (s *Store) Do(ctx context.Context, fn func(context.Context, uow.TX) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}

	snap := s.snapshot()
	if err := fn(ctx, &tx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// GetRepository возвращает репозиторий или ошибку uow.ErrRepositoryNotRegistered.
func (s *Store) GetRepository(name uow.RepositoryName) (uow.Repository, error) {
	switch name {
	case uow.RepositoryName(repoargs.UserRepoName):
		return &UserRepository{store: s}, nil
	case uow.RepositoryName(repoargs.TransactionRepoName):
		return &TransactionRepository{store: s}, nil
	default:
		return nil, uow.ErrRepositoryNotRegistered
	}
}

type tx struct {
	store *Store
}

func (t *tx) Get(name uow.RepositoryName) (uow.Repository, error) {
	return t.store.GetRepository(name)
}

var _ uow.UOW = (*Store)(nil)
