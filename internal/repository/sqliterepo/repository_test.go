package sqliterepo

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
	"github.com/fsdevblog/groph-ledger/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type RepositoryTestSuite struct {
	suite.Suite
	db       *sql.DB
	userRepo *UserRepository
	trRepo   *TransactionRepository
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) SetupTest() {
	l := logrus.New()
	l.SetOutput(io.Discard)

	db, err := Open(s.T().Context(), filepath.Join(s.T().TempDir(), "ledger.db"), l)
	s.Require().NoError(err)
	s.db = db
	s.userRepo = NewUserRepository(db)
	s.trRepo = NewTransactionRepository(db)
}

func (s *RepositoryTestSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func (s *RepositoryTestSuite) createUser() *domain.User {
	user, err := s.userRepo.CreateUser(s.T().Context(), repoargs.CreateUser{
		Name:  gofakeit.Name(),
		Email: gofakeit.Email(),
	})
	s.Require().NoError(err)
	return user
}

func (s *RepositoryTestSuite) TestCreateUser() {
	first := s.createUser()
	second := s.createUser()
	s.Equal(first.ID+1, second.ID)

	_, err := s.userRepo.CreateUser(s.T().Context(), repoargs.CreateUser{Name: "dup", Email: first.Email})
	s.Require().ErrorIs(err, domain.ErrDuplicateKey)

	users, err := s.userRepo.ListUsers(s.T().Context())
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal(first.Email, users[0].Email)
	s.Equal(second.Name, users[1].Name)
	s.WithinDuration(first.CreatedAt, users[0].CreatedAt, 0)
}

func (s *RepositoryTestSuite) TestTransactions() {
	alice := s.createUser()
	bob := s.createUser()

	deposit, err := s.trRepo.Create(s.T().Context(), repoargs.TransactionCreate{
		Kind:         domain.TransactionDeposit,
		SourceUserID: alice.ID,
		Amount:       decimal.RequireFromString("1337.37"),
		Currency:     domain.CurrencyEthereum,
	})
	s.Require().NoError(err)

	transfer, err := s.trRepo.Create(s.T().Context(), repoargs.TransactionCreate{
		Kind:         domain.TransactionTransfer,
		SourceUserID: alice.ID,
		TargetUserID: &bob.ID,
		Amount:       decimal.RequireFromString("0.000000000000000001"),
		Currency:     domain.CurrencyEthereum,
	})
	s.Require().NoError(err)
	s.Greater(transfer.ID, deposit.ID)

	list, err := s.trRepo.ListAll(s.T().Context())
	s.Require().NoError(err)
	s.Require().Len(list, 2)

	s.Equal(domain.TransactionDeposit, list[0].Kind)
	s.Nil(list[0].TargetUserID)
	s.True(decimal.RequireFromString("1337.37").Equal(list[0].Amount))

	s.Equal(domain.TransactionTransfer, list[1].Kind)
	s.Require().NotNil(list[1].TargetUserID)
	s.Equal(bob.ID, *list[1].TargetUserID)
	s.Equal("0.000000000000000001", list[1].Amount.String())
	s.Equal(domain.CurrencyEthereum, list[1].Currency)
}

func (s *RepositoryTestSuite) TestTransactionUnknownUser() {
	_, err := s.trRepo.Create(s.T().Context(), repoargs.TransactionCreate{
		Kind:         domain.TransactionDeposit,
		SourceUserID: 404,
		Amount:       decimal.NewFromInt(1),
		Currency:     domain.CurrencyMatic,
	})
	s.Require().ErrorIs(err, domain.ErrForeignKey)
}

func (s *RepositoryTestSuite) TestUnitOfWork() {
	unitOfWork := uow.NewSQLUnitOfWork(s.db, nil)
	s.Require().NoError(unitOfWork.Register(
		uow.RepositoryName(repoargs.UserRepoName),
		func(conn uow.SQLDBTX) uow.Repository { return NewUserRepository(conn) },
	))

	err := unitOfWork.Do(s.T().Context(), func(ctx context.Context, tx uow.TX) error {
		repo, repoErr := uow.GetAs[*UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		s.Require().NoError(repoErr)
		_, createErr := repo.CreateUser(ctx, repoargs.CreateUser{Name: "a", Email: "a@example.com"})
		s.Require().NoError(createErr)
		_, createErr = repo.CreateUser(ctx, repoargs.CreateUser{Name: "b", Email: "a@example.com"})
		return createErr
	})
	s.Require().ErrorIs(err, domain.ErrDuplicateKey)

	users, err := s.userRepo.ListUsers(s.T().Context())
	s.Require().NoError(err)
	s.Empty(users)
}

func (s *RepositoryTestSuite) TestReopenKeepsData() {
	user := s.createUser()
	s.Require().NoError(s.db.Close())

	l := logrus.New()
	l.SetOutput(io.Discard)
	path := filepath.Join(s.T().TempDir(), "reopen.db")

	db, err := Open(s.T().Context(), path, l)
	s.Require().NoError(err)
	_, err = NewUserRepository(db).CreateUser(s.T().Context(), repoargs.CreateUser{
		Name:  user.Name,
		Email: user.Email,
	})
	s.Require().NoError(err)
	s.Require().NoError(db.Close())

	// повторное открытие не должно заново применять миграции.
	db, err = Open(s.T().Context(), path, l)
	s.Require().NoError(err)
	s.db = db

	users, err := NewUserRepository(db).ListUsers(s.T().Context())
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal(user.Email, users[0].Email)
}
