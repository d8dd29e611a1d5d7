package service

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/fsdevblog/groph-ledger/internal/repository/memrepo"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
	"github.com/fsdevblog/groph-ledger/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	logger  *logrus.Logger
	store   *memrepo.Store
	service *LedgerService
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.logger = logrus.New()
	s.logger.SetOutput(io.Discard)

	s.store = memrepo.NewStore()
	ledgerService, err := NewLedgerService(s.store, s.logger)
	s.Require().NoError(err)
	s.Require().NoError(ledgerService.Rebuild(s.T().Context()))
	s.service = ledgerService
}

func (s *LedgerServiceTestSuite) createUser() *domain.User {
	user, err := s.service.CreateUser(s.T().Context(), gofakeit.Name(), gofakeit.Email())
	s.Require().NoError(err)
	return user
}

func (s *LedgerServiceTestSuite) balance(userID int64, currency domain.Currency) string {
	b, err := s.service.GetBalance(s.T().Context(), userID, currency)
	s.Require().NoError(err)
	return b.String()
}

func (s *LedgerServiceTestSuite) journalLen() int {
	repo, err := uow.GetRepositoryAs[TransactionRepository](s.store, uow.RepositoryName(repoargs.TransactionRepoName))
	s.Require().NoError(err)
	list, err := repo.ListAll(s.T().Context())
	s.Require().NoError(err)
	return len(list)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *LedgerServiceTestSuite) TestCreateUser() {
	first := s.createUser()
	second := s.createUser()
	s.Less(first.ID, second.ID)

	balances, err := s.service.GetBalances(s.T().Context(), first.ID)
	s.Require().NoError(err)
	s.Len(balances, len(domain.Currencies()))
	for _, c := range domain.Currencies() {
		s.True(balances[c].IsZero(), c)
	}

	_, err = s.service.CreateUser(s.T().Context(), "other", first.Email)
	s.Require().ErrorIs(err, domain.ErrDuplicateEmail)

	var dupErr *domain.DuplicateEmailError
	s.Require().ErrorAs(err, &dupErr)
	s.Equal(first.Email, dupErr.Email)
}

func (s *LedgerServiceTestSuite) TestDepositWithdraw() {
	user := s.createUser()

	_, err := s.service.Deposit(s.T().Context(), user.ID, dec("36"), domain.CurrencyBitcoin)
	s.Require().NoError(err)
	s.Equal("36", s.balance(user.ID, domain.CurrencyBitcoin))

	tr, err := s.service.Withdraw(s.T().Context(), user.ID, dec("36"), domain.CurrencyBitcoin)
	s.Require().NoError(err)
	s.Equal(domain.TransactionWithdraw, tr.Kind)
	s.Equal("0", s.balance(user.ID, domain.CurrencyBitcoin))

	_, err = s.service.Withdraw(s.T().Context(), user.ID, dec("36"), domain.CurrencyBitcoin)
	s.Require().ErrorIs(err, domain.ErrInsufficientFunds)

	var fundsErr *domain.InsufficientFundsError
	s.Require().ErrorAs(err, &fundsErr)
	s.Equal(domain.TransactionWithdraw, fundsErr.Kind)
	s.True(fundsErr.Available.IsZero())

	s.Equal("0", s.balance(user.ID, domain.CurrencyBitcoin))
	s.Equal(2, s.journalLen())
}

func (s *LedgerServiceTestSuite) TestCurrenciesAreIndependent() {
	user := s.createUser()

	_, err := s.service.Deposit(s.T().Context(), user.ID, dec("1337.37"), domain.CurrencyEthereum)
	s.Require().NoError(err)

	_, err = s.service.Withdraw(s.T().Context(), user.ID, dec("1"), domain.CurrencyBitcoin)
	s.Require().ErrorIs(err, domain.ErrInsufficientFunds)

	s.Equal("1337.37", s.balance(user.ID, domain.CurrencyEthereum))
	s.Equal("0", s.balance(user.ID, domain.CurrencyBitcoin))
	s.Equal("0", s.balance(user.ID, domain.CurrencyMatic))
}

func (s *LedgerServiceTestSuite) TestTransfer() {
	alice := s.createUser()
	bob := s.createUser()

	_, err := s.service.Deposit(s.T().Context(), alice.ID, dec("342.65"), domain.CurrencyMatic)
	s.Require().NoError(err)
	_, err = s.service.Deposit(s.T().Context(), bob.ID, dec("12.05"), domain.CurrencyMatic)
	s.Require().NoError(err)

	tr, err := s.service.Transfer(s.T().Context(), alice.ID, bob.ID, dec("10"), domain.CurrencyMatic)
	s.Require().NoError(err)
	s.Require().NotNil(tr.TargetUserID)
	s.Equal(bob.ID, *tr.TargetUserID)

	s.Equal("332.65", s.balance(alice.ID, domain.CurrencyMatic))
	s.Equal("22.05", s.balance(bob.ID, domain.CurrencyMatic))
	s.Equal(3, s.journalLen())
}

func (s *LedgerServiceTestSuite) TestTransferErrors() {
	alice := s.createUser()
	bob := s.createUser()

	_, err := s.service.Deposit(s.T().Context(), alice.ID, dec("10.04"), domain.CurrencyEthereum)
	s.Require().NoError(err)

	cases := []struct {
		name     string
		sourceID int64
		targetID int64
		amount   string
		wantErr  error
	}{
		{name: "unknown source", sourceID: 404, targetID: bob.ID, amount: "1", wantErr: domain.ErrInvalidSourceUser},
		{name: "unknown target", sourceID: alice.ID, targetID: 404, amount: "1", wantErr: domain.ErrInvalidTargetUser},
		{
			name:     "insufficient funds",
			sourceID: alice.ID,
			targetID: bob.ID,
			amount:   "10.05",
			wantErr:  domain.ErrInsufficientFunds,
		},
		{name: "zero amount", sourceID: alice.ID, targetID: bob.ID, amount: "0", wantErr: domain.ErrInvalidAmount},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, transferErr := s.service.Transfer(
				s.T().Context(),
				tc.sourceID,
				tc.targetID,
				dec(tc.amount),
				domain.CurrencyEthereum,
			)
			s.Require().ErrorIs(transferErr, tc.wantErr)
		})
	}

	// ни одна из неудачных операций не попала в журнал и не изменила балансы.
	s.Equal(1, s.journalLen())
	s.Equal("10.04", s.balance(alice.ID, domain.CurrencyEthereum))
	s.Equal("0", s.balance(bob.ID, domain.CurrencyEthereum))
}

func (s *LedgerServiceTestSuite) TestSelfTransfer() {
	user := s.createUser()

	_, err := s.service.Deposit(s.T().Context(), user.ID, dec("4.5"), domain.CurrencyBitcoin)
	s.Require().NoError(err)
	_, err = s.service.Transfer(s.T().Context(), user.ID, user.ID, dec("4.5"), domain.CurrencyBitcoin)
	s.Require().NoError(err)

	s.Equal("4.5", s.balance(user.ID, domain.CurrencyBitcoin))
}

func (s *LedgerServiceTestSuite) TestUnknownUser() {
	_, err := s.service.Deposit(s.T().Context(), 404, dec("1"), domain.CurrencyMatic)
	s.Require().ErrorIs(err, domain.ErrUnknownUser)

	_, err = s.service.Withdraw(s.T().Context(), 404, dec("1"), domain.CurrencyMatic)
	s.Require().ErrorIs(err, domain.ErrUnknownUser)

	_, err = s.service.GetBalance(s.T().Context(), 404, domain.CurrencyMatic)
	s.Require().ErrorIs(err, domain.ErrUnknownUser)

	_, err = s.service.GetBalances(s.T().Context(), 404)
	s.Require().ErrorIs(err, domain.ErrUnknownUser)

	s.Equal(0, s.journalLen())
}

func (s *LedgerServiceTestSuite) TestInvalidArguments() {
	user := s.createUser()

	cases := []struct {
		name     string
		amount   string
		currency domain.Currency
		wantErr  error
	}{
		{name: "zero", amount: "0", currency: domain.CurrencyMatic, wantErr: domain.ErrInvalidAmount},
		{name: "negative", amount: "-37", currency: domain.CurrencyMatic, wantErr: domain.ErrInvalidAmount},
		{name: "exponent overflow", amount: "1e400", currency: domain.CurrencyMatic, wantErr: domain.ErrInvalidAmount},
		{name: "exponent underflow", amount: "1e-400", currency: domain.CurrencyMatic, wantErr: domain.ErrInvalidAmount},
		{name: "unknown currency", amount: "1", currency: "dogecoin", wantErr: domain.ErrInvalidCurrency},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Deposit(s.T().Context(), user.ID, dec(tc.amount), tc.currency)
			s.Require().ErrorIs(err, tc.wantErr)
			_, err = s.service.Withdraw(s.T().Context(), user.ID, dec(tc.amount), tc.currency)
			s.Require().ErrorIs(err, tc.wantErr)
		})
	}

	_, err := s.service.GetBalance(s.T().Context(), user.ID, "dogecoin")
	s.Require().ErrorIs(err, domain.ErrInvalidCurrency)
	s.Equal(0, s.journalLen())
}

func (s *LedgerServiceTestSuite) TestRebuild() {
	alice := s.createUser()
	bob := s.createUser()
	carol := s.createUser()

	_, err := s.service.Deposit(s.T().Context(), alice.ID, dec("342.65"), domain.CurrencyMatic)
	s.Require().NoError(err)
	_, err = s.service.Deposit(s.T().Context(), bob.ID, dec("337.98"), domain.CurrencyEthereum)
	s.Require().NoError(err)
	_, err = s.service.Transfer(s.T().Context(), alice.ID, bob.ID, dec("37"), domain.CurrencyMatic)
	s.Require().NoError(err)
	_, err = s.service.Withdraw(s.T().Context(), bob.ID, dec("12.05"), domain.CurrencyEthereum)
	s.Require().NoError(err)
	_, err = s.service.Withdraw(s.T().Context(), carol.ID, dec("1"), domain.CurrencyEthereum)
	s.Require().ErrorIs(err, domain.ErrInsufficientFunds)

	want := make(map[int64]domain.Balances)
	for _, u := range []*domain.User{alice, bob, carol} {
		b, balErr := s.service.GetBalances(s.T().Context(), u.ID)
		s.Require().NoError(balErr)
		want[u.ID] = b
	}

	// новый экземпляр поверх того же хранилища, как после перезапуска.
	restarted, err := NewLedgerService(s.store, s.logger)
	s.Require().NoError(err)

	for range 2 {
		s.Require().NoError(restarted.Rebuild(s.T().Context()))
		for userID, wantBalances := range want {
			got, balErr := restarted.GetBalances(s.T().Context(), userID)
			s.Require().NoError(balErr)
			for _, c := range domain.Currencies() {
				s.True(wantBalances[c].Equal(got[c]), "user %d %s: want %s got %s", userID, c, wantBalances[c], got[c])
			}
		}
	}

	s.Equal("305.65", restarted.cache.balances[alice.ID][domain.CurrencyMatic].String())
	s.Equal("37", restarted.cache.balances[bob.ID][domain.CurrencyMatic].String())
	s.Equal("325.93", restarted.cache.balances[bob.ID][domain.CurrencyEthereum].String())
}

func (s *LedgerServiceTestSuite) TestRebuildUnregisteredUser() {
	repo, err := uow.GetRepositoryAs[TransactionRepository](s.store, uow.RepositoryName(repoargs.TransactionRepoName))
	s.Require().NoError(err)

	// запись журнала ссылается на юзера, которого нет в реестре.
	_, err = repo.Create(s.T().Context(), repoargs.TransactionCreate{
		Kind:         domain.TransactionDeposit,
		SourceUserID: 99,
		Amount:       dec("12.05"),
		Currency:     domain.CurrencyBitcoin,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Rebuild(s.T().Context()))
	s.Equal("12.05", s.balance(99, domain.CurrencyBitcoin))
}

func (s *LedgerServiceTestSuite) TestConcurrentOperations() {
	const (
		workers   = 8
		perWorker = 25
	)
	users := []*domain.User{s.createUser(), s.createUser(), s.createUser()}
	for _, u := range users {
		_, err := s.service.Deposit(s.T().Context(), u.ID, dec("10"), domain.CurrencyMatic)
		s.Require().NoError(err)
	}

	var succeeded atomic.Int64
	// сумма пополнений минус сумма списаний в сотых долях, переводы ее не меняют.
	var netCents atomic.Int64
	netCents.Store(int64(len(users)) * 1000)
	g, ctx := errgroup.WithContext(s.T().Context())
	for w := range workers {
		g.Go(func() error {
			r := rand.New(rand.NewPCG(uint64(w), 42)) //nolint:gosec
			for range perWorker {
				src := users[r.IntN(len(users))].ID
				dst := users[r.IntN(len(users))].ID
				cents := int64(r.IntN(300) + 1)
				amount := decimal.New(cents, -2)

				var (
					err   error
					delta int64
				)
				switch r.IntN(3) {
				case 0:
					_, err = s.service.Transfer(ctx, src, dst, amount, domain.CurrencyMatic)
				case 1:
					_, err = s.service.Withdraw(ctx, src, amount, domain.CurrencyMatic)
					delta = -cents
				default:
					_, err = s.service.Deposit(ctx, src, amount, domain.CurrencyMatic)
					delta = cents
				}
				if err != nil {
					if !s.ErrorIs(err, domain.ErrInsufficientFunds) {
						return fmt.Errorf("unexpected error: %w", err)
					}
					continue
				}
				succeeded.Add(1)
				netCents.Add(delta)
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(int(succeeded.Load())+len(users), s.journalLen())

	live := make(map[int64]string)
	total := decimal.Zero
	for _, u := range users {
		b, err := s.service.GetBalance(s.T().Context(), u.ID, domain.CurrencyMatic)
		s.Require().NoError(err)
		s.False(b.IsNegative())
		live[u.ID] = b.String()
		total = total.Add(b)
	}
	s.True(decimal.New(netCents.Load(), -2).Equal(total), "total %s, net %d cents", total, netCents.Load())

	// кеш совпадает с результатом воспроизведения журнала.
	s.Require().NoError(s.service.Rebuild(s.T().Context()))
	for _, u := range users {
		s.Equal(live[u.ID], s.balance(u.ID, domain.CurrencyMatic))
	}
}
