package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fsdevblog/groph-ledger/internal/domain"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
	"github.com/fsdevblog/groph-ledger/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultPublishTimeout = 3 * time.Second

// LedgerService ведет балансы юзеров. Кеш балансов и журнал транзакций защищены одним мьютексом,
// который удерживается на всё время операции, включая запись в хранилище. Операции не чередуются.
//
// Каждая мутирующая операция: захват мьютекса -> проверка -> запись в журнал -> изменение кеша.
// Проверки выполняются до записи, поэтому отказ не оставляет следов ни в журнале, ни в кеше.
type LedgerService struct {
	mu        sync.Mutex
	cache     *balanceCache
	uow       uow.UOW
	userRepo  UserRepository
	trRepo    TransactionRepository
	publisher EventPublisher
	l         *logrus.Entry
}

func NewLedgerService(u uow.UOW, l *logrus.Logger) (*LedgerService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, fmt.Errorf("ledger service: user repository: %w", userRepoErr)
	}
	trRepo, trRepoErr := uow.GetRepositoryAs[TransactionRepository](
		u,
		uow.RepositoryName(repoargs.TransactionRepoName),
	)
	if trRepoErr != nil {
		return nil, fmt.Errorf("ledger service: transaction repository: %w", trRepoErr)
	}

	return &LedgerService{
		cache:    newBalanceCache(),
		uow:      u,
		userRepo: userRepo,
		trRepo:   trRepo,
		l: l.WithFields(logrus.Fields{
			"component": "service",
			"module":    "ledger",
		}),
	}, nil
}

// SetPublisher устанавливает получателя событий о записанных транзакциях.
func (s *LedgerService) SetPublisher(p EventPublisher) *LedgerService {
	s.publisher = p
	return s
}

// CreateUser создает юзера и заводит ему нулевые балансы. Возвращает domain.ErrDuplicateEmail
// если email занят, domain.ErrStorageFailure при ошибке хранилища.
func (s *LedgerService) CreateUser(ctx context.Context, name, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.userRepo.CreateUser(context.WithoutCancel(ctx), repoargs.CreateUser{
		Name:  name,
		Email: email,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.NewDuplicateEmailError(email)
		}
		return nil, domain.NewStorageError("create user", err)
	}

	s.cache.initUser(user.ID)
	s.l.WithField("userID", user.ID).Debug("user created")
	return user, nil
}

// Deposit зачисляет amount на баланс юзера.
func (s *LedgerService) Deposit(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
	currency domain.Currency,
) (*domain.Transaction, error) {
	return s.post(ctx, repoargs.TransactionCreate{
		Kind:         domain.TransactionDeposit,
		SourceUserID: userID,
		Amount:       amount,
		Currency:     currency,
	})
}

// Withdraw списывает amount с баланса юзера. Возвращает domain.ErrInsufficientFunds, если средств
// недостаточно.
func (s *LedgerService) Withdraw(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
	currency domain.Currency,
) (*domain.Transaction, error) {
	return s.post(ctx, repoargs.TransactionCreate{
		Kind:         domain.TransactionWithdraw,
		SourceUserID: userID,
		Amount:       amount,
		Currency:     currency,
	})
}

// Transfer переводит amount от sourceID к targetID одной записью журнала. Отсутствующая сторона
// определяется через domain.ErrInvalidSourceUser / domain.ErrInvalidTargetUser.
func (s *LedgerService) Transfer(
	ctx context.Context,
	sourceID, targetID int64,
	amount decimal.Decimal,
	currency domain.Currency,
) (*domain.Transaction, error) {
	return s.post(ctx, repoargs.TransactionCreate{
		Kind:         domain.TransactionTransfer,
		SourceUserID: sourceID,
		TargetUserID: &targetID,
		Amount:       amount,
		Currency:     currency,
	})
}

// GetBalance возвращает баланс юзера в одной валюте.
func (s *LedgerService) GetBalance(
	_ context.Context,
	userID int64,
	currency domain.Currency,
) (decimal.Decimal, error) {
	if !currency.Valid() {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, currency)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cache.get(userID, currency)
}

// GetBalances возвращает копию балансов юзера по всем валютам.
func (s *LedgerService) GetBalances(_ context.Context, userID int64) (domain.Balances, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cache.all(userID)
}

// Rebuild заново строит кеш балансов: нулевые балансы для всех юзеров реестра, затем все записи
// журнала по возрастанию id. Юзеры и журнал читаются в одной транзакции хранилища.
//
// Вызывается один раз при старте до приема запросов; ошибка должна прерывать запуск.
func (s *LedgerService) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []domain.User
	var transactions []domain.Transaction

	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, userRepoErr := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if userRepoErr != nil {
			return userRepoErr //nolint:wrapcheck
		}
		trRepo, trRepoErr := uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName))
		if trRepoErr != nil {
			return trRepoErr //nolint:wrapcheck
		}

		var err error
		if users, err = userRepo.ListUsers(c); err != nil {
			return err //nolint:wrapcheck
		}
		transactions, err = trRepo.ListAll(c)
		return err //nolint:wrapcheck
	})
	if txErr != nil {
		return domain.NewStorageError("rebuild: read journal", txErr)
	}

	slices.SortStableFunc(transactions, func(a, b domain.Transaction) int {
		return cmp.Compare(a.ID, b.ID)
	})

	cache := newBalanceCache()
	for _, user := range users {
		cache.initUser(user.ID)
	}

	for i := range transactions {
		t := &transactions[i]
		for _, userID := range t.Parties() {
			if !cache.has(userID) {
				// Журнал ссылается на юзера, которого нет в реестре. Заводим нулевой баланс, как и раньше,
				// но не молча.
				s.l.WithFields(logrus.Fields{
					"userID":        userID,
					"transactionID": t.ID,
				}).Warn("transaction references unregistered user, initializing zero balance")
				cache.initUser(userID)
			}
		}
		if err := cache.apply(t); err != nil {
			return domain.NewStorageError("rebuild: replay journal", err)
		}
	}

	s.cache = cache
	s.l.WithFields(logrus.Fields{
		"users":        len(users),
		"transactions": len(transactions),
	}).Info("balance cache rebuilt")
	return nil
}

// post проверяет и записывает транзакцию в журнал, затем применяет ее к кешу. Событие о записи
// публикуется уже после освобождения мьютекса.
func (s *LedgerService) post(ctx context.Context, args repoargs.TransactionCreate) (*domain.Transaction, error) {
	if err := validateArgs(args); err != nil {
		return nil, err
	}

	t, err := s.commit(ctx, args)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, t)
	return t, nil
}

func (s *LedgerService) commit(ctx context.Context, args repoargs.TransactionCreate) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPreconditions(args); err != nil {
		return nil, err
	}

	// Операция доводится до конца независимо от отмены запроса: запись могла бы попасть в журнал,
	// не попав в кеш.
	t, createErr := s.trRepo.Create(context.WithoutCancel(ctx), args)
	if createErr != nil {
		return nil, domain.NewStorageError(fmt.Sprintf("append %s", args.Kind), createErr)
	}

	if applyErr := s.cache.apply(t); applyErr != nil {
		// Недостижимо после checkPreconditions, но кеш больше не соответствует журналу.
		s.l.WithError(applyErr).WithField("transactionID", t.ID).Error("apply committed transaction")
		return nil, fmt.Errorf("apply committed transaction %d: %w", t.ID, applyErr)
	}

	s.l.WithFields(logrus.Fields{
		"transactionID": t.ID,
		"kind":          t.Kind,
		"userID":        t.SourceUserID,
		"amount":        t.Amount,
		"currency":      t.Currency,
	}).Debug("transaction committed")
	return t, nil
}

// checkPreconditions проверяет существование юзеров и достаточность средств. Вызывается под мьютексом.
func (s *LedgerService) checkPreconditions(args repoargs.TransactionCreate) error {
	switch args.Kind {
	case domain.TransactionDeposit:
		if !s.cache.has(args.SourceUserID) {
			return domain.NewUnknownUserError(args.SourceUserID, domain.RoleAccount)
		}
		return nil
	case domain.TransactionWithdraw:
		if !s.cache.has(args.SourceUserID) {
			return domain.NewUnknownUserError(args.SourceUserID, domain.RoleAccount)
		}
	case domain.TransactionTransfer:
		if !s.cache.has(args.SourceUserID) {
			return domain.NewUnknownUserError(args.SourceUserID, domain.RoleSource)
		}
		if args.TargetUserID == nil || !s.cache.has(*args.TargetUserID) {
			var targetID int64
			if args.TargetUserID != nil {
				targetID = *args.TargetUserID
			}
			return domain.NewUnknownUserError(targetID, domain.RoleTarget)
		}
	default:
		return fmt.Errorf("unknown transaction kind %q", args.Kind)
	}

	available, err := s.cache.get(args.SourceUserID, args.Currency)
	if err != nil {
		return err
	}
	if available.LessThan(args.Amount) {
		return domain.NewInsufficientFundsError(args.SourceUserID, args.Kind, args.Currency, args.Amount, available)
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, t *domain.Transaction) {
	if s.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, domain.NewTransactionCommitted(t)); err != nil {
		s.l.WithError(err).WithField("transactionID", t.ID).Warn("publish transaction committed event")
	}
}

// validateArgs проверки, не зависящие от состояния кеша.
func validateArgs(args repoargs.TransactionCreate) error {
	if err := domain.ValidateAmount(args.Amount); err != nil {
		return err //nolint:wrapcheck
	}
	if !args.Currency.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, args.Currency)
	}
	return nil
}
