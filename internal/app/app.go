package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsdevblog/groph-ledger/internal/config"
	"github.com/fsdevblog/groph-ledger/internal/events/kafka"
	"github.com/fsdevblog/groph-ledger/internal/repository/memrepo"
	"github.com/fsdevblog/groph-ledger/internal/repository/pgrepo"
	"github.com/fsdevblog/groph-ledger/internal/repository/repoargs"
	"github.com/fsdevblog/groph-ledger/internal/repository/sqliterepo"
	"github.com/fsdevblog/groph-ledger/internal/service"
	"github.com/fsdevblog/groph-ledger/internal/transport/api"
	"github.com/fsdevblog/groph-ledger/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

// Run поднимает хранилище, восстанавливает кеш балансов из журнала и обслуживает http запросы
// до сигнала SIGINT/SIGTERM. При штатной остановке возвращает context.Canceled.
func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.Infof("Starting app with config: %+v", a.Config)

	unitOfWork, closeStorage, storageErr := a.openStorage(notifyCtx)
	if storageErr != nil {
		return fmt.Errorf("app run: %s", storageErr.Error())
	}
	defer closeStorage()

	var publisher service.EventPublisher
	if len(a.Config.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(a.Config.KafkaBrokers, a.Config.KafkaTopic, a.Logger)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				a.Logger.WithError(err).Error("close kafka publisher")
			}
		}()
		publisher = kafkaPublisher
	}

	services, sErr := service.Factory(unitOfWork, publisher, a.Logger)
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	// без восстановленного кеша обслуживать запросы нельзя.
	if rebuildErr := services.LedgerService.Rebuild(notifyCtx); rebuildErr != nil {
		return fmt.Errorf("app run: rebuild balances: %w", rebuildErr)
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:        a.Logger,
		LedgerService: services.LedgerService,
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %s", routerErr.Error())
	}

	srv := &http.Server{
		Addr:              a.Config.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gCtx := errgroup.WithContext(notifyCtx)
	g.Go(func() error {
		a.Logger.Infof("listening on %s", a.Config.RunAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck
	}
	return notifyCtx.Err() //nolint:wrapcheck
}

// openStorage открывает выбранное хранилище. Возвращаемая функция освобождает соединения.
func (a *App) openStorage(ctx context.Context) (uow.UOW, func(), error) {
	switch a.Config.DatabaseDriver {
	case config.DriverPostgres:
		conn, connErr := pgrepo.Connect(ctx, a.Config.DatabaseDSN, a.Logger)
		if connErr != nil {
			return nil, nil, connErr //nolint:wrapcheck
		}
		unitOfWork, uowErr := initPostgresUOW(conn)
		if uowErr != nil {
			conn.Close()
			return nil, nil, uowErr
		}
		return unitOfWork, conn.Close, nil
	case config.DriverSQLite:
		db, openErr := sqliterepo.Open(ctx, a.Config.DatabaseDSN, a.Logger)
		if openErr != nil {
			return nil, nil, openErr //nolint:wrapcheck
		}
		unitOfWork, uowErr := initSQLiteUOW(db)
		if uowErr != nil {
			_ = db.Close()
			return nil, nil, uowErr
		}
		return unitOfWork, func() {
			if err := db.Close(); err != nil {
				a.Logger.WithError(err).Error("close sqlite database")
			}
		}, nil
	case config.DriverMemory:
		a.Logger.Warn("using in-memory storage, data will be lost on exit")
		return memrepo.NewStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", a.Config.DatabaseDriver)
	}
}

func initPostgresUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	// снимок пользователей и журнала при восстановлении читается в одной транзакции.
	unitOfWork := uow.NewUnitOfWork(conn, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})

	// user repo
	userRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewUserRepository(dbtx)
	}
	if regErr := unitOfWork.Register(uow.RepositoryName(repoargs.UserRepoName), userRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	// transaction repo
	transactionRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewTransactionRepository(dbtx)
	}
	if regErr := unitOfWork.Register(
		uow.RepositoryName(repoargs.TransactionRepoName),
		transactionRepoFactoryFn,
	); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	return unitOfWork, nil
}

func initSQLiteUOW(db *sql.DB) (*uow.SQLUnitOfWork, error) {
	unitOfWork := uow.NewSQLUnitOfWork(db, nil)

	// user repo
	userRepoFactoryFn := func(dbtx uow.SQLDBTX) uow.Repository {
		return sqliterepo.NewUserRepository(dbtx)
	}
	if regErr := unitOfWork.Register(uow.RepositoryName(repoargs.UserRepoName), userRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	// transaction repo
	transactionRepoFactoryFn := func(dbtx uow.SQLDBTX) uow.Repository {
		return sqliterepo.NewTransactionRepository(dbtx)
	}
	if regErr := unitOfWork.Register(
		uow.RepositoryName(repoargs.TransactionRepoName),
		transactionRepoFactoryFn,
	); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	return unitOfWork, nil
}
