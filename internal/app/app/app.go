package app

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/sony/gobreaker"
	"rewards/internal/app/config"
	"rewards/internal/app/logger"
	"rewards/internal/app/service/duplicate"
	"rewards/internal/app/service/ledger"
	"rewards/internal/app/service/methods"
	"rewards/internal/app/service/withdrawal"
	"rewards/internal/app/session"
	"rewards/internal/app/storage/postgres"
)

type App struct {
	config       config.Config
	logger       logger.Logger
	db           *sql.DB
	redis        *redis.Client
	users        *postgres.UserRepository
	methodRepo   *postgres.MethodRepository
	transactions *postgres.TransactionRepository
	withdrawals  *postgres.WithdrawalRepository
	ledger       *ledger.Service
	methods      *methods.Registry
	processor    *withdrawal.Processor
	session      session.Manager
	stopCh       chan struct{}
}

func New(ctx context.Context, cfg config.Config, logger logger.Logger) (*App, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}

	a := &App{
		config: cfg,
		logger: logger,
		db:     db,
		stopCh: make(chan struct{}),
	}

	if err := a.initStorage(); err != nil {
		return nil, err
	}

	a.ledger = ledger.NewService(a.transactions)
	a.methods = methods.NewRegistry(a.methodRepo)
	a.processor = withdrawal.NewProcessor(
		a.methods,
		duplicate.NewGuard(a.withdrawals, duplicate.WithWindow(cfg.Withdrawal.DuplicateWindow)),
		a.ledger,
		a.transactions,
		a.withdrawals,
		postgres.NewTransactor(db,
			postgres.WithTxTimeout(cfg.Database.TxTimeout),
			postgres.WithLockTimeout(cfg.Database.LockTimeout),
			postgres.WithBreaker(a.newBreaker()),
		),
	)

	store, err := a.sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	a.session = session.NewJWT(cfg.SecretKey, a.users, store,
		session.WithIssuer(cfg.Session.Issuer),
		session.WithLifetime(cfg.Session.Lifetime),
	)

	go func() {
		<-a.stopCh
		a.logger.Info().Msg("Shutting down application")
		if a.redis != nil {
			_ = a.redis.Close()
		}
		_ = a.db.Close()
	}()

	return a, nil
}

func (a *App) initStorage() (err error) {
	if a.users, err = postgres.NewUserRepository(a.db); err != nil {
		return fmt.Errorf("user repository init: %w", err)
	}
	if a.methodRepo, err = postgres.NewMethodRepository(a.db); err != nil {
		return fmt.Errorf("method repository init: %w", err)
	}
	if a.transactions, err = postgres.NewTransactionRepository(a.db); err != nil {
		return fmt.Errorf("transaction repository init: %w", err)
	}
	if a.withdrawals, err = postgres.NewWithdrawalRepository(a.db); err != nil {
		return fmt.Errorf("withdrawal repository init: %w", err)
	}
	return nil
}

func (a *App) newBreaker() *gobreaker.CircuitBreaker {
	cfg := a.config.Breaker

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ledger",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			a.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
}

// sessionStore is redis when configured, memory otherwise
func (a *App) sessionStore(ctx context.Context) (session.Store, error) {
	if a.config.Redis.Addr == "" {
		a.logger.Info().Msg("Sessions are kept in memory")
		return session.NewMemory(), nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.config.Redis.Addr,
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return session.NewRedis(a.redis), nil
}

func (a *App) Stop() {
	close(a.stopCh)
}
