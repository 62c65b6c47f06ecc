package config

import (
	"errors"
	"fmt"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"io/fs"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Withdrawal WithdrawalConfig
	Breaker    BreakerConfig
	Session    SessionConfig

	SecretKey  string `env:"APP_SECRET_KEY,default=ChangeMe"`
	LogVerbose bool   `env:"APP_VERBOSE,default=0"`
	LogPretty  bool   `env:"APP_PRETTY,default=0"`
}

type ServerConfig struct {
	Listen       string        `env:"RUN_ADDRESS,default=localhost:8088"`
	TimeoutRead  time.Duration `env:"SERVER_TIMEOUT_READ,default=5s"`
	TimeoutWrite time.Duration `env:"SERVER_TIMEOUT_WRITE,default=10s"`
	TimeoutIdle  time.Duration `env:"SERVER_TIMEOUT_IDLE,default=1m"`
}

type DatabaseConfig struct {
	DSN          string        `env:"DATABASE_URI,required"`
	MaxOpenConns int           `env:"DATABASE_MAX_OPEN_CONNS,default=20"`
	MaxIdleConns int           `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	TxTimeout    time.Duration `env:"DATABASE_TX_TIMEOUT,default=5s"`
	LockTimeout  time.Duration `env:"DATABASE_LOCK_TIMEOUT,default=3s"`
}

// RedisConfig of the session store, empty Addr keeps sessions in memory
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

type WithdrawalConfig struct {
	DuplicateWindow time.Duration `env:"WITHDRAWAL_DUPLICATE_WINDOW,default=5m"`
}

// BreakerConfig of the circuit breaker in front of ledger transactions
type BreakerConfig struct {
	MaxRequests         uint32        `env:"BREAKER_MAX_REQUESTS,default=1"`
	Interval            time.Duration `env:"BREAKER_INTERVAL,default=1m"`
	Timeout             time.Duration `env:"BREAKER_TIMEOUT,default=30s"`
	ConsecutiveFailures uint32        `env:"BREAKER_CONSECUTIVE_FAILURES,default=5"`
}

type SessionConfig struct {
	Lifetime time.Duration `env:"SESSION_LIFETIME,default=1h"`
	Issuer   string        `env:"SESSION_ISSUER,default=rewards"`
}

// New config constructor
func New() Config {
	return Config{}
}

// Load config from environment and from .env file (if exists) and from flags
func (cfg *Config) Load(args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf(".env load: %w", err)
	}

	if err := envdecode.StrictDecode(cfg); err != nil {
		return fmt.Errorf("env decode: %w", err)
	}

	flags := pflag.NewFlagSet("rewards", pflag.ContinueOnError)
	flags.StringVarP(&cfg.Server.Listen, "listen-addr", "a", cfg.Server.Listen, "Server address to listen on")
	flags.StringVarP(&cfg.Database.DSN, "database-uri", "d", cfg.Database.DSN, "Database URI")
	flags.StringVarP(&cfg.Redis.Addr, "redis-addr", "r", cfg.Redis.Addr, "Redis address for sessions")
	flags.DurationVar(&cfg.Withdrawal.DuplicateWindow, "duplicate-window", cfg.Withdrawal.DuplicateWindow, "Lookback window of duplicate withdrawal check")
	flags.BoolVarP(&cfg.LogVerbose, "verbose", "v", cfg.LogVerbose, "Verbose output")
	flags.BoolVarP(&cfg.LogPretty, "pretty", "p", cfg.LogPretty, "Pretty output")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("flags parse: %w", err)
	}

	if cfg.Withdrawal.DuplicateWindow <= 0 {
		return fmt.Errorf("duplicate window must be positive, got %s", cfg.Withdrawal.DuplicateWindow)
	}

	return nil
}
