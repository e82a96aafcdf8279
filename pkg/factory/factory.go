package factory

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"libraryapi/internal/config"
	migrations "libraryapi/internal/database"
	"libraryapi/internal/domain"
	"libraryapi/internal/repository"
	"libraryapi/internal/service"
	"libraryapi/pkg/auth"
	"libraryapi/pkg/circuitbreaker"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
	"libraryapi/pkg/redis"
	"libraryapi/pkg/tokenstore"
)

type Factory interface {
	GetLogger() logger.Logger
	GetConfig() *config.Config
	GetDB() *sql.DB
	GetConnectionManager() *database.ConnectionManager
	GetRedisClient() *redis.RedisClient
	GetTransactor() *database.Transactor
	GetMigrationService() *migrations.MigrationService

	GetBookRepository() domain.BookRepository
	GetUserRepository() domain.UserRepository
	GetBorrowRepository() domain.BorrowRepository
	GetAuditLogRepository() domain.AuditLogRepository

	GetBookService() domain.BookService
	GetUserService() domain.UserService
	GetLendingService() domain.LendingService
	GetAdminService() domain.AdminService
	GetAuditLogService() domain.AuditLogService

	Close() error
}

type AppFactory struct {
	config      *config.Config
	logger      logger.Logger
	connManager *database.ConnectionManager
	redisClient *redis.RedisClient
	revocations tokenstore.RevocationStore
	transactor  *database.Transactor

	bookRepository     domain.BookRepository
	userRepository     domain.UserRepository
	borrowRepository   domain.BorrowRepository
	auditLogRepository domain.AuditLogRepository

	bookService     domain.BookService
	userService     domain.UserService
	lendingService  domain.LendingService
	adminService    domain.AdminService
	auditLogService domain.AuditLogService
}

// NewFactory loads configuration from the environment and wires the
// application.
func NewFactory() (Factory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.LogLevel(cfg.LogLevel), cfg.AppEnv, os.Stdout)
	return New(cfg, log)
}

func New(cfg *config.Config, log logger.Logger) (Factory, error) {
	connManager, err := database.NewConnectionManager(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	f := &AppFactory{
		config:      cfg,
		logger:      log,
		connManager: connManager,
		transactor:  database.NewTransactor(connManager.DB(), log),
	}

	f.initTokenStore()
	f.initRepositories()
	f.initServices()

	return f, nil
}

// initTokenStore uses Redis for revoked tokens when configured. An
// unreachable Redis falls back to the in-process store, and a Redis that
// fails later is bypassed by the circuit breaker.
func (f *AppFactory) initTokenStore() {
	if !f.config.Redis.Enabled() {
		f.revocations = tokenstore.NewMemoryStore()
		return
	}

	client, err := redis.NewRedisClient(f.config.Redis)
	if err != nil {
		f.logger.Warn("Redis unavailable, revoked tokens are kept in memory", map[string]interface{}{
			"host":  f.config.Redis.Host,
			"error": err.Error(),
		})
		f.revocations = tokenstore.NewMemoryStore()
		return
	}

	f.redisClient = client
	breaker := circuitbreaker.New(circuitbreaker.Settings{
		Name:        "redis-revocations",
		MaxFailures: 3,
		Timeout:     30 * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			f.logger.Warn("Circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	f.revocations = tokenstore.NewFailoverStore(
		tokenstore.NewRedisStore(client),
		tokenstore.NewMemoryStore(),
		breaker,
		f.logger,
	)
}

func (f *AppFactory) initRepositories() {
	f.bookRepository = repository.NewBookRepository(f.logger)
	f.userRepository = repository.NewUserRepository(f.logger)
	f.borrowRepository = repository.NewBorrowRepository(f.logger)
	f.auditLogRepository = repository.NewAuditLogRepository(f.logger)
}

func (f *AppFactory) initServices() {
	f.auditLogService = service.NewAuditLogService(f.auditLogRepository, f.transactor, f.logger)

	f.bookService = service.NewBookService(f.bookRepository, f.auditLogService, f.transactor, f.logger)

	tokens := auth.NewTokenManager(
		f.config.Auth.SecretKey,
		f.config.Auth.AccessTokenExpiry,
		f.config.Auth.RefreshTokenExpiry,
	)
	f.userService = service.NewUserService(
		f.userRepository,
		f.auditLogService,
		tokens,
		f.revocations,
		f.transactor,
		f.logger,
	)

	policy := domain.FinePolicy{
		BorrowingPeriodDays: f.config.Lending.BorrowingPeriodDays,
		FineRatePerDay:      f.config.Lending.FineRatePerDay,
	}
	f.lendingService = service.NewLendingService(
		f.borrowRepository,
		f.bookRepository,
		f.userRepository,
		f.auditLogService,
		policy,
		f.transactor,
		f.logger,
	)

	f.adminService = service.NewAdminService(
		f.userRepository,
		f.borrowRepository,
		f.auditLogService,
		f.transactor,
		f.logger,
	)
}

func (f *AppFactory) GetLogger() logger.Logger {
	return f.logger
}

func (f *AppFactory) GetConfig() *config.Config {
	return f.config
}

func (f *AppFactory) GetDB() *sql.DB {
	return f.connManager.DB()
}

func (f *AppFactory) GetConnectionManager() *database.ConnectionManager {
	return f.connManager
}

// GetRedisClient returns nil when Redis is not in use.
func (f *AppFactory) GetRedisClient() *redis.RedisClient {
	return f.redisClient
}

func (f *AppFactory) GetTransactor() *database.Transactor {
	return f.transactor
}

func (f *AppFactory) GetMigrationService() *migrations.MigrationService {
	return migrations.NewMigrationService(
		f.connManager.DB(),
		migrations.DialectFor(f.connManager.Driver()),
		f.logger,
	)
}

func (f *AppFactory) GetBookRepository() domain.BookRepository {
	return f.bookRepository
}

func (f *AppFactory) GetUserRepository() domain.UserRepository {
	return f.userRepository
}

func (f *AppFactory) GetBorrowRepository() domain.BorrowRepository {
	return f.borrowRepository
}

func (f *AppFactory) GetAuditLogRepository() domain.AuditLogRepository {
	return f.auditLogRepository
}

func (f *AppFactory) GetBookService() domain.BookService {
	return f.bookService
}

func (f *AppFactory) GetUserService() domain.UserService {
	return f.userService
}

func (f *AppFactory) GetLendingService() domain.LendingService {
	return f.lendingService
}

func (f *AppFactory) GetAdminService() domain.AdminService {
	return f.adminService
}

func (f *AppFactory) GetAuditLogService() domain.AuditLogService {
	return f.auditLogService
}

func (f *AppFactory) Close() error {
	if f.redisClient != nil {
		if err := f.redisClient.Close(); err != nil {
			f.logger.Error("Redis close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return f.connManager.Close()
}
