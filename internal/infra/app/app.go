package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/config"
	kafkainfra "github.com/Josselin-menguy/ldap-user-manager/internal/infra/kafka"
	ldapinfra "github.com/Josselin-menguy/ldap-user-manager/internal/infra/ldap"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/logger"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/mail"
	redisinfra "github.com/Josselin-menguy/ldap-user-manager/internal/infra/redis"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/security"
	redisrepo "github.com/Josselin-menguy/ldap-user-manager/internal/repository/redis"
	"github.com/Josselin-menguy/ldap-user-manager/internal/transport/http/middleware"
	"github.com/Josselin-menguy/ldap-user-manager/internal/transport/http/routes"
	"github.com/Josselin-menguy/ldap-user-manager/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	connector := ldapinfra.NewConnector(cfg.Directory, log)
	mailer := mail.NewMailer(cfg.Mail, log)

	tokenManager, err := security.NewTokenManager(cfg.Session.Secret, cfg.Session.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	var eventPublisher port.EventPublisher
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var redisClient *redisinfra.Client
	var rateLimiter *middleware.LoginRateLimiter
	if cfg.Redis.Host != "" && cfg.RateLimit.LoginMaxAttempts > 0 {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}

		window := cfg.RateLimit.WindowDuration
		if window <= 0 {
			window = time.Minute
		}
		attempts := redisrepo.NewLoginAttemptStore(redisClient.Client(), "diradmin:login-attempts", window*2)
		rateLimiter = middleware.NewLoginRateLimiter(attempts, cfg.RateLimit.LoginMaxAttempts, window, log)
	} else {
		log.Info("redis not configured, login rate limiting disabled")
	}

	authService := usecase.NewAuthService(connector, tokenManager, cfg.Directory.BaseDN, cfg.Directory.RequiredGroupDN, log)
	accountService := usecase.NewAccountService(connector, mailer, eventPublisher, security.DefaultPasswordValidator(), cfg.Directory.BaseDN, cfg.Directory.DefaultGroups, log)
	deletionService := usecase.NewDeletionService(connector, mailer, eventPublisher, log)

	metrics := middleware.NewHTTPMetrics(nil)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Services: routes.ServiceSet{
			Auth:     authService,
			Accounts: accountService,
			Deletion: deletionService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		redis:    redisClient,
		producer: producer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting directory admin API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
