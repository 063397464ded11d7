package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/config"
	kafkainfra "github.com/Josselin-menguy/ldap-user-manager/internal/infra/kafka"
	ldapinfra "github.com/Josselin-menguy/ldap-user-manager/internal/infra/ldap"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/logger"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/mail"
	"github.com/Josselin-menguy/ldap-user-manager/internal/usecase"
)

func main() {
	daemon := flag.Bool("daemon", false, "run on the configured cron schedule instead of once")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.NewWithFile(cfg.App.Env, cfg.Sweep.LogFile)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() {
		_ = zlog.Sync()
	}()

	connector := ldapinfra.NewConnector(cfg.Directory, zlog)
	mailer := mail.NewMailer(cfg.Mail, zlog)

	var eventPublisher port.EventPublisher
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, zlog)
		if err != nil {
			zlog.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(zlog)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, zlog)
		}
	} else {
		eventPublisher = kafkainfra.NewStubPublisher(zlog)
	}
	defer func() {
		if producer != nil {
			_ = producer.Close()
		}
	}()

	sweeper := usecase.NewSweepService(connector, mailer, eventPublisher, cfg.Directory.BaseDN, cfg.Sweep.Window(), zlog)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !*daemon {
		if _, err := sweeper.Run(ctx); err != nil {
			zlog.Error("sweep run failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Sweep.Schedule, func() {
		if _, err := sweeper.Run(ctx); err != nil {
			zlog.Error("sweep run failed", zap.Error(err))
		}
	})
	if err != nil {
		zlog.Fatal("invalid sweep schedule", zap.String("schedule", cfg.Sweep.Schedule), zap.Error(err))
	}

	zlog.Info("sweep daemon started", zap.String("schedule", cfg.Sweep.Schedule))
	scheduler.Start()

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	zlog.Info("sweep daemon stopped")
}
