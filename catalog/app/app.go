package app

import (
	"context"
	stdlog "log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/Astemirdum/local-library/catalog/config"
	"github.com/Astemirdum/local-library/catalog/internal/handler"
	"github.com/Astemirdum/local-library/catalog/internal/repository"
	"github.com/Astemirdum/local-library/catalog/internal/server"
	"github.com/Astemirdum/local-library/catalog/internal/service"
	"github.com/Astemirdum/local-library/catalog/migrations"
	"github.com/Astemirdum/local-library/pkg/circuit_breaker"
	"github.com/Astemirdum/local-library/pkg/kafka"
	"github.com/Astemirdum/local-library/pkg/logger"
	"github.com/Astemirdum/local-library/pkg/postgres"
)

func Run(cfg *config.Config) {
	log, err := logger.NewLogger(cfg.Log, "catalog")
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	publisher := newPublisher(cfg, log)
	svc := service.NewService(repo, publisher, log)

	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		Secure:   cfg.Session.Secure,
		HttpOnly: true,
	}

	h := handler.New(svc, store, []byte(cfg.Auth.JWTSecret), log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if err = publisher.Close(); err != nil {
		log.Error("publisher.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}

// newPublisher falls back to a no-op publisher when brokers are not configured or unreachable.
func newPublisher(cfg *config.Config, log *zap.Logger) kafka.Publisher {
	if len(cfg.Kafka.Addrs) == 0 {
		log.Info("kafka disabled: no brokers configured")
		return kafka.NewNopPublisher()
	}
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Error("kafka.NewProducer", zap.Error(err))
		return kafka.NewNopPublisher()
	}
	return kafka.NewPublisher(producer, circuit_breaker.New(cfg.CircuitBreaker), cfg.Kafka.Topic, log)
}
