package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ukydev/fuellog/internal/auth"
	"github.com/ukydev/fuellog/internal/config"
	"github.com/ukydev/fuellog/internal/db"
	"github.com/ukydev/fuellog/internal/events"
	"github.com/ukydev/fuellog/internal/family"
	"github.com/ukydev/fuellog/internal/garage"
	"github.com/ukydev/fuellog/internal/handlers"
	"github.com/ukydev/fuellog/internal/logging"
	"github.com/ukydev/fuellog/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.WithError(err).Fatal("Invalid logging configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := db.ConnectMongo(connectCtx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(connectCtx, database); err != nil {
		return err
	}

	publisher := newPublisher(cfg)
	defer publisher.Close()

	handler, err := newHandler(cfg, db.NewStores(database), pinger(client), publisher)
	if err != nil {
		return err
	}

	srv := newServer(cfg, handler)
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

// newPublisher connects to the MQTT broker when one is configured. Without a
// broker, or when it cannot be reached, events are dropped.
func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.MQTTBroker == "" {
		log.Info("MQTT broker not configured, fill events disabled")
		return events.NopPublisher{}
	}
	publisher, err := events.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
	if err != nil {
		log.WithError(err).WithField("broker", cfg.MQTTBroker).Warn("MQTT unavailable, fill events disabled")
		return events.NopPublisher{}
	}
	log.WithField("broker", cfg.MQTTBroker).Info("Publishing fill events over MQTT")
	return publisher
}

func newHandler(cfg *config.Config, stores *db.Stores, database handlers.Pinger, publisher events.Publisher) (http.Handler, error) {
	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return nil, err
	}
	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	return handlers.NewRouter(handlers.RouterConfig{
		AuthService:       authService,
		Users:             stores.Users,
		Garage:            garage.NewService(stores.Vehicles, stores.Fills, stores.Members, publisher),
		Families:          family.NewService(stores.Families, stores.Members, cfg.InviteTTL),
		Database:          database,
		Logger:            log.StandardLogger(),
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		TrustedProxies:    proxies,
	}), nil
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func pinger(client *mongo.Client) handlers.Pinger {
	return handlers.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})
}
