package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/auth"
	"github.com/ukydev/fleet-manager/internal/config"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/handlers"
	"github.com/ukydev/fleet-manager/internal/live"
	"github.com/ukydev/fleet-manager/internal/middleware"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/notify"
	"github.com/ukydev/fleet-manager/internal/policy"
	"github.com/ukydev/fleet-manager/internal/routing"
	"github.com/ukydev/fleet-manager/internal/seed"
	"github.com/ukydev/fleet-manager/internal/stock"
	"github.com/ukydev/fleet-manager/internal/storage"
	"github.com/urfave/cli/v2"
	"google.golang.org/api/option"
)

// publicSettings is the configuration shown to administrators. Secrets are left out.
type publicSettings struct {
	Port           string   `json:"port"`
	Database       string   `json:"database"`
	Timezone       string   `json:"timezone"`
	ImageProvider  string   `json:"image_provider"`
	Bucket         string   `json:"bucket,omitempty"`
	NotifyBackend  string   `json:"notify_backend"`
	OSRMURL        string   `json:"osrm_url"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
	LogLevel       string   `json:"log_level"`
}

func settingsOf(cfg *config.Config) publicSettings {
	return publicSettings{
		Port:           cfg.Server.Port,
		Database:       cfg.Mongo.Database,
		Timezone:       cfg.Server.Timezone,
		ImageProvider:  cfg.Storage.ImageProvider,
		Bucket:         cfg.Storage.Bucket,
		NotifyBackend:  cfg.Notify.Backend,
		OSRMURL:        cfg.Routing.OSRMURL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		LogLevel:       cfg.Log.Level,
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and the live calendar feed.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return serve(c.Context, cfg)
		},
	}
}

// newUploader builds the configured image uploader. With the gcs provider a
// missing or malformed service-account file is fatal.
func newUploader(ctx context.Context, cfg *config.Config) (storage.Uploader, error) {
	if cfg.Storage.ImageProvider == "cdn" {
		return storage.NewCDNUploader(cfg.Storage.CDNUploadURL, cfg.Storage.CDNUploadPreset), nil
	}
	sa, err := storage.LoadServiceAccount(ctx, cfg.Storage.ServiceAccountFile)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.ProjectID != "" && sa.ProjectID != cfg.Storage.ProjectID {
		log.WithFields(log.Fields{
			"configured": cfg.Storage.ProjectID,
			"key":        sa.ProjectID,
		}).Warn("Service account belongs to another project")
	}
	var opts []option.ClientOption
	if cfg.Storage.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.Storage.ProjectID))
	}
	log.WithFields(log.Fields{"client_email": sa.ClientEmail, "bucket": cfg.Storage.Bucket}).Info("Using Google Cloud Storage")
	return storage.NewGCSUploader(ctx, sa, cfg.Storage.Bucket, opts...)
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == config.DevJWTSecret {
		log.Warn("JWT_SECRET not set, using the development secret")
	}
	authService, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry.Std())
	if err != nil {
		return err
	}
	proxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		if errors.Is(err, storage.ErrServiceAccount) {
			log.WithError(err).WithField("file", cfg.Storage.ServiceAccountFile).Fatal("Cannot start without a valid service account")
		}
		return err
	}

	client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	store := db.NewMongoStore(client, cfg.Mongo.Database)
	users := db.NewMongoUserCollection(store)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Warn("Failed to create user indexes")
	}

	publisher, err := notify.New(notify.Options{
		Backend:      cfg.Notify.Backend,
		MQTTBroker:   cfg.Notify.MQTTBroker,
		MQTTTopic:    cfg.Notify.MQTTTopic,
		MQTTClientID: "fleetd",
		AMQPURL:      cfg.Notify.AMQPURL,
		AMQPExchange: cfg.Notify.AMQPExchange,
	})
	if err != nil {
		return fmt.Errorf("failed to start notifier: %w", err)
	}
	defer publisher.Close()

	hub := live.NewHub(store)
	watched := append(append([]string{}, models.CalendarCollections...), models.CollectionStock)
	watcher := db.NewChangeWatcher(store, cfg.Mongo.PollInterval.Std())
	go hub.Run(ctx, watcher, watched)

	monitor := stock.NewMonitor(publisher)
	stockSub, err := hub.Subscribe(ctx, models.CollectionStock, func(snap live.Snapshot) {
		items, err := live.Decode[models.StockItem](snap.Docs)
		if err != nil {
			log.WithError(err).Warn("Failed to decode stock snapshot")
			return
		}
		monitor.Evaluate(ctx, items)
	})
	if err != nil {
		log.WithError(err).Warn("Stock alert monitor disabled")
	} else {
		defer stockSub.Unsubscribe()
	}

	router := handlers.NewRouter(handlers.Deps{
		Auth:           authService,
		Gate:           policy.Default(),
		Store:          store,
		Users:          users,
		Hub:            hub,
		Router:         routing.NewRouter(cfg.Routing.OSRMURL),
		Uploader:       uploader,
		Seeder:         seed.New(store, 8, loc),
		Location:       loc,
		Settings:       settingsOf(cfg),
		Ping:           func(ctx context.Context) error { return client.Ping(ctx, nil) },
		AuthWait:       cfg.Server.AuthWaitTimeout.Std(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		LoginLimit:     10,
		TrustedProxies: proxies,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
