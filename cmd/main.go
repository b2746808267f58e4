package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-emissions/internal/auth"
	"github.com/ukydev/fleet-emissions/internal/config"
	"github.com/ukydev/fleet-emissions/internal/db"
	"github.com/ukydev/fleet-emissions/internal/distance"
	"github.com/ukydev/fleet-emissions/internal/handlers"
	"github.com/ukydev/fleet-emissions/internal/logging"
	"github.com/ukydev/fleet-emissions/internal/reporting"
)

// app holds the wired dependencies and the resources to release on exit.
type app struct {
	handler http.Handler
	closers []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.WithError(err).Warn("Failed to release resource")
		}
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openStore(ctx context.Context, cfg config.Config) (db.Store, func(context.Context) error, io.Closer, error) {
	if cfg.StoreBackend == config.BackendMemory {
		return db.NewMemoryStore().Store(), nil, nil, nil
	}

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return db.Store{}, nil, nil, err
	}
	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(context.Background())
		return db.Store{}, nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	check := func(ctx context.Context) error { return client.Ping(ctx, nil) }
	closer := closerFunc(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Disconnect(ctx)
	})
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
	return db.NewMongoStore(database), check, closer, nil
}

// distanceProvider uses Google Maps when a key is configured and falls back
// to great-circle distances. A cache path puts a SQLite cache in front of
// Google only, so fallback estimates are never stored.
func distanceProvider(cfg config.Config) (distance.Provider, io.Closer, error) {
	chain := distance.Fallback{Secondary: distance.Haversine{}}
	if cfg.GoogleMapsAPIKey == "" {
		log.Warn("GOOGLE_MAPS_API_KEY not set; route distances use great-circle estimates")
		return chain, nil, nil
	}
	google, err := distance.NewGoogleMaps(cfg.GoogleMapsAPIKey)
	if err != nil {
		return nil, nil, err
	}
	chain.Primary = google

	if cfg.DistanceCachePath == "" {
		return chain, nil, nil
	}
	cache, err := distance.OpenSQLiteCache(cfg.DistanceCachePath, google)
	if err != nil {
		return nil, nil, fmt.Errorf("open distance cache: %w", err)
	}
	chain.Primary = cache
	return chain, cache, nil
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{}

	store, check, storeCloser, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if storeCloser != nil {
		a.closers = append(a.closers, storeCloser)
	}

	provider, cacheCloser, err := distanceProvider(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cacheCloser != nil {
		a.closers = append(a.closers, cacheCloser)
	}

	var authService *auth.Service
	if cfg.AuthEnabled {
		if authService, err = auth.NewService(cfg.JWTSecret, cfg.JWTExpiry); err != nil {
			a.Close()
			return nil, err
		}
	} else {
		log.Warn("Authentication disabled; every request runs with admin rights")
	}

	settings, err := reporting.NewSettings(cfg.EmissionFactor)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.handler = handlers.NewRouter(handlers.RouterConfig{
		Store:            store,
		Reports:          reporting.NewService(store, settings),
		Distance:         provider,
		Auth:             authService,
		Backend:          cfg.StoreBackend,
		HealthCheck:      check,
		ImportRateLimit:  cfg.ImportRateLimit,
		ImportRateWindow: cfg.ImportRateWindow,
		MaxUploadBytes:   cfg.MaxUploadMB << 20,
	})
	return a, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":            cfg.Port,
			"store":           cfg.StoreBackend,
			"auth":            cfg.AuthEnabled,
			"emission_factor": cfg.EmissionFactor,
		}).Info("HTTP server listening")
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}
