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

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/L-Aguilar/microsaas-sub003/auth"
	"github.com/L-Aguilar/microsaas-sub003/internal/config"
	"github.com/L-Aguilar/microsaas-sub003/server"
	"github.com/L-Aguilar/microsaas-sub003/storage/postgres"
	"github.com/L-Aguilar/microsaas-sub003/token"
	"github.com/L-Aguilar/microsaas-sub003/token/redisregistry"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "crm").Logger()

	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}

func run(logger zerolog.Logger) error {
	c := config.New()
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	if err := postgres.RunMigrations(ctx, c.GetDatabaseDSN()); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	pool, err := postgres.NewPool(ctx, c.GetDatabaseDSN())
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	db := postgres.NewDB(pool)
	userStore := postgres.NewUserStore(pool)
	tenantRepo := postgres.NewTenantRepo(pool)
	companyRepo := postgres.NewCompanyRepo(db)

	// Token codec
	keys := c.GetSigningKeys()
	if len(keys) == 0 {
		return errors.New("TOKEN_SIGNING_KEYS is required")
	}
	keyring, err := token.NewKeyring(c.GetActiveKeyID(), keys)
	if err != nil {
		return fmt.Errorf("keyring: %w", err)
	}
	codec, err := token.NewCodec(keyring, c.GetTokenIssuer(), c.GetTokenExpiry())
	if err != nil {
		return fmt.Errorf("codec: %w", err)
	}

	// Revocation registry: Redis when configured, in-process otherwise.
	var registry token.RevocationRegistry
	if addr := c.GetRedisAddr(); addr != "" {
		redisRegistry, err := redisregistry.New(addr)
		if err != nil {
			return fmt.Errorf("redis registry: %w", err)
		}
		defer func() { _ = redisRegistry.Close() }()
		registry = redisRegistry
	} else {
		memRegistry := token.NewInMemoryRegistry()
		memRegistry.StartCleanup(ctx, time.Hour)
		registry = memRegistry
	}

	gate, err := auth.NewGatekeeper(
		auth.Stores{Users: userStore, Tenants: tenantRepo},
		codec,
		registry,
		auth.WithAuditTrail(auth.NewAuditTrail(os.Stderr)),
		auth.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("gatekeeper: %w", err)
	}

	limiter := auth.NewRateLimiter(c.GetRateLimitWindow(), c.GetRateLimitMaxAttempts())

	srv, err := server.New(c, logger, gate, limiter, server.Repos{
		Users:     userStore,
		Tenants:   tenantRepo,
		Companies: companyRepo,
	})
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if password, err := srv.BootstrapSuperAdmin(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	} else if password != "" {
		fmt.Printf("Super admin password (shown once): %s\n", password)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv.Routes()}

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("listen and serve")
			cancel()
		}
	}()

	waitForStopSignal(ctx)
	return shutdown(httpServer)
}

func waitForStopSignal(ctx context.Context) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
