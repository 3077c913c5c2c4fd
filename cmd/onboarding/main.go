package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/smallbiznis/bbf-onboarding/internal/adapter/cache"
	"github.com/smallbiznis/bbf-onboarding/internal/adapter/gemini"
	"github.com/smallbiznis/bbf-onboarding/internal/bootstrap"
	"github.com/smallbiznis/bbf-onboarding/internal/config"
	httptransport "github.com/smallbiznis/bbf-onboarding/internal/http"
	"github.com/smallbiznis/bbf-onboarding/internal/http/handler"
	apimiddleware "github.com/smallbiznis/bbf-onboarding/internal/middleware"
	"github.com/smallbiznis/bbf-onboarding/internal/repository"
	"github.com/smallbiznis/bbf-onboarding/internal/server"
	"github.com/smallbiznis/bbf-onboarding/internal/service"
	"github.com/smallbiznis/bbf-onboarding/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newRepositories,
			newOTPStore,
			newEnricher,
			service.NewOnboardingService,
			service.NewDirectoryService,
			handler.NewOnboardingHandler,
			newRateLimiter,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.SeedSampleAgents, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

// newRepositories builds the agent and user stores for the configured
// backend kind.
func newRepositories(lc fx.Lifecycle, cfg config.Config, node *snowflake.Node, logger *zap.Logger) (repository.AgentRepository, repository.UserRepository, error) {
	switch cfg.StoreKind {
	case config.StoreMemory:
		return repository.NewMemoryAgentRepo(), repository.NewMemoryUserRepo(), nil

	case config.StoreFile:
		logger.Info("using file-backed store", zap.String("data_dir", cfg.DataDir))
		return repository.NewFileAgentRepo(cfg.DataDir), repository.NewFileUserRepo(cfg.DataDir), nil

	case config.StorePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		if err := repository.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}

		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				pool.Close()
				return nil
			},
		})
		return repository.NewPostgresAgentRepo(pool, node), repository.NewPostgresUserRepo(pool, node), nil

	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.StoreKind)
	}
}

func newOTPStore(lc fx.Lifecycle, cfg config.Config) (repository.OTPStore, error) {
	if cfg.OTPStoreKind != config.OTPStoreRedis {
		return repository.NewMemoryOTPStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return cacheadapter.NewRedisOTPStore(client), nil
}

// newEnricher selects the live Gemini client or the deterministic stub when
// no API key is configured.
func newEnricher(cfg config.Config, logger *zap.Logger) gemini.Enricher {
	if cfg.GeminiAPIKey == "" {
		logger.Info("gemini enrichment disabled, using deterministic stub")
		return gemini.NewStub()
	}
	httpClient := &http.Client{Timeout: cfg.GeminiTimeout}
	return gemini.NewClient(httpClient, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, logger)
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			logger.Info("onboarding api listening",
				zap.String("addr", addr),
				zap.String("store", cfg.StoreKind))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
