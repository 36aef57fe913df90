package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"nf_gateway/internal/auth"
	"nf_gateway/internal/config"
	"nf_gateway/internal/gateway"
	"nf_gateway/internal/logging"
	"nf_gateway/internal/metrics"
	"nf_gateway/internal/middleware"
	"nf_gateway/internal/providers"
	"nf_gateway/internal/ratelimit"
	"nf_gateway/internal/storage"
)

const (
	fileSinkBuffer        = 1000
	fileSinkFlushInterval = 5 * time.Second
)

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	Config     *config.Config
	Registry   *providers.ProviderRegistry
	Dispatcher *gateway.Dispatcher
	Guard      *auth.Guard
	RateLimit  ratelimit.Limiter
	Sink       logging.Sink
	Metrics    metrics.Metrics
	Redis      *redis.Client
}

// NewDependencies builds every service from cfg. Every configured provider
// is constructed here, so an unknown or failing provider is returned as an
// error before the server starts.
func NewDependencies(ctx context.Context, cfg *config.Config, factory *providers.ProviderFactory) (deps *Dependencies, err error) {
	deps = &Dependencies{Config: cfg}
	defer func() {
		if err != nil {
			deps.Close()
			deps = nil
		}
	}()

	// Initialize Redis client
	if cfg.Redis.Address != "" {
		deps.Redis, err = storage.NewRedisClient(cfg.Redis)
		if err != nil {
			return deps, fmt.Errorf("failed to initialize Redis: %w", err)
		}
	}

	// Initialize provider registry
	deps.Registry, err = providers.NewRegistry(ctx, cfg, factory)
	if err != nil {
		return deps, err
	}
	for _, d := range providers.Domains {
		if deps.Registry.Configured(d) {
			logging.Infof("%s capability served by %q", d, deps.Registry.ProviderName(d))
		} else {
			logging.Infof("%s capability not configured", d)
		}
	}

	// Initialize key store and guard
	var store auth.KeyStore
	switch cfg.Auth.Store {
	case config.KeyStoreRedis:
		store = auth.NewRedisKeyStore(deps.Redis, cfg.Auth.RedisKey)
	default:
		store = auth.NewMemoryKeyStore()
	}
	deps.Guard = auth.NewGuard(cfg.Auth.AdminKey, store)
	if err = deps.Guard.Seed(ctx, cfg.Auth.APIKeys); err != nil {
		return deps, fmt.Errorf("failed to seed API keys: %w", err)
	}

	// Initialize rate limiter
	switch {
	case cfg.Auth.RateLimitPerMinute <= 0:
		deps.RateLimit = ratelimit.NewNoopLimiter()
	case deps.Redis != nil:
		deps.RateLimit = ratelimit.NewRateLimiter(deps.Redis).PerMinute(cfg.Auth.RateLimitPerMinute)
	default:
		deps.RateLimit = ratelimit.NewLocalLimiter(cfg.Auth.RateLimitPerMinute)
	}

	// Initialize dispatch log sink
	switch cfg.Logging.Sink {
	case config.SinkRedis:
		deps.Sink = logging.NewRedisSink(deps.Redis, cfg.Logging.SinkKey, cfg.Logging.SinkMaxLen)
	case config.SinkFile:
		fileSink, ferr := logging.NewFileSink(cfg.Logging.FileTemplate, cfg.Logging.FileMaxSize, cfg.Logging.FileMaxFiles, fileSinkBuffer, fileSinkFlushInterval)
		if ferr != nil {
			return deps, fmt.Errorf("failed to initialize dispatch log: %w", ferr)
		}
		deps.Sink = fileSink
	default:
		deps.Sink = logging.NewNoopSink()
	}

	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.NewPrometheusMetrics()
	} else {
		deps.Metrics = metrics.NewNoopMetrics()
	}

	deps.Dispatcher = gateway.NewDispatcher(deps.Registry,
		gateway.WithPolicy(gateway.PolicyFromConfig(cfg.Storage)),
		gateway.WithSink(deps.Sink),
		gateway.WithMetrics(deps.Metrics),
	)
	return deps, nil
}

// Close releases providers, the dispatch log and the Redis connection
func (d *Dependencies) Close() error {
	var errs []error
	if d.Registry != nil {
		errs = append(errs, d.Registry.Close())
	}
	if closer, ok := d.Sink.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	return errors.Join(errs...)
}

// NewRouter creates the HTTP handler with all routes wired up
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()
	registerRoutes(mux, deps)
	return middleware.RequestID(middleware.AccessLog(deps.Metrics)(mux))
}

func registerRoutes(mux *http.ServeMux, deps *Dependencies) {
	apiKey := middleware.APIKeyMiddleware(deps.Guard)
	limit := middleware.RateLimit(deps.RateLimit)
	protected := func(h http.HandlerFunc) http.Handler {
		return apiKey(limit(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return apiKey(middleware.AdminOnly(deps.Guard)(h))
	}

	// Capability routes - ordinary or admin key
	mux.Handle("POST /llm/chat/invoke", protected(deps.handleChat))
	mux.Handle("POST /storage/upload", protected(deps.handleUpload))
	mux.Handle("POST /storage/sign", protected(deps.handleSign))
	mux.Handle("GET /records/{key}", protected(deps.handleRecord))

	// Invoice intake routes
	mux.Handle("POST /nf", protected(deps.handleNF))
	mux.Handle("POST /batch", protected(deps.handleBatch))
	mux.Handle("GET /sefaz_codes", protected(deps.handleSefazCodes))

	// Key management - admin key only
	mux.Handle("POST /admin/generate_api_key", admin(deps.handleGenerateAPIKey))
	mux.Handle("GET /admin/list_api_keys", admin(deps.handleListAPIKeys))

	// Health check endpoint - public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics endpoint - public
	if deps.Config.Metrics.Enabled {
		mux.Handle("GET "+deps.Config.Metrics.Path, deps.Metrics.HTTPHandler())
	}
}
