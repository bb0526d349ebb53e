package app

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/foodscan/internal/cache"
	"github.com/xenking/foodscan/internal/client"
	"github.com/xenking/foodscan/internal/credfile"
	"github.com/xenking/foodscan/internal/domain/auth"
	"github.com/xenking/foodscan/internal/domain/price"
	"github.com/xenking/foodscan/internal/domain/product"
	"github.com/xenking/foodscan/internal/httpapi"
	"github.com/xenking/foodscan/pkg/health"
	"github.com/xenking/foodscan/pkg/httpmiddleware"
)

// App wires the catalog client, pricing client, session manager, and cache
// into the product resolution service. It is the single dependency graph for
// both the CLI subcommands and serve mode.
type App struct {
	cfg *Config

	Session   *auth.SessionManager
	Products  *product.Service
	Prices    *price.Service
	PricesAPI *client.PricesClient

	redis *cache.Redis
}

// New creates all dependencies from the configuration. Credential problems
// degrade to unauthenticated mode instead of failing startup.
func New(ctx context.Context, cfg *Config) (*App, error) {
	lg := zctx.From(ctx)
	httpClient := client.NewHTTPClient(cfg.HTTPTimeout)

	session := auth.NewSessionManager(client.NewSession(httpClient, cfg.SessionURL))
	creds, err := resolveCredentials(cfg)
	if err != nil {
		lg.Warn("Credential file unusable, continuing unauthenticated", zap.Error(err))
		creds = auth.Credentials{Method: auth.MethodNone}
	}
	authenticated, err := session.Configure(ctx, creds)
	if err != nil {
		lg.Warn("Authentication failed, continuing unauthenticated", zap.Error(err))
	}
	lg.Info("Session configured",
		zap.String("method", creds.Method.String()),
		zap.Bool("authenticated", authenticated))

	exec, err := client.NewExecutor(httpClient, cfg.PricesURL, session)
	if err != nil {
		return nil, errors.Wrap(err, "create prices executor")
	}
	pricesAPI := client.NewPrices(exec)
	priceSvc := price.NewService(pricesAPI, session, cfg.Pricing)

	catalog, err := client.NewCatalog(httpClient, cfg.CatalogURL)
	if err != nil {
		return nil, errors.Wrap(err, "create catalog client")
	}
	resolver := product.NewFallbackResolver(catalog)

	a := &App{
		cfg:       cfg,
		Session:   session,
		Prices:    priceSvc,
		PricesAPI: pricesAPI,
	}

	var productCache product.Cache
	switch cfg.Cache.Backend {
	case "off":
	case "memory":
		productCache = cache.NewMemory(cfg.Cache.TTL)
	case "redis":
		r := cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.TTL)
		if err := r.Ping(ctx); err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		a.redis = r
		productCache = r
	default:
		return nil, errors.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}

	a.Products = product.NewService(resolver, priceSvc, productCache, cfg.Languages)
	return a, nil
}

// Close releases held resources and wipes session material.
func (a *App) Close() error {
	a.Session.Close()
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func resolveCredentials(cfg *Config) (auth.Credentials, error) {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return credfile.Resolve(cfg.CredentialsFile, wd)
}

// Serve starts the HTTP server and handles graceful shutdown.
func (a *App) Serve(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
	cfg := a.cfg
	lg.Info("Initializing", zap.String("addr", cfg.Serve.Addr))

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	if cfg.Pricing {
		healthSvc.AddReadinessCheck("prices", 5*time.Second, a.PricesAPI.Status)
	}
	if a.redis != nil {
		healthSvc.AddReadinessCheck("redis", 5*time.Second, a.redis.Ping)
	}
	healthSvc.SetReady(true)

	h := httpapi.NewHandler(a.Products, a.Session)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Serve.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(mux, "foodscan-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.Serve.RateLimit.Max,
				Window: cfg.Serve.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Serve.Graceful.ReadinessDelay))
		time.Sleep(cfg.Serve.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Serve.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Serve.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Serve.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
