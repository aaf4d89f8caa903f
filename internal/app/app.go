// Package app wires the gateway together: storage backend, upstream client,
// cart store, coupon state, checkout gate, HTTP server, and graceful
// shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/papercart/storefront/internal/cart"
	"github.com/papercart/storefront/internal/catalog"
	"github.com/papercart/storefront/internal/checkout"
	"github.com/papercart/storefront/internal/coupon"
	"github.com/papercart/storefront/internal/handler"
	"github.com/papercart/storefront/internal/session"
	"github.com/papercart/storefront/internal/storage"
	"github.com/papercart/storefront/internal/upstream"
	"github.com/papercart/storefront/pkg/health"
	"github.com/papercart/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the gateway.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("upstream", cfg.UpstreamURL),
	)

	// Durable client storage: Redis when configured, file store otherwise.
	kv, err := newStorage(cfg, lg)
	if err != nil {
		return errors.Wrap(err, "create storage")
	}

	// Upstream API client with instrumented transport.
	client := upstream.NewClient(cfg.UpstreamURL, &http.Client{
		Timeout: 15 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	})

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("upstream", 5*time.Second, client.Health)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain state.
	cartStore := cart.NewStore(ctx, kv, lg.Named("cart"))
	sessions := session.NewManager(kv)
	couponState := coupon.NewState()

	var prescreen *coupon.Prescreen
	if cfg.CouponPack != "" {
		prescreen, err = coupon.LoadPrescreen(cfg.CouponPack)
		if err != nil {
			// Pre-screening is an optimization; the remote validator stays
			// authoritative without it.
			lg.Warn("Coupon pack unavailable", zap.String("path", cfg.CouponPack), zap.Error(err))
			prescreen = nil
		}
	}

	applier := coupon.NewApplier(client, couponState, prescreen, lg.Named("coupon"))
	gate := checkout.NewGate(cartStore, couponState, sessions, client, lg.Named("checkout"))
	cat := catalog.New(client, cfg.CatalogTTL)

	// HTTP surface.
	h := handler.New(cartStore, cat, couponState, applier, gate, sessions, client)
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
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
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
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Gateway listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

func newStorage(cfg *Config, lg *zap.Logger) (storage.KV, error) {
	if cfg.Redis.Addr != "" {
		lg.Info("Using Redis storage", zap.String("addr", cfg.Redis.Addr))
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return storage.NewRedisStore(client, "papercart:"), nil
	}

	lg.Info("Using file storage", zap.String("dir", cfg.DataDir))
	return storage.NewFileStore(cfg.DataDir)
}
