package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"CacaoStore/internal/cart"
	"CacaoStore/internal/catalog"
	"CacaoStore/internal/checkout"
	"CacaoStore/internal/session"
	"CacaoStore/internal/site"
	"CacaoStore/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	Catalog  *catalog.Catalog
	Sessions cart.Sessions
	Tokens   *session.TokenMaker

	CheckoutDelay time.Duration
	SecureCookie  bool

	// TrustProxy rewrites RemoteAddr from forwarded headers before rate limiting.
	TrustProxy bool

	// CheckoutLimiter defaults to 10 submissions per minute per IP.
	CheckoutLimiter *kit.IPRateLimiter
}

const (
	readyTimeout = 2 * time.Second

	checkoutLimit  = 10
	checkoutWindow = time.Minute
)

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	log := httpDeps.Log
	if log == nil {
		log = zap.NewNop()
	}

	var (
		cartMetrics     *cart.Metrics
		checkoutMetrics *checkout.Metrics
	)
	if httpDeps.Registry != nil {
		cartMetrics = cart.NewMetrics(httpDeps.Registry)
		checkoutMetrics = checkout.NewMetrics(httpDeps.Registry)
	}

	carts := cart.NewService(deps.Catalog, deps.Sessions, cartMetrics)
	sim := checkout.NewSimulator(deps.CheckoutDelay, carts, checkout.NewMemStore(), log, checkoutMetrics)

	limiter := deps.CheckoutLimiter
	if limiter == nil {
		limiter = kit.NewIPRateLimiter(checkoutLimit, checkoutWindow)
	}

	pages, err := site.New(deps.Catalog, carts, sim, log)
	if err != nil {
		return nil, err
	}
	pages.CheckoutLimit = limiter.Middleware

	catalogAPI := &catalog.Server{Catalog: deps.Catalog}
	cartAPI := &cart.Server{Service: carts, Log: log}
	checkoutAPI := &checkout.Server{Simulator: sim, Log: log, Limit: limiter.Middleware}

	r := chi.NewRouter()
	setupMiddleware(r, log, deps.TrustProxy)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Sessions, log))

	r.Group(func(sr chi.Router) {
		sr.Use(session.Middleware(deps.Tokens, deps.SecureCookie, log))

		sr.Route("/api", func(api chi.Router) {
			catalogAPI.Register(api)
			checkoutAPI.Register(api)
			api.Mount("/cart", cartAPI.Routes())
		})

		sr.Mount("/", pages.Routes())
	})

	return r, nil
}

func setupMiddleware(r *chi.Mux, log *zap.Logger, trustProxy bool) {
	if trustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.RoutePattern))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(sessions cart.Sessions, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := sessions.Ping(ctx); err != nil {
			log.Warn("readyz failed: sessions", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "sessions not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
