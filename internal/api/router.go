package api

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/expopass/server/internal/api/handlers"
	"github.com/expopass/server/internal/api/middleware"
	"github.com/expopass/server/internal/auth"
	"github.com/expopass/server/internal/config"
	"github.com/expopass/server/internal/domain/locations"
	"github.com/expopass/server/internal/metrics"
)

// Deps carries the constructed collaborators the router wires into
// handlers. The caller owns their lifecycles.
type Deps struct {
	Store     locations.Store
	Indexer   locations.Indexer
	Searcher  handlers.Searcher
	Pool      *pgxpool.Pool
	JWT       *auth.JWTManager
	Version   string
	GitCommit string
	BuildDate string

	// SearchPing, when set, is probed by readiness as a degradable check.
	SearchPing func(ctx context.Context) error
}

func NewRouter(cfg config.Config, logger zerolog.Logger, deps Deps) http.Handler {
	service := locations.NewService(deps.Store, deps.Indexer)
	importService := locations.NewImportService(deps.Store, deps.Indexer)
	deleteService := locations.NewDeleteService(deps.Store, deps.Indexer)
	reconcileService := locations.NewReconcileService(deps.Store)

	locationsHandler := handlers.NewLocationsHandler(service, deleteService, reconcileService, cfg.Environment)
	importsHandler := handlers.NewImportsHandler(importService, cfg.Environment)
	searchHandler := handlers.NewSearchHandler(deps.Searcher, cfg.Environment)
	health := handlers.NewHealthChecker(deps.Pool, deps.SearchPing, deps.Version, deps.GitCommit)

	adminAuth := middleware.AdminAuth(deps.JWT, cfg.Environment)
	importTier := middleware.WithRateLimitTier(middleware.TierImport)
	limit := middleware.RateLimit(cfg.RateLimit, cfg.Environment)

	// Tier context must be set before the limiter reads it, so the
	// limiter wraps each route rather than the whole mux.
	admin := func(h http.Handler) http.Handler { return adminAuth(limit(h)) }
	adminImport := func(h http.Handler) http.Handler { return adminAuth(importTier(limit(h))) }

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", health.Readyz())
	mux.Handle("/version", VersionHandler(deps.Version, deps.GitCommit, deps.BuildDate))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/v1/locations/countries", admin(methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(locationsHandler.ListCountries),
		http.MethodPost: http.HandlerFunc(locationsHandler.CreateCountry),
	})))
	mux.Handle("/api/v1/locations/states", admin(methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(locationsHandler.ListStates),
		http.MethodPost: http.HandlerFunc(locationsHandler.CreateState),
	})))
	mux.Handle("/api/v1/locations/cities", admin(methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(locationsHandler.ListCities),
		http.MethodPost: http.HandlerFunc(locationsHandler.CreateCity),
	})))
	mux.Handle("/api/v1/locations/pincodes", admin(methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(locationsHandler.ListPincodes),
		http.MethodPost: http.HandlerFunc(locationsHandler.CreatePincode),
	})))

	// Method-qualified so the literal path cannot conflict with the
	// DELETE {id} wildcard below.
	mux.Handle("GET /api/v1/locations/pincodes/lookup", admin(http.HandlerFunc(locationsHandler.Lookup)))
	mux.Handle("GET /api/v1/locations/search", admin(http.HandlerFunc(searchHandler.Search)))

	for _, route := range []struct {
		level locations.Level
		slug  string
	}{
		{locations.LevelCountry, "countries"},
		{locations.LevelState, "states"},
		{locations.LevelCity, "cities"},
		{locations.LevelPostalCode, "pincodes"},
	} {
		mux.Handle("DELETE /api/v1/locations/"+route.slug+"/{id}", admin(locationsHandler.Delete(route.level)))
		mux.Handle("POST /api/v1/locations/"+route.slug+"/bulk-delete", admin(locationsHandler.BulkDelete(route.level)))
		mux.Handle("POST /api/v1/locations/"+route.slug+"/recalculate-usage", admin(locationsHandler.RecalculateUsage(route.level)))
	}
	mux.Handle("POST /api/v1/locations/recalculate-usage", admin(http.HandlerFunc(locationsHandler.RecalculateAllUsage)))

	mux.Handle("POST /api/v1/locations/import", adminImport(http.HandlerFunc(importsHandler.ImportJSON)))
	mux.Handle("POST /api/v1/locations/import/file", adminImport(http.HandlerFunc(importsHandler.ImportFile)))

	var handler http.Handler = mux
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
