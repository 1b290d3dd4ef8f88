package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alumni-informatik/events-server/internal/api/handlers"
	"github.com/alumni-informatik/events-server/internal/api/middleware"
	"github.com/alumni-informatik/events-server/internal/config"
	"github.com/alumni-informatik/events-server/internal/domain/events"
	"github.com/alumni-informatik/events-server/internal/metrics"
	"github.com/alumni-informatik/events-server/internal/storage/jsonfile"
	"github.com/alumni-informatik/events-server/web"
)

// RouterDeps carries the wired dependencies for the HTTP surface.
type RouterDeps struct {
	Config    config.Config
	Logger    zerolog.Logger
	Store     *jsonfile.Store
	Service   *events.Service
	Version   string
	GitCommit string
}

// NewRouter builds the full route table: public site and feed, admin
// pages, the create endpoint, and the operational endpoints.
func NewRouter(deps RouterDeps) (http.Handler, error) {
	cfg := deps.Config

	csrfKey, err := middleware.DeriveCSRFKey([]byte(cfg.Security.CSRFSecret))
	if err != nil {
		return nil, err
	}
	csrfProtect := middleware.CSRFProtection(csrfKey, cfg.Environment == "production")

	publicLimit := middleware.RateLimit(cfg.RateLimit.PublicPerMinute)
	adminLimit := middleware.RateLimit(cfg.RateLimit.AdminPerMinute)

	eventsHandler := handlers.NewEventsHandler(deps.Service)
	adminHandler := handlers.NewAdminHandler(deps.Service, cfg.Location())
	feedHandler := handlers.NewFeedHandler(deps.Store)
	checker := handlers.NewHealthChecker(deps.Store, cfg.Uploads.Dir, deps.Version, deps.GitCommit)

	mux := http.NewServeMux()

	mux.Handle("/healthz", checker.Health())
	mux.Handle("/readyz", checker.Ready())
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/{$}", publicLimit(web.IndexHandler()))
	mux.Handle("/robots.txt", web.RobotsTxtHandler())
	mux.Handle("/assets/", web.AssetsHandler())
	mux.Handle(cfg.Uploads.PublicPath+"/", publicLimit(
		http.StripPrefix(cfg.Uploads.PublicPath+"/", http.FileServer(http.Dir(cfg.Uploads.Dir))),
	))

	mux.Handle("/events.json", publicLimit(methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(feedHandler.ServeFeed),
	})))

	// The create endpoint and both admin pages share one CSRF
	// protector: the GET pages issue the token cookie the mutating
	// POSTs are checked against.
	createEvent := csrfProtect(middleware.UploadRequestSize()(http.HandlerFunc(eventsHandler.Create)))
	mux.Handle("/api/events", adminLimit(methodMux(map[string]http.Handler{
		http.MethodPost: createEvent,
	})))

	mux.Handle("/admin/{$}", adminLimit(csrfProtect(methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(adminHandler.ServeAdd),
	}))))
	mux.Handle("/admin/manage", adminLimit(csrfProtect(methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(adminHandler.ServeManage),
	}))))
	mux.Handle("/admin/events", adminLimit(csrfProtect(middleware.FormRequestSize()(methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(adminHandler.HandleAction),
	})))))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == "production")(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler, nil
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
