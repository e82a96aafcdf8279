package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"libraryapi/internal/api/middleware"
	"libraryapi/internal/api/response"
	"libraryapi/pkg/factory"
)

const welcomeMessage = "🚀 Welcome to the Library Management System API! 📚 The API is running smoothly."

// NewRouter registers every route on one ServeMux and wraps it with the
// request middleware stack.
func NewRouter(f factory.Factory) http.Handler {
	log := f.GetLogger()
	cfg := f.GetConfig()

	auth := middleware.NewAuth(f.GetUserService(), log)

	catalogGuard := identity
	if cfg.Server.CatalogWriteRequiresAdmin {
		catalogGuard = auth.Admin
	}

	mux := http.NewServeMux()

	NewBookHandler(f.GetBookService(), catalogGuard, log).RegisterRoutes(mux)
	NewUserHandler(f.GetUserService(), auth, log).RegisterRoutes(mux)
	NewLendingHandler(f.GetLendingService(), auth, log).RegisterRoutes(mux)
	NewAdminHandler(f.GetAdminService(), auth, log).RegisterRoutes(mux)
	NewAuditLogHandler(f.GetAuditLogService(), auth, log).RegisterRoutes(mux)
	NewHealthHandler(f, log).RegisterRoutes(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "X-Trace-ID"},
		AllowCredentials: false,
	})

	return middleware.Chain(mux,
		corsHandler.Handler,
		middleware.RequestID,
		middleware.TracingMiddleware,
		middleware.Logging(log),
		middleware.MetricsMiddleware,
	)
}
