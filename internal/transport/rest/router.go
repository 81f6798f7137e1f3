package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	_ "mindfullens/docs"
	"mindfullens/internal/config"
	"mindfullens/internal/metrics"
	"mindfullens/internal/service"
	"mindfullens/internal/transport/rest/handler"
	"mindfullens/internal/transport/rest/middleware"
	"mindfullens/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	AuthService     *service.AuthService
	WorkflowService *service.WorkflowService
	Provider        service.AnalysisProvider
	Extractor       *service.ExtractorService
	WSHub           *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	cfg := c.Config

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, c.WorkflowService)
	backendHandler := handler.NewBackendHandler(c.Provider, c.Extractor, cfg.Extraction.MaxBytes)
	sessionHandler := handler.NewSessionHandler(c.WorkflowService, cfg.Extraction.MaxBytes)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)
	limiter := middleware.NewIPRateLimiter(cfg.RateLimit)

	// CORS middleware (apply first)
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(metrics.Middleware)
	if c.Logger != nil {
		r.Use(middleware.RequestLogger(c.Logger))
	}

	// Ops
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/swagger/doc.json", swaggerDoc).Methods("GET")

	// Backend contract
	backend := r.NewRoute().Subrouter()
	backend.Use(limiter.Middleware)
	backend.HandleFunc("/predict", backendHandler.Predict).Methods("POST", "OPTIONS")
	backend.HandleFunc("/extract", backendHandler.Extract).Methods("POST", "OPTIONS")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.Handle("/sessions", limiter.Middleware(http.HandlerFunc(authHandler.StartSession))).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/session", wsHandler.SessionWS).Methods("GET")

	// Session routes (require session token)
	sessionRoutes := v1.NewRoute().Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("/session", sessionHandler.Get).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/session", sessionHandler.StartOver).Methods("DELETE", "OPTIONS")
	sessionRoutes.Handle("/session/submit", limiter.Middleware(http.HandlerFunc(sessionHandler.Submit))).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/session/analysis", sessionHandler.Resume).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/session/result", sessionHandler.Result).Methods("GET", "OPTIONS")
	sessionRoutes.Handle("/session/upload", limiter.Middleware(http.HandlerFunc(sessionHandler.Upload))).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/session/draft", sessionHandler.SaveDraft).Methods("PUT", "OPTIONS")
	sessionRoutes.HandleFunc("/session/draft", sessionHandler.GetDraft).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/session/leave", sessionHandler.Leave).Methods("POST", "OPTIONS")

	return r
}

func swaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
