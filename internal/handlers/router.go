package handlers

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fuellog/internal/auth"
	"github.com/ukydev/fuellog/internal/db"
	"github.com/ukydev/fuellog/internal/middleware"
)

// RouterConfig holds everything the HTTP API is built from.
type RouterConfig struct {
	AuthService *auth.Service
	Users       db.UserCollection
	Garage      Garage
	Families    Families
	Database    Pinger
	Logger      *log.Logger

	RateLimitRequests int
	RateLimitWindow   time.Duration
	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []*net.IPNet
}

// NewRouter wires every route and the middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	authHandler := NewAuthHandler(cfg.AuthService, cfg.Users)
	vehicleHandler := NewVehicleHandler(cfg.Garage)
	fillHandler := NewFillHandler(cfg.Garage)
	familyHandler := NewFamilyHandler(cfg.Families, cfg.Users)

	r := mux.NewRouter()
	r.HandleFunc("/health", Health(cfg.Database)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/profile", authHandler.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/auth/profile", authHandler.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/auth/password", authHandler.ChangePassword).Methods(http.MethodPost)

	api.HandleFunc("/vehicles", vehicleHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/vehicles", vehicleHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}", vehicleHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", vehicleHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/vehicles/{id}", vehicleHandler.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/fills", fillHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/fills", fillHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/fills/stats", fillHandler.Stats).Methods(http.MethodGet)
	api.HandleFunc("/fills/{id}", fillHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/fills/{id}", fillHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/fills/{id}", fillHandler.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/families", familyHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/families", familyHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/families/join", familyHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/families/{id}", familyHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/families/{id}", familyHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/families/{id}/invite", familyHandler.Invite).Methods(http.MethodPost)
	api.HandleFunc("/families/{id}/leave", familyHandler.Leave).Methods(http.MethodPost)
	api.HandleFunc("/families/{id}/members/{userId}", familyHandler.RemoveMember).Methods(http.MethodDelete)

	var handler http.Handler = r
	handler = middleware.NewAuthMiddleware(cfg.AuthService).Authenticate(handler)
	if cfg.RateLimitRequests > 0 && cfg.RateLimitWindow > 0 {
		handler = middleware.NewRateLimitMiddleware(cfg.TrustedProxies...).RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)(handler)
	}
	handler = middleware.RequestLogger(logger)(handler)
	return handler
}
