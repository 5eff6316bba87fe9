package handlers

import (
	"context"
	"net/http"
	"net/netip"
	"time"

	"github.com/ukydev/fleet-manager/internal/auth"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/middleware"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/policy"
	"github.com/ukydev/fleet-manager/internal/storage"
)

// Hub is the observer hub as seen by the HTTP layer.
type Hub interface {
	Refresher
	Subscriber
}

// Deps carries everything the HTTP surface is built from.
type Deps struct {
	Auth     *auth.Service
	Gate     *policy.Gate
	Store    db.Store
	Users    db.UserCollection
	Hub      Hub
	Router   RouteFinder
	Uploader storage.Uploader
	Seeder   Resetter
	Location *time.Location

	// Settings is served to admins as is.
	Settings any
	// Ping checks the backing store for /health. Nil reports healthy.
	Ping func(ctx context.Context) error

	AuthWait       time.Duration
	AllowedOrigins []string
	// LoginLimit caps login attempts per client IP per minute. Zero disables it.
	LoginLimit int
	// TrustedProxies may set X-Forwarded-For for the login limiter.
	TrustedProxies []netip.Prefix
}

// NewRouter builds the full HTTP handler.
func NewRouter(d Deps) http.Handler {
	authHandler := NewAuthHandler(d.Auth, d.Users)
	userHandler := NewUserHandler(d.Auth, d.Users, d.Gate)
	recordHandler := NewRecordHandler(d.Store, d.Hub, d.Gate)
	missionHandler := NewMissionHandler(d.Store, d.Hub, d.Gate, d.Router)
	calendarHandler := NewCalendarHandler(d.Store, d.Gate, d.Location)
	reportHandler := NewReportHandler(d.Store, d.Location)
	uploadHandler := NewUploadHandler(d.Uploader, d.Gate)
	liveHandler := NewLiveHandler(d.Auth, d.Hub, d.Gate, d.Location, d.AuthWait, d.AllowedOrigins)
	adminHandler := NewAdminHandler(d.Seeder, d.Hub, d.Gate, d.Settings)

	authMiddleware := middleware.NewAuthMiddleware(d.Auth, d.Gate)
	adminOnly := authMiddleware.RequireRole(models.RoleAdmin)
	mux := http.NewServeMux()

	login := http.Handler(http.HandlerFunc(authHandler.Login))
	if d.LoginLimit > 0 {
		login = middleware.NewRateLimitMiddleware(d.TrustedProxies...).RateLimit(d.LoginLimit, time.Minute)(login)
	}
	mux.Handle("POST /api/auth/login", login)
	mux.HandleFunc("GET /api/auth/me", authHandler.GetProfile)
	mux.HandleFunc("PUT /api/auth/me", authHandler.UpdateProfile)
	mux.HandleFunc("POST /api/auth/password", authHandler.ChangePassword)

	mux.HandleFunc("GET /api/users", userHandler.List)
	mux.HandleFunc("POST /api/users", userHandler.Create)
	mux.HandleFunc("GET /api/users/{id}", userHandler.Get)
	mux.HandleFunc("PUT /api/users/{id}", userHandler.Update)
	mux.HandleFunc("DELETE /api/users/{id}", userHandler.Delete)

	mux.HandleFunc("GET /api/records/{collection}", recordHandler.List)
	mux.HandleFunc("POST /api/records/{collection}", recordHandler.Create)
	mux.HandleFunc("GET /api/records/{collection}/{id}", recordHandler.Get)
	mux.HandleFunc("PUT /api/records/{collection}/{id}", recordHandler.Update)
	mux.HandleFunc("DELETE /api/records/{collection}/{id}", recordHandler.Delete)

	mux.HandleFunc("POST /api/missions/{id}/complete", missionHandler.Complete)
	mux.HandleFunc("GET /api/missions/{id}/route", missionHandler.Route)
	mux.HandleFunc("GET /api/missions/{id}/summary", missionHandler.Summary)

	mux.HandleFunc("GET /api/calendar", calendarHandler.View)
	mux.HandleFunc("GET /api/calendar/day/{date}", calendarHandler.Day)
	mux.HandleFunc("GET /api/calendar.ics", calendarHandler.ICS)

	canRead := authMiddleware.RequirePermission(policy.ActionList, policy.ResourceRecords)
	mux.Handle("GET /api/stock/alerts", canRead(http.HandlerFunc(reportHandler.StockAlerts)))
	mux.Handle("GET /api/finance/summary", canRead(http.HandlerFunc(reportHandler.FinanceSummary)))

	mux.HandleFunc("POST /api/uploads/images", uploadHandler.UploadImage)

	mux.Handle("POST /api/admin/demo/reset", adminOnly(http.HandlerFunc(adminHandler.ResetDemo)))
	mux.Handle("GET /api/admin/settings", adminOnly(http.HandlerFunc(adminHandler.Settings)))

	mux.HandleFunc("GET /ws/calendar", liveHandler.Calendar)
	mux.HandleFunc("GET /health", healthHandler(d.Ping))

	var h http.Handler = mux
	h = authMiddleware.Authenticate(h)
	h = middleware.CORS(d.AllowedOrigins)(h)
	h = middleware.RequestLogger(h)
	return h
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
