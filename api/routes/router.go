package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/supplychain-backend/api/controllers"
	"github.com/angelmondragon/supplychain-backend/api/middleware"
	"github.com/angelmondragon/supplychain-backend/internal/agreements"
	"github.com/angelmondragon/supplychain-backend/internal/auth"
	"github.com/angelmondragon/supplychain-backend/internal/catalog"
	"github.com/angelmondragon/supplychain-backend/internal/invoices"
	"github.com/angelmondragon/supplychain-backend/internal/notifications"
	"github.com/angelmondragon/supplychain-backend/internal/orders"
	"github.com/angelmondragon/supplychain-backend/internal/rides"
	"github.com/angelmondragon/supplychain-backend/internal/snapshots"
	"github.com/angelmondragon/supplychain-backend/internal/tickets"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/auth/session"
	"github.com/angelmondragon/supplychain-backend/pkg/config"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/supplychain-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the HTTP surface needs. Nil services answer 500;
// nil infrastructure (rate limiter, idempotency store, pingers) is skipped.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    controllers.Pinger
	Redis controllers.Pinger

	Sessions    sessionManager
	RateLimiter rateLimiter
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer

	Auth          auth.Service
	Register      auth.RegisterService
	Users         users.Service
	Agreements    agreements.Service
	Catalog       catalog.Service
	Orders        orders.Service
	Rides         rides.Service
	Invoices      invoices.Service
	Notifications notifications.Service
	Tickets       tickets.Service
	Snapshots     *snapshots.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)
	if cfg.App.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.App.RequestTimeout))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    d.DB,
			"redis": d.Redis,
		}))
	})

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	idempotent := middleware.Idempotency(d.Idempotency, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, d.RateLimiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, d.RateLimiter, logg), idempotent).Post("/register", controllers.AuthRegister(d.Register, d.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(d.Sessions, cfg.JWT, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Sessions, d.Users, cfg.JWT, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
			r.Use(idempotent)

			kitchen := middleware.RequireRole(logg, enums.RoleKitchen)
			supplier := middleware.RequireRole(logg, enums.RoleSupplier)
			vendor := middleware.RequireRole(logg, enums.RoleVendor)
			transporter := middleware.RequireRole(logg, enums.RoleTransporter)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", controllers.MeGet(d.Users, logg))
				r.Patch("/", controllers.MeUpdate(d.Users, logg))
				r.With(vendor).Put("/inventory", controllers.MeInventory(d.Users, logg))
				r.With(transporter).Put("/verification", controllers.MeVerification(d.Users, logg))
			})

			r.Route("/agreements", func(r chi.Router) {
				r.Post("/", controllers.AgreementCreate(d.Agreements, logg))
				r.Get("/", controllers.AgreementList(d.Agreements, logg))
			})

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/products", controllers.CatalogProducts(d.Catalog, logg))
				r.Get("/products/{productId}", controllers.CatalogProduct(d.Catalog, logg))
				r.Get("/categories", controllers.CatalogCategories(d.Catalog, logg))
				r.Get("/listings", controllers.CatalogListings(d.Catalog, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(kitchen).Post("/", controllers.OrderCreate(d.Orders, logg))
				r.Get("/", controllers.OrderList(d.Orders, logg))
				r.Get("/today", controllers.OrderToday(d.Orders, logg))
				r.With(supplier).Get("/pending", controllers.OrderPending(d.Orders, logg))
				r.Get("/{orderId}", controllers.OrderGet(d.Orders, logg))
				r.Post("/{orderId}/status", controllers.OrderStatus(d.Orders, logg))
				r.With(supplier).Post("/{orderId}/accept", controllers.OrderAccept(d.Orders, logg))
				r.With(middleware.RequireRole(logg, enums.RoleSupplier, enums.RoleAdmin)).
					Post("/{orderId}/supplier", controllers.OrderAssignSupplier(d.Orders, logg))
				r.With(middleware.RequireRole(logg, enums.RoleSupplier, enums.RoleAdmin)).
					Post("/{orderId}/vendors", controllers.OrderAssignVendor(d.Orders, logg))
			})

			r.Route("/rides", func(r chi.Router) {
				r.With(middleware.RequireRole(logg, enums.RoleSupplier, enums.RoleAdmin)).
					Post("/", controllers.RideCreate(d.Rides, logg))
				r.With(transporter).Get("/available", controllers.RideAvailable(d.Rides, logg))
				r.With(transporter).Get("/mine", controllers.RideMine(d.Rides, logg))
				r.Get("/{rideId}", controllers.RideGet(d.Rides, logg))
				r.With(transporter).Post("/{rideId}/accept", controllers.RideAccept(d.Rides, logg))
				r.With(transporter).Post("/{rideId}/status", controllers.RideStatus(d.Rides, logg))
				r.With(transporter).Post("/{rideId}/location", controllers.RideLocation(d.Rides, logg))
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", controllers.InvoiceList(d.Invoices, logg))
				r.Get("/stats", controllers.InvoiceStats(d.Invoices, logg))
				r.Get("/{invoiceId}", controllers.InvoiceGet(d.Invoices, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.NotificationList(d.Notifications, logg))
				r.Get("/unread-count", controllers.NotificationUnreadCount(d.Notifications, logg))
				r.Post("/read-all", controllers.NotificationMarkAllRead(d.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.NotificationMarkRead(d.Notifications, logg))
			})

			r.Route("/tickets", func(r chi.Router) {
				r.Post("/", controllers.TicketCreate(d.Tickets, logg))
				r.Get("/", controllers.TicketList(d.Tickets, logg))
				r.Get("/{ticketId}", controllers.TicketGet(d.Tickets, logg))
				r.Post("/{ticketId}/responses", controllers.TicketRespond(d.Tickets, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

				r.Get("/users", controllers.AdminUsers(d.Users, logg))
				r.Patch("/users/{userId}", controllers.AdminUpdateUser(d.Users, logg))
				r.Post("/users/{userId}/deactivate", controllers.AdminSetActive(d.Users, false, logg))
				r.Post("/users/{userId}/activate", controllers.AdminSetActive(d.Users, true, logg))
				r.Post("/users/{userId}/verification", controllers.AdminReviewVerification(d.Users, logg))
				r.Get("/orders", controllers.OrderList(d.Orders, logg))
				r.Get("/tickets", controllers.AdminTickets(d.Tickets, logg))
				r.Post("/tickets/{ticketId}/status", controllers.AdminTicketStatus(d.Tickets, logg))
				r.Post("/invoices/{invoiceId}/status", controllers.AdminInvoiceStatus(d.Invoices, logg))
				r.Get("/snapshot", controllers.AdminSnapshot(snapshotsOrNil(d.Snapshots), logg))
				r.Post("/snapshot/flush", controllers.AdminSnapshotFlush(snapshotsOrNil(d.Snapshots), logg))
			})
		})
	})

	return r
}

type snapshotService interface {
	Export(ctx context.Context) (*snapshots.Document, error)
	Flush(ctx context.Context) error
}

// snapshotsOrNil keeps a nil *Service from becoming a non-nil interface.
func snapshotsOrNil(svc *snapshots.Service) snapshotService {
	if svc == nil {
		return nil
	}
	return svc
}
