package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/stockroom-backend/api/controllers"
	"github.com/angelmondragon/stockroom-backend/api/middleware"
	"github.com/angelmondragon/stockroom-backend/internal/adjustments"
	"github.com/angelmondragon/stockroom-backend/internal/auth"
	"github.com/angelmondragon/stockroom-backend/internal/catalog"
	"github.com/angelmondragon/stockroom-backend/internal/checkout"
	"github.com/angelmondragon/stockroom-backend/internal/departments"
	"github.com/angelmondragon/stockroom-backend/internal/employees"
	"github.com/angelmondragon/stockroom-backend/internal/items"
	"github.com/angelmondragon/stockroom-backend/internal/rbac"
	"github.com/angelmondragon/stockroom-backend/internal/receiving"
	"github.com/angelmondragon/stockroom-backend/internal/users"
	"github.com/angelmondragon/stockroom-backend/internal/vendors"
	"github.com/angelmondragon/stockroom-backend/pkg/auth/session"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/stockroom-backend/pkg/redis"
)

// RedisStore is the redis surface the HTTP layer uses for readiness,
// login rate limits and idempotent replays.
type RedisStore interface {
	pkgredis.Pinger
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Services groups the domain services mounted by the router.
type Services struct {
	Auth        auth.Service
	Users       users.Service
	Authorizer  rbac.Authorizer
	Departments departments.Service
	Employees   employees.Service
	Vendors     vendors.Service
	Catalog     catalog.Service
	Items       items.Service
	Checkout    checkout.Service
	Receiving   receiving.Service
	Adjustments adjustments.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisStore RedisStore,
	sessions session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
	}

	var (
		limiter   middleware.RateLimiter
		idemStore pkgredis.IdempotencyStore
		redisP    pkgredis.Pinger
	)
	if redisStore != nil {
		limiter, idemStore, redisP = redisStore, redisStore, redisStore
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUserLimit,
	)
	secureCookie := cfg.App.IsProd()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/auth/login", controllers.AuthLogin(svc.Auth, secureCookie, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))

			read := middleware.RequirePermission(svc.Authorizer, enums.PermissionInventoryRead, logg)
			write := middleware.RequirePermission(svc.Authorizer, enums.PermissionInventoryWrite, logg)
			admin := middleware.RequirePermission(svc.Authorizer, enums.PermissionAdmin, logg)
			checkoutCreate := middleware.RequirePermission(svc.Authorizer, enums.PermissionCheckoutCreate, logg)
			idempotent := middleware.Idempotency(idemStore, cfg.Checkout.IdempotencyTTL, logg)

			r.Post("/auth/logout", controllers.AuthLogout(svc.Auth, secureCookie, logg))
			r.Get("/users/me", controllers.UserMe(svc.Users, logg))

			r.Route("/users", func(r chi.Router) {
				r.Use(admin)
				r.Post("/", controllers.UserCreate(svc.Users, logg))
				r.Get("/{userId}", controllers.UserGet(svc.Users, logg))
			})

			r.Route("/departments", func(r chi.Router) {
				r.With(read).Get("/", controllers.DepartmentList(svc.Departments, logg))
				r.With(read).Get("/{departmentId}", controllers.DepartmentGet(svc.Departments, logg))
				r.With(write).Post("/", controllers.DepartmentCreate(svc.Departments, logg))
				r.With(write).Put("/{departmentId}", controllers.DepartmentUpdate(svc.Departments, logg))
				r.With(write).Delete("/{departmentId}", controllers.DepartmentDelete(svc.Departments, logg))
			})

			r.Route("/employees", func(r chi.Router) {
				r.With(read).Get("/", controllers.EmployeeList(svc.Employees, logg))
				r.With(read).Get("/{employeeId}", controllers.EmployeeGet(svc.Employees, logg))
				r.With(write).Post("/", controllers.EmployeeCreate(svc.Employees, logg))
				r.With(write).Put("/{employeeId}", controllers.EmployeeUpdate(svc.Employees, logg))
				r.With(write).Delete("/{employeeId}", controllers.EmployeeDelete(svc.Employees, logg))
			})

			r.Route("/vendors", func(r chi.Router) {
				r.With(read).Get("/", controllers.VendorList(svc.Vendors, logg))
				r.With(read).Get("/{vendorId}", controllers.VendorGet(svc.Vendors, logg))
				r.With(write).Post("/", controllers.VendorCreate(svc.Vendors, logg))
				r.With(write).Put("/{vendorId}", controllers.VendorUpdate(svc.Vendors, logg))
				r.With(write).Delete("/{vendorId}", controllers.VendorDelete(svc.Vendors, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.With(read).Get("/", controllers.CategoryList(svc.Catalog, logg))
				r.With(read).Get("/{categoryId}", controllers.CategoryGet(svc.Catalog, logg))
				r.With(write).Post("/", controllers.CategoryCreate(svc.Catalog, logg))
			})

			r.Route("/units", func(r chi.Router) {
				r.With(read).Get("/", controllers.UnitList(svc.Catalog, logg))
				r.With(read).Get("/{unitId}", controllers.UnitGet(svc.Catalog, logg))
				r.With(write).Post("/", controllers.UnitCreate(svc.Catalog, logg))
			})

			r.Route("/items", func(r chi.Router) {
				r.With(read).Get("/", controllers.ItemList(svc.Items, logg))
				r.With(read).Get("/low-stock", controllers.ItemLowStock(svc.Items, logg))
				r.With(read).Get("/{itemId}", controllers.ItemGet(svc.Items, logg))
				r.With(write).Post("/", controllers.ItemCreate(svc.Items, logg))
				r.With(write).Put("/{itemId}", controllers.ItemUpdate(svc.Items, logg))
				r.With(write).Delete("/{itemId}", controllers.ItemDelete(svc.Items, logg))
			})

			r.Route("/transactions", func(r chi.Router) {
				r.With(checkoutCreate, idempotent).Post("/", controllers.TransactionCreate(svc.Checkout, logg))
				r.With(read).Get("/", controllers.TransactionList(svc.Checkout, logg))
				r.With(read).Get("/{transactionId}", controllers.TransactionGet(svc.Checkout, logg))
			})

			r.Route("/invoices", func(r chi.Router) {
				r.With(write, idempotent).Post("/", controllers.InvoiceReceive(svc.Receiving, logg))
				r.With(read).Get("/", controllers.InvoiceList(svc.Receiving, logg))
				r.With(read).Get("/{invoiceId}", controllers.InvoiceGet(svc.Receiving, logg))
			})

			r.Route("/logs", func(r chi.Router) {
				r.Use(read)
				r.Get("/inventory-adjustment-logs", controllers.AdjustmentLogList(svc.Adjustments, logg))
				r.Get("/{logId}", controllers.AdjustmentLogGet(svc.Adjustments, logg))
			})
		})
	})

	return r
}
