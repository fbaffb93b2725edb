package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bikebuddy/bikebuddy-backend/api/controllers"
	"github.com/bikebuddy/bikebuddy-backend/api/middleware"
	"github.com/bikebuddy/bikebuddy-backend/internal/auth"
	"github.com/bikebuddy/bikebuddy-backend/internal/bicycles"
	"github.com/bikebuddy/bikebuddy-backend/internal/branches"
	"github.com/bikebuddy/bikebuddy-backend/internal/categories"
	"github.com/bikebuddy/bikebuddy-backend/internal/purchases"
	"github.com/bikebuddy/bikebuddy-backend/internal/rentals"
	"github.com/bikebuddy/bikebuddy-backend/internal/reports"
	"github.com/bikebuddy/bikebuddy-backend/internal/suppliers"
	"github.com/bikebuddy/bikebuddy-backend/internal/users"
	"github.com/bikebuddy/bikebuddy-backend/pkg/auth/session"
	"github.com/bikebuddy/bikebuddy-backend/pkg/config"
	"github.com/bikebuddy/bikebuddy-backend/pkg/enums"
	"github.com/bikebuddy/bikebuddy-backend/pkg/logger"
	"github.com/bikebuddy/bikebuddy-backend/pkg/metrics"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies is everything the router hands to controllers.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	RateLimiter rateLimiter
	Sessions    session.AccessSessionChecker
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Auth       auth.Service
	Users      users.Service
	Branches   branches.Service
	Categories categories.Service
	Suppliers  suppliers.Service
	Catalog    bicycles.CatalogService
	Bicycles   bicycles.ManageService
	Rentals    rentals.Service
	Purchases  purchases.Service
	Reports    reports.Service
}

func NewRouter(d Dependencies) http.Handler {
	cfg := d.Config
	logg := d.Logger
	currency := cfg.Rental.Currency

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    d.DB,
			"redis": d.Redis,
		}))
	})
	if cfg.Metrics.Enabled && d.Gatherer != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentifierLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupIdentifierLimit,
	)

	options := controllers.OptionSources{
		Branches:   d.Branches,
		Categories: d.Categories,
		Suppliers:  d.Suppliers,
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, cfg.Session.CookieName, d.Sessions, logg))

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/bicycles", http.StatusSeeOther)
		})

		// public
		r.Get("/bicycles", controllers.BrowseBicycles(d.Catalog, logg))
		r.Get("/bicycles/{id}", controllers.BicycleDetails(d.Catalog, logg))
		r.Get("/login", controllers.LoginPage())
		r.With(middleware.AuthRateLimit(loginPolicy, d.RateLimiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, cfg, logg))
		r.Get("/signup", controllers.SignupPage(d.Branches, logg))
		r.With(middleware.AuthRateLimit(signupPolicy, d.RateLimiter, logg)).Post("/signup", controllers.AuthSignup(d.Auth, cfg, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, cfg, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(logg))

			r.Post("/logout", controllers.AuthLogout(d.Auth, cfg, logg))
			r.Get("/dashboard", controllers.Dashboard(d.Users, d.Rentals, d.Catalog, logg))
			r.Get("/profile", controllers.Profile(d.Users, logg))
			r.Post("/profile", controllers.UpdateProfile(d.Users, logg))
			r.Get("/change_password", controllers.ChangePasswordPage())
			r.Post("/change_password", controllers.ChangePassword(d.Users, logg))

			r.Get("/rent", controllers.RentPage(d.Catalog, logg))
			r.Post("/rent", controllers.Rent(d.Rentals, currency, logg))
			r.Get("/return", controllers.ReturnRental(d.Rentals, currency, logg))
			r.Post("/return", controllers.ReturnRental(d.Rentals, currency, logg))
			r.Get("/my_rentals", controllers.MyRentals(d.Rentals, logg))
			r.Get("/rental_details", controllers.RentalDetails(d.Rentals, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleAdmin, enums.RoleBranchManager))

			r.Route("/manage_bicycles", func(r chi.Router) {
				r.Get("/", controllers.ManageBicycles(d.Bicycles, options, logg))
				r.Post("/", controllers.CreateBicycle(d.Bicycles, logg))
				r.Post("/{id}", controllers.UpdateBicycle(d.Bicycles, logg))
				r.Post("/{id}/delete", controllers.DeleteBicycle(d.Bicycles, logg))
			})
			r.Route("/manage_rentals", func(r chi.Router) {
				r.Get("/", controllers.ManageRentals(d.Rentals, logg))
				r.Post("/{id}/return", controllers.ManagedReturn(d.Rentals, currency, logg))
			})
			r.Get("/report", controllers.Report(d.Reports, currency, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleAdmin, enums.RolePurchasingManager))

			r.Route("/manage_suppliers", func(r chi.Router) {
				r.Get("/", controllers.ManageSuppliers(d.Suppliers, logg))
				r.Post("/", controllers.CreateSupplier(d.Suppliers, logg))
				r.Post("/{id}", controllers.UpdateSupplier(d.Suppliers, logg))
				r.Post("/{id}/delete", controllers.DeleteSupplier(d.Suppliers, logg))
			})
			r.Route("/manage_purchases", func(r chi.Router) {
				r.Get("/", controllers.ManagePurchases(d.Purchases, options, logg))
				r.Post("/", controllers.CreatePurchase(d.Purchases, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleAdmin))

			r.Route("/manage_branches", func(r chi.Router) {
				r.Get("/", controllers.ManageBranches(d.Branches, logg))
				r.Post("/", controllers.CreateBranch(d.Branches, logg))
				r.Post("/{id}", controllers.UpdateBranch(d.Branches, logg))
				r.Post("/{id}/delete", controllers.DeleteBranch(d.Branches, logg))
			})
			r.Route("/manage_categories", func(r chi.Router) {
				r.Get("/", controllers.ManageCategories(d.Categories, logg))
				r.Post("/", controllers.CreateCategory(d.Categories, logg))
				r.Post("/{id}/delete", controllers.DeleteCategory(d.Categories, logg))
			})
			r.Route("/manage_users", func(r chi.Router) {
				r.Get("/", controllers.ManageUsers(d.Users, d.Branches, cfg.Rental.AdminPageSize, logg))
				r.Post("/{id}", controllers.UpdateUserRole(d.Users, logg))
				r.Post("/{id}/delete", controllers.DeleteUser(d.Users, logg))
			})
		})
	})

	return r
}
