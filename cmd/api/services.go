package main

import (
	"github.com/angelmondragon/stockroom-backend/api/routes"
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
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/security"
)

// buildServices wires every domain service the router mounts.
func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	sessions *session.Manager,
	stockMetrics *metrics.StockMetrics,
) (routes.Services, error) {
	var out routes.Services
	gdb := dbClient.DB()

	hasher, err := security.NewHasher(cfg.Password)
	if err != nil {
		return out, err
	}
	usersRepo := users.NewRepository(gdb)

	if out.Users, err = users.NewService(usersRepo, hasher); err != nil {
		return out, err
	}
	if out.Authorizer, err = rbac.NewService(usersRepo); err != nil {
		return out, err
	}
	if out.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessions,
		Passwords:      hasher,
		JWTConfig:      cfg.JWT,
	}); err != nil {
		return out, err
	}

	if out.Adjustments, err = adjustments.NewService(adjustments.NewRepository(gdb)); err != nil {
		return out, err
	}
	if out.Departments, err = departments.NewService(dbClient, departments.NewRepository(gdb)); err != nil {
		return out, err
	}
	if out.Employees, err = employees.NewService(dbClient, employees.NewRepository(gdb)); err != nil {
		return out, err
	}
	if out.Vendors, err = vendors.NewService(vendors.NewRepository(gdb)); err != nil {
		return out, err
	}
	if out.Catalog, err = catalog.NewService(catalog.NewRepository(gdb)); err != nil {
		return out, err
	}
	if out.Items, err = items.NewService(items.ServiceParams{
		TX:          dbClient,
		Repo:        items.NewRepository(gdb),
		Adjustments: out.Adjustments,
		Metrics:     stockMetrics,
	}); err != nil {
		return out, err
	}
	if out.Checkout, err = checkout.NewService(checkout.ServiceParams{
		TX:           dbClient,
		Repo:         checkout.NewRepository(gdb),
		Adjustments:  out.Adjustments,
		Metrics:      stockMetrics,
		Logger:       logg,
		MaxAttempts:  cfg.Checkout.MaxAttempts,
		RetryBackoff: cfg.Checkout.RetryBackoff,
	}); err != nil {
		return out, err
	}
	if out.Receiving, err = receiving.NewService(receiving.ServiceParams{
		TX:           dbClient,
		Repo:         receiving.NewRepository(gdb),
		Adjustments:  out.Adjustments,
		Metrics:      stockMetrics,
		Logger:       logg,
		MaxAttempts:  cfg.Checkout.MaxAttempts,
		RetryBackoff: cfg.Checkout.RetryBackoff,
	}); err != nil {
		return out, err
	}
	return out, nil
}
