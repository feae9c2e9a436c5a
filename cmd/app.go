package main

import (
	"context"
	"fmt"
	"log"

	"cafepos/internal/config"
	httpapi "cafepos/internal/http"
	"cafepos/internal/receipt"
	"cafepos/internal/repository/sqlstore"
	"cafepos/internal/service"
)

// app собранные зависимости одного процесса
type app struct {
	store    *sqlstore.Store
	catalog  *service.CatalogService
	users    *service.UserService
	settings *service.SettingsService
	orders   *service.OrderService
	receipts *service.ReceiptService
	reports  *service.ReportService
	register *service.Register
}

func openApp(ctx context.Context, cfg config.Config, logger *log.Logger) (*app, error) {
	store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	seeded, err := store.Seed(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}
	if seeded {
		logger.Printf("seeded a fresh database")
	}

	// a nil *CommandPrinter must not become a non-nil Printer
	var printer receipt.Printer
	if p := receipt.NewCommandPrinter(cfg.PrintCommand); p != nil {
		printer = p
	}
	sink := receipt.NewFileSink(cfg.TicketDir, printer, logger)

	a := &app{store: store}
	a.catalog = service.NewCatalogService(store, store)
	a.users = service.NewUserService(store, store, cfg.HashPasswords)
	a.settings = service.NewSettingsService(store)
	a.orders = service.NewOrderService(store, store, store)
	a.receipts = service.NewReceiptService(a.orders, a.settings, sink, cfg.Currency, logger)
	a.reports = service.NewReportService(store)
	a.register = service.NewRegister(store, a.orders, a.receipts)
	return a, nil
}

func (a *app) services() httpapi.Services {
	return httpapi.Services{
		Catalog:  a.catalog,
		Users:    a.users,
		Settings: a.settings,
		Receipts: a.receipts,
		Reports:  a.reports,
		Register: a.register,
	}
}

func (a *app) close() {
	a.store.Close()
}
