package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"cafepos/internal/config"
	"cafepos/internal/domain"
	httpapi "cafepos/internal/http"

	_ "cafepos/docs"
)

// @title Café Caisse API
// @version 1.0
// @description Point of sale for a small café: catalog, carts, orders, receipts and reports.
// @host localhost:9091
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := log.New(os.Stdout, "[cafepos] ", log.LstdFlags)

	app := &cli.App{
		Name:  "cafepos",
		Usage: "café point of sale",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db-driver", Usage: "sqlite or mysql", EnvVars: []string{"DB_DRIVER"}},
			&cli.StringFlag{Name: "db-dsn", Usage: "database file or DSN", EnvVars: []string{"DB_DSN"}},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address", EnvVars: []string{"HTTP_ADDR"}},
				},
				Action: func(c *cli.Context) error { return serve(c, logger) },
			},
			{
				Name:   "init-db",
				Usage:  "create tables and seed a fresh database",
				Action: func(c *cli.Context) error { return initDB(c, logger) },
			},
			{
				Name:  "report",
				Usage: "print orders between two dates",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "YYYY-MM-DD", Required: true},
					&cli.StringFlag{Name: "to", Usage: "YYYY-MM-DD", Required: true},
				},
				Action: func(c *cli.Context) error { return report(c, logger) },
			},
			{
				Name:  "ticket",
				Usage: "print or save the receipt of an order",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "order", Usage: "order id", Required: true},
					&cli.BoolFlag{Name: "print", Usage: "save ticket_<id>.txt and send it to the printer"},
				},
				Action: func(c *cli.Context) error { return ticket(c, logger) },
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		logger.Fatalf("%v", err)
	}
}

// loadConfig env и .env, затем флаги командной строки
func loadConfig(c *cli.Context, logger *log.Logger) (config.Config, error) {
	cfg, err := config.Load(logger)
	if err != nil {
		return config.Config{}, err
	}
	if v := c.String("db-driver"); v != "" {
		cfg.DBDriver = v
	}
	if v := c.String("db-dsn"); v != "" {
		cfg.DBDSN = v
	}
	return cfg, nil
}

func serve(c *cli.Context, logger *log.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	if v := c.String("addr"); v != "" {
		cfg.HTTPAddr = v
	}
	if err := cfg.RequireSecret(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpapi.NewServer(a.services(), cfg.Secret(), cfg.TokenTTL)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown error: %v", err)
		}
		return nil
	})
	return g.Wait()
}

func initDB(c *cli.Context, logger *log.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	a, err := openApp(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	logger.Printf("database ready: %s %s", cfg.DBDriver, cfg.DBDSN)
	return nil
}

func report(c *cli.Context, logger *log.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	a, err := openApp(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.reports.OrdersInRange(c.Context, c.String("from"), c.String("to"))
	if err != nil {
		return err
	}
	out := c.App.Writer
	fmt.Fprintf(out, "%-6s %-12s %-10s %s\n", "ID", "Serveur", "Total", "Date")
	for _, o := range rep.Orders {
		fmt.Fprintf(out, "%-6s %-12s %-10s %s\n", strconv.FormatInt(o.ID, 10), o.ServerName,
			domain.FormatMoney(o.Total), o.CreatedAt.Format(domain.TimeLayout))
	}
	fmt.Fprintf(out, "Total des ventes : %s %s\n", domain.FormatMoney(rep.Total), cfg.Currency)
	return nil
}

func ticket(c *cli.Context, logger *log.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	a, err := openApp(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	id := c.Int64("order")
	if !c.Bool("print") {
		text, err := a.receipts.RenderReceipt(c.Context, id)
		if err != nil {
			return err
		}
		fmt.Fprint(c.App.Writer, text)
		return nil
	}
	res, err := a.receipts.EmitReceipt(c.Context, id)
	if err != nil {
		return err
	}
	if res.Message != "" {
		fmt.Fprintln(c.App.Writer, res.Message)
	} else {
		fmt.Fprintf(c.App.Writer, "Ticket imprimé : %s\n", res.Path)
	}
	return nil
}
