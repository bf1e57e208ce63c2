package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gringotts/internal/api"
	"gringotts/internal/bank"
	"gringotts/internal/bot"
	"gringotts/internal/config"
	"gringotts/internal/earn"
	"gringotts/internal/links"
	"gringotts/internal/shop"
	"gringotts/internal/vault"

	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	cfg, err := config.LoadBotFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("create data dir failed", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}

	ledger := bank.New(cfg.BalancesPath(), logger)
	table := links.New(cfg.LinksPath(), logger)
	shops := shop.New(cfg.ShopsPath(), logger)
	vaults := vault.New(cfg.VaultsPath(), logger)
	pending := earn.NewQueue(cfg.PendingPath(), logger)

	b, err := bot.New(cfg, logger, bot.Deps{
		Ledger:   ledger,
		Links:    table,
		Shops:    shops,
		Vaults:   vaults,
		Pending:  pending,
		Cooldown: earn.NewCooldown(cfg.EarnCooldown),
	})
	if err != nil {
		logger.Error("bot init failed", "err", err)
		os.Exit(1)
	}

	if cfg.StatusAddr != "" {
		server := api.New(logger, ledger, table)
		httpServer := &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()
		go func() {
			logger.Info("status server listening", "addr", cfg.StatusAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("status server failed", "err", err)
			}
		}()
	}

	if err := b.Run(ctx); err != nil {
		logger.Error("bot failed", "err", err)
		os.Exit(1)
	}
}
