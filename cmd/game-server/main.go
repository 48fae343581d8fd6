package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poker-room/internal/config"
	"poker-room/internal/game"
	"poker-room/internal/lobby"
	"poker-room/internal/logging"
	"poker-room/internal/pubsub"
	"poker-room/internal/spectatorgateway"
	"poker-room/internal/store"
	"poker-room/internal/table"
	httptransport "poker-room/internal/transport/http"
	"poker-room/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}
	if err := logging.Init(cfg.Log); err != nil {
		log.Fatal().Err(err).Msg("logging init failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	accounts, err := openAccounts(ctx, cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Server.AccountStore).Msg("store init failed")
	}
	defer accounts.Close()
	if err := accounts.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("store ping failed")
	}

	svc := lobby.New(accounts, lobbyOptions(cfg))
	wsSrv := ws.NewServer(svc)
	svc.AddNotifier(wsSrv)
	spectators := spectatorgateway.NewHub()
	svc.AddNotifier(spectators)

	if cfg.Server.NATSURL != "" {
		pub, err := pubsub.Connect(cfg.Server.NATSURL, cfg.Server.NATSToken)
		if err != nil {
			log.Fatal().Err(err).Msg("nats connect failed")
		}
		defer pub.Close()
		svc.AddNotifier(pub)
	}

	r := httptransport.NewRouter(svc, wsSrv, spectators, accounts, cfg.Server)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Str("store", cfg.Server.AccountStore).Msg("server_started")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown failed")
	}
	wsSrv.Close()
	svc.Close()
	log.Info().Msg("server_stopped")
}

func openAccounts(ctx context.Context, cfg config.ServerConfig) (store.Accounts, error) {
	switch cfg.AccountStore {
	case config.StorePostgres:
		return store.New(cfg.PostgresDSN)
	case config.StoreMongo:
		return store.NewMongo(ctx, cfg.MongoURI)
	case config.StoreMemory:
		return store.NewMemory(), nil
	}
	return nil, errors.New("unknown account store " + cfg.AccountStore)
}

func lobbyOptions(cfg config.AppConfig) lobby.Options {
	return lobby.Options{
		StartingBalance: cfg.Server.StartingBalance,
		Table: table.Options{
			Timing: game.Timing{
				Countdown:      cfg.Table.ActionCountdown,
				AnimationDelay: cfg.Table.AnimationDelay,
				TickInterval:   cfg.Table.TickInterval,
			},
			InboxSize: cfg.Table.InboxSize,
			Seed:      cfg.Table.ShuffleSeed,
		},
	}
}
