package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"gatewarden/internal/chat"
	"gatewarden/internal/config"
	"gatewarden/internal/daemon"
	"gatewarden/internal/enforcer"
	"gatewarden/internal/funfacts"
	"gatewarden/internal/logging"
	"gatewarden/internal/roster"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := roster.Open(cfg)
	if err != nil {
		logger.Error("open roster store", logging.Error(err))
		return
	}

	var conn enforcer.Connector = enforcer.NoopConnector{}
	if cfg.Chat.BotToken != "" {
		conn = chat.NewClient(cfg)
	} else {
		logger.Warn("no bot token configured, running without platform access")
	}

	facts, err := funfacts.Load(cfg.FunFacts.Path)
	if err != nil {
		logger.Warn("load fun facts", logging.Error(err))
		facts = &funfacts.Collection{}
	}

	manager := enforcer.NewManager(cfg, store, conn, logger, enforcer.WithFacts(facts))

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	syncGuilds(ctx, store, manager, logger)

	<-ctx.Done()
	logger.Info("gatewardend shutting down")
}

// syncGuilds imports untracked members of every enabled guild so a restart
// picks up members who joined while the daemon was down.
func syncGuilds(ctx context.Context, store *roster.Store, manager *enforcer.Manager, logger *slog.Logger) {
	guilds, err := store.Guilds(ctx)
	if err != nil {
		logger.Warn("load guilds for startup sync", logging.Error(err))
		return
	}
	for _, guild := range guilds {
		if !guild.Enabled || !guild.Configured() {
			continue
		}
		if _, err := manager.SyncGuild(ctx, guild, time.Now()); err != nil {
			logger.Warn("startup guild sync failed",
				logging.String(logging.FieldGuildID, guild.GuildID),
				logging.Error(err),
			)
		}
	}
}
