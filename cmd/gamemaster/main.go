package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fadedpez/gamemaster/internal/bot"
	"github.com/fadedpez/gamemaster/internal/config"
	"github.com/fadedpez/gamemaster/internal/discord"
	base "github.com/fadedpez/gamemaster/internal/games"
	"github.com/fadedpez/gamemaster/internal/logging"
	"github.com/fadedpez/gamemaster/pkg/audio"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/games"
	"github.com/fadedpez/gamemaster/pkg/guild"
	"github.com/fadedpez/gamemaster/pkg/history"
	"github.com/fadedpez/gamemaster/pkg/scheduler"
	"github.com/fadedpez/gamemaster/pkg/website"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Default.SetLevel(logging.ParseLevel(cfg.LogLevel))
	logger := logging.Default
	fatal := func(format string, v ...interface{}) {
		logger.Critical(format, v...)
		os.Exit(1)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.LogError(err)
		fatal("Failed to load catalog %s", cfg.CatalogPath)
	}
	for _, v := range cfg.DefaultVersions {
		if !cat.HasVersion(v) {
			fatal("DEFAULT_VERSIONS names %s, unknown to the catalog", v)
		}
	}

	ctx := context.Background()
	repo, err := history.Open(ctx, history.Options{
		Type:       cfg.StorageType,
		SQLitePath: cfg.SQLitePath,
		Elasticsearch: history.ElasticsearchConfig{
			URL:         cfg.ElasticsearchURL,
			Username:    cfg.ElasticsearchUsername,
			Password:    cfg.ElasticsearchPassword,
			IndexPrefix: cfg.ElasticsearchIndexPrefix,
		},
	})
	if err != nil {
		fatal("Failed to open %s history storage: %v", cfg.StorageType, err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("closing history storage: %v", err)
		}
	}()

	session, err := discord.NewSession(cfg.Token, cfg.ReactionRate)
	if err != nil {
		fatal("Failed to create Discord session: %v", err)
	}

	registry := base.NewRegistry()
	if err := games.Register(registry); err != nil {
		fatal("Failed to register games: %v", err)
	}

	site := website.New(cfg.WebsiteURL, cfg.WebsiteToken, nil, logger)
	guilds := guild.NewGuildManager(guild.Config{
		Session:         session,
		Catalog:         cat,
		Registry:        registry,
		History:         repo,
		Website:         site,
		Player:          audio.NewVoicePlayer(session, logger),
		SongsDir:        cfg.SongsDir,
		Logger:          logger,
		MaxGuilds:       cfg.MaxGuilds,
		MaxPending:      cfg.MaxPendingGuilds,
		DefaultVersions: cfg.DefaultVersions,
		RemovePassword:  cfg.ForcePassword,
		KickPassword:    cfg.KickPassword,
		Workers:         cfg.EventWorkers,
	})

	sched := scheduler.NewScheduler(logger)
	sched.AddMaintenance(site, guilds.Available, cfg.HeartbeatInterval, repo, cfg.HistoryRetention)

	gameMaster := bot.New(cfg, session, guilds, logger)
	if err := gameMaster.Start(); err != nil {
		fatal("Failed to start bot: %v", err)
	}
	sched.Start(ctx)

	fmt.Printf("Game master is now running with %d listener type(s). Press CTRL-C to exit.\n", len(registry.Types()))

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	fmt.Println("Shutting down...")
	sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	gameMaster.Shutdown(shutdownCtx)
}
