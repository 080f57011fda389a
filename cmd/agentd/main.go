package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zoark/agentd/internal/agent"
	"github.com/zoark/agentd/internal/api"
	"github.com/zoark/agentd/internal/bridge"
	"github.com/zoark/agentd/internal/bus"
	"github.com/zoark/agentd/internal/config"
	"github.com/zoark/agentd/internal/dispatch"
	"github.com/zoark/agentd/internal/embedding"
	"github.com/zoark/agentd/internal/notify"
	"github.com/zoark/agentd/internal/orchestrator"
	"github.com/zoark/agentd/internal/pdf"
	"github.com/zoark/agentd/internal/sched"
	"github.com/zoark/agentd/internal/store"
	"github.com/zoark/agentd/internal/vectorstore"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting agentd...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/agentd.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// PostgreSQL is the one hard dependency; everything else degrades.
	st, err := store.New(cfg.Database.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("postgres unavailable", zap.Error(err))
	}
	defer st.Close()
	if err := st.Migrate(context.Background(), "migrations"); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	var msgBus *bus.Bus
	if cfg.Database.Redis.URL != "" {
		b, busErr := bus.New(cfg.Database.Redis.URL, logger)
		if busErr != nil {
			logger.Warn("Redis unavailable, running without message bus", zap.Error(busErr))
		} else {
			msgBus = b
			defer msgBus.Close()
		}
	}

	embedder := embedding.NewAPIProvider(embedding.Config{
		Endpoint:  cfg.Embedding.Endpoint,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		Dimension: cfg.Embedding.Dimension,
	})

	var vectors *vectorstore.Client
	var vectorErr error
	vectors, vectorErr = vectorstore.New(vectorstore.Config{
		Host: cfg.Database.Qdrant.Host,
		Port: cfg.Database.Qdrant.Port,
	})
	if vectorErr == nil {
		dim := uint64(embedder.Dimension())
		if dim == 0 {
			dim = 1024
		}
		if initErr := vectors.Init(context.Background(), dim); initErr != nil {
			logger.Warn("Qdrant unavailable, document indexing disabled", zap.Error(initErr))
			vectors, vectorErr = nil, initErr
		} else {
			defer vectors.Close()
		}
	} else {
		logger.Warn("Qdrant unavailable, document indexing disabled", zap.Error(vectorErr))
	}

	sender := buildSender(cfg.Notify, logger)

	var publisher agent.LogPublisher
	if msgBus != nil {
		publisher = msgBus
	}
	recorder := agent.NewRecorder(st, publisher, logger)
	executor := agent.NewExecutor(recorder, logger)

	// Registry of agents available for background and manual dispatch.
	// A failed construction degrades the registry, never the process.
	entries := []orchestrator.RegistryEntry{
		{Type: orchestrator.TypeTaskMonitor, Agent: agent.NewTaskMonitor(st, sender, cfg.Notify.AlertEmail, "", logger)},
		{Type: orchestrator.TypeApprovalNudger, Agent: agent.NewApprovalNudger(st, sender, "", logger)},
		{Type: orchestrator.TypeTaskEscalator, Agent: agent.NewTaskEscalator(st, logger)},
		{Type: orchestrator.TypeTimesheetDrafter, Agent: agent.NewTimesheetDrafter(st, sender, nil, logger)},
		{Type: orchestrator.TypeBroadcaster, Agent: agent.NewBroadcaster(st, sender, logger)},
		{Type: orchestrator.TypeTeamCoordinator, Agent: agent.NewTeamCoordinator(st, sender, logger)},
	}
	if vectorErr != nil {
		entries = append(entries, orchestrator.RegistryEntry{Type: orchestrator.TypeDocumentIndexer, Err: vectorErr})
	} else {
		entries = append(entries, orchestrator.RegistryEntry{
			Type:  orchestrator.TypeDocumentIndexer,
			Agent: agent.NewDocumentIndexer(st, embedder, vectors, logger),
		})
	}
	registry := orchestrator.BuildRegistry(entries, logger)

	orch := orchestrator.New(st, executor, registry,
		time.Duration(cfg.Poll.ScheduleSeconds)*time.Second,
		time.Duration(cfg.Poll.EventSeconds)*time.Second,
		logger)
	orch.Start()
	defer orch.Stop()

	cronSched, err := sched.New(executor, sched.Factories{
		TimesheetDrafter: func() agent.Agent { return agent.NewTimesheetDrafter(st, sender, nil, logger) },
		TaskMonitor:      func() agent.Agent { return agent.NewTaskMonitor(st, sender, cfg.Notify.AlertEmail, "", logger) },
		ApprovalNudger:   func() agent.Agent { return agent.NewApprovalNudger(st, sender, "", logger) },
	}, logger)
	if err != nil {
		logger.Fatal("cron setup failed", zap.Error(err))
	}
	cronSched.Start()
	defer cronSched.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event pipeline: pg_notify -> bridge -> bus -> dispatcher. The
	// orchestrator's polling loops cover the same conditions when the
	// pipeline is down.
	if msgBus != nil {
		go bridge.New(cfg.Database.Postgres.DSN, msgBus, logger).Run(ctx)

		var index agent.VectorIndex
		if vectors != nil {
			index = vectors
		}
		dispatcher := dispatch.New(msgBus, executor, dispatch.Deps{
			Store:      st,
			Sender:     sender,
			Fetcher:    pdf.NewFetcher(logger),
			Embedder:   embedder,
			Index:      index,
			AlertEmail: cfg.Notify.AlertEmail,
		}, logger)
		go dispatcher.Run(ctx)
	}

	var tail api.LogTail
	if msgBus != nil {
		tail = msgBus
	}
	var search api.DocSearch
	if vectors != nil {
		search = vectorstore.NewSearcher(embedder, vectors)
	}
	handler := api.NewHandler(executor, registry, st, tail, search, logger)

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler.Router(),
	}
	go func() {
		logger.Info("HTTP server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
}

// buildSender assembles the notification stack: the primary email path
// plus any ops-channel mirrors.
func buildSender(cfg config.NotifyConfig, logger *zap.Logger) notify.Sender {
	var primary notify.Sender = notify.NewLogSender(logger)
	if cfg.Resend.Enabled && cfg.Resend.APIKey != "" {
		primary = notify.NewResendSender(cfg.Resend.APIKey, cfg.Resend.FromEmail, logger)
	}

	var mirrors []notify.Sender
	if cfg.Slack.Enabled && cfg.Slack.BotToken != "" {
		mirrors = append(mirrors, notify.NewSlackSender(cfg.Slack.BotToken, cfg.Slack.Channel, logger))
	}
	if cfg.Discord.Enabled && cfg.Discord.BotToken != "" {
		ds, err := notify.NewDiscordSender(cfg.Discord.BotToken, cfg.Discord.ChannelID, logger)
		if err != nil {
			logger.Warn("discord notifier unavailable", zap.Error(err))
		} else {
			mirrors = append(mirrors, ds)
		}
	}

	if len(mirrors) == 0 {
		return primary
	}
	return notify.NewMulti(primary, mirrors, logger)
}
