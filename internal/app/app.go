// Package app wires retracer together: configuration, storage, the
// transport client, the archival pipeline, and the operator command front
// end.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"retracer/internal/archive"
	"retracer/internal/auth"
	"retracer/internal/data/store"
	"retracer/internal/infra/config"
	"retracer/internal/infra/logger"
	"retracer/internal/recovery"
	"retracer/internal/retention"
	"retracer/internal/service/command"
	"retracer/internal/service/event"
	"retracer/internal/service/send"
	"retracer/internal/vault"
)

// App is the main application orchestrator.
type App struct {
	Config *config.Config
	Log    *logger.Logger
	Client *Client

	RecordStore *store.Store
	Archive     *archive.Store
	Queue       *archive.Queue
	Vault       *vault.Vault
	Detector    *recovery.Detector
	Engine      *recovery.Engine
	Sweeper     *retention.Sweeper

	EventService   *event.EventService
	SendService    *send.SendService
	CommandService *command.Service

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a fully wired App.
func New(cfg *config.Config) (*App, error) {
	log := logger.New("retracer", cfg.LogLevel)
	log.Infof("Initializing Retracer...")

	if err := cfg.EnsureStorePath(); err != nil {
		return nil, fmt.Errorf("failed to ensure store path: %w", err)
	}

	recordStore, err := store.New(filepath.Join(cfg.StorePath, "retracer.db"), log)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	mediaRecords := store.NewMediaRecordStore(recordStore)
	deletions := store.NewDeletionStore(recordStore)

	archiveStore := archive.NewStore(cfg.ArchivePath(), log)
	queue := archive.NewQueue(archiveStore,
		cfg.Archive.QueueCapacity, cfg.Archive.FlushBatchSize, cfg.Archive.FlushInterval, log)

	mediaVault := vault.New(cfg.MediaPath(), cfg.Media.MaxFileSizeBytes, mediaRecords, log)

	detector := recovery.NewDetector(archiveStore, deletions, log)
	engine := recovery.NewEngine(archiveStore, mediaVault, deletions, log)

	sweeper := retention.NewSweeper(archiveStore, mediaVault,
		cfg.Retention.Window, cfg.Retention.Warmup, cfg.Retention.Interval, log)

	client, err := NewClient(cfg, log)
	if err != nil {
		recordStore.Close()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	sendService := send.NewSendService(client.Underlying(), log)
	eventService := event.NewEventService(client.Underlying(), cfg, queue, mediaVault, detector, log)
	commandService := command.NewService(engine, sendService, queue, archiveStore, mediaVault,
		cfg.CommandPrefix, log)
	eventService.SetCommandHandler(commandService)

	ctx, cancel := context.WithCancel(context.Background())
	eventService.SetContext(ctx)

	app := &App{
		Config:         cfg,
		Log:            log,
		Client:         client,
		RecordStore:    recordStore,
		Archive:        archiveStore,
		Queue:          queue,
		Vault:          mediaVault,
		Detector:       detector,
		Engine:         engine,
		Sweeper:        sweeper,
		EventService:   eventService,
		SendService:    sendService,
		CommandService: commandService,
		ctx:            ctx,
		cancel:         cancel,
	}

	client.WAClient.AddEventHandler(eventService.Handle)
	return app, nil
}

// Run starts the pipeline and blocks until shutdown.
func (a *App) Run() error {
	a.Log.Infof("Starting Retracer (retention window %s)...", a.Config.Retention.Window)

	a.Queue.Start(a.ctx)
	a.Sweeper.Start(a.ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		a.Log.Infof("Received %v, initiating shutdown...", sig)
		a.cancel()
	}()

	if err := a.connect(); err != nil {
		if a.ctx.Err() != nil {
			a.Log.Infof("Shutdown during startup")
			return a.Shutdown()
		}
		return err
	}

	a.Log.Infof("Retracer is running. Press Ctrl+C to stop.")

	<-a.ctx.Done()
	return a.Shutdown()
}

// connect handles the connection flow, including QR pairing if needed.
func (a *App) connect() error {
	if a.Client.IsLoggedIn() {
		a.Log.Infof("Using existing session...")
		return a.Client.Connect()
	}

	a.Log.Infof("No existing session, starting QR pairing...")

	qrChan, err := a.Client.GetQRChannel(a.ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}

	if err := a.Client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	return auth.NewQRHandler(a.Log).HandleQRChannel(a.ctx, qrChan)
}

// Shutdown stops the pipeline, drains the queue, and closes storage.
func (a *App) Shutdown() error {
	a.Log.Infof("Shutting down...")

	a.cancel()
	a.Sweeper.Stop()
	a.Queue.Stop()

	if err := a.Client.Close(); err != nil {
		a.Log.Errorf("Failed to close client: %v", err)
	}
	if err := a.RecordStore.Close(); err != nil {
		a.Log.Errorf("Failed to close record store: %v", err)
	}

	a.Log.Infof("Shutdown complete")
	return nil
}
