package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imobi-crm/internal/api"
	"imobi-crm/internal/automation"
	"imobi-crm/internal/chat"
	"imobi-crm/internal/config"
	"imobi-crm/internal/database"
	"imobi-crm/internal/empreendimento"
	"imobi-crm/internal/logging"
	"imobi-crm/internal/pipeline"
	"imobi-crm/internal/store"
	"imobi-crm/internal/webhook"
	"imobi-crm/internal/whatsapp"
	"imobi-crm/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	policy, err := automation.ParsePolicy(cfg.AutomationFailurePolicy)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.CatalogFile != "" {
		added, err := empreendimento.SeedFromFile(context.Background(), st, cfg.CatalogFile)
		if err != nil {
			return fmt.Errorf("load catalogue %s: %w", cfg.CatalogFile, err)
		}
		logger.Info("Catalogue loaded", zap.String("file", cfg.CatalogFile), zap.Int("added", added))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	var messenger chat.Messenger
	var whatsappHandler *api.WhatsAppHandler
	if cfg.MessagingEnabled() {
		client := whatsapp.NewClient(cfg, logger)
		messenger = client
		whatsappHandler = api.NewWhatsAppHandler(client)
	} else {
		logger.Warn("WHATSAPP_TOKEN or PHONE_NUMBER_ID not set, outgoing messages are only logged")
		messenger = whatsapp.NewLogMessenger(logger)
	}

	outbox := chat.NewOutbox(messenger, st, st, cfg.AgentID, logger)
	outbox.Notifier = hub

	provider := empreendimento.NewProvider(st)
	chatService := chat.NewService(chat.NewResolver(st, provider), outbox, st, logger)
	engine := automation.NewEngine(st, st, outbox, st, policy, logger)
	pipelineService := pipeline.NewService(st, engine, logger)

	webhookHandler := webhook.NewHandler(cfg, chatService, st, logger)
	handlers := &api.Handlers{
		Templates:       api.NewTemplateHandler(st),
		Automation:      api.NewAutomationHandler(st, st),
		Leads:           api.NewLeadHandler(st, pipelineService, logger),
		Chat:            api.NewChatHandler(chatService),
		Broadcast:       api.NewBroadcastHandler(st, st, outbox, logger),
		Empreendimentos: api.NewEmpreendimentoHandler(st, provider),
		WhatsApp:        whatsappHandler,
	}

	if err := api.RegisterValidations(); err != nil {
		return err
	}
	r := gin.Default()
	r.Use(api.CORS())

	// Webhook Routes
	r.GET("/webhook", webhookHandler.VerifyWebhook)
	r.POST("/webhook", webhookHandler.HandleMessage)
	r.GET("/ws", gin.WrapF(hub.ServeWs))

	handlers.Register(r.Group("/api"))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("storage", cfg.StorageDriver),
			zap.String("automation_policy", policy.String()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return store.NewMemory(), nil
	}
	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	return store.NewGorm(db), nil
}
