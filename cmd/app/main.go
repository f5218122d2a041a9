package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sushihentaime/inkwell/internal/blogservice"
	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/engagementservice"
	"github.com/sushihentaime/inkwell/internal/notificationservice"
	"github.com/sushihentaime/inkwell/internal/userservice"
)

type application struct {
	config              *Config
	logger              *slog.Logger
	userService         *userservice.UserService
	blogService         *blogservice.BlogService
	engagementService   *engagementservice.EngagementService
	notificationService *notificationservice.NotificationService
	reconciler          *engagementservice.Reconciler
	broker              *common.MessageBroker
	metrics             *httpMetrics
	limiter             *clientLimiter
	// wg tracks background work that must finish before shutdown.
	wg sync.WaitGroup
}

func main() {
	envFile := ".env"
	if _, err := os.Stat(envFile); err != nil {
		envFile = ""
	}

	// Load the configuration
	cfg, err := loadConfig(envFile)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the logger
	logger := newLogger(os.Stdout, cfg.Log)

	// Initialize the database
	db, err := common.NewDB(cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns, cfg.DB.MaxIdleTime)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	// Create the URI and connect to the message broker
	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	// Setup the exchange, queue, and binding key
	err = common.SetupEngagementExchange(broker)
	if err != nil {
		logger.Error("failed to setup the engagement exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	notificationService, err := notificationservice.NewNotificationService(db, broker, notificationservice.MailConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.User,
		Password: cfg.Mail.Password,
		Sender:   cfg.Mail.Sender,
	}, logger)
	if err != nil {
		logger.Error("failed to load email templates", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer notificationService.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cache := common.NewCache(cfg.Engagement.CacheTTL, 2*cfg.Engagement.CacheTTL)

	engagementService := engagementservice.NewEngagementService(db, cache, broker, logger, engagementservice.NewMetrics(registry), engagementservice.Config{
		ViewDedupWindow: cfg.Engagement.ViewDedupWindow,
		MaxRetries:      cfg.Engagement.TxMaxRetries,
		CacheTTL:        cfg.Engagement.CacheTTL,
	})

	// Initialize the services
	app := &application{
		config:              cfg,
		logger:              logger,
		userService:         userservice.NewUserService(db, cache),
		blogService:         blogservice.NewBlogService(db),
		engagementService:   engagementService,
		notificationService: notificationService,
		reconciler:          engagementservice.NewReconciler(engagementService, cfg.Engagement.ReconcileInterval, logger),
		broker:              broker,
		metrics:             newHTTPMetrics(registry),
		limiter:             newClientLimiter(cfg.RateLimit),
	}

	// Initialize the consumer
	app.notificationService.NotifyCommentAuthors()

	// Start the HTTP server
	err = app.serve(context.Background())
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
