package bootstrap

import (
	"context"
	"log"

	"exam-grading-be/internal/config"
	"exam-grading-be/internal/controller"
	"exam-grading-be/internal/handler"
	"exam-grading-be/internal/pkg/logger"
	"exam-grading-be/internal/pkg/mailer"
	"exam-grading-be/internal/progress"
	"exam-grading-be/internal/repository/implementation"
	"exam-grading-be/internal/repository/memory"
	"exam-grading-be/internal/repository/unitofwork"
	"exam-grading-be/internal/service"
	"exam-grading-be/internal/websocket"
	"exam-grading-be/pkg/grading/fastpath"
	"exam-grading-be/pkg/grading/pipeline"
	"exam-grading-be/pkg/llm"
	"exam-grading-be/pkg/llm/factory"
	"exam-grading-be/pkg/llm/gateway"

	pktNats "exam-grading-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	GradingController      controller.IGradingController
	NotificationController controller.INotificationController

	// Background services (exposed for main.go to run)
	ConsumerService     service.IConsumerService
	ProgressPushService service.IProgressPushService
	ProgressCleaner     *progress.Cleaner

	// WebSockets
	WsHandler    *handler.WsHandler
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(websocket.Config{
		PingInterval:    cfg.Hub.PingInterval,
		PongTimeout:     cfg.Hub.PongTimeout,
		MessageTTL:      cfg.Hub.MessageTTL,
		QueueSize:       cfg.Hub.QueueSize,
		DeliveryRetries: cfg.Hub.DeliveryRetries,
		DisconnectGrace: cfg.Hub.DisconnectGrace,
		SweepInterval:   cfg.Hub.SweepInterval,
	}, rdb, wsLogger)

	// 3. LLM gateway
	pool, err := gateway.NewClientPool(
		cfg.Gateway.PoolSize,
		cfg.Gateway.PoolMaxOverflow,
		cfg.Gateway.PoolAcquireTimeout,
		func() (llm.LLMProvider, error) {
			return factory.NewLLMProvider(
				cfg.Ai.LLMProvider,
				cfg.Ai.LLMModel,
				cfg.Ai.BaseURL,
				cfg.Ai.APIKey,
			)
		},
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM client pool: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	limiter := gateway.NewRateLimiter(cfg.Gateway.RequestsPerMinute, cfg.Gateway.RequestsPerHour)
	cache := gateway.NewResponseCache(cfg.Gateway.CacheSize, cfg.Gateway.CacheTTL)
	gw := gateway.New(pool, limiter, cache, gateway.NewOtelMetrics(), sysLogger, gateway.Config{
		MaxRetries:     cfg.Gateway.MaxRetries,
		RetryBaseDelay: cfg.Gateway.RetryBaseDelay,
		RetryMaxDelay:  cfg.Gateway.RetryMaxDelay,
		CallTimeout:    cfg.Gateway.CallTimeout,
	})

	engine := fastpath.NewEngine(gw, sysLogger, fastpath.Config{
		Timeout:    cfg.Gateway.FastPathTimeout,
		CharBudget: cfg.Gateway.FastPathCharBudget,
		Model:      cfg.Ai.LLMModel,
	})

	// 4. Progress tracking, dual store with live publishing
	progressRepo := implementation.NewProgressRepository(db)
	progressStore := memory.NewProgressRepository(cfg.Progress.RetentionWindow)
	tracker := progress.NewPublishingTracker(
		progress.NewDualTracker(
			progress.NewPersistentTracker(progressRepo),
			progress.NewMemoryTracker(progressStore),
			sysLogger,
		),
		pubSub,
		sysLogger,
	)
	progressCleaner := progress.NewCleaner(
		progressRepo,
		progressStore,
		cfg.Progress.RetentionWindow,
		cfg.Progress.CleanupInterval,
		sysLogger,
	)

	// 5. Grading pipeline and services
	orchestrator := pipeline.NewOrchestrator(uowFactory, engine, tracker, sysLogger)

	publisherService := service.NewPublisherService(cfg.Pipeline.JobTopic, pubSub)
	gradingService := service.NewGradingService(uowFactory, orchestrator, publisherService, natsPub, sysLogger)
	progressService := service.NewProgressService(tracker)
	consumerService := service.NewConsumerService(pubSub, cfg.Pipeline.JobTopic, cfg.Pipeline.Workers, gradingService, sysLogger)
	progressPushService := service.NewProgressPushService(pubSub, wsHub, wsLogger)

	notifService := service.NewNotificationService(
		uowFactory,
		natsSub,
		wsHub,
		emailService,
		cfg.SMTP.NotifyEmail,
		wsLogger,
	)
	if natsSub != nil {
		go notifService.Start()
	}

	wsHandler := handler.NewWsHandler(wsHub, cfg.App.JWTSecret, wsLogger)

	return &Container{
		GradingController:      controller.NewGradingController(gradingService, progressService),
		NotificationController: controller.NewNotificationController(notifService),

		ConsumerService:     consumerService,
		ProgressPushService: progressPushService,
		ProgressCleaner:     progressCleaner,

		WsHandler:    wsHandler,
		WebSocketHub: wsHub,
	}
}
