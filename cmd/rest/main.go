package main

import (
	"context"
	"log"

	"exam-grading-be/internal/bootstrap"
	"exam-grading-be/internal/config"
	"exam-grading-be/internal/server"
	"exam-grading-be/internal/tracer"
	"exam-grading-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	ctx := context.Background()

	go container.WebSocketHub.Run(ctx)

	go func() {
		log.Println("Background: Starting grading job consumer...")
		if err := container.ConsumerService.Consume(ctx); err != nil {
			log.Printf("Background consumer error: %v", err)
		}
	}()

	go func() {
		log.Println("Background: Starting progress push bridge...")
		if err := container.ProgressPushService.Consume(ctx); err != nil {
			log.Printf("Background progress push error: %v", err)
		}
	}()

	go container.ProgressCleaner.Run(ctx)

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
