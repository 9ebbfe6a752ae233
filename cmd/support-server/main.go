package main

import (
	"context"
	"log"
	"time"

	"projukti-support-backend/internal/api"
	"projukti-support-backend/internal/api/router"
	"projukti-support-backend/internal/database"
	"projukti-support-backend/internal/env"
	"projukti-support-backend/internal/events"
	"projukti-support-backend/internal/job"
	"projukti-support-backend/internal/queue"
	ticketservice "projukti-support-backend/internal/service/ticket"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// draftMaxAge is how long an abandoned draft survives before cleanup.
const draftMaxAge = 7 * 24 * time.Hour

func main() {
	godotenv.Load()
	env.Require(env.AgentSecretKey)

	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	var store ticketservice.ObjectStore
	if env.Get(env.MinioEndpoint) != "" {
		minioStore, err := ticketservice.NewMinioStoreFromEnv(context.Background())
		if err != nil {
			log.Fatalf("minio init failed: %v", err)
		}
		store = minioStore
	} else {
		log.Println("MINIO_ENDPOINT not set, ticket attachments disabled")
	}

	var publisher ticketservice.Publisher
	if env.Get(env.KafkaBrokers) != "" {
		kafkaPublisher, err := events.NewKafkaPublisherFromEnv()
		if err != nil {
			log.Fatalf("kafka init failed: %v", err)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	} else {
		log.Println("KAFKA_BROKERS not set, ticket events disabled")
	}

	tickets := ticketservice.New(ticketservice.NewDynamoRepository(db), store, publisher)

	scheduler := cron.New()
	if _, err := scheduler.AddJob("@hourly", job.NewDraftCleanupJob(tickets, draftMaxAge)); err != nil {
		log.Fatalf("cron init failed: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := api.NewAPIServer(
		env.GetOrDefault("SUPPORT_LISTEN_ADDR", ":8080"),
		queueManager,
		db,
		nil,
		router.UtilsRoutes("/api/v1"),
		router.SupportPublicRoutes("/api/v1", tickets),
		router.SupportAgentRoutes("/api/v1", tickets),
	)

	server.Run()
}
