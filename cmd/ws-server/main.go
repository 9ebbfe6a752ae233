package main

import (
	"log"

	"projukti-support-backend/internal/api"
	"projukti-support-backend/internal/api/router"
	"projukti-support-backend/internal/database"
	"projukti-support-backend/internal/env"
	"projukti-support-backend/internal/queue"
	chatservice "projukti-support-backend/internal/service/chat"
	"projukti-support-backend/internal/websocket"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	env.Require(env.AgentSecretKey)

	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	var redisClient *redis.Client
	if env.Get(env.ChatRedisURL) != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     env.Get(env.ChatRedisURL),
			Password: env.Get(env.ChatRedisPass),
			DB:       0,
		})
	} else {
		log.Println("CHAT_REDIS_URL not set, running single-instance fan-out")
	}

	chat := chatservice.New(chatservice.NewDynamoRepository(db))

	hub := websocket.NewHub()
	go hub.Run()
	handler := websocket.NewHandler(hub, redisClient, chat)
	handler.SubscribeToRedisChannels()

	server := api.NewAPIServer(
		env.GetOrDefault("WS_LISTEN_ADDR", ":8081"),
		queueManager,
		db,
		handler,
		router.UtilsRoutes("/api/v1"),
		router.ChatWebsocketRoutes("/api/v1", chat),
		router.ChatHistoryRoutes("/api/v1", chat),
	)

	server.Run()
}
