package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"direct_message_service/internal/chat/app"
	"direct_message_service/internal/chat/repository"
	"direct_message_service/internal/chat/router"
	"direct_message_service/pkg/config"
	"direct_message_service/pkg/database"
	"direct_message_service/pkg/logger"
	testtool "direct_message_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	testtool.StartPprof()

	// 2. 建立 Mongo 連線 (存訊息)
	ctx := context.Background()
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", uri)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	// 3. 建立 Redis 連線 (Pub/Sub 跨節點推播)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, cfg.Redis.Addr, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// 4. 建立 MinIO 連線 (訊息圖片)
	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      cfg.MinIO.Endpoint,
		User:          cfg.MinIO.User,
		Password:      cfg.MinIO.Password,
		BucketName:    cfg.MinIO.Bucket,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect minio err : %v", err))
	}

	// 5. 建立 Kafka Writer (訊息事件 audit stream)
	kafkaWriter, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect kafka err : %v", err))
	}
	defer kafkaWriter.Close()

	// 6. 初始化 Repository
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	assetRepo := repository.NewMinIOAssetRepository(minioClient)
	pubsub := repository.NewRedisPubSub(redisClient)

	// 7. 初始化 UseCases
	// hub 負責在線狀態，router 負責推播，上下線事件由 hub 轉給 router 廣播
	hub := app.NewPresenceHub()
	deliveryRouter := app.NewDeliveryRouter(hub, pubsub)
	hub.OnPresence(deliveryRouter.BroadcastPresence)
	// 跨節點的 presence 事件整個節點共用一條訂閱
	if err := deliveryRouter.StartPresenceRelay(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("subscribe presence err : %v", err))
	}

	sendMessageUC := app.NewSendMessageUseCase(msgRepo, assetRepo, deliveryRouter, kafkaWriter)
	convUC := app.NewConversationUseCase(msgRepo)

	// 8. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	// 注册路由
	router.RegisterRoutes(r,
		app.NewChatWebsocketHandler(sendMessageUC, convUC, hub, deliveryRouter, pubsub),
		app.NewChatRESTHandler(sendMessageUC, convUC),
	)

	// Listen
	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
