package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"direct_message_service/internal/member/app"
	"direct_message_service/internal/member/domain"
	"direct_message_service/internal/member/repository"
	"direct_message_service/internal/member/router"
	"direct_message_service/pkg/config"
	"direct_message_service/pkg/database"
	"direct_message_service/pkg/encrypt"
	"direct_message_service/pkg/logger"
	testtool "direct_message_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MemberService, config.EnvConfig.MemberServiceLogPath)

	cfg := config.LoadConfig[config.Member](config.EnvConfig.MemberService, config.EnvConfig.MemberServiceYAMLPath)
	testtool.StartPprof()

	sqlParams := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database)
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    sqlParams,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})

	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", sqlParams)),
			zap.Error(err),
		)
	}
	defer pool.Close()

	memberRepo := repository.NewMemberRepository(pool)
	masterName, sentinel := config.GetRedisSetting()
	redisRepo, err := database.NewRedisRepository[domain.MemberSession](masterName, cfg.RedisMember.Addr, sentinel, cfg.RedisMember.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	usecase := app.NewMemberUseCase(memberRepo, cfg.SessionTTL*time.Minute, redisRepo, encrypt.HashPassword)

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.MemberServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	router.RegisterRoutes(r, app.NewMemberHandler(usecase))

	port := ":" + cfg.Port
	log.Printf("Member Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
