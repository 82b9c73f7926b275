package router

import (
	"direct_message_service/internal/comm"
	"direct_message_service/internal/member/app"
	"direct_message_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// RegisterRoutes 注册用户相关的路由
// @title Direct Message Service API
// @version 1.0
// @description API documentation for Direct Message Service
// @host localhost:8081
// @BasePath /
func RegisterRoutes(r *fiber.App, memberHandler *app.MemberHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", comm.ConnectCheck("member service"))
	r.Post("/debug", comm.DebugLogFlag)

	memberRoutes := r.Group("/member")
	memberRoutes.Post("/register", memberHandler.Register)
	memberRoutes.Post("/login", memberHandler.Login)
	memberRoutes.Get("/find", memberHandler.FindByEmail)

	memberRoutes.Use(middlewares.JWTMiddleware())
	memberRoutes.Post("/logout", memberHandler.Logout)
	memberRoutes.Get("/others", memberHandler.Others)
	memberRoutes.Put("/profile", memberHandler.UpdateProfile)
	memberRoutes.Get("/session/check", memberHandler.CheckSession)
	memberRoutes.Post("/session/reconnect", memberHandler.Reconnect)
}
