package router

import (
	"context"

	"direct_message_service/internal/chat/app"
	"direct_message_service/internal/comm"
	"direct_message_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册私讯相关的路由
// @title Direct Message Service API
// @version 1.0
// @description API documentation for Direct Message Service
// @host localhost:8082
// @BasePath /
func RegisterRoutes(r *fiber.App, chatWebsocket *app.ChatWebsocketHandler, chatREST *app.ChatRESTHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", comm.ConnectCheck("chat service"))
	r.Post("/debug", comm.DebugLogFlag)

	r.Use(middlewares.JWTMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	// websocket 之外的 REST 入口，语义与 ws action 相同
	messages := r.Group("/messages")
	messages.Get("/users", chatREST.Sidebar)
	messages.Get("/:id", chatREST.OpenConversation)
	messages.Post("/send/:id", chatREST.SendMessage)
	messages.Put("/mark/:id", chatREST.MarkSeen)
}
