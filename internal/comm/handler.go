package comm

import (
	"fmt"
	"net/url"
	"strconv"

	"direct_message_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ConnectCheck check api connect start
// @Summary Check service status
// @Description Returns a simple confirmation message
// @Tags Shared
// @Success 200 {string} string "service start!"
// @Router / [get]
func ConnectCheck(service string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendString(fmt.Sprintf("%s start!", service))
	}
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Description Enable or disable debug logging for a service
// @Tags Shared
// @Param service query string true "Service name"
// @Param status query bool true "Debug status"
// @Success 200 {string} string "Service debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Router /debug [post]
func DebugLogFlag(c *fiber.Ctx) error {
	query, _ := url.ParseQuery(string(c.Context().QueryArgs().QueryString()))
	service := query.Get("service")
	statusStr := query.Get("status")
	logger.Log.Info("debug", zap.String("status", statusStr))
	status, err := strconv.ParseBool(statusStr)
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	switch service {
	default:
		logger.Log.SetDebugMode(status)
	}
	return c.SendString(fmt.Sprintf("service[%s]: debug mode is : %t", service, status))
}
