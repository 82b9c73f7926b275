package app

import (
	"fmt"
	"time"

	"direct_message_service/internal/member/domain"
	"direct_message_service/pkg/logger"
	"direct_message_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MemberHandler 处理用户相关的 HTTP 请求
type MemberHandler struct {
	Usecase MemberUseCase
}

// NewMemberHandler 创建新的 MemberHandler
func NewMemberHandler(usecase MemberUseCase) *MemberHandler {
	return &MemberHandler{
		Usecase: usecase,
	}
}

// Register 注册新用户
// @Summary 注册新用户
// @Description 处理用户注册请求
// @Tags Members
// @Accept json
// @Produce json
// @Success 200 {object} string "注册成功"
// @Failure 400 {object} string "请求错误"
// @Failure 500 {object} string "服务器错误"
// @Router /member/register [post]
func (h *MemberHandler) Register(c *fiber.Ctx) error {
	type request struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password are required"})
	}

	logger.Log.Info("Register request", zap.String("email", req.Email))

	if err := h.Usecase.Register(c.Context(), req.Email, req.FullName, req.Password); err != nil {
		logger.Log.Error("Register Err", zap.String("email", req.Email), zap.String("Err :", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "register success"})
}

// Login 用户登录
// @Summary 用户登录
// @Description 用户通过邮箱和密码登录
// @Tags Members
// @Accept json
// @Produce json
// @Success 200 {object} string "登录成功"
// @Failure 400 {object} string "请求错误"
// @Failure 401 {object} string "登录失败"
// @Router /member/login [post]
func (h *MemberHandler) Login(c *fiber.Ctx) error {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	logger.Log.Debug("Login", zap.String("Email", req.Email))

	token, err := h.Usecase.Login(c.Context(), req.Email, req.Password, time.Now())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"token": token, "message": "login success"})
}

// Logout 用户登出
// @Summary 用户登出
// @Description 注销用户会话
// @Tags Members
// @Produce json
// @Param auth query string false "jwt token"
// @Success 200 {object} string "注销成功"
// @Failure 500 {object} string "服务器错误"
// @Router /member/logout [post]
func (h *MemberHandler) Logout(c *fiber.Ctx) error {
	token, ok := c.Locals(middlewares.TokenJWT).(string)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("c.Locals(%s) is nill", middlewares.TokenJWT)})
	}

	if err := h.Usecase.Logout(c.Context(), token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "logout success"})
}

// FindByEmail 查询用户
// @Summary 查询用户
// @Description 用 email 查询单一用户
// @Tags Members
// @Produce json
// @Param email query string true "email"
// @Success 200 {object} domain.MemberInfo "用户资讯"
// @Failure 404 {object} string "查无用户"
// @Router /member/find [get]
func (h *MemberHandler) FindByEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email is required"})
	}

	member, err := h.Usecase.FindMember(c.Context(), &domain.MemberQuery{Email: &email})
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(member.Info())
}

// Others 联络人清单
// @Summary 联络人清单
// @Description 回传除了自己以外的所有用户，侧栏用
// @Tags Members
// @Produce json
// @Param auth query string false "jwt token"
// @Success 200 {array} domain.MemberInfo "联络人"
// @Failure 500 {object} string "服务器错误"
// @Router /member/others [get]
func (h *MemberHandler) Others(c *fiber.Ctx) error {
	memberID, ok := c.Locals(middlewares.TokenMemberID).(string)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("c.Locals(%s) is nill", middlewares.TokenMemberID)})
	}

	others, err := h.Usecase.FindOthers(c.Context(), memberID)
	if err != nil {
		logger.Log.Error("Others Err", zap.String("MemberID", memberID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(others)
}

// UpdateProfile 更新个人资料
// @Summary 更新个人资料
// @Description 更新名称或头像，空栏位不变
// @Tags Members
// @Accept json
// @Produce json
// @Param auth query string false "jwt token"
// @Success 200 {object} string "更新成功"
// @Failure 400 {object} string "请求错误"
// @Router /member/profile [put]
func (h *MemberHandler) UpdateProfile(c *fiber.Ctx) error {
	memberID, ok := c.Locals(middlewares.TokenMemberID).(string)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("c.Locals(%s) is nill", middlewares.TokenMemberID)})
	}

	type request struct {
		FullName  string `json:"full_name"`
		AvatarURL string `json:"avatar_url"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	if err := h.Usecase.UpdateProfile(c.Context(), memberID, req.FullName, req.AvatarURL); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "profile updated"})
}

// CheckSession 检查 session 是否超时
// @Summary 检查 session
// @Description session 超时回 true
// @Tags Members
// @Produce json
// @Param auth query string false "jwt token"
// @Success 200 {object} map[string]bool "结果"
// @Router /member/session/check [get]
func (h *MemberHandler) CheckSession(c *fiber.Ctx) error {
	token, ok := c.Locals(middlewares.TokenJWT).(string)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("c.Locals(%s) is nill", middlewares.TokenJWT)})
	}

	timeout, err := h.Usecase.CheckSessionTimeout(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error(), "timeout": timeout})
	}
	return c.JSON(fiber.Map{"timeout": timeout})
}

// Reconnect 断线重连延长 session
// @Summary 断线重连
// @Description 更新 last activity 并延长 session
// @Tags Members
// @Produce json
// @Param auth query string false "jwt token"
// @Success 200 {object} string "重连成功"
// @Router /member/session/reconnect [post]
func (h *MemberHandler) Reconnect(c *fiber.Ctx) error {
	token, ok := c.Locals(middlewares.TokenJWT).(string)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fmt.Sprintf("c.Locals(%s) is nill", middlewares.TokenJWT)})
	}

	if err := h.Usecase.ReconnectSession(c.Context(), token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "session extended"})
}
