package app

import (
	"errors"
	"fmt"

	"direct_message_service/internal/chat/domain"
	"direct_message_service/pkg/logger"
	"direct_message_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ChatRESTHandler 处理私讯相关的 HTTP 请求
// websocket 之外的另一组入口，行为与 ws action 一致
type ChatRESTHandler struct {
	messageUC *SendMessageUseCase
	convUC    *ConversationUseCase
}

// NewChatRESTHandler 创建新的 ChatRESTHandler
func NewChatRESTHandler(messageUC *SendMessageUseCase, convUC *ConversationUseCase) *ChatRESTHandler {
	return &ChatRESTHandler{
		messageUC: messageUC,
		convUC:    convUC,
	}
}

func statusForErr(err error) int {
	switch {
	case errors.Is(err, domain.ErrSelfTarget),
		errors.Is(err, domain.ErrSelfMessage),
		errors.Is(err, domain.ErrInvalidPayload):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *ChatRESTHandler) memberID(c *fiber.Ctx) (string, error) {
	memberID, ok := c.Locals(middlewares.TokenMemberID).(string)
	if !ok || memberID == "" {
		return "", fmt.Errorf("c.Locals(%s) is nill", middlewares.TokenMemberID)
	}
	return memberID, nil
}

// Sidebar 侧栏未读统计
// @Summary 侧栏未读统计
// @Description 回传每个 peer 的未读数量，没有未读的 peer 不出现
// @Tags Messages
// @Produce json
// @Param auth query string false "jwt token"
// @Success 200 {object} map[string]int64 "未读统计"
// @Failure 500 {object} string "服务器错误"
// @Router /messages/users [get]
func (h *ChatRESTHandler) Sidebar(c *fiber.Ctx) error {
	memberID, err := h.memberID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	summary, err := h.convUC.SidebarSummary(c.Context(), memberID)
	if err != nil {
		logger.Log.Error("sidebar err", zap.String("MemberID", memberID), zap.Error(err))
		return c.Status(statusForErr(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(summary)
}

// OpenConversation 取得与 peer 的完整对话
// @Summary 取得对话历史
// @Description 回传双向历史并把 peer 寄来的未读全部改为已读
// @Tags Messages
// @Produce json
// @Param id path string true "peer member id"
// @Param auth query string false "jwt token"
// @Success 200 {object} domain.ConversationView "对话视图"
// @Failure 400 {object} string "请求错误"
// @Failure 503 {object} string "存储不可用"
// @Router /messages/{id} [get]
func (h *ChatRESTHandler) OpenConversation(c *fiber.Ctx) error {
	memberID, err := h.memberID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	peerID := c.Params("id")

	view, err := h.convUC.Open(c.Context(), memberID, peerID)
	if err != nil {
		logger.Log.Error("open conversation err", zap.String("MemberID", memberID), zap.String("PeerID", peerID), zap.Error(err))
		return c.Status(statusForErr(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(view)
}

// SendMessage 传送私讯
// @Summary 传送私讯
// @Description 文字或图片择一，写入后推播给在线的收件人
// @Tags Messages
// @Accept json
// @Produce json
// @Param id path string true "receiver member id"
// @Param auth query string false "jwt token"
// @Success 200 {object} domain.DirectMessage "已落地的讯息"
// @Failure 400 {object} string "请求错误"
// @Failure 503 {object} string "存储不可用"
// @Router /messages/send/{id} [post]
func (h *ChatRESTHandler) SendMessage(c *fiber.Ctx) error {
	memberID, err := h.memberID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	receiverID := c.Params("id")

	type request struct {
		Text  string `json:"text"`
		Image string `json:"image"` // base64 或 data URL
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	image, err := decodeImagePayload(req.Image)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": domain.ErrInvalidPayload.Error()})
	}

	// REST 没有 origin 连线，回声会推给 sender 的所有 ws 装置
	msg, err := h.messageUC.Execute(c.Context(), memberID, receiverID, req.Text, image, nil)
	if err != nil {
		logger.Log.Error("send message err", zap.String("MemberID", memberID), zap.String("ReceiverID", receiverID), zap.Error(err))
		return c.Status(statusForErr(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(msg)
}

// MarkSeen 单则讯息改为已读
// @Summary 单则讯息已读
// @Description 只有收件人能标记，重复标记为 no-op
// @Tags Messages
// @Produce json
// @Param id path string true "message id"
// @Param auth query string false "jwt token"
// @Success 200 {object} string "标记成功"
// @Failure 403 {object} string "非收件人"
// @Failure 404 {object} string "讯息不存在"
// @Router /messages/mark/{id} [put]
func (h *ChatRESTHandler) MarkSeen(c *fiber.Ctx) error {
	memberID, err := h.memberID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	messageID := c.Params("id")

	if err := h.messageUC.MarkSeen(c.Context(), messageID, memberID); err != nil {
		logger.Log.Error("mark seen err", zap.String("MemberID", memberID), zap.String("MessageID", messageID), zap.Error(err))
		return c.Status(statusForErr(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "mark seen success"})
}
