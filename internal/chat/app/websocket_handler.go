package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"direct_message_service/internal/chat/domain"
	"direct_message_service/internal/chat/repository"
	"direct_message_service/pkg/logger"
	"direct_message_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// wsClient 包住 websocket 連線，Push 加鎖避免多 goroutine 同時寫
// (read loop 回覆、pubsub 訂閱、presence 廣播都可能同時寫同一條連線)
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Push implement ClientConn
func (c *wsClient) Push(resp domain.WSResponse) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// ChatWebsocketHandler 可包含所有需要的 UseCase
type ChatWebsocketHandler struct {
	messageUC *SendMessageUseCase
	convUC    *ConversationUseCase
	hub       *PresenceHub
	router    *DeliveryRouter
	pubsub    repository.MemberPubSub
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	messageUC *SendMessageUseCase,
	convUC *ConversationUseCase,
	hub *PresenceHub,
	router *DeliveryRouter,
	pubsub repository.MemberPubSub,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		messageUC: messageUC,
		convUC:    convUC,
		hub:       hub,
		router:    router,
		pubsub:    pubsub,
	}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	tokenMember := conn.Locals(middlewares.TokenMemberID)
	memberID, ok := tokenMember.(string)
	logger.Log.Info("websocket handle memberID", zap.String("userID", memberID), zap.String("ok", strconv.FormatBool(ok)))
	if !ok || memberID == "" {
		conn.Close()
		return
	}

	client := &wsClient{conn: conn}
	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	// 上線：第一條連線會觸發 presence 廣播
	h.hub.Connect(memberID, client)

	defer func() {
		ticker.Stop()
		logger.Log.Info("websocket close", zap.String("userID", memberID))
		h.hub.Disconnect(memberID, client)
		conn.Close()
		cancel()
	}()

	//client發出close
	//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	//server發出ping之後client連線正常會回pong
	//fiber會自動處理回傳pong,故需要SetPongHandler另外接出
	conn.SetPongHandler(func(appData string) error {
		logger.Log.Infof("Received PONG:", appData)
		return nil
	})

	//client發出ping
	//fiber會自動處理ping,故需要SetPingHandler另外接出
	conn.SetPingHandler(func(appData string) error {
		logger.Log.Infof("Received PING:", appData)
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	//啟用sub訂閱自己的訊息：其他節點寫入的事件由這條路進來
	//本節點已經推過的事件帶有自己的 origin_node，直接丟掉
	//presence 事件不在這裡訂：整個節點共用 router 的一條訂閱（StartPresenceRelay）
	if h.pubsub != nil {
		h.pubsub.Subscribe(ctxClose, repository.UserChannel(memberID), func(resp domain.WSResponse) {
			if h.router.FromThisNode(resp) {
				return
			}
			h.push(client, resp)
		})
	}

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				pingMsg := "ping message"
				// WriteControl 與資料寫入併發安全，不用搶 client 的鎖
				if err := conn.WriteControl(websocket.PingMessage, []byte(pingMsg), time.Now().Add(time.Second)); err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
				logger.Log.Infof("%s Ping sent", memberID)
			case <-ctxClose.Done():
				logger.Log.Infof("Ping goroutine cancelled for member:", memberID)
				return
			}
		}
	}()

	for {
		// 1. 讀取前端訊息
		mt, message, err := conn.ReadMessage()
		if err != nil {
			// 檢查是否為 Close 正常結束
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived, //1005 c.WriteMessage(websocket.CloseMessage, []byte{})
			) {
				logger.Log.Errorf("Connection closed:", err)
			} else {
				//直接斷線 1006
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		h.execWebsocketAction(ctx, client, memberID, mt, message)
	}
}

func (h *ChatWebsocketHandler) execWebsocketAction(ctx context.Context, client *wsClient, memberID string, mt int, msg []byte) {
	switch mt {
	case websocket.TextMessage:
		h.textMessageAction(ctx, client, memberID, msg)

	//! close ping pong fiber會自動處理，故需使用setHandler處理
	default:
		h.sendError(client, "unknown action")
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, client *wsClient, memberID string, msg []byte) {

	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		log.Printf("json unmarshal error: %v", err)
		return
	}

	if !domain.IsClientAction(req.Action) {
		h.sendError(client, "unknown message types ")
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}
	switch req.Action {
	//傳送私訊：寫入db後推播給對方
	case string(domain.SendMessage):
		image, err := decodeImagePayload(req.Image)
		if err != nil {
			resp.Error = domain.ErrInvalidPayload.Error()
			break
		}
		m, err := h.messageUC.Execute(ctx, memberID, req.PeerID, req.Text, image, client)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message_id"] = m.ID
			resp.Payload["created_at"] = m.CreatedAt
			resp.Payload["image"] = m.Image
		}

	//打開對話：回歷史並把對方寄來的未讀全部改為已讀
	case string(domain.OpenConversation):
		view, err := h.convUC.Open(ctx, memberID, req.PeerID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["history"] = view.History
			resp.Payload["unseen_resolved"] = view.UnseenResolved
		}

	//單則訊息改為已讀
	case string(domain.MarkSeen):
		err := h.messageUC.MarkSeen(ctx, req.MessageID, memberID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	//側欄：每個 peer 的未讀數，零未讀不回
	case string(domain.Sidebar):
		summary, err := h.convUC.SidebarSummary(ctx, memberID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			for peerID, count := range summary {
				resp.Payload[peerID] = count
			}
		}

	//目前在線名單
	case string(domain.OnlineUsers):
		resp.Success = true
		resp.Payload["online_users"] = h.hub.OnlineUsers()
	}

	if resp.Error != "" {
		logger.Log.Error("websocket err ", zap.String("MemberID", memberID), zap.String("Action", req.Action), zap.String("err", resp.Error))
	}
	h.push(client, resp)
}

// decodeImagePayload 前端送 data URL 或純 base64，空字串代表沒有圖
func decodeImagePayload(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if idx := strings.Index(s, ","); idx >= 0 && strings.HasPrefix(s, "data:") {
		s = s[idx+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}

// push - 發送 JSON 給前端
func (h *ChatWebsocketHandler) push(client *wsClient, resp domain.WSResponse) {
	if err := client.Push(resp); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}

func (h *ChatWebsocketHandler) sendError(client *wsClient, errorMsg string) {
	resp := domain.WSResponse{
		Action:  "error",
		Success: false,
		Payload: map[string]interface{}{
			"error": errorMsg,
		},
	}
	h.push(client, resp)
}
