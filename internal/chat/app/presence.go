package app

import (
	"sync"

	"direct_message_service/internal/chat/domain"
)

// ClientConn 單一連線的推播端（websocket 寫入側）
type ClientConn interface {
	Push(resp domain.WSResponse) error
}

// PresenceHub process 級的在線註冊表：userID -> 存活連線
// main 建立後注入，不走全域變數
type PresenceHub struct {
	mu       sync.Mutex
	clients  map[string][]ClientConn
	listener func(userID string, online bool)

	// 上下線事件先在鎖內排隊，送出順序必須等於狀態轉換順序
	emitMu  sync.Mutex
	pending []presenceTransition
}

type presenceTransition struct {
	userID string
	online bool
}

// NewPresenceHub create PresenceHub
func NewPresenceHub() *PresenceHub {
	return &PresenceHub{
		clients: make(map[string][]ClientConn),
	}
}

// OnPresence 設定上下線事件的接收者（delivery router）
func (h *PresenceHub) OnPresence(listener func(userID string, online bool)) {
	h.listener = listener
}

// Connect 把連線掛進 user 的集合，第一條連線觸發 online 事件
func (h *PresenceHub) Connect(userID string, conn ClientConn) {
	h.mu.Lock()
	wasOffline := len(h.clients[userID]) == 0
	h.clients[userID] = append(h.clients[userID], conn)
	if wasOffline {
		h.pending = append(h.pending, presenceTransition{userID: userID, online: true})
	}
	h.mu.Unlock()

	h.emit()
}

// Disconnect 移除連線，最後一條移除時整個 entry 刪掉並觸發 offline 事件
func (h *PresenceHub) Disconnect(userID string, conn ClientConn) {
	h.mu.Lock()
	conns := h.clients[userID]
	for i, c := range conns {
		if c == conn {
			h.clients[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	nowOffline := len(h.clients[userID]) == 0
	if nowOffline {
		delete(h.clients, userID)
		h.pending = append(h.pending, presenceTransition{userID: userID, online: false})
	}
	h.mu.Unlock()

	h.emit()
}

// emit 依排隊順序送出上下線事件
// listener 在 h.mu 之外執行（listener 會再回來拿 h.mu 取連線快照），
// emitMu 保證廣播順序跟狀態轉換順序一致：offline 不會先於對應的 online 送出
func (h *PresenceHub) emit() {
	h.emitMu.Lock()
	defer h.emitMu.Unlock()
	for {
		h.mu.Lock()
		if len(h.pending) == 0 {
			h.mu.Unlock()
			return
		}
		ev := h.pending[0]
		h.pending = h.pending[1:]
		listener := h.listener
		h.mu.Unlock()

		if listener != nil {
			listener(ev.userID, ev.online)
		}
	}
}

// IsOnline user 至少持有一條存活連線
func (h *PresenceHub) IsOnline(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID]) > 0
}

// OnlineUsers 目前在線的 user 快照
func (h *PresenceHub) OnlineUsers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// ConnsFor user 的連線快照
func (h *PresenceHub) ConnsFor(userID string) []ClientConn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]ClientConn, len(h.clients[userID]))
	copy(conns, h.clients[userID])
	return conns
}

// AllConnsExcept 除了 userID 以外所有人的連線快照
func (h *PresenceHub) AllConnsExcept(userID string) []ClientConn {
	h.mu.Lock()
	defer h.mu.Unlock()
	var conns []ClientConn
	for id, cs := range h.clients {
		if id == userID {
			continue
		}
		conns = append(conns, cs...)
	}
	return conns
}
