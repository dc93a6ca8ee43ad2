package widget

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/chatwidget/internal/render/htmlview"
	"github.com/zhouzirui/chatwidget/internal/service/tabs"
	"github.com/zhouzirui/chatwidget/pkg/utils"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler 挂件实时通道：浏览器发送控件事件，服务端推送重新渲染的挂件
type WebSocketHandler struct {
	tabs     *tabs.Service
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(tabSvc *tabs.Service) *WebSocketHandler {
	return &WebSocketHandler{
		tabs: tabSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get(htmlview.SocketPath, h.handleWebSocket)
}

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type renderPayload struct {
	HTML    string `json:"html"`
	Visible bool   `json:"visible"`
	Pending int    `json:"pending"`
}

// socket serializes writes; gorilla allows one concurrent writer.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *socket) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

func (s *socket) ping() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tabID := r.URL.Query().Get("tab")
	if !validTabID(tabID) {
		utils.RespondError(w, http.StatusBadRequest, "tab query parameter is required")
		return
	}
	tab, release, err := h.tabs.Attach(tabID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to open tab")
		return
	}
	// 断开后标签页开始计算闲置时间
	defer release()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("[websocket] upgrade failed")
		return
	}
	defer conn.Close()

	log.Debug().Str("tab", tabID).Msg("[websocket] new connection")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sock := &socket{conn: conn}
	changes, stop := tab.Widget.Watch()
	defer stop()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, sock)
	go h.pushLoop(ctx, sock, tab, changes)

	h.sendRender(sock, tab)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("tab", tabID).Msg("[websocket] read error")
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		h.handleMessage(sock, tab, &msg)
	}
}

// handleMessage 把控件事件交给挂件；界面变化由 pushLoop 推送
func (h *WebSocketHandler) handleMessage(sock *socket, tab *tabs.Tab, msg *inboundMessage) {
	switch msg.Type {
	case "toggle":
		tab.Widget.Toggle()
	case "input":
		tab.Widget.SetInput(msg.Text)
	case "submit":
		// 交换绑定服务生命周期，刷新页面不会中断进行中的请求
		tab.Widget.Send(h.tabs.Context(), msg.Text)
	default:
		h.sendError(sock, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) pushLoop(ctx context.Context, sock *socket, tab *tabs.Tab, changes <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			h.sendRender(sock, tab)
		}
	}
}

func (h *WebSocketHandler) sendRender(sock *socket, tab *tabs.Tab) {
	view := tab.Widget.Render()
	markup, err := htmlview.RenderWidget(view, tab.ID)
	if err != nil {
		log.Error().Err(err).Str("tab", tab.ID).Msg("[websocket] render failed")
		h.sendError(sock, "render failed")
		return
	}

	msg := outgoingMessage{
		Type: "render",
		Data: renderPayload{
			HTML:    string(markup),
			Visible: view.Panel.Visible,
			Pending: view.Panel.Pending,
		},
	}
	if err := sock.writeJSON(msg); err != nil {
		log.Debug().Err(err).Str("tab", tab.ID).Msg("[websocket] write render failed")
	}
}

func (h *WebSocketHandler) sendError(sock *socket, message string) {
	msg := outgoingMessage{
		Type: "error",
		Data: map[string]string{"message": message},
	}
	if err := sock.writeJSON(msg); err != nil {
		log.Debug().Err(err).Msg("[websocket] write error failed")
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, sock *socket) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sock.ping(); err != nil {
				return
			}
		}
	}
}
