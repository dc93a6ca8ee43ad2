package hook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/chatwidget/internal/config"
	"github.com/zhouzirui/chatwidget/internal/model/chat"
	"github.com/zhouzirui/chatwidget/pkg/utils"
)

// Replier produces the answer for one chat turn.
type Replier interface {
	Reply(ctx context.Context, sessionID, userMessage string) (string, error)
}

// Handler 内置 webhook 的HTTP处理器，与远端 webhook 使用相同的请求/响应格式
type Handler struct {
	replier Replier
}

// New 创建 webhook 处理器
func New(replier Replier) *Handler {
	return &Handler{replier: replier}
}

// RegisterRoutes 注册 webhook 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post(config.LocalWebhookPath, h.handleChat)
}

// handleChat 处理一次对话请求
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload.ChatInput = strings.TrimSpace(payload.ChatInput)
	if payload.ChatInput == "" {
		utils.RespondError(w, http.StatusBadRequest, "chatInput is required")
		return
	}
	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	output, err := h.replier.Reply(r.Context(), payload.SessionID, payload.ChatInput)
	if err != nil {
		log.Error().Err(err).Str("session_id", payload.SessionID).Msg("[hook] reply failed")
		utils.RespondError(w, http.StatusBadGateway, "reply generation failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, chat.ExchangeReply{Output: &output})
}
