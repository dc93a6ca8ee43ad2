package widget

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/chatwidget/internal/render/htmlview"
	"github.com/zhouzirui/chatwidget/internal/service/tabs"
	"github.com/zhouzirui/chatwidget/pkg/utils"
)

const maxTabIDLength = 64

// Handler 挂件宿主页面与表单回退接口
type Handler struct {
	tabs      *tabs.Service
	pageTitle string
}

// New 创建挂件处理器
func New(tabSvc *tabs.Service, pageTitle string) *Handler {
	return &Handler{tabs: tabSvc, pageTitle: pageTitle}
}

// RegisterRoutes 注册挂件路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handlePage)
	r.Get(htmlview.StylePath, h.handleStyle)
	r.Post(htmlview.ToggleAction, h.handleToggle)
	r.Post(htmlview.SubmitAction, h.handleSubmit)
	r.Get("/widget/state", h.handleState)
}

// handlePage 渲染宿主页面，没有 tab 参数时分配一个新的标签页
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	tabID := r.URL.Query().Get("tab")
	if tabID == "" {
		http.Redirect(w, r, pageURL(h.tabs.NewTabID()), http.StatusFound)
		return
	}

	tab, ok := h.openTab(w, tabID)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := htmlview.RenderPage(w, htmlview.PageData{
		Title: h.pageTitle,
		TabID: tab.ID,
		View:  tab.Widget.Render(),
	})
	if err != nil {
		log.Error().Err(err).Str("tab", tab.ID).Msg("[widget] render page failed")
	}
}

func (h *Handler) handleStyle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(htmlview.Stylesheet))
}

// handleToggle 启动按钮的表单回退
func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	tabID := r.URL.Query().Get("tab")
	if !validTabID(tabID) {
		utils.RespondError(w, http.StatusBadRequest, "tab query parameter is required")
		return
	}

	if _, err := h.tabs.Toggle(tabID); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to toggle widget")
		return
	}
	http.Redirect(w, r, pageURL(tabID), http.StatusSeeOther)
}

// handleSubmit 输入表单的回退，空白消息不会产生请求
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	tabID := r.URL.Query().Get("tab")
	if !validTabID(tabID) {
		utils.RespondError(w, http.StatusBadRequest, "tab query parameter is required")
		return
	}
	if err := r.ParseForm(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	if _, err := h.tabs.Submit(tabID, r.PostForm.Get("message")); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to submit message")
		return
	}
	http.Redirect(w, r, pageURL(tabID), http.StatusSeeOther)
}

// handleState 返回标签页当前的视图模型
func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	tab, err := h.tabs.Get(r.URL.Query().Get("tab"))
	if err != nil {
		if errors.Is(err, tabs.ErrTabNotFound) {
			utils.RespondError(w, http.StatusNotFound, "tab not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load tab")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": tab.Widget.SessionID(),
		"view":      tab.Widget.Render(),
	})
}

func (h *Handler) openTab(w http.ResponseWriter, tabID string) (*tabs.Tab, bool) {
	if !validTabID(tabID) {
		utils.RespondError(w, http.StatusBadRequest, "invalid tab id")
		return nil, false
	}
	tab, err := h.tabs.Open(tabID)
	if err != nil {
		log.Error().Err(err).Str("tab", tabID).Msg("[widget] open tab failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to open tab")
		return nil, false
	}
	return tab, true
}

func validTabID(tabID string) bool {
	return tabID != "" && len(tabID) <= maxTabIDLength
}

func pageURL(tabID string) string {
	return "/?" + url.Values{"tab": {tabID}}.Encode()
}
