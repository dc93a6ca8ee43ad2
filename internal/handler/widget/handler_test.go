package widget

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/chatwidget/internal/model/chat"
	"github.com/zhouzirui/chatwidget/internal/service/tabs"
	widgetcore "github.com/zhouzirui/chatwidget/internal/widget"
)

type echoSender struct {
	mu    sync.Mutex
	calls []chat.ExchangeRequest
}

func (s *echoSender) Send(_ context.Context, req chat.ExchangeRequest) (chat.ExchangeReply, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	output := "re: " + req.ChatInput
	return chat.ExchangeReply{Output: &output}, nil
}

func (s *echoSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func setupRouter(t *testing.T) (*chi.Mux, *tabs.Service, *echoSender) {
	t.Helper()
	sender := &echoSender{}
	svc := tabs.NewService(context.Background(), sender, widgetcore.DefaultChrome(), zerolog.Nop())

	r := chi.NewRouter()
	New(svc, "Chat Widget").RegisterRoutes(r)
	NewWebSocketHandler(svc).RegisterWebSocketRoutes(r)
	return r, svc, sender
}

func waitIdle(t *testing.T, w *widgetcore.ChatWidget) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for w.Pending() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("exchange did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPageRedirectsToNewTab(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.Code)
	}
	location, err := url.Parse(resp.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad location: %v", err)
	}
	if location.Query().Get("tab") == "" {
		t.Fatalf("expected tab id in %q", location)
	}
}

func TestPageRendersWidgetForTab(t *testing.T) {
	r, svc, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/?tab=t1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "Hello! How can I help you today?") {
		t.Fatal("expected greeting in page")
	}
	if !strings.Contains(body, "<title>Chat Widget</title>") {
		t.Fatal("expected page title")
	}
	if _, err := svc.Get("t1"); err != nil {
		t.Fatalf("tab should be registered: %v", err)
	}
}

func TestPageRejectsOversizedTab(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/?tab="+strings.Repeat("x", maxTabIDLength+1), nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestToggleFallback(t *testing.T) {
	r, svc, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/widget/toggle?tab=t1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.Code)
	}
	if resp.Header().Get("Location") != "/?tab=t1" {
		t.Fatalf("unexpected redirect %q", resp.Header().Get("Location"))
	}
	tab, err := svc.Get("t1")
	if err != nil {
		t.Fatalf("get tab: %v", err)
	}
	if !tab.Widget.Visible() {
		t.Fatal("panel should be visible after one toggle")
	}
}

func TestSubmitFallback(t *testing.T) {
	r, svc, sender := setupRouter(t)

	form := url.Values{"message": {"  hi  "}}
	req := httptest.NewRequest(http.MethodPost, "/widget/messages?tab=t1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.Code)
	}

	tab, _ := svc.Get("t1")
	waitIdle(t, tab.Widget)

	messages := tab.Widget.Messages()
	if len(messages) != 3 {
		t.Fatalf("expected greeting, user and bot messages, got %d", len(messages))
	}
	if messages[1].Text != "hi" || messages[2].Text != "re: hi" {
		t.Fatalf("unexpected messages %+v", messages)
	}
	if sender.count() != 1 {
		t.Fatalf("expected one webhook call, got %d", sender.count())
	}
}

func TestSubmitFallbackIgnoresBlank(t *testing.T) {
	r, svc, sender := setupRouter(t)

	form := url.Values{"message": {"   "}}
	req := httptest.NewRequest(http.MethodPost, "/widget/messages?tab=t1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.Code)
	}
	tab, _ := svc.Get("t1")
	if len(tab.Widget.Messages()) != 1 {
		t.Fatal("blank submit should only leave the greeting")
	}
	if sender.count() != 0 {
		t.Fatal("blank submit should not call the webhook")
	}
}

func TestStateUnknownTab(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/widget/state?tab=missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestStateReturnsView(t *testing.T) {
	r, svc, _ := setupRouter(t)
	tab, err := svc.Open("t1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/widget/state?tab=t1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		SessionID string          `json:"sessionId"`
		View      widgetcore.View `json:"view"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body.SessionID != tab.Widget.SessionID() {
		t.Fatalf("unexpected session id %q", body.SessionID)
	}
	if body.View.Panel.Visible {
		t.Fatal("panel should start hidden")
	}
	if len(body.View.Panel.Rows) != 1 {
		t.Fatalf("expected greeting row, got %d", len(body.View.Panel.Rows))
	}
}

func TestStylesheet(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/widget.css", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.HasPrefix(resp.Header().Get("Content-Type"), "text/css") {
		t.Fatalf("unexpected content type %q", resp.Header().Get("Content-Type"))
	}
	if !strings.Contains(resp.Body.String(), ".chat-widget-launcher") {
		t.Fatal("expected launcher styles")
	}
}
