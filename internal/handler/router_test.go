package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/chatwidget/internal/model/chat"
	"github.com/zhouzirui/chatwidget/internal/service/tabs"
	"github.com/zhouzirui/chatwidget/internal/widget"
)

type nopSender struct{}

func (nopSender) Send(context.Context, chat.ExchangeRequest) (chat.ExchangeReply, error) {
	return chat.ExchangeReply{}, nil
}

type fixedReplier struct{}

func (fixedReplier) Reply(context.Context, string, string) (string, error) {
	return "ok", nil
}

func newTabs() *tabs.Service {
	return tabs.NewService(context.Background(), nopSender{}, widget.DefaultChrome(), zerolog.Nop())
}

func TestHealth(t *testing.T) {
	r := NewRouter(newTabs(), nil, "Chat")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestWebhookMountedOnlyWithReplier(t *testing.T) {
	body := []byte(`{"chatInput":"hi","sessionId":"abc"}`)

	without := NewRouter(newTabs(), nil, "Chat")
	req := httptest.NewRequest(http.MethodPost, "/webhook/chat", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	without.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK {
		t.Fatal("webhook should not be mounted without a replier")
	}

	with := NewRouter(newTabs(), fixedReplier{}, "Chat")
	req = httptest.NewRequest(http.MethodPost, "/webhook/chat", bytes.NewReader(body))
	resp = httptest.NewRecorder()
	with.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
