package tabs_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/chatwidget/internal/model/chat"
	"github.com/zhouzirui/chatwidget/internal/service/tabs"
	"github.com/zhouzirui/chatwidget/internal/widget"
)

type echoSender struct{}

func (echoSender) Send(_ context.Context, req chat.ExchangeRequest) (chat.ExchangeReply, error) {
	out := "echo: " + req.ChatInput
	return chat.ExchangeReply{Output: &out}, nil
}

func newService() *tabs.Service {
	return tabs.NewService(context.Background(), echoSender{}, widget.DefaultChrome(), zerolog.Nop())
}

func TestServiceOpenIsIdempotentPerTab(t *testing.T) {
	svc := newService()

	first, err := svc.Open("tab-a")
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	second, err := svc.Open("tab-a")
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}

	if first.Widget != second.Widget {
		t.Fatal("expected the same widget instance for the same tab")
	}
	if got := len(second.Widget.Messages()); got != 1 {
		t.Fatalf("expected a single greeting, got %d messages", got)
	}
}

func TestServiceTabsAreIndependent(t *testing.T) {
	svc := newService()

	a, _ := svc.Open("tab-a")
	b, _ := svc.Open("tab-b")

	if a.Widget.SessionID() == b.Widget.SessionID() {
		t.Fatal("expected distinct session ids per tab")
	}

	if _, err := svc.Toggle("tab-a"); err != nil {
		t.Fatalf("Toggle err: %v", err)
	}
	if !a.Widget.Visible() || b.Widget.Visible() {
		t.Fatal("toggle leaked across tabs")
	}
}

func TestServiceSubmitRoundTrip(t *testing.T) {
	svc := newService()

	ex, err := svc.Submit("tab-a", "hello")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if ex == nil {
		t.Fatal("expected an exchange")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if outcome, err := ex.Wait(ctx); err != nil || outcome != widget.OutcomeReplied {
		t.Fatalf("unexpected outcome %s err=%v", outcome, err)
	}

	tab, err := svc.Get("tab-a")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	messages := tab.Widget.Messages()
	if last := messages[len(messages)-1]; last.Text != "echo: hello" {
		t.Fatalf("unexpected last message %q", last.Text)
	}
}

func TestServiceRejectsMissingTab(t *testing.T) {
	svc := newService()

	if _, err := svc.Open(""); err != tabs.ErrTabRequired {
		t.Fatalf("expected ErrTabRequired, got %v", err)
	}
	if _, err := svc.Get("missing"); err != tabs.ErrTabNotFound {
		t.Fatalf("expected ErrTabNotFound, got %v", err)
	}
}

func TestServiceCloseClearsStorage(t *testing.T) {
	svc := newService()
	tab, _ := svc.Open("tab-a")

	svc.Close("tab-a")

	if _, ok := tab.Storage.Get("chatWidgetSessionId"); ok {
		t.Fatal("expected storage to be cleared")
	}
	if _, err := svc.Get("tab-a"); err == nil {
		t.Fatal("expected tab to be forgotten")
	}
}
