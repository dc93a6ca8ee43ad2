package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type stubReplier struct {
	sessionID string
	message   string
	err       error
}

func (s *stubReplier) Reply(_ context.Context, sessionID, userMessage string) (string, error) {
	s.sessionID = sessionID
	s.message = userMessage
	if s.err != nil {
		return "", s.err
	}
	return "hi", nil
}

func setupRouter(replier Replier) *chi.Mux {
	r := chi.NewRouter()
	New(replier).RegisterRoutes(r)
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/chat", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatReturnsOutput(t *testing.T) {
	replier := &stubReplier{}
	resp := post(setupRouter(replier), `{"chatInput":" hello ","sessionId":"abc"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body["output"] != "hi" {
		t.Fatalf("unexpected output %q", body["output"])
	}
	if replier.sessionID != "abc" || replier.message != "hello" {
		t.Fatalf("unexpected replier input %q %q", replier.sessionID, replier.message)
	}
}

func TestChatRejectsInvalidBodies(t *testing.T) {
	cases := []string{`not json`, `{"sessionId":"abc"}`, `{"chatInput":"   ","sessionId":"abc"}`, `{"chatInput":"hi"}`}
	for _, body := range cases {
		resp := post(setupRouter(&stubReplier{}), body)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, resp.Code)
		}
	}
}

func TestChatReportsReplierFailure(t *testing.T) {
	resp := post(setupRouter(&stubReplier{err: errors.New("model down")}), `{"chatInput":"hi","sessionId":"abc"}`)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}
