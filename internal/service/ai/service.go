package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/chatwidget/internal/config"
)

var ErrEmptyInput = errors.New("chat input is required")

// Service answers webhook turns with an Ark chat model, keeping a short per-session
// history so follow-up questions have context.
type Service struct {
	cfg   config.AIConfig
	chain compose.Runnable[map[string]any, *schema.Message]
	now   func() time.Time

	mu      sync.Mutex
	history map[string]*sessionHistory
}

type sessionHistory struct {
	messages []*schema.Message
	lastUsed time.Time
}

// NewService creates a new AI service instance
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg)
}

// NewServiceWithModel builds the service around an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, cfg config.AIConfig) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		cfg:     cfg,
		chain:   runnable,
		now:     time.Now,
		history: make(map[string]*sessionHistory),
	}, nil
}

// Reply generates the answer for one turn of sessionID.
func (s *Service) Reply(ctx context.Context, sessionID, userMessage string) (string, error) {
	if userMessage == "" {
		return "", ErrEmptyInput
	}

	input := map[string]any{
		"system":  s.cfg.SystemPrompt,
		"history": s.historyFor(sessionID),
		"query":   userMessage,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	s.remember(sessionID, schema.UserMessage(userMessage), schema.AssistantMessage(response.Content, nil))

	log.Debug().
		Str("session_id", sessionID).
		Int("length", len(response.Content)).
		Msg("[ai] generated webhook reply")
	return response.Content, nil
}

func (s *Service) historyFor(sessionID string) []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.history[sessionID]
	if !ok || s.expired(entry, s.now()) {
		return nil
	}
	copied := make([]*schema.Message, len(entry.messages))
	copy(copied, entry.messages)
	return copied
}

func (s *Service) remember(sessionID string, turn ...*schema.Message) {
	limit := s.cfg.HistoryLimit
	if limit <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.history[sessionID]
	if !ok || s.expired(entry, now) {
		entry = &sessionHistory{}
		s.history[sessionID] = entry
	}

	messages := append(entry.messages, turn...)
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	entry.messages = messages
	entry.lastUsed = now

	s.pruneLocked(now)
}

func (s *Service) expired(entry *sessionHistory, now time.Time) bool {
	return s.cfg.HistoryTTL > 0 && now.Sub(entry.lastUsed) > s.cfg.HistoryTTL
}

// pruneLocked drops expired sessions, then the least recently used ones until
// at most HistorySessions remain.
func (s *Service) pruneLocked(now time.Time) {
	for id, entry := range s.history {
		if s.expired(entry, now) {
			delete(s.history, id)
		}
	}

	limit := s.cfg.HistorySessions
	if limit <= 0 {
		return
	}
	for len(s.history) > limit {
		var oldestID string
		var oldest time.Time
		for id, entry := range s.history {
			if oldestID == "" || entry.lastUsed.Before(oldest) {
				oldestID, oldest = id, entry.lastUsed
			}
		}
		delete(s.history, oldestID)
	}
}
