package tabs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/chatwidget/internal/service/webhook"
	"github.com/zhouzirui/chatwidget/internal/session"
	"github.com/zhouzirui/chatwidget/internal/widget"
)

var (
	ErrTabRequired = errors.New("tab id is required")
	ErrTabNotFound = errors.New("tab not found")
)

const minSweepInterval = time.Second

// Tab is one browser tab: its own storage and its own widget instance.
type Tab struct {
	ID        string
	Storage   *session.MemoryStorage
	Widget    *widget.ChatWidget
	CreatedAt time.Time

	// guarded by Service.mu
	lastSeen time.Time
	conns    int
}

// Option configures a Service.
type Option func(*Service)

// WithIdleTTL closes tabs that had no request and no live connection for ttl.
// Zero keeps tabs until Close.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithMaxTabs bounds the registry; opening a tab beyond the limit evicts the
// least recently seen one. Zero means no limit.
func WithMaxTabs(n int) Option {
	return func(s *Service) {
		s.maxTabs = n
	}
}

// Service keeps one widget per browser tab.
type Service struct {
	ctx     context.Context
	sender  webhook.Sender
	chrome  widget.Chrome
	logger  zerolog.Logger
	ttl     time.Duration
	maxTabs int
	now     func() time.Time

	mu   sync.Mutex
	tabs map[string]*Tab
}

// NewService creates the tab registry. ctx bounds every exchange started through it,
// so cancelling it abandons in-flight webhook calls on shutdown. With an idle TTL a
// sweeper runs until ctx is done.
func NewService(ctx context.Context, sender webhook.Sender, chrome widget.Chrome, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		ctx:    ctx,
		sender: sender,
		chrome: chrome,
		logger: logger,
		now:    time.Now,
		tabs:   make(map[string]*Tab),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ttl > 0 {
		go s.sweepLoop()
	}
	return s
}

// NewTabID returns a fresh tab identifier.
func (s *Service) NewTabID() string {
	return uuid.NewString()
}

// Open returns the tab's widget, creating storage and widget on first use. The
// widget is built at most once per tab.
func (s *Service) Open(tabID string) (*Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(tabID)
}

// Attach opens the tab and pins it while a live connection holds it. The returned
// release func is safe to call more than once.
func (s *Service) Attach(tabID string) (*Tab, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, err := s.openLocked(tabID)
	if err != nil {
		return nil, nil, err
	}
	tab.conns++

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.mu.Lock()
			tab.conns--
			tab.lastSeen = s.now()
			s.mu.Unlock()
		})
	}
	return tab, release, nil
}

func (s *Service) openLocked(tabID string) (*Tab, error) {
	if tabID == "" {
		return nil, ErrTabRequired
	}

	if tab, ok := s.tabs[tabID]; ok {
		tab.lastSeen = s.now()
		return tab, nil
	}

	if s.maxTabs > 0 && len(s.tabs) >= s.maxTabs {
		s.evictOldestLocked()
	}

	storage := session.NewMemoryStorage()
	w, err := widget.New(storage, s.sender,
		widget.WithChrome(s.chrome),
		widget.WithLogger(s.logger.With().Str("tab", tabID).Logger()),
	)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tab := &Tab{
		ID:        tabID,
		Storage:   storage,
		Widget:    w,
		CreatedAt: now.UTC(),
		lastSeen:  now,
	}
	s.tabs[tabID] = tab
	s.logger.Debug().Str("tab", tabID).Str("session_id", w.SessionID()).Msg("tab opened")
	return tab, nil
}

// evictOldestLocked drops the least recently seen tab, preferring tabs without a
// live connection.
func (s *Service) evictOldestLocked() {
	var victim *Tab
	for _, tab := range s.tabs {
		if victim == nil {
			victim = tab
			continue
		}
		if (tab.conns == 0) != (victim.conns == 0) {
			if tab.conns == 0 {
				victim = tab
			}
			continue
		}
		if tab.lastSeen.Before(victim.lastSeen) {
			victim = tab
		}
	}
	if victim == nil {
		return
	}

	delete(s.tabs, victim.ID)
	victim.Storage.Clear()
	s.logger.Debug().Str("tab", victim.ID).Int("max_tabs", s.maxTabs).Msg("tab evicted")
}

// Get looks up an existing tab.
func (s *Service) Get(tabID string) (*Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tab, ok := s.tabs[tabID]
	if !ok {
		return nil, ErrTabNotFound
	}
	tab.lastSeen = s.now()
	return tab, nil
}

// Len reports how many tabs are held.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tabs)
}

// Close forgets a tab and clears its storage.
func (s *Service) Close(tabID string) {
	s.mu.Lock()
	tab, ok := s.tabs[tabID]
	delete(s.tabs, tabID)
	s.mu.Unlock()

	if ok {
		tab.Storage.Clear()
	}
}

// Sweep closes tabs idle longer than the TTL that have no live connection and
// returns how many were closed.
func (s *Service) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var idle []*Tab
	for id, tab := range s.tabs {
		if tab.conns == 0 && tab.lastSeen.Before(cutoff) {
			delete(s.tabs, id)
			idle = append(idle, tab)
		}
	}
	s.mu.Unlock()

	for _, tab := range idle {
		tab.Storage.Clear()
	}
	if len(idle) > 0 {
		s.logger.Debug().Int("closed", len(idle)).Msg("idle tabs swept")
	}
	return len(idle)
}

func (s *Service) sweepLoop() {
	interval := s.ttl / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Context is the lifetime context for exchanges started through this service.
func (s *Service) Context() context.Context {
	return s.ctx
}

// Toggle flips the tab's panel.
func (s *Service) Toggle(tabID string) (bool, error) {
	tab, err := s.Open(tabID)
	if err != nil {
		return false, err
	}
	return tab.Widget.Toggle(), nil
}

// Submit sends text from the tab's form. A nil exchange means the text was blank.
func (s *Service) Submit(tabID, text string) (*widget.Exchange, error) {
	tab, err := s.Open(tabID)
	if err != nil {
		return nil, err
	}
	return tab.Widget.Send(s.ctx, text), nil
}
