// Package widget holds the chat widget state machine: launcher visibility, the
// conversation log, per-tab session bootstrap and the outbound webhook exchange.
// It draws nothing itself; substrates call Render on a Snapshot.
package widget

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/chatwidget/internal/model/chat"
	"github.com/zhouzirui/chatwidget/internal/service/webhook"
	"github.com/zhouzirui/chatwidget/internal/session"
)

const (
	DefaultTitle        = "AI Assistant"
	DefaultGreeting     = "Hello! How can I help you today?"
	DefaultPlaceholder  = "Ask something..."
	DefaultSendLabel    = "Send"
	DefaultFallbackText = "Sorry, I seem to be having trouble connecting."
)

// Control names an element a substrate can activate.
type Control string

const (
	ControlLauncher Control = "launcher"
	ControlForm     Control = "form"
)

// Chrome is the static text of the widget.
type Chrome struct {
	Title        string `json:"title"`
	Greeting     string `json:"greeting"`
	Placeholder  string `json:"placeholder"`
	SendLabel    string `json:"sendLabel"`
	FallbackText string `json:"fallbackText"`
}

// DefaultChrome returns the stock widget text.
func DefaultChrome() Chrome {
	return Chrome{
		Title:        DefaultTitle,
		Greeting:     DefaultGreeting,
		Placeholder:  DefaultPlaceholder,
		SendLabel:    DefaultSendLabel,
		FallbackText: DefaultFallbackText,
	}
}

// withDefaults fills any empty field from DefaultChrome.
func (c Chrome) withDefaults() Chrome {
	def := DefaultChrome()
	if strings.TrimSpace(c.Title) == "" {
		c.Title = def.Title
	}
	if strings.TrimSpace(c.Greeting) == "" {
		c.Greeting = def.Greeting
	}
	if strings.TrimSpace(c.Placeholder) == "" {
		c.Placeholder = def.Placeholder
	}
	if strings.TrimSpace(c.SendLabel) == "" {
		c.SendLabel = def.SendLabel
	}
	if strings.TrimSpace(c.FallbackText) == "" {
		c.FallbackText = def.FallbackText
	}
	return c
}

// EntryKind distinguishes log messages from thinking indicators.
type EntryKind string

const (
	EntryMessage  EntryKind = "message"
	EntryThinking EntryKind = "thinking"
)

// Entry is one element of the rendered log.
type Entry struct {
	Kind        EntryKind    `json:"kind"`
	Message     chat.Message `json:"message"`
	IndicatorID string       `json:"indicatorId,omitempty"`
}

// Snapshot is a copy of the widget state, safe to hand to Render.
type Snapshot struct {
	Chrome    Chrome  `json:"chrome"`
	SessionID string  `json:"sessionId"`
	Visible   bool    `json:"visible"`
	Input     string  `json:"input"`
	Entries   []Entry `json:"entries"`
}

// Option customises a ChatWidget.
type Option func(*ChatWidget)

// WithChrome overrides the widget text. Empty fields keep their defaults.
func WithChrome(chrome Chrome) Option {
	return func(w *ChatWidget) {
		w.chrome = chrome
	}
}

// WithLogger sets the operator diagnostic channel.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *ChatWidget) {
		w.logger = logger
	}
}

// ChatWidget is one widget instance, bound to one tab's storage.
type ChatWidget struct {
	mu sync.Mutex

	chrome  Chrome
	sender  webhook.Sender
	storage session.Storage
	logger  zerolog.Logger

	controls map[Control]func(context.Context) *Exchange

	sessionID     string
	visible       bool
	input         string
	entries       []Entry
	nextIndicator uint64

	watchers    map[int]chan struct{}
	nextWatcher int
}

// New builds a widget: chrome first, then control bindings, then the session
// identifier from storage, then the greeting.
func New(storage session.Storage, sender webhook.Sender, opts ...Option) (*ChatWidget, error) {
	if storage == nil {
		return nil, fmt.Errorf("widget: storage is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("widget: sender is required")
	}

	w := &ChatWidget{
		sender:   sender,
		storage:  storage,
		logger:   zerolog.Nop(),
		entries:  make([]Entry, 0, 16),
		watchers: make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.buildChrome()
	w.bindControls()
	if err := w.loadSession(); err != nil {
		return nil, err
	}
	w.greet()

	return w, nil
}

func (w *ChatWidget) buildChrome() {
	w.chrome = w.chrome.withDefaults()
}

func (w *ChatWidget) bindControls() {
	w.controls = map[Control]func(context.Context) *Exchange{
		ControlLauncher: func(context.Context) *Exchange {
			w.Toggle()
			return nil
		},
		ControlForm: w.Submit,
	}
}

func (w *ChatWidget) loadSession() error {
	id, err := session.Ensure(w.storage)
	if err != nil {
		return fmt.Errorf("widget: load session: %w", err)
	}
	w.sessionID = id
	return nil
}

func (w *ChatWidget) greet() {
	w.mu.Lock()
	w.appendMessageLocked(chat.Message{Text: w.chrome.Greeting, Sender: chat.SenderBot})
	w.mu.Unlock()
}

// Activate dispatches a control activation. Only the form returns an exchange.
func (w *ChatWidget) Activate(ctx context.Context, control Control) (*Exchange, error) {
	handler, ok := w.controls[control]
	if !ok {
		return nil, fmt.Errorf("widget: unknown control %q", control)
	}
	return handler(ctx), nil
}

// SessionID returns the identifier sent with every request.
func (w *ChatWidget) SessionID() string {
	return w.sessionID
}

// Chrome returns the widget text.
func (w *ChatWidget) Chrome() Chrome {
	return w.chrome
}

// Toggle flips panel visibility and returns the new state.
func (w *ChatWidget) Toggle() bool {
	w.mu.Lock()
	w.visible = !w.visible
	visible := w.visible
	w.mu.Unlock()

	w.notify()
	return visible
}

// Visible reports whether the panel is shown.
func (w *ChatWidget) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// SetInput replaces the contents of the input field.
func (w *ChatWidget) SetInput(text string) {
	w.mu.Lock()
	changed := w.input != text
	w.input = text
	w.mu.Unlock()

	if changed {
		w.notify()
	}
}

// Input returns the current contents of the input field.
func (w *ChatWidget) Input() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.input
}

// Submit handles a form submission. Whitespace-only input is ignored and nil is
// returned. Otherwise the user message is appended, the input cleared and an
// exchange started in the background.
func (w *ChatWidget) Submit(ctx context.Context) *Exchange {
	w.mu.Lock()
	text := strings.TrimSpace(w.input)
	if text == "" {
		w.mu.Unlock()
		return nil
	}

	w.appendMessageLocked(chat.Message{Text: text, Sender: chat.SenderUser})
	w.input = ""
	exchange := w.beginExchangeLocked(text)
	sessionID := w.sessionID
	w.mu.Unlock()

	w.notify()
	go w.runExchange(ctx, exchange, sessionID)
	return exchange
}

// Send sets the input field to text and submits it.
func (w *ChatWidget) Send(ctx context.Context, text string) *Exchange {
	w.mu.Lock()
	w.input = text
	w.mu.Unlock()
	return w.Submit(ctx)
}

// Messages returns the conversation log without thinking indicators.
func (w *ChatWidget) Messages() []chat.Message {
	w.mu.Lock()
	defer w.mu.Unlock()

	messages := make([]chat.Message, 0, len(w.entries))
	for _, entry := range w.entries {
		if entry.Kind == EntryMessage {
			messages = append(messages, entry.Message)
		}
	}
	return messages
}

// Pending returns the number of thinking indicators currently shown.
func (w *ChatWidget) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending := 0
	for _, entry := range w.entries {
		if entry.Kind == EntryThinking {
			pending++
		}
	}
	return pending
}

// Snapshot copies the current state.
func (w *ChatWidget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries := make([]Entry, len(w.entries))
	copy(entries, w.entries)
	return Snapshot{
		Chrome:    w.chrome,
		SessionID: w.sessionID,
		Visible:   w.visible,
		Input:     w.input,
		Entries:   entries,
	}
}

// Render renders the current state.
func (w *ChatWidget) Render() View {
	return Render(w.Snapshot())
}

// Watch registers for change notifications. Notifications coalesce: a reader that
// falls behind sees one pending signal, never a backlog. Call cancel to stop.
func (w *ChatWidget) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	w.mu.Lock()
	id := w.nextWatcher
	w.nextWatcher++
	w.watchers[id] = ch
	w.mu.Unlock()

	return ch, func() {
		w.mu.Lock()
		delete(w.watchers, id)
		w.mu.Unlock()
	}
}

func (w *ChatWidget) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (w *ChatWidget) appendMessageLocked(message chat.Message) {
	w.entries = append(w.entries, Entry{Kind: EntryMessage, Message: message})
}
