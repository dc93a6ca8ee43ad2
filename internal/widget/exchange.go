package widget

import (
	"context"
	"fmt"

	"github.com/zhouzirui/chatwidget/internal/model/chat"
)

// Outcome is the terminal state of an exchange.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeReplied  Outcome = "replied"
	OutcomeNoOutput Outcome = "no_output"
	OutcomeFailed   Outcome = "failed"
)

// Exchange is one outbound webhook call. It owns exactly one thinking indicator and
// removes only that indicator when it finishes.
type Exchange struct {
	indicatorID string
	text        string
	done        chan struct{}

	// written before done is closed
	outcome Outcome
	err     error
}

// IndicatorID identifies the thinking indicator owned by this exchange.
func (e *Exchange) IndicatorID() string {
	return e.indicatorID
}

// Text returns the message that was sent.
func (e *Exchange) Text() string {
	return e.text
}

// Done is closed once the exchange has reached a terminal outcome.
func (e *Exchange) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the exchange finishes or ctx ends.
func (e *Exchange) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-e.done:
		return e.outcome, e.err
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}

// Outcome returns the terminal outcome, or OutcomePending while in flight.
func (e *Exchange) Outcome() Outcome {
	select {
	case <-e.done:
		return e.outcome
	default:
		return OutcomePending
	}
}

// Err returns the transport error of a failed exchange.
func (e *Exchange) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}

func (w *ChatWidget) beginExchangeLocked(text string) *Exchange {
	w.nextIndicator++
	exchange := &Exchange{
		indicatorID: fmt.Sprintf("thinking-%d", w.nextIndicator),
		text:        text,
		done:        make(chan struct{}),
	}
	w.entries = append(w.entries, Entry{Kind: EntryThinking, IndicatorID: exchange.indicatorID})
	return exchange
}

func (w *ChatWidget) removeIndicatorLocked(id string) {
	for i, entry := range w.entries {
		if entry.Kind == EntryThinking && entry.IndicatorID == id {
			w.entries = append(w.entries[:i], w.entries[i+1:]...)
			return
		}
	}
}

func (w *ChatWidget) runExchange(ctx context.Context, exchange *Exchange, sessionID string) {
	reply, err := w.sender.Send(ctx, chat.ExchangeRequest{ChatInput: exchange.text, SessionID: sessionID})

	w.mu.Lock()
	w.removeIndicatorLocked(exchange.indicatorID)
	switch {
	case err != nil:
		exchange.outcome = OutcomeFailed
		exchange.err = err
		w.appendMessageLocked(chat.Message{Text: w.chrome.FallbackText, Sender: chat.SenderBot})
	case reply.HasOutput():
		exchange.outcome = OutcomeReplied
		w.appendMessageLocked(chat.Message{Text: *reply.Output, Sender: chat.SenderBot})
	default:
		exchange.outcome = OutcomeNoOutput
	}
	w.mu.Unlock()

	switch exchange.outcome {
	case OutcomeFailed:
		w.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Str("indicator", exchange.indicatorID).
			Msg("error sending message to webhook")
	case OutcomeNoOutput:
		w.logger.Warn().
			Str("session_id", sessionID).
			Str("indicator", exchange.indicatorID).
			Msg("webhook reply carried no output, turn dropped")
	default:
		w.logger.Debug().
			Str("session_id", sessionID).
			Str("indicator", exchange.indicatorID).
			Msg("webhook reply rendered")
	}

	w.notify()
	close(exchange.done)
}
