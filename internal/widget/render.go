package widget

import "github.com/zhouzirui/chatwidget/internal/model/chat"

// Palette used by every substrate.
const (
	ColorLauncher      = "#007bff"
	ColorUserBubble    = "#1a1a1a"
	ColorUserText      = "#ffffff"
	ColorBotBubble     = "#f1f1f1"
	ColorBotText       = "#000000"
	ColorThinkingDot   = "#888888"
	ColorHeader        = "#f1f1f1"
	ColorSendButton    = "#1a1a1a"
	ColorPanelBorder   = "#e0e0e0"
	ThinkingDotCount   = 3
	LauncherAriaLabel  = "Open chat"
	LauncherCloseLabel = "Close chat"
)

// Align is the horizontal placement of a row.
type Align string

const (
	AlignLeft  Align = "left"
	AlignRight Align = "right"
)

// RowKind mirrors EntryKind in the rendered view.
type RowKind string

const (
	RowMessage  RowKind = "message"
	RowThinking RowKind = "thinking"
)

// Row is one rendered log element.
type Row struct {
	Kind       RowKind     `json:"kind"`
	ID         string      `json:"id,omitempty"`
	Sender     chat.Sender `json:"sender,omitempty"`
	Text       string      `json:"text,omitempty"`
	Align      Align       `json:"align"`
	Background string      `json:"background"`
	Foreground string      `json:"foreground"`
	Dots       int         `json:"dots,omitempty"`
}

// Launcher is the floating button.
type Launcher struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Panel is the message panel.
type Panel struct {
	Visible     bool   `json:"visible"`
	Title       string `json:"title"`
	Rows        []Row  `json:"rows"`
	Input       string `json:"input"`
	Placeholder string `json:"placeholder"`
	SendLabel   string `json:"sendLabel"`
	Pending     int    `json:"pending"`
	ScrollToEnd bool   `json:"scrollToEnd"`
}

// View is the substrate-neutral rendering of a widget.
type View struct {
	Launcher Launcher `json:"launcher"`
	Panel    Panel    `json:"panel"`
}

// Render maps a snapshot to a view. It is pure: equal snapshots give equal views,
// and rows keep the order of the snapshot entries.
func Render(s Snapshot) View {
	chrome := s.Chrome.withDefaults()

	rows := make([]Row, 0, len(s.Entries))
	pending := 0
	for _, entry := range s.Entries {
		switch entry.Kind {
		case EntryThinking:
			pending++
			rows = append(rows, Row{
				Kind:       RowThinking,
				ID:         entry.IndicatorID,
				Align:      AlignLeft,
				Background: ColorBotBubble,
				Foreground: ColorThinkingDot,
				Dots:       ThinkingDotCount,
			})
		case EntryMessage:
			rows = append(rows, messageRow(entry.Message))
		}
	}

	label := LauncherAriaLabel
	if s.Visible {
		label = LauncherCloseLabel
	}

	return View{
		Launcher: Launcher{Label: label, Color: ColorLauncher},
		Panel: Panel{
			Visible:     s.Visible,
			Title:       chrome.Title,
			Rows:        rows,
			Input:       s.Input,
			Placeholder: chrome.Placeholder,
			SendLabel:   chrome.SendLabel,
			Pending:     pending,
			ScrollToEnd: len(rows) > 0,
		},
	}
}

func messageRow(m chat.Message) Row {
	if m.Sender == chat.SenderUser {
		return Row{
			Kind:       RowMessage,
			Sender:     m.Sender,
			Text:       m.Text,
			Align:      AlignRight,
			Background: ColorUserBubble,
			Foreground: ColorUserText,
		}
	}
	return Row{
		Kind:       RowMessage,
		Sender:     chat.SenderBot,
		Text:       m.Text,
		Align:      AlignLeft,
		Background: ColorBotBubble,
		Foreground: ColorBotText,
	}
}
