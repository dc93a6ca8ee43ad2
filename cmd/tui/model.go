package main

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhouzirui/chatwidget/internal/render/termview"
	"github.com/zhouzirui/chatwidget/internal/widget"
)

// changedMsg reports that the widget state moved and the view must be redrawn.
type changedMsg struct{}

// chatModel hosts one widget instance inside a bubbletea program.
type chatModel struct {
	ctx     context.Context
	widget  *widget.ChatWidget
	changes <-chan struct{}
	input   textinput.Model
	width   int
}

func newChatModel(ctx context.Context, w *widget.ChatWidget, changes <-chan struct{}, width int) chatModel {
	ti := textinput.New()
	ti.Placeholder = w.Chrome().Placeholder
	ti.Prompt = "> "
	ti.CharLimit = 2000

	return chatModel{
		ctx:     ctx,
		widget:  w,
		changes: changes,
		input:   ti,
		width:   width,
	}
}

// waitForChange converts the widget's change channel into a Tea command.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return tea.Quit()
		}
		return changedMsg{}
	}
}

func (m chatModel) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch ev := msg.(type) {
	case tea.WindowSizeMsg:
		if m.width == 0 || ev.Width < m.width {
			m.width = ev.Width
		}
		return m, nil
	case changedMsg:
		m.syncInput()
		return m, waitForChange(m.changes)
	case tea.KeyMsg:
		switch ev.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlO:
			m.widget.Activate(m.ctx, widget.ControlLauncher)
			m.syncInput()
			return m, nil
		case tea.KeyEnter:
			if m.widget.Visible() {
				m.widget.Activate(m.ctx, widget.ControlForm)
				m.syncInput()
			}
			return m, nil
		}
	}

	if !m.widget.Visible() {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.widget.Input() {
		m.widget.SetInput(m.input.Value())
	}
	return m, cmd
}

// syncInput mirrors the widget draft and focus into the text input.
func (m *chatModel) syncInput() {
	if m.widget.Visible() {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	if draft := m.widget.Input(); draft != m.input.Value() {
		m.input.SetValue(draft)
	}
}

func (m chatModel) View() string {
	return termview.Render(m.widget.Render(), termview.Options{
		Width:     m.width,
		InputLine: m.input.View(),
	}) + "\n" + hintStyle.Render("ctrl+o toggle chat • esc quit")
}
