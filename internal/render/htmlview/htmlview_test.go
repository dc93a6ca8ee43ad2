package htmlview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/chatwidget/internal/model/chat"
	"github.com/zhouzirui/chatwidget/internal/widget"
)

func sampleView(visible bool) widget.View {
	return widget.Render(widget.Snapshot{
		Chrome:  widget.DefaultChrome(),
		Visible: visible,
		Entries: []widget.Entry{
			{Kind: widget.EntryMessage, Message: chat.Message{Text: "Hello!", Sender: chat.SenderBot}},
			{Kind: widget.EntryMessage, Message: chat.Message{Text: "<script>alert(1)</script>", Sender: chat.SenderUser}},
			{Kind: widget.EntryThinking, IndicatorID: "thinking-1"},
		},
	})
}

func TestRenderWidgetEscapesMessageText(t *testing.T) {
	markup, err := RenderWidget(sampleView(true), "tab-1")
	require.NoError(t, err)

	html := string(markup)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestRenderWidgetKeepsRowOrder(t *testing.T) {
	markup, err := RenderWidget(sampleView(true), "tab-1")
	require.NoError(t, err)

	html := string(markup)
	greeting := strings.Index(html, "Hello!")
	user := strings.Index(html, "alert(1)")
	thinking := strings.Index(html, `id="thinking-1"`)
	require.True(t, greeting >= 0 && user >= 0 && thinking >= 0)
	assert.Less(t, greeting, user)
	assert.Less(t, user, thinking)
	assert.Equal(t, widget.ThinkingDotCount, strings.Count(html, `class="chat-widget-thinking-dot"`))
}

func TestRenderWidgetVisibility(t *testing.T) {
	hidden, err := RenderWidget(sampleView(false), "tab-1")
	require.NoError(t, err)
	assert.Contains(t, string(hidden), "display: none;")

	shown, err := RenderWidget(sampleView(true), "tab-1")
	require.NoError(t, err)
	assert.Contains(t, string(shown), "display: flex;")
}

func TestRenderWidgetCarriesTabInActions(t *testing.T) {
	markup, err := RenderWidget(sampleView(false), "tab-42")
	require.NoError(t, err)

	assert.Contains(t, string(markup), `action="/widget/toggle?tab=tab-42"`)
	assert.Contains(t, string(markup), `action="/widget/messages?tab=tab-42"`)
}

func TestRenderPageEmbedsWidget(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPage(&buf, PageData{Title: "Demo", TabID: "tab-7", View: sampleView(false)})
	require.NoError(t, err)

	page := buf.String()
	assert.Contains(t, page, "<title>Demo</title>")
	assert.Contains(t, page, `href="/widget.css"`)
	assert.Contains(t, page, `data-socket="/widget/ws?tab=tab-7"`)
	assert.Contains(t, page, "chat-widget-launcher")
}
