// Package htmlview draws a widget.View as HTML for the browser host.
package htmlview

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/zhouzirui/chatwidget/internal/widget"
)

// Routes the rendered forms and script talk to.
const (
	ToggleAction = "/widget/toggle"
	SubmitAction = "/widget/messages"
	SocketPath   = "/widget/ws"
	StylePath    = "/widget.css"
)

const widgetTemplate = `{{define "widget"}}<form class="chat-widget-launcher" method="post" action="{{.ToggleURL}}" data-control="launcher">
  <button type="submit" aria-label="{{.View.Launcher.Label}}" aria-expanded="{{.View.Panel.Visible}}" style="background-color: {{.View.Launcher.Color | css}};">
    <svg class="chat-widget-icon" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" fill="white">
      <path d="M21.99 4c0-1.1-.89-2-1.99-2H4c-1.1 0-2 .9-2 2v12c0 1.1.9 2 2 2h14l4 4-.01-18z"/>
    </svg>
  </button>
</form>
<div class="chat-widget-container" style="display: {{if .View.Panel.Visible}}flex{{else}}none{{end}};">
  <div class="chat-widget-header">{{.View.Panel.Title}}</div>
  <div class="chat-widget-messages" data-scroll-end="{{.View.Panel.ScrollToEnd}}">
{{- range .View.Panel.Rows}}
{{- if eq .Kind "thinking"}}
    <div class="chat-widget-row chat-widget-thinking" id="{{.ID}}" style="text-align: left;">
      <div class="chat-widget-bubble" style="background-color: {{.Background | css}};">
        {{- range dots .Dots}}<div class="chat-widget-thinking-dot" style="background-color: {{$.Dot | css}};"></div>{{end -}}
      </div>
    </div>
{{- else}}
    <div class="chat-widget-row chat-widget-{{.Sender}}" style="text-align: {{.Align | css}};">
      <div class="chat-widget-bubble" style="background-color: {{.Background | css}}; color: {{.Foreground | css}};">{{.Text}}</div>
    </div>
{{- end}}
{{- end}}
  </div>
  <form class="chat-widget-input-form" method="post" action="{{.SubmitURL}}" data-control="form">
    <input type="text" name="message" class="chat-widget-input" placeholder="{{.View.Panel.Placeholder}}" value="{{.View.Panel.Input}}" autocomplete="off">
    <button type="submit" class="chat-widget-send-btn">{{.View.Panel.SendLabel}}</button>
  </form>
</div>{{end}}`

const pageTemplate = `{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.StyleURL}}">
</head>
<body>
<div id="chat-widget-root" data-socket="{{.SocketURL}}">{{.Widget}}</div>
<script>
(function () {
  var root = document.getElementById("chat-widget-root");
  if (!window.WebSocket || !root) { return; }
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  var socket = new WebSocket(scheme + location.host + root.dataset.socket);
  var draft = "";
  function scrollToEnd() {
    var log = root.querySelector(".chat-widget-messages");
    if (log && log.dataset.scrollEnd === "true") { log.scrollTop = log.scrollHeight; }
  }
  root.addEventListener("submit", function (e) {
    if (socket.readyState !== WebSocket.OPEN) { return; }
    e.preventDefault();
    var control = e.target.dataset.control;
    if (control === "launcher") {
      socket.send(JSON.stringify({type: "toggle"}));
    } else if (control === "form") {
      var input = e.target.querySelector(".chat-widget-input");
      socket.send(JSON.stringify({type: "submit", text: input.value}));
      if (input.value.trim() !== "") { input.value = ""; }
    }
  });
  root.addEventListener("input", function (e) { draft = e.target.value; });
  socket.addEventListener("message", function (e) {
    var msg = JSON.parse(e.data);
    if (msg.type !== "render") { return; }
    var focused = document.activeElement && document.activeElement.classList.contains("chat-widget-input");
    var current = root.querySelector(".chat-widget-input");
    draft = current ? current.value : draft;
    root.innerHTML = msg.data.html;
    var input = root.querySelector(".chat-widget-input");
    if (input) {
      input.value = draft;
      if (focused) { input.focus(); }
    }
    scrollToEnd();
  });
  scrollToEnd();
})();
</script>
</body>
</html>{{end}}`

var templates = template.Must(template.New("htmlview").Funcs(template.FuncMap{
	"css": func(value any) template.CSS {
		return template.CSS(fmt.Sprint(value))
	},
	"dots": func(n int) []struct{} {
		return make([]struct{}, n)
	},
}).Parse(widgetTemplate + pageTemplate))

type widgetData struct {
	View      widget.View
	ToggleURL string
	SubmitURL string
	Dot       string
}

// PageData feeds the host page.
type PageData struct {
	Title string
	TabID string
	View  widget.View
}

// RenderWidget returns the launcher and panel markup for a tab.
func RenderWidget(view widget.View, tabID string) (template.HTML, error) {
	var buf bytes.Buffer
	data := widgetData{
		View:      view,
		ToggleURL: withTab(ToggleAction, tabID),
		SubmitURL: withTab(SubmitAction, tabID),
		Dot:       widget.ColorThinkingDot,
	}
	if err := templates.ExecuteTemplate(&buf, "widget", data); err != nil {
		return "", fmt.Errorf("render widget: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderPage writes the host page that embeds the widget.
func RenderPage(w io.Writer, data PageData) error {
	markup, err := RenderWidget(data.View, data.TabID)
	if err != nil {
		return err
	}

	return templates.ExecuteTemplate(w, "page", struct {
		Title     string
		StyleURL  string
		SocketURL string
		Widget    template.HTML
	}{
		Title:     data.Title,
		StyleURL:  StylePath,
		SocketURL: withTab(SocketPath, data.TabID),
		Widget:    markup,
	})
}

func withTab(path, tabID string) string {
	return path + "?" + url.Values{"tab": {tabID}}.Encode()
}
