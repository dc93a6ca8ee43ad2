package htmlview

// Stylesheet is served at /widget.css; the host page links it.
const Stylesheet = `
.chat-widget-launcher {
  position: fixed;
  bottom: 25px;
  right: 25px;
  z-index: 9999;
  margin: 0;
}
.chat-widget-launcher button {
  width: 65px;
  height: 65px;
  border: none;
  border-radius: 50%;
  box-shadow: 0 4px 12px rgba(0,0,0,0.2);
  cursor: pointer;
  display: flex;
  align-items: center;
  justify-content: center;
  transition: all 0.3s ease;
  animation: chat-widget-pulse 2s infinite;
}
.chat-widget-launcher button:hover {
  transform: scale(1.1);
  animation-play-state: paused;
}
.chat-widget-icon {
  width: 32px;
  height: 32px;
}
.chat-widget-container {
  position: fixed;
  bottom: 100px;
  right: 20px;
  width: 350px;
  height: 500px;
  background-color: white;
  border-radius: 12px;
  box-shadow: 0 8px 24px rgba(0,0,0,0.15);
  flex-direction: column;
  overflow: hidden;
  z-index: 10000;
}
.chat-widget-header {
  background-color: #f1f1f1;
  padding: 15px;
  font-weight: bold;
  border-bottom: 1px solid #e0e0e0;
}
.chat-widget-messages {
  flex-grow: 1;
  padding: 15px;
  overflow-y: auto;
}
.chat-widget-row {
  margin-bottom: 10px;
}
.chat-widget-bubble {
  display: inline-block;
  padding: 10px 15px;
  border-radius: 18px;
  white-space: pre-wrap;
  word-wrap: break-word;
}
.chat-widget-input-form {
  display: flex;
  border-top: 1px solid #e0e0e0;
  margin: 0;
}
.chat-widget-input {
  flex-grow: 1;
  border: none;
  padding: 15px;
  outline: none;
}
.chat-widget-send-btn {
  background-color: #1a1a1a;
  color: white;
  border: none;
  padding: 0 20px;
  cursor: pointer;
}
.chat-widget-thinking-dot {
  display: inline-block;
  width: 8px;
  height: 8px;
  border-radius: 50%;
  margin: 0 2px;
  animation: chat-widget-blink 1.4s infinite both;
}
.chat-widget-thinking-dot:nth-child(2) {
  animation-delay: 0.2s;
}
.chat-widget-thinking-dot:nth-child(3) {
  animation-delay: 0.4s;
}
@keyframes chat-widget-blink {
  0% { opacity: 0.2; }
  20% { opacity: 1; }
  100% { opacity: 0.2; }
}
@keyframes chat-widget-pulse {
  0% { box-shadow: 0 0 0 0 rgba(0, 123, 255, 0.7); }
  70% { box-shadow: 0 0 0 15px rgba(0, 123, 255, 0); }
  100% { box-shadow: 0 0 0 0 rgba(0, 123, 255, 0); }
}
`
