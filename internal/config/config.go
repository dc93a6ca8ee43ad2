package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/chatwidget/internal/widget"
)

// LocalWebhookPath is where the built-in webhook is mounted when AI is configured.
const LocalWebhookPath = "/webhook/chat"

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Widget WidgetConfig
	AI     AIConfig
	Log    LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	widget, err := loadWidgetConfig(server)
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Widget: widget, AI: ai, Log: logCfg}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LocalURL returns an http URL reaching this server from the same host.
func (c ServerConfig) LocalURL(path string) string {
	host := c.Addr
	if strings.HasPrefix(host, ":") {
		host = "127.0.0.1" + host
	}
	return "http://" + host + path
}

// WidgetConfig 描述聊天挂件的文案与 webhook。
type WidgetConfig struct {
	WebhookURL     string
	Title          string
	Greeting       string
	Placeholder    string
	SendLabel      string
	FallbackText   string
	PageTitle      string
	RequestTimeout time.Duration
	// TabTTL 是无连接标签页的保留时长，0 表示不过期
	TabTTL  time.Duration
	MaxTabs int
	// WebhookDefaulted is true when WebhookURL points at the built-in endpoint.
	WebhookDefaulted bool
}

func loadWidgetConfig(server ServerConfig) (WidgetConfig, error) {
	timeout, err := parseDurationEnv("WIDGET_REQUEST_TIMEOUT", 0)
	if err != nil {
		return WidgetConfig{}, err
	}
	if timeout < 0 {
		return WidgetConfig{}, fmt.Errorf("invalid WIDGET_REQUEST_TIMEOUT value %q: must not be negative", os.Getenv("WIDGET_REQUEST_TIMEOUT"))
	}

	tabTTL, err := parseDurationEnv("WIDGET_TAB_TTL", 30*time.Minute)
	if err != nil {
		return WidgetConfig{}, err
	}

	maxTabs, err := parseNonNegativeIntEnv("WIDGET_MAX_TABS", 10000)
	if err != nil {
		return WidgetConfig{}, err
	}

	webhookURL := strings.TrimSpace(os.Getenv("WIDGET_WEBHOOK_URL"))
	defaulted := false
	if webhookURL == "" {
		webhookURL = server.LocalURL(LocalWebhookPath)
		defaulted = true
	}

	return WidgetConfig{
		WebhookURL:       webhookURL,
		Title:            getEnvOrDefault("WIDGET_TITLE", "AI Assistant"),
		Greeting:         getEnvOrDefault("WIDGET_GREETING", "Hello! How can I help you today?"),
		Placeholder:      getEnvOrDefault("WIDGET_PLACEHOLDER", "Ask something..."),
		SendLabel:        getEnvOrDefault("WIDGET_SEND_LABEL", "Send"),
		FallbackText:     getEnvOrDefault("WIDGET_FALLBACK_TEXT", "Sorry, I seem to be having trouble connecting."),
		PageTitle:        getEnvOrDefault("WIDGET_PAGE_TITLE", "Chat"),
		RequestTimeout:   timeout,
		TabTTL:           tabTTL,
		MaxTabs:          maxTabs,
		WebhookDefaulted: defaulted,
	}, nil
}

// Chrome returns the widget text configured for this deployment.
func (c WidgetConfig) Chrome() widget.Chrome {
	return widget.Chrome{
		Title:        c.Title,
		Greeting:     c.Greeting,
		Placeholder:  c.Placeholder,
		SendLabel:    c.SendLabel,
		FallbackText: c.FallbackText,
	}
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	SystemPrompt string
	HistoryLimit int
	// HistorySessions 限制保留上下文的会话数，HistoryTTL 之后闲置会话被清理
	HistorySessions int
	HistoryTTL      time.Duration
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit := 10
	if override, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 0 {
			historyLimit = 0
		} else {
			historyLimit = *override
		}
	}

	historySessions, err := parseNonNegativeIntEnv("AI_HISTORY_SESSIONS", 1000)
	if err != nil {
		return AIConfig{}, err
	}

	historyTTL, err := parseDurationEnv("AI_HISTORY_TTL", 30*time.Minute)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        strings.TrimSpace(os.Getenv("Model")),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:  temperature,
		TopP:         topP,
		MaxTokens:    maxTokens,
		SystemPrompt: getEnvOrDefault("AI_SYSTEM_PROMPT", "You are a helpful website assistant. Answer briefly and politely."),
		HistoryLimit: historyLimit,

		HistorySessions: historySessions,
		HistoryTTL:      historyTTL,
	}, nil
}

// LogConfig 描述日志级别与输出格式。
type LogConfig struct {
	Level   zerolog.Level
	Console bool
}

func loadLogConfig() (LogConfig, error) {
	level := zerolog.InfoLevel
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q: %w", raw, err)
		}
		level = parsed
	}

	console, err := parseBoolEnv("LOG_CONSOLE", true)
	if err != nil {
		return LogConfig{}, err
	}

	return LogConfig{Level: level, Console: console}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

// parseDurationEnv accepts Go durations ("30s") or a bare number of seconds.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseNonNegativeIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	if *val < 0 {
		return 0, fmt.Errorf("invalid %s value %d: must not be negative", key, *val)
	}
	return *val, nil
}
