package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/chatwidget/internal/config"
	"github.com/zhouzirui/chatwidget/internal/service/webhook"
	"github.com/zhouzirui/chatwidget/internal/session"
	"github.com/zhouzirui/chatwidget/internal/widget"
	"github.com/zhouzirui/chatwidget/pkg/utils"
)

var hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

type options struct {
	endpoint string
	timeout  time.Duration
	width    int
	logFile  string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "chatwidget-tui",
		Short:         "Run the chat widget in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "webhook URL (defaults to WIDGET_WEBHOOK_URL)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "per-message webhook timeout, 0 waits indefinitely")
	cmd.Flags().IntVar(&opts.width, "width", 0, "panel width in cells (defaults to terminal width)")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write diagnostics to this file")

	return cmd
}

func run(parent context.Context, cmd *cobra.Command, opts *options) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	endpoint := cfg.Widget.WebhookURL
	if opts.endpoint != "" {
		endpoint = opts.endpoint
	}
	timeout := cfg.Widget.RequestTimeout
	if cmd.Flags().Changed("timeout") {
		timeout = opts.timeout
	}

	// 终端被界面占用，诊断日志只写入文件
	var logOut io.Writer = io.Discard
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := utils.NewLogger(logOut, cfg.Log.Level, false)

	client, err := webhook.NewClient(endpoint, webhook.WithTimeout(timeout))
	if err != nil {
		return err
	}

	w, err := widget.New(session.NewMemoryStorage(), client,
		widget.WithChrome(cfg.Widget.Chrome()),
		widget.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	logger.Info().Str("session_id", w.SessionID()).Str("webhook", client.Endpoint()).Msg("terminal widget started")

	changes, cancel := w.Watch()
	defer cancel()

	program := tea.NewProgram(newChatModel(ctx, w, changes, opts.width), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
