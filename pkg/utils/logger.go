package utils

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger 创建服务日志；console 为 true 时输出便于阅读的文本格式
func NewLogger(out io.Writer, level zerolog.Level, console bool) zerolog.Logger {
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
