package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// pahoLogger satisfies mqtt.Logger and forwards paho's own diagnostics
// to slog at a fixed level.
type pahoLogger struct {
	logger *slog.Logger
	level  slog.Level
}

func (l pahoLogger) Println(v ...any) {
	l.logger.Log(context.Background(), l.level, strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l pahoLogger) Printf(format string, v ...any) {
	l.logger.Log(context.Background(), l.level, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

var routeOnce sync.Once

// routePahoLogs installs slog backed loggers for paho's package level
// CRITICAL, ERROR and WARN outputs. DEBUG stays silent.
func routePahoLogs(logger *slog.Logger) {
	routeOnce.Do(func() {
		mqtt.CRITICAL = pahoLogger{logger: logger, level: slog.LevelError}
		mqtt.ERROR = pahoLogger{logger: logger, level: slog.LevelError}
		mqtt.WARN = pahoLogger{logger: logger, level: slog.LevelWarn}
	})
}
