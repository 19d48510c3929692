package server

import (
	"fmt"
	"time"

	"github.com/df07/go-irradiance-tracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RequestID string    `json:"requestId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning", "error"
}

// WebLogger implements core.Logger by forwarding messages to a base logger
// and to a console channel streamed to the browser
type WebLogger struct {
	requestID   string
	base        core.Logger
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a new web logger for a specific render request
func NewWebLogger(requestID string, base core.Logger, consoleChan chan<- ConsoleMessage) *WebLogger {
	if base == nil {
		base = core.NopLogger()
	}
	return &WebLogger{
		requestID:   requestID,
		base:        base,
		consoleChan: consoleChan,
	}
}

func (wl *WebLogger) Debugf(format string, args ...any) {
	wl.base.Debugf(format, args...)
}

func (wl *WebLogger) Infof(format string, args ...any) {
	wl.base.Infof(format, args...)
	wl.send("info", format, args)
}

func (wl *WebLogger) Warnf(format string, args ...any) {
	wl.base.Warnf(format, args...)
	wl.send("warning", format, args)
}

func (wl *WebLogger) Errorf(format string, args ...any) {
	wl.base.Errorf(format, args...)
	wl.send("error", format, args)
}

// send never blocks; messages are dropped while the channel is full
func (wl *WebLogger) send(level, format string, args []any) {
	if wl.consoleChan == nil {
		return
	}
	select {
	case wl.consoleChan <- ConsoleMessage{
		RequestID: wl.requestID,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
		Level:     level,
	}:
	default:
	}
}
