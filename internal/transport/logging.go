package transport

import (
	"encoding/json"

	"insync/internal/log"

	"github.com/sirupsen/logrus"
)

// LoggingTransport implements the Transport interface by logging data to the console.
type LoggingTransport struct {
	entry *logrus.Entry
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	entry := log.With("transport")
	entry.Info("Using LoggingTransport")
	return &LoggingTransport{entry: entry}
}

// Send logs the received data as JSON at debug level.
func (lt *LoggingTransport) Send(data any) error {
	if log.GetLevel() > log.LevelDebug {
		return nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		lt.entry.Debugf("Received (%T): %+v (JSON marshal error: %v)", data, data, err)
		return nil
	}
	lt.entry.Debugf("Received (%T): %s", data, jsonData)
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	lt.entry.Debug("Close called")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
