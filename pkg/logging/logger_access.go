package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// AccessLogger defines the interface for per-request logging
type AccessLogger interface {
	// LogRequest logs one handled request on a connection
	LogRequest(conn string, ip string, method string, path string, status int, details ...interface{})
	// LogAuth logs authentication outcomes
	LogAuth(conn string, login string, status string, details ...interface{})
}

type accessLogger struct {
	logger *log.Logger
}

// NewAccessLogger creates a new access logger
func NewAccessLogger(logPath string) (AccessLogger, error) {
	var writer io.Writer

	if logPath == "" {
		writer = io.Discard
	} else {
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening access log file: %w", err)
		}
		writer = f
	}

	return &accessLogger{
		logger: log.New(writer, "", 0), // No flags, we'll handle formatting ourselves
	}, nil
}

// formatValue formats a value for logfmt, quoting if necessary
func formatValue(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	// Quote if contains space, equals, or quotes
	if strings.ContainsAny(s, " =\"") {
		s = strings.ReplaceAll(s, "\"", "\\\"")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}

func (l *accessLogger) emit(parts []string, details []interface{}) {
	for i := 0; i+1 < len(details); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%s", details[i], formatValue(details[i+1])))
	}

	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 -0700")
	l.logger.Printf("%s %s", timestamp, strings.Join(parts, " "))
}

func (l *accessLogger) LogRequest(conn string, ip string, method string, path string, status int, details ...interface{}) {
	parts := []string{fmt.Sprintf("conn=%s", formatValue(conn))}
	if ip != "" {
		parts = append(parts, fmt.Sprintf("ip=%s", formatValue(ip)))
	}
	parts = append(parts,
		fmt.Sprintf("method=%s", formatValue(method)),
		fmt.Sprintf("path=%s", formatValue(path)),
		fmt.Sprintf("status=%d", status),
	)
	l.emit(parts, details)
}

func (l *accessLogger) LogAuth(conn string, login string, status string, details ...interface{}) {
	parts := []string{fmt.Sprintf("conn=%s", formatValue(conn)), "op=auth"}
	if login != "" {
		parts = append(parts, fmt.Sprintf("login=%s", formatValue(login)))
	}
	parts = append(parts, fmt.Sprintf("status=%s", formatValue(status)))
	l.emit(parts, details)
}
