// Package log provides category-scoped structured logging on top of logrus.
//
//	log.Debug(log.CatContainer, "service resolved", "name", "mailer")
//
// Fields are passed as alternating key/value pairs. A trailing key without a
// value is logged as "<missing>".
package log

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Category groups related log messages.
type Category string

const (
	CatContainer Category = "container" // definition registry and resolver
	CatProvider  Category = "provider"  // service provider registration and boot
	CatConfig    Category = "config"    // .env and parameter loading
	CatHTTP      Category = "http"      // router and kernel
)

var (
	mu     sync.RWMutex
	logger = newDefault()
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// SetLevel sets the minimum level from a name such as "debug" or "warn".
// Unknown names fall back to info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	mu.Lock()
	defer mu.Unlock()
	logger.SetLevel(lvl)
}

// SetFormatter replaces the logrus formatter (e.g. &logrus.JSONFormatter{}).
func SetFormatter(f logrus.Formatter) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetFormatter(f)
}

// Logger returns the underlying logrus logger.
func Logger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	entry(cat, fields).Debug(msg)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	entry(cat, fields).Info(msg)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	entry(cat, fields).Warn(msg)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	entry(cat, fields).Error(msg)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	entry(cat, fields).WithError(err).Error(msg)
}

func entry(cat Category, fields []any) *logrus.Entry {
	f := make(logrus.Fields, len(fields)/2+1)
	f["category"] = string(cat)
	for i := 0; i+1 < len(fields); i += 2 {
		f[fmt.Sprint(fields[i])] = fields[i+1]
	}
	if len(fields)%2 != 0 {
		f[fmt.Sprint(fields[len(fields)-1])] = "<missing>"
	}
	return Logger().WithFields(f)
}
