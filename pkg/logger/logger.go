// Package logger wraps logrus with context-aware helpers.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/roguepikachu/snipsnap/pkg/ctxutil"
	"github.com/sirupsen/logrus"
)

// InitLogging configures the logger from LOG_LEVEL and LOG_FORMAT.
func InitLogging() {
	logrus.Info("configuring logger")
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "debug"
	}
	setLogLevel(logLevel)
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func setLogLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logrus.Infof("invalid LOG_LEVEL=[%s], defaulting to debug", level)
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	logrus.SetLevel(lvl)
	logrus.Infof("logging level set to %s", lvl)
}

// Sprintf formats like fmt.Sprintf but returns the format untouched when no args are given.
func Sprintf(format string, args ...any) string {
	if format == "" {
		return ""
	}
	if len(args) == 0 {
		return strings.ReplaceAll(format, "%%", "%")
	}
	return fmt.Sprintf(format, args...)
}

// entry returns a logrus entry carrying the request-scoped identifiers found in ctx.
func entry(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{}
	if ctx == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	if id := ctxutil.RequestID(ctx); id != "" {
		fields["request_id"] = id
	}
	if id := ctxutil.ClientID(ctx); id != "" {
		fields["client_id"] = id
	}
	if uid, ok := ctxutil.UserID(ctx); ok {
		fields["user_id"] = uid
	}
	return logrus.WithFields(fields)
}

// With returns an entry with the given fields plus the context identifiers.
func With(ctx context.Context, fields map[string]any) *logrus.Entry {
	e := entry(ctx)
	if len(fields) == 0 {
		return e
	}
	return e.WithFields(logrus.Fields(fields))
}

// WithField returns an entry with a single extra field.
func WithField(ctx context.Context, key string, value any) *logrus.Entry {
	return entry(ctx).WithField(key, value)
}

func Info(ctx context.Context, msg string, args ...any) {
	entry(ctx).Info(Sprintf(msg, args...))
}

func Debug(ctx context.Context, msg string, args ...any) {
	entry(ctx).Debug(Sprintf(msg, args...))
}

func Warn(ctx context.Context, msg string, args ...any) {
	entry(ctx).Warn(Sprintf(msg, args...))
}

func Error(ctx context.Context, msg string, args ...any) {
	entry(ctx).Error(Sprintf(msg, args...))
}

func Fatal(ctx context.Context, msg string, args ...any) {
	entry(ctx).Fatal(Sprintf(msg, args...))
}
