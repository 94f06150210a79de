package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	once sync.Once
	base *slog.Logger
)

// Init configures the global logger exactly once: JSON to stdout plus a
// rotating file. Call from main before anything logs.
func Init(component, filePath string) *slog.Logger {
	once.Do(func() {
		_ = os.MkdirAll(filepath.Dir(filePath), 0o755)

		rot := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		mw := io.MultiWriter(os.Stdout, rot)

		h := slog.NewJSONHandler(mw, &slog.HandlerOptions{Level: slog.LevelInfo})
		base = slog.New(h).With("component", component)
	})
	return base
}

func Base() *slog.Logger {
	if base == nil {
		return Init("api", "./logs/api.log")
	}
	return base
}

// New returns a child logger tagged with a component name. It reuses the
// global handler and writer.
func New(component string) *slog.Logger {
	return Base().With("component", component)
}

// With stashes a request-scoped logger on the gin context; From retrieves
// it, falling back to the global logger when no middleware set one.
func With(c *gin.Context, l *slog.Logger) {
	c.Set("logger", l)
}

func From(c *gin.Context) *slog.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Base()
}
