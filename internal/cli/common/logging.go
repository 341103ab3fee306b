package common

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/cuihairu/gamelink/internal/config"
	"github.com/zeromicro/go-zero/core/logx"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging points logx, slog and the std logger at one writer.
// format: console|json; level: debug|info|warn|error.
// If c.File != "", logs write to a rotating file.
func SetupLogging(c config.LoggingConfig) io.Writer {
	var w io.Writer = os.Stderr
	if strings.TrimSpace(c.File) != "" {
		w = &lumberjack.Logger{Filename: c.File, MaxSize: c.MaxSize, MaxBackups: c.MaxBackups, MaxAge: c.MaxAge, Compress: c.Compress}
	}
	asJSON := strings.ToLower(c.Format) == "json"

	lvl := slog.LevelInfo
	zl := logx.LogConf{Mode: "console", Level: "info", Encoding: "plain"}
	switch strings.ToLower(c.Level) {
	case "debug":
		lvl, zl.Level = slog.LevelDebug, "debug"
	case "warn":
		lvl, zl.Level = slog.LevelWarn, "error"
	case "error":
		lvl, zl.Level = slog.LevelError, "error"
	}
	if asJSON {
		zl.Encoding = "json"
	}
	// SetUp is once-only, so the rest server's own setup later keeps this writer.
	logx.MustSetup(zl)
	logx.SetWriter(logx.NewWriter(w))

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if asJSON {
		h = slog.NewJSONHandler(w, opts)
		log.SetFlags(0)
	} else {
		h = slog.NewTextHandler(w, opts)
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}
	slog.SetDefault(slog.New(h))
	log.SetOutput(w)
	return w
}
