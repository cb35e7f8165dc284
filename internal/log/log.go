package log

import (
	"os"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pixcards/internal/domain"
)

var global atomic.Pointer[zap.Logger]

func init() { global.Store(zap.NewNop()) }

// SetLogger replaces the logger used by the request helpers below.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l)
}

func L() *zap.Logger { return global.Load() }

// New builds a JSON logger for prod and a console logger otherwise. A non-empty file adds
// a second JSON sink.
func New(level, env, file string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if file == "" {
		return logger, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(f), lvl)
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})), nil
}

func requestFields(c *fiber.Ctx, action string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, 8+len(fields))
	out = append(out, zap.String("action", action))
	if c != nil {
		out = append(out,
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			out = append(out, zap.String("req_id", rid))
		}
		if id, ok := c.Locals("identity").(domain.Identity); ok && id.UserID != "" {
			out = append(out, zap.String("user_id", id.UserID))
		}
	}
	if len(fields) > 0 {
		out = append(out, zap.Any("fields", fields))
	}
	return out
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	L().Info(action, requestFields(c, action, fields)...)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	L().Info(action, append(requestFields(c, action, fields), zap.String("category", "audit"))...)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	L().Warn(action, append(requestFields(c, action, fields), zap.String("category", "security"))...)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	L().Error(action, append(requestFields(c, action, fields), zap.Error(err))...)
}
