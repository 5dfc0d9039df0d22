package gpu

import (
	"log/slog"

	"github.com/gogpu/pixview"
)

// slogger returns the current package logger.
// All logging in internal/gpu goes through this function so that
// pixview.SetLogger takes effect immediately.
func slogger() *slog.Logger { return pixview.Logger() }
