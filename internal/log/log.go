package log

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Init routes slog through tint for the dev tooling. Library code never
// logs; only the inspector binary calls this.
func Init(level slog.Level) {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.StampMilli,
		}),
	))

	slog.SetLogLoggerLevel(level)
}
