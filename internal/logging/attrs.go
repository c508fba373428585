// ABOUTME: Typed attribute helpers for structured log lines.
// ABOUTME: Keeps key names like run_id and error consistent across packages.
package logging

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Attr is a structured log attribute.
type Attr = slog.Attr

// Duration returns an attribute for an elapsed time.
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Float64 returns an attribute for a float value such as a threshold.
func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

// Int returns an attribute for a count.
func Int(key string, value int) Attr { return slog.Int(key, value) }

// String returns a string attribute.
func String(key string, value string) Attr { return slog.String(key, value) }

// RunID tags a log line with the matching run it belongs to.
func RunID(id uuid.UUID) Attr { return slog.String("run_id", id.String()) }

// Error returns an attribute under the "error" key. A nil error renders as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}
