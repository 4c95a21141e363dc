package audit

import (
	"context"
	"time"
)

// Entry represents one audit log entry.
type Entry struct {
	Timestamp time.Time
	Actor     string
	Action    string
	Detail    string
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}
