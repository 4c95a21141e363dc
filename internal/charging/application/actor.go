package application

import (
	"context"

	"evcharge-manager/internal/auth"
)

// actorFromContext names the actor for audit entries. Without auth the
// service runs in personal mode and everything is attributed to "local".
func actorFromContext(ctx context.Context) string {
	if subject := auth.SubjectFromContext(ctx); subject != "" {
		return subject
	}
	return "local"
}
