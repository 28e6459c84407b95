package bootstrap

import (
	"context"
	"fmt"
	"time"

	"partner-portal-backend/internal/sharepoint"
)

// unconfiguredTokens stands in when no SharePoint credentials are set in dev.
// Token acquisition fails the same way a bad credential does, so migration
// runs defer instead of crashing.
type unconfiguredTokens struct{}

func (unconfiguredTokens) Token(ctx context.Context, scope string) (string, time.Time, error) {
	return "", time.Time{}, &sharepoint.AuthError{Err: fmt.Errorf("sharepoint credentials not configured")}
}
