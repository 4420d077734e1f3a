package scheduler

import (
	"context"

	"github.com/charmbracelet/log"
)

// Purger drops expired records and reports how many went.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeSessions removes expired sessions from store.
func PurgeSessions(store Purger, logger *log.Logger) Job {
	return Func("purge-sessions", func(ctx context.Context) error {
		n, err := store.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("purged expired sessions", "count", n)
		}
		return nil
	})
}
