// Package job holds the cron jobs run by the web server.
package job

import (
	"context"
	"time"

	"github.com/cetep-lnab/ouvidoria/logger"
)

type sessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SessionCleanupJob deletes expired login sessions.
type SessionCleanupJob struct {
	sessions sessionPurger
	timeout  time.Duration
}

func NewSessionCleanupJob(sessions sessionPurger) *SessionCleanupJob {
	return &SessionCleanupJob{
		sessions: sessions,
		timeout:  time.Minute,
	}
}

func (j *SessionCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.sessions.PurgeExpired(ctx)
	if err != nil {
		logger.Warning("Failed to purge expired sessions:", err)
		return
	}
	if n > 0 {
		logger.Infof("Purged %d expired sessions", n)
	}
}
