package contract

import (
	"context"
	"time"

	"exam-grading-be/internal/entity"

	"github.com/google/uuid"
)

type ProgressRepository interface {
	CreateSession(ctx context.Context, session *entity.ProgressSession) error
	UpdateSession(ctx context.Context, session *entity.ProgressSession) error
	FindSession(ctx context.Context, id uuid.UUID) (*entity.ProgressSession, error)
	AppendUpdate(ctx context.Context, update *entity.ProgressUpdate) error
	// ListUpdates returns the session's updates in creation order.
	ListUpdates(ctx context.Context, sessionId uuid.UUID) ([]*entity.ProgressUpdate, error)
	// DeleteOlderThan removes terminal sessions (and their updates) not
	// touched since the cutoff. Returns the number of sessions removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
