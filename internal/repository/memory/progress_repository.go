package memory

import (
	"sync"
	"time"

	"exam-grading-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ProgressRepository keeps progress state in process memory. It backs the
// fallback tracker when the database is unavailable, so it must never
// return an error.
type ProgressRepository struct {
	sessions *cache.Cache
	mu       sync.Mutex
	updates  map[uuid.UUID][]*entity.ProgressUpdate
}

func NewProgressRepository(retention time.Duration) *ProgressRepository {
	if retention <= 0 {
		retention = 1 * time.Hour
	}
	return &ProgressRepository{
		sessions: cache.New(retention, 10*time.Minute),
		updates:  make(map[uuid.UUID][]*entity.ProgressUpdate),
	}
}

func (r *ProgressRepository) SaveSession(session *entity.ProgressSession) {
	copied := *session
	r.sessions.Set(session.Id.String(), &copied, cache.DefaultExpiration)
}

func (r *ProgressRepository) GetSession(id uuid.UUID) (*entity.ProgressSession, bool) {
	if x, found := r.sessions.Get(id.String()); found {
		copied := *x.(*entity.ProgressSession)
		return &copied, true
	}
	return nil, false
}

func (r *ProgressRepository) AppendUpdate(update *entity.ProgressUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *update
	r.updates[update.SessionId] = append(r.updates[update.SessionId], &copied)
}

func (r *ProgressRepository) ListUpdates(sessionId uuid.UUID) []*entity.ProgressUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.updates[sessionId]
	out := make([]*entity.ProgressUpdate, len(stored))
	copy(out, stored)
	return out
}

func (r *ProgressRepository) DeleteSession(id uuid.UUID) {
	r.sessions.Delete(id.String())
	r.mu.Lock()
	delete(r.updates, id)
	r.mu.Unlock()
}

// Sweep drops update logs for sessions that have already expired from
// the session cache.
func (r *ProgressRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id := range r.updates {
		if _, found := r.sessions.Get(id.String()); !found {
			delete(r.updates, id)
			removed++
		}
	}
	return removed
}
