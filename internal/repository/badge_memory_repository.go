package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/sma-result-desk/internal/models"
)

// MemoryBadgeRepository is a process-local badge store used when
// BADGE_STORE=memory; badges are lost on restart.
type MemoryBadgeRepository struct {
	mu     sync.Mutex
	badges map[int64]models.DraftStatusBadge
}

// NewMemoryBadgeRepository constructs an empty store.
func NewMemoryBadgeRepository() *MemoryBadgeRepository {
	return &MemoryBadgeRepository{badges: make(map[int64]models.DraftStatusBadge)}
}

// List returns the stored badges ordered by course.
func (m *MemoryBadgeRepository) List(ctx context.Context) ([]models.DraftStatusBadge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.DraftStatusBadge, 0, len(m.badges))
	for _, b := range m.badges {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}

// Upsert stores the badge.
func (m *MemoryBadgeRepository) Upsert(ctx context.Context, badge models.DraftStatusBadge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if badge.UpdatedAt.IsZero() {
		badge.UpdatedAt = time.Now().UTC()
	}
	m.badges[badge.CourseID] = badge
	return nil
}

// Delete removes one badge.
func (m *MemoryBadgeRepository) Delete(ctx context.Context, courseID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.badges, courseID)
	return nil
}

// DeleteAll empties the store.
func (m *MemoryBadgeRepository) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.badges = make(map[int64]models.DraftStatusBadge)
	return nil
}
