package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-desk/internal/models"
)

type courseLister interface {
	List(ctx context.Context) ([]models.Course, error)
}

type badgeSource interface {
	Get(courseID int64) (models.ResultStatus, bool)
	Subscribe(fn func(models.BadgeEvent)) (unsubscribe func())
}

// CourseListItem is a course as shown in the course list.
type CourseListItem struct {
	models.Course
	StatusLabel string `json:"status_label,omitempty"`
	// Locked courses are with reviewers and do not open the editor.
	Locked bool `json:"locked"`
}

func newCourseListItem(course models.Course, status models.ResultStatus) CourseListItem {
	course.ResultStatus = status
	course.Students = nil
	item := CourseListItem{Course: course, Locked: status.Locked()}
	if status != models.StatusNone {
		item.StatusLabel = status.Label()
	}
	return item
}

// CourseService serves the course list and keeps its projection in step with
// the draft-status badges.
type CourseService struct {
	repo   courseLister
	badges badgeSource
	logger *zap.Logger

	mu          sync.RWMutex
	order       []int64
	items       map[int64]CourseListItem
	unsubscribe func()
}

// NewCourseService subscribes the course list projection to badge changes.
func NewCourseService(repo courseLister, badges badgeSource, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CourseService{
		repo:   repo,
		badges: badges,
		logger: logger,
		items:  make(map[int64]CourseListItem),
	}
	svc.unsubscribe = badges.Subscribe(svc.onBadge)
	return svc
}

// List fetches the courses and overlays the last known badge. A status sent
// by the service itself takes precedence over the cached one.
func (s *CourseService) List(ctx context.Context) ([]CourseListItem, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, remoteError(err, "Failed to load courses.")
	}

	order := make([]int64, 0, len(courses))
	items := make(map[int64]CourseListItem, len(courses))
	for _, course := range courses {
		status := course.ResultStatus
		if status == models.StatusNone {
			status, _ = s.badges.Get(course.ID)
		}
		order = append(order, course.ID)
		items[course.ID] = newCourseListItem(course, status)
	}

	s.mu.Lock()
	s.order = order
	s.items = items
	s.mu.Unlock()
	return s.Projection(), nil
}

// Projection returns the last listed courses with live badges, without
// contacting the service.
func (s *CourseService) Projection() []CourseListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CourseListItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Close detaches the projection from the badge cache.
func (s *CourseService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *CourseService) onBadge(event models.BadgeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.All {
		for id, item := range s.items {
			s.items[id] = newCourseListItem(item.Course, models.StatusNone)
		}
		return
	}
	item, ok := s.items[event.CourseID]
	if !ok {
		return
	}
	status := event.Status
	if event.Cleared {
		status = models.StatusNone
	}
	s.items[event.CourseID] = newCourseListItem(item.Course, status)
	s.logger.Debug("course badge updated", zap.Int64("course_id", event.CourseID), zap.String("status", string(status)))
}
