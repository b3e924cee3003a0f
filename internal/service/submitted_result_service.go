package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

const (
	correctionsSavedNotice  = "Scores updated successfully!"
	correctionsFailed       = "Failed to save score corrections."
	fixErrorsBeforeSaving   = "Please fix the validation errors before saving."
	resubmittedNotice       = "Result resubmitted successfully! Status changed to Pending Department."
	resubmitFailed          = "Failed to resubmit result."
	submittedListFailed     = "Failed to load submitted results."
	submittedDetailFailed   = "Failed to load submitted result data."
	submittedCourseFallback = "Course %d"
)

type submittedResultRepository interface {
	List(ctx context.Context, filter models.SubmittedResultFilter) ([]models.SubmittedResult, error)
	Get(ctx context.Context, id int64) (*models.SubmittedResult, error)
	UpdateStatus(ctx context.Context, id int64, status models.ResultStatus) error
	Transition(ctx context.Context, id int64, action models.ResultAction) error
	ListScores(ctx context.Context, id int64) ([]models.Assessment, error)
	UpdateScore(ctx context.Context, id, scoreID int64, update models.AssessmentUpdate) error
}

type courseGetter interface {
	Get(ctx context.Context, courseID int64) (*models.Course, error)
}

// SubmittedResultDetail is one submitted result with its score rows.
type SubmittedResultDetail struct {
	Result       models.SubmittedResult `json:"result"`
	StatusLabel  string                 `json:"status_label"`
	Rows         []models.ScoreRow      `json:"rows"`
	Capabilities Capabilities           `json:"capabilities"`
	ConfigLoaded bool                   `json:"config_loaded"`
	ErrorCount   int                    `json:"error_count"`
}

// ScoreCorrection is one corrected score row.
type ScoreCorrection struct {
	ScoreID int64
	Scores  models.Scores
}

// ReviewOutcome is a submitted result after a reviewer action.
type ReviewOutcome struct {
	Result models.SubmittedResult
	Notice string
}

// SubmittedResultService backs the reviewer dashboard. Its actions go through
// the same lifecycle table as the course editor.
type SubmittedResultService struct {
	repo        submittedResultRepository
	courses     courseGetter
	limits      limitsProvider
	badges      badgeSetter
	metrics     workflowMetrics
	concurrency int
	logger      *zap.Logger
}

// NewSubmittedResultService constructs the service.
func NewSubmittedResultService(repo submittedResultRepository, courses courseGetter, limits limitsProvider, badges badgeSetter, metrics workflowMetrics, concurrency int, logger *zap.Logger) *SubmittedResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	return &SubmittedResultService{
		repo:        repo,
		courses:     courses,
		limits:      limits,
		badges:      badges,
		metrics:     metrics,
		concurrency: concurrency,
		logger:      logger,
	}
}

// List returns the submitted results enriched with course names. A course
// that cannot be fetched is shown as "Course <id>".
func (s *SubmittedResultService) List(ctx context.Context, filter models.SubmittedResultFilter) ([]models.SubmittedResult, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, remoteError(err, submittedListFailed)
	}
	if filter.Status != models.StatusNone {
		kept := items[:0]
		for _, item := range items {
			if item.Status == filter.Status {
				kept = append(kept, item)
			}
		}
		items = kept
	}

	courseIDs := make([]int64, 0, len(items))
	seen := make(map[int64]bool)
	for _, item := range items {
		if !seen[item.CourseID] {
			seen[item.CourseID] = true
			courseIDs = append(courseIDs, item.CourseID)
		}
	}

	var mu sync.Mutex
	courses := make(map[int64]*models.Course, len(courseIDs))
	_, _ = runBatch(s.concurrency, len(courseIDs), func(i int) error {
		course, err := s.courses.Get(ctx, courseIDs[i])
		if err != nil {
			s.logger.Debug("course lookup failed", zap.Int64("course_id", courseIDs[i]), zap.Error(err))
			return err
		}
		mu.Lock()
		courses[courseIDs[i]] = course
		mu.Unlock()
		return nil
	})

	for i := range items {
		enrich(&items[i], courses[items[i].CourseID])
	}
	return items, nil
}

// CountByStatus tallies results per status.
func CountByStatus(items []models.SubmittedResult) models.StatusCounts {
	counts := make(models.StatusCounts)
	for _, item := range items {
		counts[item.Status]++
	}
	return counts
}

// Detail loads one submitted result and all of its score rows.
func (s *SubmittedResultService) Detail(ctx context.Context, user *models.User, id int64) (*SubmittedResultDetail, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	scores, err := s.repo.ListScores(ctx, id)
	if err != nil {
		return nil, remoteError(err, submittedDetailFailed)
	}

	limits := s.limits.Limits()
	detail := &SubmittedResultDetail{
		Result:       *item,
		StatusLabel:  item.Status.Label(),
		Rows:         make([]models.ScoreRow, len(scores)),
		Capabilities: ResolvePermissions(reviewSubject(user, item), item.Status),
		ConfigLoaded: limits != nil,
	}
	for i, a := range scores {
		detail.Rows[i] = DeriveRow(a, limits)
		if detail.Rows[i].Error != "" {
			detail.ErrorCount++
		}
	}
	return detail, nil
}

// Review approves or rejects a result. Approve means approve at P_D and
// process at P_F; the target status comes from the lifecycle table.
func (s *SubmittedResultService) Review(ctx context.Context, user *models.User, id int64, decision models.ReviewDecision) (outcome *ReviewOutcome, err error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	action := models.ActionReject
	switch decision {
	case models.DecisionApprove:
		action = models.ActionApprove
		if item.Status == models.StatusPendingFaculty {
			action = models.ActionProcess
		}
	case models.DecisionReject:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown review decision %q", decision))
	}
	defer func() { s.recordTransition(action, err) }()

	t, err := allowedTransition(reviewSubject(user, item), action, item.Status)
	if err != nil {
		return nil, err
	}
	if err = s.repo.UpdateStatus(ctx, id, t.To); err != nil {
		return nil, remoteError(err, t.Fallback)
	}
	item.Status = t.To
	s.setBadge(ctx, item.CourseID, t.To)

	verb := "Approved"
	if decision == models.DecisionReject {
		verb = "Rejected"
	}
	return &ReviewOutcome{Result: *item, Notice: fmt.Sprintf("%s successfully. Status: %s", verb, t.To.Label())}, nil
}

// SetCorrection reopens an approved result for correction.
func (s *SubmittedResultService) SetCorrection(ctx context.Context, user *models.User, id int64) (outcome *ReviewOutcome, err error) {
	defer func() { s.recordTransition(models.ActionSetCorrection, err) }()

	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := allowedTransition(reviewSubject(user, item), models.ActionSetCorrection, item.Status)
	if err != nil {
		return nil, err
	}
	if err = s.repo.Transition(ctx, id, t.Action); err != nil {
		return nil, remoteError(err, t.Fallback)
	}
	item.Status = t.To
	s.setBadge(ctx, item.CourseID, t.To)
	return &ReviewOutcome{Result: *item, Notice: actionNotices[t.Action]}, nil
}

// SaveCorrections patches corrected score rows. A reason is mandatory and
// every row must pass validation.
func (s *SubmittedResultService) SaveCorrections(ctx context.Context, user *models.User, id int64, corrections []ScoreCorrection, reason string) (outcome *ReviewOutcome, err error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ResolvePermissions(reviewSubject(user, item), item.Status).CanEdit {
		return nil, appErrors.Clone(appErrors.ErrTransitionNotAllowed, "scores cannot be corrected by your role while the result is "+item.Status.Label())
	}

	limits := s.limits.Limits()
	if limits == nil {
		return nil, appErrors.ErrConfigNotLoaded
	}
	problems := make(map[int64]string)
	for _, c := range corrections {
		if msg := ValidateScores(c.Scores, *limits); msg != "" {
			problems[c.ScoreID] = msg
		}
	}
	if len(problems) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, fixErrorsBeforeSaving, problems)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrReasonRequired, reasonRequiredMessage)
	}

	failed, errs := runBatch(s.concurrency, len(corrections), func(i int) error {
		update := models.AssessmentUpdate{Scores: corrections[i].Scores, CorrectionReason: reason}
		return s.repo.UpdateScore(ctx, id, corrections[i].ScoreID, update)
	})
	if s.metrics != nil {
		s.metrics.RecordBatch(len(corrections)-len(failed), len(failed))
	}
	if err := batchError(errs, len(corrections), len(failed), correctionsFailed); err != nil {
		return nil, err
	}
	return &ReviewOutcome{Result: *item, Notice: correctionsSavedNotice}, nil
}

// Resubmit sends a corrected result back to the department.
func (s *SubmittedResultService) Resubmit(ctx context.Context, user *models.User, id int64) (outcome *ReviewOutcome, err error) {
	defer func() { s.recordTransition(models.ActionResubmit, err) }()

	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := allowedTransition(reviewSubject(user, item), models.ActionResubmit, item.Status)
	if err != nil {
		return nil, err
	}

	limits := s.limits.Limits()
	if limits == nil {
		return nil, appErrors.ErrConfigNotLoaded
	}
	scores, err := s.repo.ListScores(ctx, id)
	if err != nil {
		return nil, remoteError(err, resubmitFailed)
	}
	if problems := ValidationErrors(scores, limits); len(problems) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, fixErrorsMessage, problems)
	}

	if err = s.repo.UpdateStatus(ctx, id, t.To); err != nil {
		return nil, remoteError(err, resubmitFailed)
	}
	item.Status = t.To
	s.setBadge(ctx, item.CourseID, t.To)
	return &ReviewOutcome{Result: *item, Notice: resubmittedNotice}, nil
}

func (s *SubmittedResultService) load(ctx context.Context, id int64) (*models.SubmittedResult, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, remoteError(err, submittedDetailFailed)
	}
	course, err := s.courses.Get(ctx, item.CourseID)
	if err != nil {
		s.logger.Debug("course lookup failed", zap.Int64("course_id", item.CourseID), zap.Error(err))
		course = nil
	}
	enrich(item, course)
	return item, nil
}

func (s *SubmittedResultService) setBadge(ctx context.Context, courseID int64, status models.ResultStatus) {
	if s.badges == nil || courseID == 0 {
		return
	}
	if err := s.badges.Set(ctx, courseID, status); err != nil {
		s.logger.Warn("failed to update draft status badge", zap.Int64("course_id", courseID), zap.Error(err))
	}
}

func (s *SubmittedResultService) recordTransition(action models.ResultAction, err error) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(action), err)
	}
}

func enrich(item *models.SubmittedResult, course *models.Course) {
	if course == nil {
		if item.CourseName == "" {
			item.CourseName = fmt.Sprintf(submittedCourseFallback, item.CourseID)
		}
		return
	}
	item.CourseName = course.Name
	if course.Code != "" {
		item.CourseCode = course.Code
	}
	if course.Lecturer != nil {
		item.Lecturer = course.Lecturer
	}
}

// reviewSubject builds the acting subject from the lecturer attached to a
// submitted result.
func reviewSubject(user *models.User, item *models.SubmittedResult) Subject {
	course := models.Course{ID: item.CourseID, Lecturer: item.Lecturer}
	if course.Lecturer == nil && item.LecturerID != nil {
		course.Lecturer = &models.Lecturer{ID: *item.LecturerID, IsActive: true}
	}
	return SubjectFor(user, &course)
}
