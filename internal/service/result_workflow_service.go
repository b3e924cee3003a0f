package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
	"github.com/noah-isme/sma-result-desk/pkg/jobs"
)

const (
	reasonRequiredMessage = "Please provide a reason for editing this result."
	fixErrorsMessage      = "Please fix the validation errors before submitting."
	draftWarningNotice    = "Warning: Some validation errors exist. You can still save the draft, but please fix errors before submitting."
	noResultMessage       = "No result found for this course"
	noStudentsMessage     = "No students are enrolled in this course."

	// RefreshJobType identifies status reconciliation jobs.
	RefreshJobType = "result_status_refresh"

	defaultBatchConcurrency = 8
)

var actionNotices = map[models.ResultAction]string{
	models.ActionCreate:        "Result created successfully! You can now enter student scores.",
	models.ActionSaveDraft:     "Draft saved successfully!",
	models.ActionSubmit:        "Results submitted successfully!",
	models.ActionResubmit:      "Results submitted successfully!",
	models.ActionApprove:       "Result approved successfully!",
	models.ActionReject:        "Result rejected successfully!",
	models.ActionProcess:       "Result processed successfully!",
	models.ActionSetCorrection: "Result marked as Correction (C) successfully!",
}

type workflowCourseRepository interface {
	Get(ctx context.Context, courseID int64) (*models.Course, error)
	ListStudents(ctx context.Context, courseID int64) ([]models.StudentRef, error)
}

type workflowResultRepository interface {
	ListForCourse(ctx context.Context, courseID int64) ([]models.Result, error)
	Create(ctx context.Context, courseID int64) (*models.Result, error)
	ListAssessments(ctx context.Context, courseID, resultID int64) ([]models.Assessment, error)
	UpdateAssessment(ctx context.Context, courseID, resultID, assessmentID int64, update models.AssessmentUpdate) error
	Transition(ctx context.Context, courseID, resultID int64, action models.ResultAction) error
}

type limitsProvider interface {
	Limits() *models.CALimits
}

type badgeSetter interface {
	Set(ctx context.Context, courseID int64, status models.ResultStatus) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type workflowMetrics interface {
	RecordTransition(action string, err error)
	RecordBatch(succeeded, failed int)
}

// WorkspaceView is the editor's picture of one course's current result.
type WorkspaceView struct {
	Course         models.Course       `json:"course"`
	Result         *models.Result      `json:"result,omitempty"`
	Status         models.ResultStatus `json:"status"`
	StatusLabel    string              `json:"status_label"`
	Rows           []models.ScoreRow   `json:"rows"`
	Capabilities   Capabilities        `json:"capabilities"`
	ConfigLoaded   bool                `json:"config_loaded"`
	ErrorCount     int                 `json:"error_count"`
	Dirty          bool                `json:"dirty"`
	ReasonRequired bool                `json:"reason_required"`
}

// Outcome is the workspace after a successful action plus the notice to show.
type Outcome struct {
	Workspace *WorkspaceView
	Notice    string
}

// workspace is the local state of one opened course. All fields are guarded
// by mu; the result service stays authoritative.
type workspace struct {
	mu     sync.Mutex
	course models.Course
	result *models.Result
	rows   []models.Assessment
	dirty  map[string]bool
}

func (w *workspace) status() models.ResultStatus {
	if w.result == nil {
		return models.StatusNone
	}
	return w.result.Status
}

func (w *workspace) indexOf(studentKey string) int {
	for i, row := range w.rows {
		if row.Student.Key() == studentKey {
			return i
		}
	}
	return -1
}

// reasonRequired is true when a previously submitted draft or rejected result
// is being edited again.
func (w *workspace) reasonRequired() bool {
	status := w.status()
	return (status == models.StatusDraft || status == models.StatusRejected) && w.result.PreviouslySubmitted()
}

func (w *workspace) hasUnsyncedRows() bool {
	for _, row := range w.rows {
		if row.ID == 0 {
			return true
		}
	}
	return false
}

// ResultWorkflowService drives the result lifecycle for the courses a user
// has opened: it loads results, applies score edits locally and performs
// lifecycle actions against the result service.
type ResultWorkflowService struct {
	courses     workflowCourseRepository
	results     workflowResultRepository
	limits      limitsProvider
	badges      badgeSetter
	metrics     workflowMetrics
	logger      *zap.Logger
	concurrency int
	refresh     jobEnqueuer

	mu         sync.Mutex
	workspaces map[int64]*workspace
}

// NewResultWorkflowService wires the workflow. concurrency bounds the
// per-student update fan-out.
func NewResultWorkflowService(courses workflowCourseRepository, results workflowResultRepository, limits limitsProvider, badges badgeSetter, metrics workflowMetrics, concurrency int, logger *zap.Logger) *ResultWorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	return &ResultWorkflowService{
		courses:     courses,
		results:     results,
		limits:      limits,
		badges:      badges,
		metrics:     metrics,
		logger:      logger,
		concurrency: concurrency,
		workspaces:  make(map[int64]*workspace),
	}
}

// SetRefreshQueue attaches the queue used to reconcile statuses after actions.
func (s *ResultWorkflowService) SetRefreshQueue(queue jobEnqueuer) {
	s.refresh = queue
}

// Open fetches the course, its current result and that result's assessments,
// strictly in that order. Without a result the enrolled students are listed
// instead so the lecturer can start entering scores.
func (s *ResultWorkflowService) Open(ctx context.Context, user *models.User, courseID int64) (*WorkspaceView, error) {
	if user == nil {
		return nil, appErrors.ErrUnauthorized
	}
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, remoteError(err, "Failed to load course.")
	}
	results, err := s.results.ListForCourse(ctx, courseID)
	if err != nil {
		return nil, remoteError(err, "Failed to load results.")
	}

	ws := &workspace{course: *course, dirty: make(map[string]bool)}
	if len(results) > 0 {
		current := results[0]
		ws.result = &current
		rows, err := s.results.ListAssessments(ctx, courseID, current.ID)
		if err != nil {
			return nil, remoteError(err, "Failed to load assessments.")
		}
		ws.rows = rows
	} else {
		students := course.Students
		if len(students) == 0 {
			students, err = s.courses.ListStudents(ctx, courseID)
			if err != nil {
				return nil, remoteError(err, "Failed to load enrolled students.")
			}
		}
		ws.rows = rowsForStudents(students)
	}

	view := s.buildView(user, ws)
	s.mu.Lock()
	s.workspaces[courseID] = ws
	s.mu.Unlock()

	if ws.result != nil {
		s.setBadge(ctx, courseID, ws.result.Status)
	}
	s.logger.Debug("result workspace opened", zap.Int64("course_id", courseID), zap.String("status", string(ws.status())), zap.Int("rows", len(ws.rows)))
	return view, nil
}

// View returns the opened workspace without contacting the service.
func (s *ResultWorkflowService) View(user *models.User, courseID int64) (*WorkspaceView, error) {
	ws, err := s.workspaceFor(courseID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return s.buildView(user, ws), nil
}

// Close forgets a workspace, discarding unsaved edits.
func (s *ResultWorkflowService) Close(courseID int64) {
	s.mu.Lock()
	delete(s.workspaces, courseID)
	s.mu.Unlock()
}

// UpdateScore applies one student's marks to local state. Nothing is sent
// until the draft is saved.
func (s *ResultWorkflowService) UpdateScore(user *models.User, courseID int64, studentKey string, scores models.Scores) (*WorkspaceView, error) {
	ws, err := s.workspaceFor(courseID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if user == nil || !ResolvePermissions(SubjectFor(user, &ws.course), ws.status()).CanEdit {
		return nil, appErrors.Clone(appErrors.ErrTransitionNotAllowed, "scores cannot be edited by your role while the result is "+ws.status().Label())
	}
	idx := ws.indexOf(studentKey)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not part of this result")
	}
	ws.rows[idx].Scores = scores
	ws.dirty[studentKey] = true
	return s.buildView(user, ws), nil
}

// Create opens a new result for a course that has none.
func (s *ResultWorkflowService) Create(ctx context.Context, user *models.User, courseID int64) (outcome *Outcome, err error) {
	defer func() { s.recordTransition(models.ActionCreate, err) }()

	ws, err := s.workspaceFor(courseID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	t, err := s.authorize(user, ws, models.ActionCreate)
	if err != nil {
		return nil, err
	}
	if len(ws.rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, noStudentsMessage)
	}
	if err = s.createLocked(ctx, ws); err != nil {
		return nil, remoteError(err, t.Fallback)
	}
	s.completeLocked(ctx, ws, t)
	return &Outcome{Workspace: s.buildView(user, ws), Notice: actionNotices[t.Action]}, nil
}

// SaveDraft sends every row's marks. Validation problems do not block the
// save. Re-editing a previously submitted result requires a reason.
func (s *ResultWorkflowService) SaveDraft(ctx context.Context, user *models.User, courseID int64, reason string) (outcome *Outcome, err error) {
	defer func() { s.recordTransition(models.ActionSaveDraft, err) }()

	ws, err := s.workspaceFor(courseID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	t, err := s.authorize(user, ws, models.ActionSaveDraft)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	withReason := ws.reasonRequired()
	if withReason && reason == "" {
		return nil, appErrors.Clone(appErrors.ErrReasonRequired, reasonRequiredMessage)
	}
	if !withReason {
		reason = ""
	}

	if ws.result == nil {
		if len(ws.rows) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, noStudentsMessage)
		}
		create, _ := lookupTransition(models.ActionCreate, models.StatusNone)
		if err = s.createLocked(ctx, ws); err != nil {
			return nil, remoteError(err, create.Fallback)
		}
	} else if ws.hasUnsyncedRows() {
		if err = s.syncAssessmentsLocked(ctx, ws); err != nil {
			return nil, remoteError(err, t.Fallback)
		}
	}

	if err = s.patchRowsLocked(ctx, ws, ws.rows, reason, t.Fallback); err != nil {
		return nil, err
	}
	s.completeLocked(ctx, ws, t)

	view := s.buildView(user, ws)
	notice := actionNotices[t.Action]
	if view.ErrorCount > 0 {
		notice = draftWarningNotice
	}
	return &Outcome{Workspace: view, Notice: notice}, nil
}

// Apply performs submit, resubmit, approve, reject, process or
// set_correction. Submission is refused locally while any row fails
// validation, and unsaved edits are sent first. The local status only
// changes after the service accepts the action.
func (s *ResultWorkflowService) Apply(ctx context.Context, user *models.User, courseID int64, action models.ResultAction) (outcome *Outcome, err error) {
	defer func() { s.recordTransition(action, err) }()

	switch action {
	case models.ActionCreate, models.ActionSaveDraft:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s has its own endpoint", action))
	}

	ws, err := s.workspaceFor(courseID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	t, err := s.authorize(user, ws, action)
	if err != nil {
		return nil, err
	}
	if ws.result == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, noResultMessage)
	}

	if t.RequiresValidScores {
		limits := s.limits.Limits()
		if limits == nil {
			return nil, appErrors.ErrConfigNotLoaded
		}
		if problems := rowProblems(ws.rows, *limits); len(problems) > 0 {
			return nil, appErrors.WithDetails(appErrors.ErrValidation, fixErrorsMessage, problems)
		}
		if pending := ws.dirtyRows(); len(pending) > 0 {
			if err = s.patchRowsLocked(ctx, ws, pending, "", t.Fallback); err != nil {
				return nil, err
			}
		}
	}

	if err = s.results.Transition(ctx, courseID, ws.result.ID, t.Action); err != nil {
		s.logger.Warn("result action rejected", zap.Int64("course_id", courseID), zap.String("action", string(t.Action)), zap.Error(err))
		return nil, remoteError(err, t.Fallback)
	}
	s.completeLocked(ctx, ws, t)
	return &Outcome{Workspace: s.buildView(user, ws), Notice: actionNotices[t.Action]}, nil
}

// HandleRefresh is the jobs.Handler reconciling a course's badge with the
// service after an action.
func (s *ResultWorkflowService) HandleRefresh(ctx context.Context, job jobs.Job) error {
	courseID, ok := job.Payload.(int64)
	if !ok {
		return fmt.Errorf("refresh job %s: unexpected payload %T", job.ID, job.Payload)
	}
	return s.Reconcile(ctx, courseID)
}

// Reconcile re-reads the course's current result and lets the server's
// status win over the local one.
func (s *ResultWorkflowService) Reconcile(ctx context.Context, courseID int64) error {
	results, err := s.results.ListForCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("reconcile course %d: %w", courseID, err)
	}
	if len(results) == 0 {
		return nil
	}
	current := results[0]

	s.mu.Lock()
	ws := s.workspaces[courseID]
	s.mu.Unlock()
	if ws != nil {
		ws.mu.Lock()
		if ws.result != nil && ws.result.ID == current.ID && ws.result.Status != current.Status {
			s.logger.Info("result status reconciled", zap.Int64("course_id", courseID), zap.String("local", string(ws.result.Status)), zap.String("remote", string(current.Status)))
			ws.result.Status = current.Status
			ws.result.SubmittedAt = current.SubmittedAt
		}
		ws.mu.Unlock()
	}
	return s.badges.Set(ctx, courseID, current.Status)
}

func (s *ResultWorkflowService) workspaceFor(courseID int64) (*workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[courseID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course result is not open")
	}
	return ws, nil
}

func (s *ResultWorkflowService) authorize(user *models.User, ws *workspace, action models.ResultAction) (transition, error) {
	if user == nil {
		return transition{}, appErrors.ErrUnauthorized
	}
	return allowedTransition(SubjectFor(user, &ws.course), action, ws.status())
}

func (s *ResultWorkflowService) createLocked(ctx context.Context, ws *workspace) error {
	result, err := s.results.Create(ctx, ws.course.ID)
	if err != nil {
		return err
	}
	if result.Status == models.StatusNone {
		result.Status = models.StatusDraft
	}
	ws.result = result
	s.setBadge(ctx, ws.course.ID, result.Status)
	return s.syncAssessmentsLocked(ctx, ws)
}

// syncAssessmentsLocked replaces local rows with the service's assessments,
// carrying edited marks across by student reference.
func (s *ResultWorkflowService) syncAssessmentsLocked(ctx context.Context, ws *workspace) error {
	fresh, err := s.results.ListAssessments(ctx, ws.course.ID, ws.result.ID)
	if err != nil {
		return err
	}
	edited := make(map[string]models.Scores, len(ws.dirty))
	for _, row := range ws.rows {
		if key := row.Student.Key(); ws.dirty[key] {
			edited[key] = row.Scores
		}
	}
	for i := range fresh {
		if scores, ok := edited[fresh[i].Student.Key()]; ok {
			fresh[i].Scores = scores
		}
	}
	ws.rows = fresh
	return nil
}

// patchRowsLocked sends rows concurrently. The batch only succeeds when every
// update does; rows that were saved stay saved when others fail.
func (s *ResultWorkflowService) patchRowsLocked(ctx context.Context, ws *workspace, rows []models.Assessment, reason, fallback string) error {
	courseID, resultID := ws.course.ID, ws.result.ID
	failed, errs := runBatch(s.concurrency, len(rows), func(i int) error {
		update := models.AssessmentUpdate{Scores: rows[i].Scores, CorrectionReason: reason}
		return s.results.UpdateAssessment(ctx, courseID, resultID, rows[i].ID, update)
	})

	for i, row := range rows {
		if !failed[i] {
			delete(ws.dirty, row.Student.Key())
		}
	}
	if s.metrics != nil {
		s.metrics.RecordBatch(len(rows)-len(failed), len(failed))
	}
	return batchError(errs, len(rows), len(failed), fallback)
}

// completeLocked applies a confirmed transition locally and propagates it.
func (s *ResultWorkflowService) completeLocked(ctx context.Context, ws *workspace, t transition) {
	ws.result.Status = t.To
	s.setBadge(ctx, ws.course.ID, t.To)
	s.enqueueRefresh(ws.course.ID)
	s.logger.Info("result action applied",
		zap.Int64("course_id", ws.course.ID),
		zap.Int64("result_id", ws.result.ID),
		zap.String("action", string(t.Action)),
		zap.String("from", string(t.From)),
		zap.String("to", string(t.To)),
	)
}

func (s *ResultWorkflowService) setBadge(ctx context.Context, courseID int64, status models.ResultStatus) {
	if s.badges == nil {
		return
	}
	if err := s.badges.Set(ctx, courseID, status); err != nil {
		s.logger.Warn("failed to update draft status badge", zap.Int64("course_id", courseID), zap.Error(err))
	}
}

func (s *ResultWorkflowService) enqueueRefresh(courseID int64) {
	if s.refresh == nil {
		return
	}
	job := jobs.Job{Key: fmt.Sprintf("refresh:%d", courseID), Type: RefreshJobType, Payload: courseID}
	if err := s.refresh.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue status refresh", zap.Int64("course_id", courseID), zap.Error(err))
	}
}

func (s *ResultWorkflowService) recordTransition(action models.ResultAction, err error) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(action), err)
	}
}

func (s *ResultWorkflowService) buildView(user *models.User, ws *workspace) *WorkspaceView {
	limits := s.limits.Limits()
	status := ws.status()

	rows := make([]models.ScoreRow, len(ws.rows))
	errorCount := 0
	for i, a := range ws.rows {
		row := DeriveRow(a, limits)
		row.Dirty = ws.dirty[a.Student.Key()]
		if row.Error != "" {
			errorCount++
		}
		rows[i] = row
	}

	course := ws.course
	course.ResultStatus = status
	var result *models.Result
	if ws.result != nil {
		copied := *ws.result
		result = &copied
	}

	view := &WorkspaceView{
		Course:         course,
		Result:         result,
		Status:         status,
		StatusLabel:    status.Label(),
		Rows:           rows,
		ConfigLoaded:   limits != nil,
		ErrorCount:     errorCount,
		Dirty:          len(ws.dirty) > 0,
		ReasonRequired: ws.reasonRequired(),
	}
	if user != nil {
		view.Capabilities = ResolvePermissions(SubjectFor(user, &ws.course), status)
	}
	return view
}

func (w *workspace) dirtyRows() []models.Assessment {
	var rows []models.Assessment
	for _, row := range w.rows {
		if w.dirty[row.Student.Key()] {
			rows = append(rows, row)
		}
	}
	return rows
}

func rowsForStudents(students []models.StudentRef) []models.Assessment {
	rows := make([]models.Assessment, 0, len(students))
	for _, student := range students {
		rows = append(rows, models.Assessment{Student: student})
	}
	return rows
}

// rowProblems maps student keys to their validation message.
func rowProblems(rows []models.Assessment, limits models.CALimits) map[string]string {
	problems := make(map[string]string)
	for _, row := range rows {
		if msg := ValidateScores(row.Scores, limits); msg != "" {
			problems[row.Student.Key()] = msg
		}
	}
	return problems
}
