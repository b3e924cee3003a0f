package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/internal/repository"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
	"github.com/noah-isme/sma-result-desk/pkg/jobs"
)

type workflowCourseStub struct {
	course   models.Course
	students []models.StudentRef
	calls    int
}

func (s *workflowCourseStub) Get(ctx context.Context, courseID int64) (*models.Course, error) {
	s.calls++
	c := s.course
	return &c, nil
}

func (s *workflowCourseStub) ListStudents(ctx context.Context, courseID int64) ([]models.StudentRef, error) {
	s.calls++
	return s.students, nil
}

type workflowResultStub struct {
	mu            sync.Mutex
	results       []models.Result
	assessments   []models.Assessment
	created       *models.Result
	updateErrs    map[int64]error
	transitionErr error

	calls       int
	updates     map[int64]models.AssessmentUpdate
	transitions []models.ResultAction
}

func (s *workflowResultStub) ListForCourse(ctx context.Context, courseID int64) ([]models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return append([]models.Result(nil), s.results...), nil
}

func (s *workflowResultStub) Create(ctx context.Context, courseID int64) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	r := *s.created
	return &r, nil
}

func (s *workflowResultStub) ListAssessments(ctx context.Context, courseID, resultID int64) ([]models.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return append([]models.Assessment(nil), s.assessments...), nil
}

func (s *workflowResultStub) UpdateAssessment(ctx context.Context, courseID, resultID, assessmentID int64, update models.AssessmentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := s.updateErrs[assessmentID]; err != nil {
		return err
	}
	if s.updates == nil {
		s.updates = make(map[int64]models.AssessmentUpdate)
	}
	s.updates[assessmentID] = update
	return nil
}

func (s *workflowResultStub) Transition(ctx context.Context, courseID, resultID int64, action models.ResultAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.transitionErr != nil {
		return s.transitionErr
	}
	s.transitions = append(s.transitions, action)
	return nil
}

func (s *workflowResultStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type staticLimits struct {
	limits *models.CALimits
}

func (s staticLimits) Limits() *models.CALimits { return s.limits }

type enqueuerStub struct {
	jobs []jobs.Job
}

func (e *enqueuerStub) Enqueue(job jobs.Job) error {
	e.jobs = append(e.jobs, job)
	return nil
}

func int64Ptr(v int64) *int64 { return &v }

func lecturerUser() *models.User {
	return &models.User{ID: 1, Username: "lecturer", IsLecturer: true}
}

func workflowCourse() models.Course {
	return models.Course{
		ID:       42,
		Name:     "Data Structures",
		Code:     "CSC201",
		Lecturer: &models.Lecturer{ID: 5, UserID: int64Ptr(1), Name: "Dr. Ada", IsActive: true},
	}
}

func assessment(id int64, number string, ca ...float64) models.Assessment {
	a := models.Assessment{ID: id, Student: models.StudentRef{ID: id, Number: number, FullName: "Student " + number}}
	slots := []*models.Mark{&a.CA1, &a.CA2, &a.CA3, &a.CA4}
	for i, v := range ca {
		*slots[i] = models.NewMark(v)
	}
	return a
}

type workflowFixture struct {
	svc     *ResultWorkflowService
	courses *workflowCourseStub
	results *workflowResultStub
	cache   *DraftStatusCache
	queue   *enqueuerStub
}

func newWorkflowFixture(t *testing.T, results *workflowResultStub, limits *models.CALimits) workflowFixture {
	t.Helper()
	courses := &workflowCourseStub{course: workflowCourse()}
	cache := NewDraftStatusCache(repository.NewMemoryBadgeRepository(), nil, nil)
	queue := &enqueuerStub{}
	svc := NewResultWorkflowService(courses, results, staticLimits{limits: limits}, cache, nil, 2, nil)
	svc.SetRefreshQueue(queue)
	return workflowFixture{svc: svc, courses: courses, results: results, cache: cache, queue: queue}
}

func defaultLimits() *models.CALimits {
	limits := models.DefaultCALimits()
	return &limits
}

func TestWorkflowOpenWithoutResultListsEnrolledStudents(t *testing.T) {
	f := newWorkflowFixture(t, &workflowResultStub{}, defaultLimits())
	f.courses.students = []models.StudentRef{{ID: 1, Number: "S1"}, {ID: 2, Number: "S2"}}

	view, err := f.svc.Open(context.Background(), lecturerUser(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNone, view.Status)
	assert.Len(t, view.Rows, 2)
	assert.True(t, view.Capabilities.CanCreate)
	assert.True(t, view.Capabilities.CanEdit)
	assert.False(t, view.Capabilities.CanSubmit)
	assert.Nil(t, view.Result)

	_, cached := f.cache.Get(42)
	assert.False(t, cached)
}

// Submitting a valid draft reaches P_D and the course list sees it at once.
func TestWorkflowSubmitUpdatesBadgeImmediately(t *testing.T) {
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusDraft}},
		assessments: []models.Assessment{assessment(1, "S1", 10, 10, 10, 10), assessment(2, "S2", 5)},
	}
	f := newWorkflowFixture(t, results, defaultLimits())

	var seen []models.BadgeEvent
	f.cache.Subscribe(func(e models.BadgeEvent) { seen = append(seen, e) })

	ctx := context.Background()
	_, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)

	outcome, err := f.svc.Apply(ctx, lecturerUser(), 42, models.ActionSubmit)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingDepartment, outcome.Workspace.Status)
	assert.Equal(t, "Results submitted successfully!", outcome.Notice)
	assert.False(t, outcome.Workspace.Capabilities.CanEdit)

	status, ok := f.cache.Get(42)
	require.True(t, ok)
	assert.Equal(t, models.StatusPendingDepartment, status)
	require.NotEmpty(t, seen)
	assert.Equal(t, models.StatusPendingDepartment, seen[len(seen)-1].Status)

	assert.Equal(t, []models.ResultAction{models.ActionSubmit}, results.transitions)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, "refresh:42", f.queue.jobs[0].Key)
	assert.Equal(t, int64(42), f.queue.jobs[0].Payload)
}

func TestWorkflowSubmitBlockedByValidationMakesNoRemoteCall(t *testing.T) {
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusDraft}},
		assessments: []models.Assessment{assessment(1, "S1", 25, 5)},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	ctx := context.Background()
	_, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)
	before := results.callCount()

	_, err = f.svc.Apply(ctx, lecturerUser(), 42, models.ActionSubmit)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, fixErrorsMessage, appErr.Message)
	assert.Equal(t, map[string]string{"S1": "CA1 score (25) exceeds maximum allowed (20)."}, appErr.Details)
	assert.Equal(t, before, results.callCount())

	view, err := f.svc.View(lecturerUser(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, view.Status)
	assert.Equal(t, 1, view.ErrorCount)
}

func TestWorkflowSubmitRequiresLoadedConfig(t *testing.T) {
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusDraft}},
		assessments: []models.Assessment{assessment(1, "S1", 10)},
	}
	f := newWorkflowFixture(t, results, nil)
	ctx := context.Background()
	view, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)
	assert.False(t, view.ConfigLoaded)
	assert.Empty(t, view.Rows[0].Error)

	_, err = f.svc.Apply(ctx, lecturerUser(), 42, models.ActionSubmit)
	assert.True(t, errors.Is(err, appErrors.ErrConfigNotLoaded))
	assert.Empty(t, results.transitions)
}

func TestWorkflowServerRejectionLeavesStatusUntouched(t *testing.T) {
	results := &workflowResultStub{
		results:       []models.Result{{ID: 9, CourseID: 42, Status: models.StatusDraft}},
		assessments:   []models.Assessment{assessment(1, "S1", 10)},
		transitionErr: &httpclient.APIError{Method: http.MethodPut, StatusCode: http.StatusBadRequest, Detail: "Result already submitted."},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	ctx := context.Background()
	_, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)

	_, err = f.svc.Apply(ctx, lecturerUser(), 42, models.ActionSubmit)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrRemoteRejected.Code, appErr.Code)
	assert.Equal(t, "Result already submitted.", appErr.Message)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)

	view, err := f.svc.View(lecturerUser(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, view.Status)
	status, _ := f.cache.Get(42)
	assert.Equal(t, models.StatusDraft, status)
	assert.Empty(t, f.queue.jobs)
}

func TestWorkflowFallbackMessageWithoutDetail(t *testing.T) {
	results := &workflowResultStub{
		results:       []models.Result{{ID: 9, CourseID: 42, Status: models.StatusPendingDepartment}},
		transitionErr: &httpclient.APIError{StatusCode: http.StatusInternalServerError},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	dro := &models.User{ID: 2, IsDRO: true}
	ctx := context.Background()
	_, err := f.svc.Open(ctx, dro, 42)
	require.NoError(t, err)

	_, err = f.svc.Apply(ctx, dro, 42, models.ActionApprove)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "Failed to approve result.", appErr.Message)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
}

func TestWorkflowSubmitFromCorrectionReturnsToDepartment(t *testing.T) {
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusCorrection}},
		assessments: []models.Assessment{assessment(1, "S1", 10, 10, 10, 10)},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	ctx := context.Background()

	view, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)
	require.True(t, view.Capabilities.CanSubmit)

	outcome, err := f.svc.Apply(ctx, lecturerUser(), 42, models.ActionSubmit)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingDepartment, outcome.Workspace.Status)
	assert.Equal(t, []models.ResultAction{models.ActionSubmit}, results.transitions)

	status, ok := f.cache.Get(42)
	require.True(t, ok)
	assert.Equal(t, models.StatusPendingDepartment, status)
}

func TestWorkflowResubmitFromCorrectionBySubstituteDRO(t *testing.T) {
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusCorrection}},
		assessments: []models.Assessment{assessment(1, "S1", 10, 10, 10, 10)},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	f.courses.course.Lecturer.IsActive = false
	dro := &models.User{ID: 2, IsDRO: true}
	ctx := context.Background()

	_, err := f.svc.Open(ctx, dro, 42)
	require.NoError(t, err)

	outcome, err := f.svc.Apply(ctx, dro, 42, models.ActionResubmit)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingDepartment, outcome.Workspace.Status)
	assert.Equal(t, []models.ResultAction{models.ActionResubmit}, results.transitions)
}

func TestWorkflowDepartmentRejectMovesToRejected(t *testing.T) {
	results := &workflowResultStub{results: []models.Result{{ID: 9, CourseID: 42, Status: models.StatusPendingDepartment}}}
	f := newWorkflowFixture(t, results, defaultLimits())
	dro := &models.User{ID: 2, IsDRO: true}
	ctx := context.Background()
	_, err := f.svc.Open(ctx, dro, 42)
	require.NoError(t, err)

	outcome, err := f.svc.Apply(ctx, dro, 42, models.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, outcome.Workspace.Status)
	assert.Equal(t, "Result rejected successfully!", outcome.Notice)
}

func TestWorkflowRoleWithoutRowIsRefused(t *testing.T) {
	results := &workflowResultStub{results: []models.Result{{ID: 9, CourseID: 42, Status: models.StatusPendingDepartment}}}
	f := newWorkflowFixture(t, results, defaultLimits())
	ctx := context.Background()
	_, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)
	before := results.callCount()

	_, err = f.svc.Apply(ctx, lecturerUser(), 42, models.ActionApprove)
	assert.True(t, errors.Is(err, appErrors.ErrTransitionNotAllowed))
	assert.Equal(t, before, results.callCount())
}

func TestWorkflowSaveDraftRequiresReasonAfterSubmission(t *testing.T) {
	submitted := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusDraft, SubmittedAt: &submitted}},
		assessments: []models.Assessment{assessment(1, "S1", 10)},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	ctx := context.Background()
	view, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)
	assert.True(t, view.ReasonRequired)
	before := results.callCount()

	_, err = f.svc.SaveDraft(ctx, lecturerUser(), 42, "  ")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrReasonRequired.Code, appErr.Code)
	assert.Equal(t, "Please provide a reason for editing this result.", appErr.Message)
	assert.Equal(t, before, results.callCount())

	_, err = f.svc.SaveDraft(ctx, lecturerUser(), 42, "Late script")
	require.NoError(t, err)
	assert.Equal(t, "Late script", results.updates[1].CorrectionReason)
}

func TestWorkflowSaveDraftIsIdempotent(t *testing.T) {
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusDraft}},
		assessments: []models.Assessment{assessment(1, "S1", 10), assessment(2, "S2", 25)},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	ctx := context.Background()
	_, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)

	first, err := f.svc.SaveDraft(ctx, lecturerUser(), 42, "")
	require.NoError(t, err)
	assert.Equal(t, draftWarningNotice, first.Notice)
	firstUpdates := results.updates

	results.updates = nil
	second, err := f.svc.SaveDraft(ctx, lecturerUser(), 42, "")
	require.NoError(t, err)
	assert.Equal(t, first.Workspace.Status, second.Workspace.Status)
	assert.Equal(t, models.StatusDraft, second.Workspace.Status)
	assert.Equal(t, firstUpdates, results.updates)
	assert.Empty(t, results.updates[1].CorrectionReason)
}

func TestWorkflowSaveDraftFromNoneCreatesResultAndMapsScores(t *testing.T) {
	results := &workflowResultStub{
		created:     &models.Result{ID: 9, CourseID: 42},
		assessments: []models.Assessment{assessment(100, "S2"), assessment(101, "S1")},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	f.courses.course.Students = []models.StudentRef{{ID: 1, Number: "S1"}, {ID: 2, Number: "S2"}}

	ctx := context.Background()
	_, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)

	edited := models.Scores{CA1: models.NewMark(12), Exam: models.NewMark(50)}
	view, err := f.svc.UpdateScore(lecturerUser(), 42, "S1", edited)
	require.NoError(t, err)
	assert.True(t, view.Dirty)

	outcome, err := f.svc.SaveDraft(ctx, lecturerUser(), 42, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, outcome.Workspace.Status)
	assert.False(t, outcome.Workspace.Dirty)
	require.Contains(t, results.updates, int64(101))
	assert.Equal(t, "12", results.updates[101].CA1.String())
	assert.Equal(t, "50", results.updates[101].Exam.String())
	assert.False(t, results.updates[100].CA1.Present())

	status, ok := f.cache.Get(42)
	require.True(t, ok)
	assert.Equal(t, models.StatusDraft, status)
}

func TestWorkflowPartialBatchKeepsStatus(t *testing.T) {
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusRejected}},
		assessments: []models.Assessment{assessment(1, "S1", 10), assessment(2, "S2", 12)},
		updateErrs:  map[int64]error{2: &httpclient.APIError{StatusCode: http.StatusBadRequest, Detail: "bad row"}},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	ctx := context.Background()
	_, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)
	_, err = f.svc.UpdateScore(lecturerUser(), 42, "S1", models.Scores{CA1: models.NewMark(11)})
	require.NoError(t, err)
	_, err = f.svc.UpdateScore(lecturerUser(), 42, "S2", models.Scores{CA1: models.NewMark(13)})
	require.NoError(t, err)

	_, err = f.svc.SaveDraft(ctx, lecturerUser(), 42, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPartialBatch))
	assert.Contains(t, results.updates, int64(1))

	view, err := f.svc.View(lecturerUser(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, view.Status)
	assert.False(t, view.Rows[0].Dirty)
	assert.True(t, view.Rows[1].Dirty)
}

func TestWorkflowRejectedDraftSaveMovesToDraft(t *testing.T) {
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusRejected}},
		assessments: []models.Assessment{assessment(1, "S1", 10)},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	ctx := context.Background()
	view, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)
	assert.False(t, view.Capabilities.CanSubmit)

	outcome, err := f.svc.SaveDraft(ctx, lecturerUser(), 42, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, outcome.Workspace.Status)
	assert.True(t, outcome.Workspace.Capabilities.CanSubmit)
}

func TestWorkflowUpdateScoreRefusedForReviewer(t *testing.T) {
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusDraft}},
		assessments: []models.Assessment{assessment(1, "S1", 10)},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	dro := &models.User{ID: 2, IsDRO: true}
	_, err := f.svc.Open(context.Background(), dro, 42)
	require.NoError(t, err)

	_, err = f.svc.UpdateScore(dro, 42, "S1", models.Scores{CA1: models.NewMark(1)})
	assert.True(t, errors.Is(err, appErrors.ErrTransitionNotAllowed))
}

func TestWorkflowReconcilePrefersServerStatus(t *testing.T) {
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusDraft}},
		assessments: []models.Assessment{assessment(1, "S1", 10)},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	ctx := context.Background()
	_, err := f.svc.Open(ctx, lecturerUser(), 42)
	require.NoError(t, err)

	results.results[0].Status = models.StatusPendingFaculty
	require.NoError(t, f.svc.HandleRefresh(ctx, jobs.Job{ID: "j1", Payload: int64(42)}))

	view, err := f.svc.View(lecturerUser(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingFaculty, view.Status)
	status, _ := f.cache.Get(42)
	assert.Equal(t, models.StatusPendingFaculty, status)

	assert.Error(t, f.svc.HandleRefresh(ctx, jobs.Job{ID: "j2", Payload: "42"}))
}

func TestWorkflowViewRequiresOpen(t *testing.T) {
	f := newWorkflowFixture(t, &workflowResultStub{}, defaultLimits())
	_, err := f.svc.View(lecturerUser(), 7)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
