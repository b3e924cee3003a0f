package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
)

func newRemoteClient(t *testing.T, handler http.Handler) (*httpclient.Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client, err := httpclient.New(httpclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return client, srv.Close
}

func TestResultRepositoryListAssessmentsDecodesStudentShapes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/result-system/courses/5/results/11/assessments/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"assessments":[
			{"id":1,"student":{"id":40,"registration_number":"REG-1","full_name":"Ada"},"ca_slot1":"10.50","ca_slot2":null,"exam_mark":40},
			{"id":2,"student":41,"ca_slot1":5}
		]}`))
	})
	client, done := newRemoteClient(t, mux)
	defer done()

	repo := NewResultRepository(client)
	rows, err := repo.ListAssessments(context.Background(), 5, 11)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "REG-1", rows[0].Student.Key())
	assert.Equal(t, "Ada", rows[0].Student.DisplayName())
	assert.Equal(t, "10.5", rows[0].CA1.String())
	assert.False(t, rows[0].CA2.Present())
	assert.Equal(t, "41", rows[1].Student.Key())
}

func TestResultRepositoryTransitionMethods(t *testing.T) {
	var seen []string
	mux := http.NewServeMux()
	mux.HandleFunc("/result-system/courses/5/results/11/", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	client, done := newRemoteClient(t, mux)
	defer done()

	repo := NewResultRepository(client)
	ctx := context.Background()
	require.NoError(t, repo.Transition(ctx, 5, 11, models.ActionSubmit))
	require.NoError(t, repo.Transition(ctx, 5, 11, models.ActionSetCorrection))
	require.Error(t, repo.Transition(ctx, 5, 11, models.ActionSaveDraft))

	assert.Equal(t, []string{
		"PUT /result-system/courses/5/results/11/submit/",
		"PATCH /result-system/courses/5/results/11/set_correction/",
	}, seen)
}

func TestResultRepositoryCreateSendsCourseID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/result-system/courses/5/results/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		var payload map[string]int64
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, int64(5), payload["course_id"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":12,"result_status":"D"}`))
	})
	client, done := newRemoteClient(t, mux)
	defer done()

	result, err := NewResultRepository(client).Create(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(12), result.ID)
	assert.Equal(t, int64(5), result.CourseID)
	assert.Equal(t, models.StatusDraft, result.Status)
}

func TestSubmittedResultRepositoryFallsBackToResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/result-system/submitted-results/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
	})
	mux.HandleFunc("/result-system/results/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"id":1,"course_id":3,"status":"D"}],"next":null}`))
	})
	client, done := newRemoteClient(t, mux)
	defer done()

	items, err := NewSubmittedResultRepository(client).List(context.Background(), models.SubmittedResultFilter{IncludeDrafts: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusDraft, items[0].Status)
}

func TestCAConfigRepositoryFirstEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/result-system/ca_max/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[],"next":null}`))
	})
	client, done := newRemoteClient(t, mux)
	defer done()

	record, err := NewCAConfigRepository(client).First(context.Background())
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestCourseRepositoryListStudentsProbesEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/result-system/courses/5/students/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/result-system/courses/5/enrollment/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":7,"student_id":"S-7","name":"Bola"}]`))
	})
	client, done := newRemoteClient(t, mux)
	defer done()

	students, err := NewCourseRepository(client).ListStudents(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "S-7", students[0].Key())
}
