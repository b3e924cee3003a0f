package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

func openedWorkflow(t *testing.T) *ResultWorkflowService {
	t.Helper()
	a := assessment(1, "S1", 10, 10, 5)
	a.Exam = models.NewMark(50)
	results := &workflowResultStub{
		results:     []models.Result{{ID: 9, CourseID: 42, Status: models.StatusDraft}},
		assessments: []models.Assessment{a},
	}
	f := newWorkflowFixture(t, results, defaultLimits())
	_, err := f.svc.Open(context.Background(), lecturerUser(), 42)
	require.NoError(t, err)
	return f.svc
}

func TestExportScoreSheetCSV(t *testing.T) {
	svc := NewExportService(openedWorkflow(t), nil)

	file, err := svc.ScoreSheet(lecturerUser(), 42, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "csc201-scores.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, scoreSheetColumns, records[0])
	assert.Equal(t, []string{"S1", "Student S1", "10", "10", "5", "", "25", "50", "75", "B"}, records[1])
}

func TestExportScoreSheetPDF(t *testing.T) {
	svc := NewExportService(openedWorkflow(t), nil)

	file, err := svc.ScoreSheet(lecturerUser(), 42, ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportScoreSheetRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(openedWorkflow(t), nil)
	_, err := svc.ScoreSheet(lecturerUser(), 42, "xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.ScoreSheet(lecturerUser(), 7, ExportCSV)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
