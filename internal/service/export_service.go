package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
	"github.com/noah-isme/sma-result-desk/pkg/export"
)

// ExportFormat selects the score sheet encoding.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

var scoreSheetColumns = []string{"Student ID", "Name", "CA1", "CA2", "CA3", "CA4", "CA Total", "Exam", "Total", "Grade"}

type workspaceViewer interface {
	View(user *models.User, courseID int64) (*WorkspaceView, error)
}

// ExportFile is a rendered score sheet.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the opened result of a course as a score sheet.
type ExportService struct {
	workspaces workspaceViewer
	logger     *zap.Logger
	now        func() time.Time
}

// NewExportService constructs the service.
func NewExportService(workspaces workspaceViewer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{workspaces: workspaces, logger: logger, now: time.Now}
}

// ScoreSheet renders the workspace as it currently stands, unsaved edits included.
func (s *ExportService) ScoreSheet(user *models.User, courseID int64, format ExportFormat) (*ExportFile, error) {
	view, err := s.workspaces.View(user, courseID)
	if err != nil {
		return nil, err
	}
	sheet := buildSheet(view, s.now())

	var (
		data        []byte
		contentType string
	)
	switch format {
	case ExportCSV:
		data, err = export.RenderCSV(sheet)
		contentType = "text/csv"
	case ExportPDF:
		data, err = export.RenderPDF(sheet)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render score sheet")
	}

	s.logger.Info("score sheet exported", zap.Int64("course_id", courseID), zap.String("format", string(format)), zap.Int("rows", len(view.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-scores.%s", sheetSlug(view.Course), format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func buildSheet(view *WorkspaceView, generated time.Time) export.Sheet {
	rows := make([][]string, 0, len(view.Rows))
	for _, row := range view.Rows {
		rows = append(rows, []string{
			row.Student.Key(),
			row.Student.DisplayName(),
			row.CA1.String(),
			row.CA2.String(),
			row.CA3.String(),
			row.CA4.String(),
			row.CATotal.String(),
			row.Exam.String(),
			row.TotalScore.String(),
			row.Grade,
		})
	}
	title := view.Course.Name
	if view.Course.Code != "" {
		title = fmt.Sprintf("%s (%s)", view.Course.Name, view.Course.Code)
	}
	return export.Sheet{
		Title:    title,
		Subtitle: "Status: " + view.StatusLabel,
		Columns:  scoreSheetColumns,
		Rows:     rows,
		Footer:   "Generated " + generated.UTC().Format(time.RFC3339),
	}
}

func sheetSlug(course models.Course) string {
	base := course.Code
	if base == "" {
		base = fmt.Sprintf("course-%d", course.ID)
	}
	return strings.ToLower(strings.Join(strings.Fields(base), "-"))
}
