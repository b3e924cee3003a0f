package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
)

// enrolmentEndpoints are tried in order when a course payload carries no
// student list.
var enrolmentEndpoints = []string{
	"students/",
	"enrollment/",
	"enrolled-students/",
	"course-students/",
	"student-list/",
}

// CourseRepository reads courses from the result service.
type CourseRepository struct {
	client *httpclient.Client
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(client *httpclient.Client) *CourseRepository {
	return &CourseRepository{client: client}
}

// List returns every course visible to the signed-in user.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	courses, err := collect[models.Course](ctx, r.client, resultSystemPrefix+"/courses/")
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Get fetches a single course.
func (r *CourseRepository) Get(ctx context.Context, courseID int64) (*models.Course, error) {
	var course models.Course
	if err := r.client.Do(ctx, http.MethodGet, coursePath(courseID), nil, &course); err != nil {
		return nil, fmt.Errorf("get course %d: %w", courseID, err)
	}
	return &course, nil
}

// ListStudents probes the enrolment endpoints and returns the first list
// found. An empty slice means no endpoint answered with students.
func (r *CourseRepository) ListStudents(ctx context.Context, courseID int64) ([]models.StudentRef, error) {
	for _, suffix := range enrolmentEndpoints {
		students, err := collect[models.StudentRef](ctx, r.client, coursePath(courseID)+suffix)
		if err != nil {
			if _, ok := httpclient.AsAPIError(err); ok {
				continue
			}
			return nil, fmt.Errorf("list students for course %d: %w", courseID, err)
		}
		if len(students) > 0 {
			return students, nil
		}
	}
	return []models.StudentRef{}, nil
}
