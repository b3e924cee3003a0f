package models

import (
	"fmt"
	"time"
)

// DraftStatusBadge is one persisted entry of the draft-status cache.
type DraftStatusBadge struct {
	CourseID  int64        `db:"course_id" json:"course_id"`
	Status    ResultStatus `db:"status" json:"status"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// BadgeKey is the course-scoped key used by keyed stores.
func BadgeKey(courseID int64) string {
	return fmt.Sprintf("course_%d_draft_status", courseID)
}

// BadgeEvent is published whenever a badge changes. Cleared is set when the
// badge was removed, in which case Status is empty.
type BadgeEvent struct {
	CourseID int64        `json:"course_id"`
	Status   ResultStatus `json:"status"`
	Cleared  bool         `json:"cleared"`
	All      bool         `json:"all"`
}
