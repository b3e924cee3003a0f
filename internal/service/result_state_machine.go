package service

import (
	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

// actor is a role in which a user may act on a result.
type actor int

const (
	// actorLecturerOfRecord is the course's own lecturer while active.
	actorLecturerOfRecord actor = iota
	// actorSubstituteDRO is a DRO standing in for an inactive lecturer.
	actorSubstituteDRO
	actorDRO
	actorFRO
	actorCO
)

var editors = []actor{actorLecturerOfRecord, actorSubstituteDRO}

// transition is one legal row of the result lifecycle.
type transition struct {
	Action models.ResultAction
	From   models.ResultStatus
	To     models.ResultStatus
	Actors []actor
	// RequiresValidScores blocks the action while any row fails validation.
	RequiresValidScores bool
	// Fallback is shown when the service rejects the action without detail.
	Fallback string
}

// transitions is the complete lifecycle. (Action, From) pairs are unique;
// anything not listed is refused.
var transitions = []transition{
	{Action: models.ActionCreate, From: models.StatusNone, To: models.StatusDraft, Actors: editors, Fallback: "Failed to create result for this course."},
	{Action: models.ActionSaveDraft, From: models.StatusNone, To: models.StatusDraft, Actors: editors, Fallback: "Failed to save draft."},
	{Action: models.ActionSaveDraft, From: models.StatusDraft, To: models.StatusDraft, Actors: editors, Fallback: "Failed to save draft."},
	{Action: models.ActionSaveDraft, From: models.StatusCorrection, To: models.StatusCorrection, Actors: editors, Fallback: "Failed to save draft."},
	{Action: models.ActionSaveDraft, From: models.StatusRejected, To: models.StatusDraft, Actors: editors, Fallback: "Failed to save draft."},
	{Action: models.ActionSubmit, From: models.StatusDraft, To: models.StatusPendingDepartment, Actors: editors, RequiresValidScores: true, Fallback: "Failed to submit results."},
	{Action: models.ActionSubmit, From: models.StatusCorrection, To: models.StatusPendingDepartment, Actors: editors, RequiresValidScores: true, Fallback: "Failed to submit results."},
	{Action: models.ActionResubmit, From: models.StatusCorrection, To: models.StatusPendingDepartment, Actors: editors, RequiresValidScores: true, Fallback: "Failed to submit results."},
	{Action: models.ActionApprove, From: models.StatusPendingDepartment, To: models.StatusPendingFaculty, Actors: []actor{actorDRO}, Fallback: "Failed to approve result."},
	{Action: models.ActionReject, From: models.StatusPendingDepartment, To: models.StatusRejected, Actors: []actor{actorDRO}, Fallback: "Failed to reject result."},
	{Action: models.ActionProcess, From: models.StatusPendingFaculty, To: models.StatusApproved, Actors: []actor{actorFRO}, Fallback: "Failed to process result."},
	{Action: models.ActionReject, From: models.StatusPendingFaculty, To: models.StatusPendingDepartment, Actors: []actor{actorFRO}, Fallback: "Failed to reject result."},
	{Action: models.ActionSetCorrection, From: models.StatusApproved, To: models.StatusCorrection, Actors: []actor{actorCO}, Fallback: "Failed to mark result as Correction (C)."},
}

// Subject is everything the lifecycle needs to know about who is acting.
type Subject struct {
	User           *models.User
	LecturerActive bool
	// IsOwnLecturer is true when the user is the course's lecturer of record.
	IsOwnLecturer bool
}

// SubjectFor builds the subject for user acting on course.
func SubjectFor(user *models.User, course *models.Course) Subject {
	return Subject{
		User:           user,
		LecturerActive: course.LecturerActive(),
		IsOwnLecturer:  course.IsCourseLecturer(user),
	}
}

func (s Subject) acts(a actor) bool {
	u := s.User
	if u == nil {
		return false
	}
	switch a {
	case actorLecturerOfRecord:
		return u.IsLecturer && s.IsOwnLecturer && s.LecturerActive
	case actorSubstituteDRO:
		return u.IsDRO && !s.LecturerActive
	case actorDRO:
		return u.IsDRO
	case actorFRO:
		return u.IsFRO
	case actorCO:
		return u.IsCO
	}
	return false
}

func lookupTransition(action models.ResultAction, from models.ResultStatus) (transition, bool) {
	for _, t := range transitions {
		if t.Action == action && t.From == from {
			return t, true
		}
	}
	return transition{}, false
}

// allowedTransition returns the row subject may take for action from the
// given status.
func allowedTransition(subject Subject, action models.ResultAction, from models.ResultStatus) (transition, error) {
	t, ok := lookupTransition(action, from)
	if !ok {
		return transition{}, appErrors.Clone(appErrors.ErrTransitionNotAllowed, string(action)+" is not possible while the result is "+from.Label())
	}
	for _, a := range t.Actors {
		if subject.acts(a) {
			return t, nil
		}
	}
	return transition{}, appErrors.Clone(appErrors.ErrTransitionNotAllowed, "your role cannot "+string(action)+" this result")
}

// NextStatus reports the status a successful action leads to.
func NextStatus(action models.ResultAction, from models.ResultStatus) (models.ResultStatus, bool) {
	t, ok := lookupTransition(action, from)
	return t.To, ok
}
