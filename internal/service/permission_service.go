package service

import "github.com/noah-isme/sma-result-desk/internal/models"

// Capabilities gate the editor's controls. They are advisory: the result
// service remains the authority and may still refuse an action.
type Capabilities struct {
	CanCreate        bool `json:"can_create"`
	CanEdit          bool `json:"can_edit"`
	CanSubmit        bool `json:"can_submit"`
	CanSetCorrection bool `json:"can_set_correction"`
	CanApprove       bool `json:"can_approve"`
	CanReject        bool `json:"can_reject"`
	CanProcess       bool `json:"can_process"`
}

// Any reports whether at least one capability is granted.
func (c Capabilities) Any() bool {
	return c.CanCreate || c.CanEdit || c.CanSubmit || c.CanSetCorrection || c.CanApprove || c.CanReject || c.CanProcess
}

// ResolvePermissions derives capabilities from the lifecycle table. It must
// be re-evaluated after every status or course change.
func ResolvePermissions(subject Subject, status models.ResultStatus) Capabilities {
	can := func(action models.ResultAction) bool {
		_, err := allowedTransition(subject, action, status)
		return err == nil
	}
	return Capabilities{
		CanCreate:        can(models.ActionCreate),
		CanEdit:          can(models.ActionSaveDraft),
		CanSubmit:        can(models.ActionSubmit) || can(models.ActionResubmit),
		CanSetCorrection: can(models.ActionSetCorrection),
		CanApprove:       can(models.ActionApprove),
		CanReject:        can(models.ActionReject),
		CanProcess:       can(models.ActionProcess),
	}
}
