package flow

import (
	"prodflow/bizerror"
	"prodflow/domain"
	"prodflow/domain/status"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

// CommandKind discriminates the intent carried by a TransitionCommand,
// so engine dispatch stays exhaustive.
type CommandKind string

const (
	CommandStartProduction      CommandKind = "START_PRODUCTION"
	CommandUpdateStatus         CommandKind = "UPDATE_STATUS"
	CommandAssign               CommandKind = "ASSIGN"
	CommandCompleteQualityCheck CommandKind = "COMPLETE_QUALITY_CHECK"
	CommandPutOnHold            CommandKind = "PUT_ON_HOLD"
	CommandResumeFromHold       CommandKind = "RESUME_FROM_HOLD"
	CommandCancel               CommandKind = "CANCEL"
)

// TransitionCommand is an immutable intent object: who asked, what they
// asked, when. Only the fields relevant to its Kind are populated.
type TransitionCommand struct {
	Kind         CommandKind   `json:"kind"`
	ProductionID types.ID      `json:"productionId" validate:"required"`
	NewStatus    status.Status `json:"newStatus"`

	Reason string `json:"reason"`
	Notes  string `json:"notes"`

	AssignTo string `json:"assignTo"`

	EstimatedCompletionDate types.Timestamp `json:"estimatedCompletionDate"`

	Passed     bool   `json:"passed"`
	CheckerID  string `json:"checkerId"`
	CheckNotes string `json:"checkNotes"`

	RequestedBy string          `json:"requestedBy"`
	RequestedAt types.Timestamp `json:"requestedAt"`
}

func NewStatusCommand(productionID types.ID, newStatus status.Status, reason, notes, requestedBy string) *TransitionCommand {
	kind := CommandUpdateStatus
	if newStatus == status.Cancelled {
		kind = CommandCancel
	}
	return &TransitionCommand{Kind: kind, ProductionID: productionID, NewStatus: newStatus,
		Reason: reason, Notes: notes, RequestedBy: requestedBy, RequestedAt: types.CurrentTimestamp()}
}

func NewStartCommand(productionID types.ID, assignTo string, estimatedCompletionDate types.Timestamp, notes, requestedBy string) *TransitionCommand {
	return &TransitionCommand{Kind: CommandStartProduction, ProductionID: productionID, NewStatus: status.InProgress,
		AssignTo: assignTo, EstimatedCompletionDate: estimatedCompletionDate, Notes: notes,
		RequestedBy: requestedBy, RequestedAt: types.CurrentTimestamp()}
}

func NewAssignCommand(productionID types.ID, assignTo, reason, requestedBy string) *TransitionCommand {
	return &TransitionCommand{Kind: CommandAssign, ProductionID: productionID,
		AssignTo: assignTo, Reason: reason, RequestedBy: requestedBy, RequestedAt: types.CurrentTimestamp()}
}

func NewQualityCheckCommand(productionID types.ID, passed bool, checkNotes, checkerID, requestedBy string) *TransitionCommand {
	target := status.InProgress
	if passed {
		target = status.Completed
	}
	return &TransitionCommand{Kind: CommandCompleteQualityCheck, ProductionID: productionID, NewStatus: target,
		Passed: passed, CheckNotes: checkNotes, CheckerID: checkerID,
		RequestedBy: requestedBy, RequestedAt: types.CurrentTimestamp()}
}

func NewHoldCommand(productionID types.ID, reason, requestedBy string) *TransitionCommand {
	return &TransitionCommand{Kind: CommandPutOnHold, ProductionID: productionID, NewStatus: status.OnHold,
		Reason: reason, RequestedBy: requestedBy, RequestedAt: types.CurrentTimestamp()}
}

func NewResumeCommand(productionID types.ID, requestedBy string) *TransitionCommand {
	return &TransitionCommand{Kind: CommandResumeFromHold, ProductionID: productionID, NewStatus: status.InProgress,
		Reason: "resumed from hold", RequestedBy: requestedBy, RequestedAt: types.CurrentTimestamp()}
}

// CommandResult is the only way engine failures reach a caller; business
// rejections and infrastructure faults are distinguished by ErrorKind.
type CommandResult struct {
	Success      bool                       `json:"success"`
	ErrorKind    bizerror.Kind              `json:"errorKind,omitempty"`
	ErrorMessage string                     `json:"errorMessage,omitempty"`
	Data         *domain.ProductionWorkflow `json:"data,omitempty"`
}

func SuccessResult(workflow *domain.ProductionWorkflow) CommandResult {
	return CommandResult{Success: true, Data: workflow}
}

func FailureResult(err error) CommandResult {
	kind := bizerror.KindOf(err)
	if kind == bizerror.KindInfrastructure {
		logrus.Errorf("workflow command failed on infrastructure: %v", err)
		return CommandResult{Success: false, ErrorKind: kind, ErrorMessage: "internal error"}
	}
	return CommandResult{Success: false, ErrorKind: kind, ErrorMessage: err.Error()}
}
