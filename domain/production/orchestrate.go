package production

import (
	"os"
	"strconv"

	"prodflow/bizerror"
	"prodflow/domain/flow"
	"prodflow/domain/status"
	"prodflow/manufacturing"
	"prodflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

const DefaultWorkloadSoftCap = 5

var (
	UpdateProductionStatusFunc = UpdateProductionStatus
	StartProductionFunc        = StartProduction
	CompleteProductionFunc     = CompleteProduction
	ProcessQualityCheckFunc    = ProcessQualityCheck
	AssignProductionFunc       = AssignProduction
	CancelProductionFunc       = CancelProduction
	CanStartProductionFunc     = CanStartProduction
)

// UpdateProductionStatus adds one rule on top of the raw engine: entering
// QUALITY_CHECK is only permitted from IN_PROGRESS, even if the rule table
// were ever loosened.
func UpdateProductionStatus(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
	if c.NewStatus == status.QualityCheck {
		workflow, err := flow.DetailWorkflowFunc(c.ProductionID)
		if err != nil {
			return flow.FailureResult(err)
		}
		if workflow.Status != status.InProgress {
			return flow.FailureResult(&bizerror.ErrInvalidState{Operation: "UpdateProductionStatus",
				Expected: string(status.InProgress), Actual: string(workflow.Status)})
		}
	}
	return flow.TransitionStatusFunc(c, s)
}

// CanStartProduction pre-flight gate: the workflow must be PLANNED and the
// bill of materials must still be buildable.
func CanStartProduction(productionID types.ID, s *session.Session) (bool, error) {
	err := ensureStartable(productionID, s)
	if err == nil {
		return true, nil
	}
	if bizerror.KindOf(err) == bizerror.KindInfrastructure {
		return false, err
	}
	return false, nil
}

func ensureStartable(productionID types.ID, s *session.Session) error {
	workflow, err := flow.DetailWorkflowFunc(productionID)
	if err != nil {
		return err
	}
	if workflow.Status != status.Planned {
		return &bizerror.ErrInvalidState{Operation: "StartProduction",
			Expected: string(status.Planned), Actual: string(workflow.Status)}
	}

	if manufacturing.CheckBuildableFunc != nil {
		prod, err := DetailProductionFunc(productionID)
		if err != nil {
			return err
		}
		buildable, err := manufacturing.CheckBuildableFunc(prod.BomID, prod.Quantity, s)
		if err != nil {
			return err
		}
		if !buildable {
			return bizerror.ErrInsufficientMaterials
		}
	}
	return nil
}

// StartProduction gates on buildability, fills in a computed completion
// estimate when the caller supplied none, then delegates to the engine.
func StartProduction(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
	if err := ensureStartable(c.ProductionID, s); err != nil {
		return flow.FailureResult(err)
	}

	if c.EstimatedCompletionDate.IsZero() {
		estimate, err := EstimateCompletionTimeFunc(c.ProductionID)
		if err != nil {
			return flow.FailureResult(err)
		}
		estimated := *c
		estimated.EstimatedCompletionDate = estimate
		c = &estimated
	}
	return flow.StartProductionFunc(c, s)
}

// CompleteProduction is only legal from QUALITY_CHECK. On success the
// finished goods posting hook of the inventory collaborator fires.
func CompleteProduction(productionID types.ID, completedBy string, s *session.Session) flow.CommandResult {
	workflow, err := flow.DetailWorkflowFunc(productionID)
	if err != nil {
		return flow.FailureResult(err)
	}
	if workflow.Status != status.QualityCheck {
		return flow.FailureResult(&bizerror.ErrInvalidState{Operation: "CompleteProduction",
			Expected: string(status.QualityCheck), Actual: string(workflow.Status)})
	}

	result := flow.TransitionStatusFunc(
		flow.NewStatusCommand(productionID, status.Completed, "production completed", "", completedBy), s)
	if result.Success {
		postFinishedGoods(productionID, s)
	}
	return result
}

// ProcessQualityCheck delegates to the engine; passing the check implies
// completion, which the engine performs in the same transaction, so this
// only chains the finished goods posting.
func ProcessQualityCheck(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
	result := flow.CompleteQualityCheckFunc(c, s)
	if result.Success && c.Passed {
		postFinishedGoods(c.ProductionID, s)
	}
	return result
}

// AssignProduction applies the advisory workload cap: assignment proceeds
// even above the cap, it is only logged.
func AssignProduction(c *flow.TransitionCommand, s *session.Session) flow.CommandResult {
	workloads, err := GetEmployeeWorkloadFunc()
	if err != nil {
		return flow.FailureResult(err)
	}
	cap := WorkloadSoftCap()
	for _, w := range workloads {
		if w.Assignee == c.AssignTo && w.Count >= cap {
			logrus.Warnf("employee %s already has %d active productions (soft cap %d), assigning anyway",
				c.AssignTo, w.Count, cap)
		}
	}
	return flow.AssignProductionFunc(c, s)
}

func HandleMaterialShortage(productionID types.ID, detail, requestedBy string, s *session.Session) flow.CommandResult {
	c := flow.NewHoldCommand(productionID, "material shortage: "+detail, requestedBy)
	return flow.PutOnHoldFunc(c, s)
}

func HandleEquipmentIssue(productionID types.ID, detail, requestedBy string, s *session.Session) flow.CommandResult {
	c := flow.NewHoldCommand(productionID, "equipment issue: "+detail, requestedBy)
	return flow.PutOnHoldFunc(c, s)
}

// CancelProduction moves the workflow to the terminal CANCELLED state and
// releases reserved materials through the inventory collaborator.
func CancelProduction(productionID types.ID, reason, requestedBy string, s *session.Session) flow.CommandResult {
	result := flow.TransitionStatusFunc(
		flow.NewStatusCommand(productionID, status.Cancelled, reason, "", requestedBy), s)
	if result.Success && manufacturing.ReturnReservedMaterialsFunc != nil {
		if err := manufacturing.ReturnReservedMaterialsFunc(productionID, s); err != nil {
			logrus.Errorf("failed to return reserved materials of production %d: %v", productionID, err)
		}
	}
	return result
}

func postFinishedGoods(productionID types.ID, s *session.Session) {
	if manufacturing.PostFinishedGoodsFunc == nil {
		return
	}
	if err := manufacturing.PostFinishedGoodsFunc(productionID, s); err != nil {
		logrus.Errorf("failed to post finished goods of production %d: %v", productionID, err)
	}
}

// WorkloadSoftCap WORKLOAD_SOFT_CAP
func WorkloadSoftCap() int {
	value := os.Getenv("WORKLOAD_SOFT_CAP")
	if value == "" {
		return DefaultWorkloadSoftCap
	}
	cap, err := strconv.Atoi(value)
	if err != nil || cap <= 0 {
		return DefaultWorkloadSoftCap
	}
	return cap
}
