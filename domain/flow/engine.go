package flow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"prodflow/bizerror"
	"prodflow/domain"
	"prodflow/domain/status"
	"prodflow/event"
	"prodflow/idgen"
	"prodflow/persistence"
	"prodflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	workflowIdWorker   = sonyflake.NewSonyflake(sonyflake.Settings{})
	transitionIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	InitializeWorkflowFunc   = InitializeWorkflow
	TransitionStatusFunc     = TransitionStatus
	StartProductionFunc      = StartProduction
	AssignProductionFunc     = AssignProduction
	CompleteQualityCheckFunc = CompleteQualityCheck
	PutOnHoldFunc            = PutOnHold
	ResumeFromHoldFunc       = ResumeFromHold
	DetailWorkflowFunc       = DetailWorkflow
	LoadWorkflowsFunc        = LoadWorkflows

	GetValidNextStatusesFunc = GetValidNextStatuses
	QueryTransitionsFunc     = QueryTransitions
)

// Execute routes a command to the operation matching its kind.
func Execute(c *TransitionCommand, s *session.Session) CommandResult {
	switch c.Kind {
	case CommandStartProduction:
		return StartProductionFunc(c, s)
	case CommandUpdateStatus, CommandCancel:
		return TransitionStatusFunc(c, s)
	case CommandAssign:
		return AssignProductionFunc(c, s)
	case CommandCompleteQualityCheck:
		return CompleteQualityCheckFunc(c, s)
	case CommandPutOnHold:
		return PutOnHoldFunc(c, s)
	case CommandResumeFromHold:
		return ResumeFromHoldFunc(c.ProductionID, c.RequestedBy, s)
	}
	return FailureResult(&bizerror.ErrBadParam{Cause: fmt.Errorf("unknown command kind '%s'", c.Kind)})
}

// InitializeWorkflow creates the workflow record of a production in PLANNED.
// There is no from-status, so no transition row is written.
func InitializeWorkflow(productionID types.ID, s *session.Session, tx *gorm.DB) (*domain.ProductionWorkflow, error) {
	existing := domain.ProductionWorkflow{}
	err := tx.Where(&domain.ProductionWorkflow{ProductionID: productionID}).First(&existing).Error
	if err == nil {
		return nil, bizerror.ErrAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := types.CurrentTimestamp()
	workflow := &domain.ProductionWorkflow{
		ID:           idgen.NextID(workflowIdWorker),
		ProductionID: productionID,

		Status:   status.Planned,
		Priority: status.PriorityNormal,

		CreateTime:       now,
		LastModifiedTime: now,
		LastModifiedBy:   s.Identity.Name,
	}
	if err := tx.Create(workflow).Error; err != nil {
		return nil, err
	}
	return workflow, nil
}

// TransitionStatus moves a workflow to the requested status when the rule
// table allows it. Workflow update, audit row and event row are committed
// or rolled back together.
func TransitionStatus(c *TransitionCommand, s *session.Session) CommandResult {
	requester := requesterOf(c, s)
	now := types.CurrentTimestamp()

	var workflow domain.ProductionWorkflow
	var pendingEvents []*event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := loadWorkflow(tx, c.ProductionID, &workflow); err != nil {
			return err
		}

		from, to := workflow.Status, c.NewStatus
		if !status.CanTransit(from, to) {
			return &bizerror.ErrInvalidTransition{From: string(from), To: string(to)}
		}
		if to == status.Cancelled && strings.TrimSpace(c.Reason) == "" {
			return bizerror.ErrMissingReason
		}

		updates := map[string]interface{}{
			"status":             to,
			"previous_status":    from,
			"last_modified_time": now,
			"last_modified_by":   requester,
		}
		applyStatusSideEffects(updates, &workflow, to, c.Reason, now)
		appendNotes(updates, &workflow, c.Notes)

		if err := guardedWorkflowUpdate(tx, &workflow, updates); err != nil {
			return err
		}
		if err := appendTransition(tx, &workflow, from, to, domain.EventStatusChanged, c.Reason, c.Notes, requester, now, nil); err != nil {
			return err
		}

		ev, err := CreateStatusChangedEvent(&workflow, string(from), string(to), c.Reason, &s.Identity, now, tx)
		if err != nil {
			return err
		}
		pendingEvents = append(pendingEvents, ev)

		return tx.Where("id = ?", workflow.ID).First(&workflow).Error
	})
	if err != nil {
		return FailureResult(err)
	}

	dispatchAll(pendingEvents)
	return SuccessResult(&workflow)
}

// StartProduction is the specialized PLANNED -> IN_PROGRESS transition. It
// additionally records timing, estimate and assignment fields.
func StartProduction(c *TransitionCommand, s *session.Session) CommandResult {
	requester := requesterOf(c, s)
	now := types.CurrentTimestamp()

	var workflow domain.ProductionWorkflow
	var pendingEvents []*event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := loadWorkflow(tx, c.ProductionID, &workflow); err != nil {
			return err
		}
		if workflow.Status != status.Planned {
			return &bizerror.ErrInvalidState{Operation: "StartProduction",
				Expected: string(status.Planned), Actual: string(workflow.Status)}
		}

		updates := map[string]interface{}{
			"status":             status.InProgress,
			"previous_status":    status.Planned,
			"started_at":         now,
			"actual_start_date":  now,
			"last_modified_time": now,
			"last_modified_by":   requester,
		}
		if !c.EstimatedCompletionDate.IsZero() {
			updates["estimated_completion_date"] = c.EstimatedCompletionDate
		}
		previousAssignee := workflow.AssignedTo
		if c.AssignTo != "" {
			updates["assigned_to"] = c.AssignTo
			updates["assigned_by"] = requester
		}
		appendNotes(updates, &workflow, c.Notes)

		if err := guardedWorkflowUpdate(tx, &workflow, updates); err != nil {
			return err
		}
		if err := appendTransition(tx, &workflow, status.Planned, status.InProgress, domain.EventStatusChanged,
			"production started", c.Notes, requester, now, nil); err != nil {
			return err
		}

		ev, err := CreateStatusChangedEvent(&workflow, string(status.Planned), string(status.InProgress),
			"production started", &s.Identity, now, tx)
		if err != nil {
			return err
		}
		pendingEvents = append(pendingEvents, ev)

		if c.AssignTo != "" {
			ev, err := CreateAssignedEvent(&workflow, previousAssignee, c.AssignTo, &s.Identity, now, tx)
			if err != nil {
				return err
			}
			pendingEvents = append(pendingEvents, ev)
		}

		return tx.Where("id = ?", workflow.ID).First(&workflow).Error
	})
	if err != nil {
		return FailureResult(err)
	}

	dispatchAll(pendingEvents)
	return SuccessResult(&workflow)
}

// AssignProduction changes the assignee without touching the status.
// Assignment changes are always audited, even when the assignee is unchanged.
func AssignProduction(c *TransitionCommand, s *session.Session) CommandResult {
	requester := requesterOf(c, s)
	now := types.CurrentTimestamp()

	var workflow domain.ProductionWorkflow
	var pendingEvents []*event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := loadWorkflow(tx, c.ProductionID, &workflow); err != nil {
			return err
		}

		previousAssignee := workflow.AssignedTo
		updates := map[string]interface{}{
			"assigned_to":        c.AssignTo,
			"assigned_by":        requester,
			"last_modified_time": now,
			"last_modified_by":   requester,
		}
		// the audit metadata records previousAssignee, so the row must
		// still carry the assignee the transaction read
		query := tx.Model(&domain.ProductionWorkflow{}).
			Where("id = ? AND status = ? AND assigned_to = ?", workflow.ID, workflow.Status, previousAssignee).
			Updates(updates)
		if query.Error != nil {
			return query.Error
		}
		if query.RowsAffected != 1 {
			return bizerror.ErrStaleTransition
		}

		metadata := domain.TransitionMetadata{"previousAssignee": previousAssignee, "newAssignee": c.AssignTo}
		if err := appendTransition(tx, &workflow, workflow.Status, workflow.Status, domain.EventAssignmentChanged,
			c.Reason, "", requester, now, metadata); err != nil {
			return err
		}

		ev, err := CreateAssignedEvent(&workflow, previousAssignee, c.AssignTo, &s.Identity, now, tx)
		if err != nil {
			return err
		}
		pendingEvents = append(pendingEvents, ev)

		return tx.Where("id = ?", workflow.ID).First(&workflow).Error
	})
	if err != nil {
		return FailureResult(err)
	}

	dispatchAll(pendingEvents)
	return SuccessResult(&workflow)
}

// CompleteQualityCheck records the gate outcome. Pass completes the
// production; failure sends it back to the floor for rework.
func CompleteQualityCheck(c *TransitionCommand, s *session.Session) CommandResult {
	requester := requesterOf(c, s)
	now := types.CurrentTimestamp()

	var workflow domain.ProductionWorkflow
	var pendingEvents []*event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := loadWorkflow(tx, c.ProductionID, &workflow); err != nil {
			return err
		}
		if workflow.Status != status.QualityCheck {
			return &bizerror.ErrInvalidState{Operation: "CompleteQualityCheck",
				Expected: string(status.QualityCheck), Actual: string(workflow.Status)}
		}

		target := status.InProgress
		reason := "quality check failed"
		if c.Passed {
			target = status.Completed
			reason = "quality check passed"
		}

		updates := map[string]interface{}{
			"status":               target,
			"previous_status":      status.QualityCheck,
			"quality_check_passed": c.Passed,
			"quality_check_notes":  c.CheckNotes,
			"quality_checker_id":   c.CheckerID,
			"quality_check_date":   now,
			"last_modified_time":   now,
			"last_modified_by":     requester,
		}
		if c.Passed {
			updates["completed_at"] = now
			updates["actual_end_date"] = now
		}

		if err := guardedWorkflowUpdate(tx, &workflow, updates); err != nil {
			return err
		}

		metadata := domain.TransitionMetadata{"passed": strconv.FormatBool(c.Passed)}
		if err := appendTransition(tx, &workflow, status.QualityCheck, target, domain.EventQualityCheckCompleted,
			reason, c.CheckNotes, requester, now, metadata); err != nil {
			return err
		}

		if !c.Passed {
			ev, err := CreateQualityCheckFailedEvent(&workflow, c.CheckNotes, c.CheckerID, &s.Identity, now, tx)
			if err != nil {
				return err
			}
			pendingEvents = append(pendingEvents, ev)
		}

		ev, err := CreateStatusChangedEvent(&workflow, string(status.QualityCheck), string(target), reason, &s.Identity, now, tx)
		if err != nil {
			return err
		}
		pendingEvents = append(pendingEvents, ev)

		return tx.Where("id = ?", workflow.ID).First(&workflow).Error
	})
	if err != nil {
		return FailureResult(err)
	}

	dispatchAll(pendingEvents)
	return SuccessResult(&workflow)
}

func PutOnHold(c *TransitionCommand, s *session.Session) CommandResult {
	hold := NewHoldCommand(c.ProductionID, c.Reason, c.RequestedBy)
	hold.Notes = c.Notes
	return TransitionStatusFunc(hold, s)
}

func ResumeFromHold(productionID types.ID, resumedBy string, s *session.Session) CommandResult {
	return TransitionStatusFunc(NewResumeCommand(productionID, resumedBy), s)
}

// CanTransition read-only legality probe built on the rule table.
func CanTransition(productionID types.ID, to status.Status) (bool, error) {
	workflow := domain.ProductionWorkflow{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := loadWorkflow(db, productionID, &workflow); err != nil {
		return false, err
	}
	return status.CanTransit(workflow.Status, to), nil
}

func GetValidNextStatuses(productionID types.ID) ([]status.Status, error) {
	workflow := domain.ProductionWorkflow{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := loadWorkflow(db, productionID, &workflow); err != nil {
		return nil, err
	}
	return status.ValidNextStatuses(workflow.Status), nil
}

func DetailWorkflow(productionID types.ID) (*domain.ProductionWorkflow, error) {
	workflow := domain.ProductionWorkflow{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := loadWorkflow(db, productionID, &workflow); err != nil {
		return nil, err
	}
	return &workflow, nil
}

// LoadWorkflows paged access ordered by id, for the index full sync.
func LoadWorkflows(page, size int) ([]domain.ProductionWorkflow, error) {
	workflows := []domain.ProductionWorkflow{}
	db := persistence.ActiveDataSourceManager.GormDB()
	offset := (page - 1) * size
	if offset < 0 {
		offset = 0
	}
	if err := db.Order("id ASC").Offset(offset).Limit(size).Find(&workflows).Error; err != nil {
		return nil, err
	}
	return workflows, nil
}

func QueryTransitions(query *domain.TransitionQuery) (*[]domain.WorkflowTransition, error) {
	workflow := domain.ProductionWorkflow{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := loadWorkflow(db, query.ProductionID, &workflow); err != nil {
		return nil, err
	}

	var transitions []domain.WorkflowTransition
	if err := db.Where(&domain.WorkflowTransition{WorkflowID: workflow.ID}).
		Order("transition_time ASC").Find(&transitions).Error; err != nil {
		return nil, err
	}
	return &transitions, nil
}

func requesterOf(c *TransitionCommand, s *session.Session) string {
	if c.RequestedBy != "" {
		return c.RequestedBy
	}
	return s.Identity.Name
}

func loadWorkflow(tx *gorm.DB, productionID types.ID, out *domain.ProductionWorkflow) error {
	if err := tx.Where(&domain.ProductionWorkflow{ProductionID: productionID}).First(out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bizerror.ErrNotFound
		}
		return err
	}
	return nil
}

func applyStatusSideEffects(updates map[string]interface{}, w *domain.ProductionWorkflow,
	to status.Status, reason string, now types.Timestamp) {
	switch to {
	case status.InProgress:
		if w.StartedAt.IsZero() {
			updates["started_at"] = now
			updates["actual_start_date"] = now
		}
	case status.Completed:
		updates["completed_at"] = now
		updates["actual_end_date"] = now
	case status.OnHold:
		updates["on_hold_reason"] = reason
	}
}

func appendNotes(updates map[string]interface{}, w *domain.ProductionWorkflow, notes string) {
	if notes == "" {
		return
	}
	if w.Notes == "" {
		updates["notes"] = notes
	} else {
		updates["notes"] = w.Notes + "\n" + notes
	}
}

// guardedWorkflowUpdate serializes racing writers: the row must still carry
// the status the transaction read, otherwise the loser rolls back with a
// retryable conflict.
func guardedWorkflowUpdate(tx *gorm.DB, w *domain.ProductionWorkflow, updates map[string]interface{}) error {
	query := tx.Model(&domain.ProductionWorkflow{}).
		Where("id = ? AND status = ?", w.ID, w.Status).Updates(updates)
	if query.Error != nil {
		return query.Error
	}
	if query.RowsAffected != 1 {
		return bizerror.ErrStaleTransition
	}
	return nil
}

func appendTransition(tx *gorm.DB, w *domain.ProductionWorkflow, from, to status.Status,
	eventType domain.TransitionEventType, reason, notes, triggeredBy string,
	now types.Timestamp, metadata domain.TransitionMetadata) error {

	duration, err := minutesSinceLastTransition(tx, w, now)
	if err != nil {
		return err
	}
	transition := &domain.WorkflowTransition{
		ID:           idgen.NextID(transitionIdWorker),
		WorkflowID:   w.ID,
		ProductionID: w.ProductionID,

		FromStatus: from,
		ToStatus:   to,
		EventType:  eventType,

		TransitionTime: now,
		TriggeredBy:    triggeredBy,

		Reason: reason,
		Notes:  notes,

		DurationInMinutes: duration,
		Metadata:          metadata,
	}
	return tx.Create(transition).Error
}

func minutesSinceLastTransition(tx *gorm.DB, w *domain.ProductionWorkflow, now types.Timestamp) (float64, error) {
	last := domain.WorkflowTransition{}
	err := tx.Where(&domain.WorkflowTransition{WorkflowID: w.ID}).
		Order("transition_time DESC").First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return now.Time().Sub(w.CreateTime.Time()).Minutes(), nil
		}
		return 0, err
	}
	return now.Time().Sub(last.TransitionTime.Time()).Minutes(), nil
}

func dispatchAll(records []*event.EventRecord) {
	for _, ev := range records {
		event.DispatchEvent(ev)
	}
}
