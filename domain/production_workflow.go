package domain

import (
	"prodflow/domain/status"

	"github.com/fundwit/go-commons/types"
)

// ProductionWorkflow tracks the lifecycle of exactly one production order.
// It is mutated only through the workflow engine.
type ProductionWorkflow struct {
	ID           types.ID `json:"id" gorm:"primary_key"`
	ProductionID types.ID `json:"productionId" gorm:"unique_index:uni_production"`

	Status         status.Status   `json:"status"`
	PreviousStatus status.Status   `json:"previousStatus"`
	Priority       status.Priority `json:"priority"`

	AssignedTo string `json:"assignedTo"`
	AssignedBy string `json:"assignedBy"`

	StartedAt               types.Timestamp `json:"startedAt" sql:"type:DATETIME(6)"`
	CompletedAt             types.Timestamp `json:"completedAt" sql:"type:DATETIME(6)"`
	EstimatedCompletionDate types.Timestamp `json:"estimatedCompletionDate" sql:"type:DATETIME(6)"`
	ActualStartDate         types.Timestamp `json:"actualStartDate" sql:"type:DATETIME(6)"`
	ActualEndDate           types.Timestamp `json:"actualEndDate" sql:"type:DATETIME(6)"`

	QualityCheckPassed bool            `json:"qualityCheckPassed"`
	QualityCheckNotes  string          `json:"qualityCheckNotes"`
	QualityCheckerID   string          `json:"qualityCheckerId"`
	QualityCheckDate   types.Timestamp `json:"qualityCheckDate" sql:"type:DATETIME(6)"`

	OnHoldReason string `json:"onHoldReason"`

	Notes string `json:"notes"`

	CreateTime       types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	LastModifiedTime types.Timestamp `json:"lastModifiedTime" sql:"type:DATETIME(6)"`
	LastModifiedBy   string          `json:"lastModifiedBy"`
}

func (w *ProductionWorkflow) TableName() string {
	return "production_workflows"
}

type ProductionWorkflowQuery struct {
	ProductionID types.ID        `form:"productionId"`
	Status       status.Status   `form:"status"`
	AssignedTo   string          `form:"assignedTo"`
	ActiveOnly   bool            `form:"activeOnly"`
	Priority     status.Priority `form:"priority"`
}
