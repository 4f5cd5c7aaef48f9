package domain

import (
	"prodflow/domain/status"

	"github.com/fundwit/go-commons/types"
)

// ProductionDetail is the aggregate returned to the presentation layer.
type ProductionDetail struct {
	Production
	Workflow ProductionWorkflow `json:"workflow"`
}

type ProductionSummary struct {
	ProductionID types.ID        `json:"productionId"`
	Status       status.Status   `json:"status"`
	Priority     status.Priority `json:"priority"`
	AssignedTo   string          `json:"assignedTo"`

	EstimatedCompletionDate types.Timestamp `json:"estimatedCompletionDate"`
	StartedAt               types.Timestamp `json:"startedAt"`
}

type ProductionTimeline struct {
	Workflow    ProductionWorkflow   `json:"workflow"`
	Transitions []WorkflowTransition `json:"transitions"`
}

type WipDashboard struct {
	StatusCounts map[status.Status]int `json:"statusCounts"`

	TotalActive    int `json:"totalActive"`
	TotalOverdue   int `json:"totalOverdue"`
	CompletedToday int `json:"completedToday"`

	// mean wall clock hours between actual start and actual end of
	// completed workflows with both timestamps set
	AverageCompletionHours float64 `json:"averageCompletionHours"`

	// completed on or before estimate / completed with an estimate
	OnTimeRate float64 `json:"onTimeRate"`
}

type EmployeeWorkload struct {
	Assignee string `json:"assignee"`
	Count    int    `json:"count"`
}
